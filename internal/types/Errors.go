package types

import "errors"

// Shared error taxonomy. Per-intent math failures and missing-asset conditions
// are recovered locally as intent exclusions; structural snapshot errors are
// hard errors that abort the Solve call.
var (
	ErrAssetNotFound    = errors.New("asset not found in snapshot")
	ErrInvalidSnapshot  = errors.New("structurally invalid pool snapshot")
	ErrInvalidFeeParams = errors.New("invalid fee parameters")
)
