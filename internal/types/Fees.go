/*

This file contains the dynamic fee engine inputs: the externally configured
fee bounds and the rolling volume aggregate observed for an asset.

*/

package types

import (
	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
)

// FeeParams bounds and shapes the dynamic fee recomputation. Externally
// configured, read-only to the fee engine.
type FeeParams struct {
	MinFee        fixedpoint.Permill `json:"min_fee"`
	MaxFee        fixedpoint.Permill `json:"max_fee"`
	Amplification sdkmath.LegacyDec  `json:"amplification"`
	Decay         sdkmath.LegacyDec  `json:"decay"`
}

// Validate checks internal consistency of the fee bounds.
func (p FeeParams) Validate() error {
	if p.MinFee > p.MaxFee {
		return ErrInvalidFeeParams
	}
	if p.Amplification.IsNil() || p.Amplification.IsNegative() {
		return ErrInvalidFeeParams
	}
	if p.Decay.IsNil() || p.Decay.IsNegative() || p.Decay.GT(sdkmath.LegacyOneDec()) {
		return ErrInvalidFeeParams
	}
	return nil
}

// OracleEntry is a trade-volume aggregate over the fee lookback window.
type OracleEntry struct {
	AmountIn  sdkmath.Int `json:"amount_in"`
	AmountOut sdkmath.Int `json:"amount_out"`
	Liquidity sdkmath.Int `json:"liquidity"`
}
