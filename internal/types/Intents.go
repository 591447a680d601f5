/*

This file contains the intent types: a user's request to swap one asset for
another, and the concrete resolution the solver assigns to it.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// IntentID identifies a submitted intent.
type IntentID uint64

// Intent is a pending swap request. AmountIn and AmountOut together define the
// intent's limit price; Partial grants permission to fill below AmountIn.
type Intent struct {
	AssetIn   AssetID     `json:"asset_in"`
	AssetOut  AssetID     `json:"asset_out"`
	AmountIn  sdkmath.Int `json:"amount_in"`
	AmountOut sdkmath.Int `json:"amount_out"`
	Partial   bool        `json:"partial"`
	Deadline  uint64      `json:"deadline"` // unix time; 0 = no deadline
}

// IntentWithID pairs an intent with its identifier for batch submission.
type IntentWithID struct {
	ID     IntentID `json:"id"`
	Intent Intent   `json:"intent"`
}

// ResolvedIntent is the amount pair the solver assigns to an accepted intent.
// AmountIn never exceeds the intent's AmountIn, and equals it for non-partial
// intents; AmountOut is priced at the intent's own limit.
type ResolvedIntent struct {
	IntentID  IntentID    `json:"intent_id"`
	AmountIn  sdkmath.Int `json:"amount_in"`
	AmountOut sdkmath.Int `json:"amount_out"`
}

// ExclusionReason explains why an intent reached a terminal Excluded state.
type ExclusionReason string

const (
	ExcludedAssetNotFound   ExclusionReason = "ASSET_NOT_FOUND"
	ExcludedLimitNotMet     ExclusionReason = "LIMIT_NOT_MET"
	ExcludedMathError       ExclusionReason = "MATH_ERROR"
	ExcludedDeadlineExpired ExclusionReason = "DEADLINE_EXPIRED"
	ExcludedInvalidIntent   ExclusionReason = "INVALID_INTENT"
)
