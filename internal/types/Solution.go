/*

This file contains the solver output types. A Solution is handed to an
external settlement collaborator which re-derives the trade instructions and
score from the resolved intents alone and accepts only on an exact match.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// TradeInstruction is one trade leg sequence required to realize a resolved
// intent against the pools. Directly netted intents produce no instruction.
type TradeInstruction struct {
	IntentID  IntentID    `json:"intent_id"`
	AssetIn   AssetID     `json:"asset_in"`
	AssetOut  AssetID     `json:"asset_out"`
	AmountIn  sdkmath.Int `json:"amount_in"`
	AmountOut sdkmath.Int `json:"amount_out"`
	Route     []Hop       `json:"route"`
}

// ScoreDenominator is the score scale: 1_000_000 = 100% of intended volume
// resolved.
const ScoreDenominator = 1_000_000

// Solution is the settlement-ready result of one Solve call.
type Solution struct {
	ResolvedIntents   []ResolvedIntent   `json:"resolved_intents"`
	TradeInstructions []TradeInstruction `json:"trade_instructions"`
	Score             uint64             `json:"score"`
}
