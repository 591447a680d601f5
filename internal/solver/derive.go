/*

This file contains the settlement-side derivation: trade instructions and the
batch score recomputed from the original intents, the snapshot and a resolved
set alone. The settlement collaborator runs this against a proposed Solution
and accepts only when the derived instructions and score match exactly, so
Solve builds its own Solution through the same function.

*/

package solver

import (
	"errors"
	"fmt"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
	"github.com/hubdex-protocol/solvercore/internal/registry"
	"github.com/hubdex-protocol/solvercore/internal/types"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrUnknownResolvedIntent = errors.New("resolved intent not in batch")
	ErrResolvedOverfill      = errors.New("resolved amount exceeds intent amount")
	ErrInvalidResolvedAmount = errors.New("resolved amount is nil or negative")
)

// DeriveInstructions recomputes the trade instructions and score implied by a
// resolved set. Fully filled exact-inverse pairs are matched greedily in
// resolution order and settle directly with no pool trade; every other
// resolved intent routes through the snapshot. Directly netted pairs are
// recovered here without extra bookkeeping because an exact inverse pair that
// is fully filled is netted before quoting in Solve, so both passes pair the
// same intents.
func DeriveInstructions(
	intents []types.IntentWithID,
	pools types.PoolSnapshot,
	resolved []types.ResolvedIntent,
) ([]types.TradeInstruction, uint64, error) {
	byID := make(map[types.IntentID]types.Intent, len(intents))
	for _, in := range intents {
		byID[in.ID] = in.Intent
	}

	for _, r := range resolved {
		intent, ok := byID[r.IntentID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %d", ErrUnknownResolvedIntent, r.IntentID)
		}
		if r.AmountIn.IsNil() || r.AmountIn.IsNegative() ||
			r.AmountOut.IsNil() || r.AmountOut.IsNegative() {
			return nil, 0, fmt.Errorf("%w: %d", ErrInvalidResolvedAmount, r.IntentID)
		}
		if r.AmountIn.GT(intent.AmountIn) || r.AmountOut.GT(intent.AmountOut) {
			return nil, 0, fmt.Errorf("%w: %d", ErrResolvedOverfill, r.IntentID)
		}
	}

	netted := matchNettedPairs(byID, resolved)

	var instructions []types.TradeInstruction
	var reg *registry.SnapshotRegistry
	for _, r := range resolved {
		if netted[r.IntentID] {
			continue
		}
		if reg == nil {
			var err error
			reg, err = registry.New(pools)
			if err != nil {
				return nil, 0, err
			}
		}
		intent := byID[r.IntentID]
		route, err := reg.Route(intent.AssetIn, intent.AssetOut)
		if err != nil {
			return nil, 0, err
		}
		instructions = append(instructions, types.TradeInstruction{
			IntentID:  r.IntentID,
			AssetIn:   intent.AssetIn,
			AssetOut:  intent.AssetOut,
			AmountIn:  r.AmountIn,
			AmountOut: r.AmountOut,
			Route:     route,
		})
	}

	score, err := computeScore(intents, byID, resolved)
	if err != nil {
		return nil, 0, err
	}
	return instructions, score, nil
}

// matchNettedPairs pairs fully filled resolved intents that are exact
// inverses, greedily in resolution order.
func matchNettedPairs(byID map[types.IntentID]types.Intent, resolved []types.ResolvedIntent) map[types.IntentID]bool {
	netted := make(map[types.IntentID]bool)
	for i, a := range resolved {
		if netted[a.IntentID] || !fullyFilled(byID[a.IntentID], a) {
			continue
		}
		for _, b := range resolved[i+1:] {
			if netted[b.IntentID] || !fullyFilled(byID[b.IntentID], b) {
				continue
			}
			if !exactInverse(byID[a.IntentID], byID[b.IntentID]) {
				continue
			}
			netted[a.IntentID] = true
			netted[b.IntentID] = true
			break
		}
	}
	return netted
}

func fullyFilled(intent types.Intent, r types.ResolvedIntent) bool {
	return r.AmountIn.Equal(intent.AmountIn) && r.AmountOut.Equal(intent.AmountOut)
}

// computeScore averages the resolved share of intended input volume over the
// whole batch, in parts per million. Excluded intents contribute zero.
func computeScore(intents []types.IntentWithID, byID map[types.IntentID]types.Intent, resolved []types.ResolvedIntent) (uint64, error) {
	if len(intents) == 0 {
		return 0, nil
	}
	denom := sdkmath.NewInt(types.ScoreDenominator)
	sum := sdkmath.ZeroInt()
	for _, r := range resolved {
		intent := byID[r.IntentID]
		share, err := fixedpoint.MulDiv(r.AmountIn, denom, intent.AmountIn, fixedpoint.RoundDown)
		if err != nil {
			return 0, err
		}
		sum = sum.Add(share)
	}
	return sum.Quo(sdkmath.NewInt(int64(len(intents)))).Uint64(), nil
}
