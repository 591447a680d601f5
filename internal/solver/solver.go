/*

This file contains the intent batch solver. Given a batch of pending intents
and an immutable pool snapshot it produces a settlement-ready Solution:
resolved intents, the trade instructions realizing them, and a score.

Per intent the state machine is Pending -> Resolved(full) | Resolved(partial)
| Excluded(reason); all terminal. Math errors and missing assets exclude the
one intent and the batch continues; a structurally invalid snapshot aborts
the whole call.

The function is deterministic: identical (intents in order, snapshot) inputs
produce byte-identical Solutions. The external settlement collaborator
re-derives instructions and score from the resolved intents alone and accepts
only on exact equality, so instruction building is routed through the same
DeriveInstructions path the collaborator uses.

*/

package solver

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
	"github.com/hubdex-protocol/solvercore/internal/logger"
	"github.com/hubdex-protocol/solvercore/internal/registry"
	"github.com/hubdex-protocol/solvercore/internal/types"
)

var solveLogger = logger.GetForComponent("intent_solver")

var (
	ErrDuplicateIntentID = errors.New("duplicate intent id in batch")
)

// maxPartialSearchIterations caps the binary search for the largest viable
// partial fill. 64 halvings cover the whole 128-bit amount range.
const maxPartialSearchIterations = 64

type intentStatus uint8

const (
	statusPending intentStatus = iota
	statusResolvedFull
	statusResolvedPartial
	statusResolvedNetted
	statusExcluded
)

type intentState struct {
	id       types.IntentID
	intent   types.Intent
	status   intentStatus
	reason   types.ExclusionReason
	resolved types.ResolvedIntent
	route    []types.Hop
}

// Solve resolves a batch of intents against a snapshot of pool liquidity.
// Intents are processed in input order; exact inverse pairs are netted
// directly before any residual is routed through the curves.
func Solve(intents []types.IntentWithID, pools types.PoolSnapshot) (types.Solution, error) {
	reg, err := registry.New(pools)
	if err != nil {
		solveLogger.Error().Err(err).Msg("Snapshot validation failed, aborting solve")
		return types.Solution{}, err
	}

	states, err := initStates(intents)
	if err != nil {
		return types.Solution{}, err
	}

	quoter := newQuoter(reg)

	excludeUnroutable(states, pools)
	netExactInverses(states)

	for i := range states {
		st := &states[i]
		if st.status != statusPending {
			continue
		}
		resolveOne(st, quoter)
	}

	resolved := collectResolved(states)
	instructions, score, err := DeriveInstructions(intents, pools, resolved)
	if err != nil {
		// Derivation re-runs routing and validation already performed
		// above, so a failure here is a solver defect, not bad input.
		solveLogger.Error().Err(err).Msg("Instruction derivation failed on own resolution set")
		return types.Solution{}, err
	}

	solveLogger.Info().
		Int("intents", len(intents)).
		Int("resolved", len(resolved)).
		Int("instructions", len(instructions)).
		Uint64("score", score).
		Msg("Solve completed")

	return types.Solution{
		ResolvedIntents:   resolved,
		TradeInstructions: instructions,
		Score:             score,
	}, nil
}

// initStates validates batch-level intent integrity and seeds the state
// machine. Per-intent field problems are exclusions, not errors.
func initStates(intents []types.IntentWithID) ([]intentState, error) {
	seen := make(map[types.IntentID]struct{}, len(intents))
	states := make([]intentState, len(intents))
	for i, in := range intents {
		if _, dup := seen[in.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateIntentID, in.ID)
		}
		seen[in.ID] = struct{}{}
		states[i] = intentState{id: in.ID, intent: in.Intent, status: statusPending}

		if !validIntent(in.Intent) {
			exclude(&states[i], types.ExcludedInvalidIntent)
		}
	}
	return states, nil
}

func validIntent(in types.Intent) bool {
	if in.AssetIn == in.AssetOut {
		return false
	}
	if in.AmountIn.IsNil() || !in.AmountIn.IsPositive() || fixedpoint.CheckBalance(in.AmountIn) != nil {
		return false
	}
	if in.AmountOut.IsNil() || !in.AmountOut.IsPositive() || fixedpoint.CheckBalance(in.AmountOut) != nil {
		return false
	}
	return true
}

// excludeUnroutable drops intents whose deadline passed with the snapshot or
// whose assets are absent from the snapshot universe. The batch continues.
func excludeUnroutable(states []intentState, pools types.PoolSnapshot) {
	for i := range states {
		st := &states[i]
		if st.status != statusPending {
			continue
		}
		if pools.Timestamp > 0 && st.intent.Deadline > 0 && st.intent.Deadline < pools.Timestamp {
			exclude(st, types.ExcludedDeadlineExpired)
			continue
		}
		if !pools.HasAsset(st.intent.AssetIn) || !pools.HasAsset(st.intent.AssetOut) {
			exclude(st, types.ExcludedAssetNotFound)
		}
	}
}

// netExactInverses pairs pending intents that are exact inverses on the same
// asset pair and resolves both fully with no pool trade, minimizing fee
// leakage. Matching is greedy in input order, which DeriveInstructions
// reproduces from the resolved set alone.
func netExactInverses(states []intentState) {
	for i := range states {
		if states[i].status != statusPending {
			continue
		}
		for j := i + 1; j < len(states); j++ {
			if states[j].status != statusPending {
				continue
			}
			if !exactInverse(states[i].intent, states[j].intent) {
				continue
			}
			resolveFully(&states[i], statusResolvedNetted)
			resolveFully(&states[j], statusResolvedNetted)
			solveLogger.Debug().
				Uint64("intentA", uint64(states[i].id)).
				Uint64("intentB", uint64(states[j].id)).
				Msg("Netted exact inverse intents directly")
			break
		}
	}
}

func exactInverse(a, b types.Intent) bool {
	return a.AssetIn == b.AssetOut &&
		a.AssetOut == b.AssetIn &&
		a.AmountIn.Equal(b.AmountOut) &&
		a.AmountOut.Equal(b.AmountIn)
}

// resolveOne quotes a single pending intent through the curves and settles
// its terminal state.
func resolveOne(st *intentState, q *quoter) {
	route, err := q.route(st.intent.AssetIn, st.intent.AssetOut)
	if err != nil {
		exclude(st, types.ExcludedAssetNotFound)
		return
	}
	st.route = route

	quoted, err := q.outGivenIn(route, st.intent.AmountIn)
	if err != nil {
		solveLogger.Debug().
			Uint64("intent", uint64(st.id)).
			Err(err).
			Msg("Quote failed, excluding intent")
		exclude(st, types.ExcludedMathError)
		return
	}

	if quoted.GTE(st.intent.AmountOut) {
		resolveFully(st, statusResolvedFull)
		return
	}

	if !st.intent.Partial {
		exclude(st, types.ExcludedLimitNotMet)
		return
	}

	amountIn, amountOut, ok := maxViableFill(st.intent, q, route)
	if !ok {
		exclude(st, types.ExcludedLimitNotMet)
		return
	}
	st.status = statusResolvedPartial
	st.resolved = types.ResolvedIntent{IntentID: st.id, AmountIn: amountIn, AmountOut: amountOut}
}

// maxViableFill binary-searches the largest sub-amount whose quote still
// beats the intent's limit price. Quote errors count as infeasible so an
// overflowing probe shrinks the window instead of failing the intent.
func maxViableFill(intent types.Intent, q *quoter, route []types.Hop) (sdkmath.Int, sdkmath.Int, bool) {
	lo := sdkmath.OneInt()
	hi := intent.AmountIn
	best := sdkmath.ZeroInt()
	two := sdkmath.NewInt(2)

	for i := 0; i < maxPartialSearchIterations && lo.LTE(hi); i++ {
		mid := lo.Add(hi).Quo(two)
		if fillViable(intent, q, route, mid) {
			best = mid
			lo = mid.Add(sdkmath.OneInt())
		} else {
			hi = mid.Sub(sdkmath.OneInt())
		}
	}

	if best.IsZero() {
		return sdkmath.Int{}, sdkmath.Int{}, false
	}
	out := limitOut(intent, best)
	if out.IsZero() {
		// Anything this small is dust below the limit price resolution.
		return sdkmath.Int{}, sdkmath.Int{}, false
	}
	return best, out, true
}

func fillViable(intent types.Intent, q *quoter, route []types.Hop, amountIn sdkmath.Int) bool {
	quoted, err := q.outGivenIn(route, amountIn)
	if err != nil {
		return false
	}
	return quoted.GTE(limitOut(intent, amountIn))
}

// limitOut prices a sub-amount at the intent's own limit, rounded down.
func limitOut(intent types.Intent, amountIn sdkmath.Int) sdkmath.Int {
	out, err := fixedpoint.MulDiv(amountIn, intent.AmountOut, intent.AmountIn, fixedpoint.RoundDown)
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return out
}

func resolveFully(st *intentState, status intentStatus) {
	st.status = status
	st.resolved = types.ResolvedIntent{
		IntentID:  st.id,
		AmountIn:  st.intent.AmountIn,
		AmountOut: st.intent.AmountOut,
	}
}

func exclude(st *intentState, reason types.ExclusionReason) {
	st.status = statusExcluded
	st.reason = reason
}

func collectResolved(states []intentState) []types.ResolvedIntent {
	out := make([]types.ResolvedIntent, 0, len(states))
	for _, st := range states {
		switch st.status {
		case statusResolvedFull, statusResolvedPartial, statusResolvedNetted:
			out = append(out, st.resolved)
		case statusExcluded:
			solveLogger.Debug().
				Uint64("intent", uint64(st.id)).
				Str("reason", string(st.reason)).
				Msg("Intent excluded from solution")
		}
	}
	return out
}
