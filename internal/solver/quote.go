/*

This file contains the route quoter used by the solver. It walks the hops the
registry produced for an asset pair and prices an amount through each pool
kind, applying the fee regime the snapshot carries: dynamic fees recomputed
from the oracle when fee parameters are present, static per-asset fees
otherwise. Recomputed fees are cached per asset so every probe of the binary
search prices against the same figures.

*/

package solver

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fees"
	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
	"github.com/hubdex-protocol/solvercore/internal/hubpool"
	"github.com/hubdex-protocol/solvercore/internal/registry"
	"github.com/hubdex-protocol/solvercore/internal/stableswap"
	"github.com/hubdex-protocol/solvercore/internal/types"
	"github.com/hubdex-protocol/solvercore/internal/xyk"
)

var (
	ErrUnknownPool     = errors.New("hop references unknown pool")
	ErrUnknownAsset    = errors.New("hop references unknown asset")
	ErrEmptyRoute      = errors.New("route has no hops")
	ErrUnknownPoolKind = errors.New("unknown pool kind in hop")
)

type assetFees struct {
	assetFee fixedpoint.Permill
	hubFee   fixedpoint.Permill
}

type quoter struct {
	reg      *registry.SnapshotRegistry
	snapshot types.PoolSnapshot
	feeCache map[types.AssetID]assetFees
}

func newQuoter(reg *registry.SnapshotRegistry) *quoter {
	return &quoter{
		reg:      reg,
		snapshot: reg.Snapshot(),
		feeCache: make(map[types.AssetID]assetFees),
	}
}

func (q *quoter) route(assetIn, assetOut types.AssetID) ([]types.Hop, error) {
	return q.reg.Route(assetIn, assetOut)
}

// outGivenIn prices amountIn through every hop of the route in order. The
// output of each hop feeds the next.
func (q *quoter) outGivenIn(route []types.Hop, amountIn sdkmath.Int) (sdkmath.Int, error) {
	if len(route) == 0 {
		return sdkmath.Int{}, ErrEmptyRoute
	}
	amount := amountIn
	for _, hop := range route {
		var err error
		switch hop.Kind {
		case types.PoolKindHub:
			amount, err = q.hubHopOut(hop, amount)
		case types.PoolKindStableswap:
			amount, err = q.stableswapHopOut(hop, amount)
		case types.PoolKindXYK:
			amount, err = q.xykHopOut(hop, amount)
		default:
			return sdkmath.Int{}, fmt.Errorf("%w: %s", ErrUnknownPoolKind, hop.Kind)
		}
		if err != nil {
			return sdkmath.Int{}, err
		}
	}
	return amount, nil
}

// hubHopOut prices a trade on the hub pool. One side of a hop may be the hub
// asset itself, in which case only the corresponding leg and its fee apply.
func (q *quoter) hubHopOut(hop types.Hop, amountIn sdkmath.Int) (sdkmath.Int, error) {
	hubID := q.snapshot.HubAssetID

	if hop.AssetIn == hubID {
		outAsset, err := q.hubAssetState(hop.AssetOut)
		if err != nil {
			return sdkmath.Int{}, err
		}
		outFees, err := q.effectiveFees(hop.AssetOut)
		if err != nil {
			return sdkmath.Int{}, err
		}
		changes, err := hubpool.CalculateSellHubAssetStateChanges(outAsset, amountIn, outFees.hubFee)
		if err != nil {
			return sdkmath.Int{}, err
		}
		return changes.AmountOut, nil
	}

	inAsset, err := q.hubAssetState(hop.AssetIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	inFees, err := q.effectiveFees(hop.AssetIn)
	if err != nil {
		return sdkmath.Int{}, err
	}

	if hop.AssetOut == hubID {
		changes, err := hubpool.CalculateSellToHubStateChanges(inAsset, amountIn, inFees.assetFee)
		if err != nil {
			return sdkmath.Int{}, err
		}
		return changes.AmountOut, nil
	}

	outAsset, err := q.hubAssetState(hop.AssetOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	outFees, err := q.effectiveFees(hop.AssetOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	changes, err := hubpool.CalculateSellStateChanges(
		inAsset, outAsset, amountIn, inFees.assetFee, outFees.hubFee)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return changes.AmountOut, nil
}

// stableswapHopOut prices a trade on a stableswap subpool. The pool fee is
// taken from the computed output.
func (q *quoter) stableswapHopOut(hop types.Hop, amountIn sdkmath.Int) (sdkmath.Int, error) {
	pool, ok := q.stableswapPool(hop.PoolID)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: stableswap pool %d", ErrUnknownPool, hop.PoolID)
	}
	idxIn, idxOut := -1, -1
	for i, asset := range pool.Assets {
		if asset == hop.AssetIn {
			idxIn = i
		}
		if asset == hop.AssetOut {
			idxOut = i
		}
	}
	if idxIn < 0 || idxOut < 0 {
		return sdkmath.Int{}, fmt.Errorf("%w: asset not in stableswap pool %d", ErrUnknownAsset, hop.PoolID)
	}

	out, err := stableswap.CalculateOutGivenIn(
		pool.Reserves, pool.Decimals, idxIn, idxOut, amountIn, pool.Amplification)
	if err != nil {
		return sdkmath.Int{}, err
	}
	fee, err := pool.Fee.MulBalance(out, fixedpoint.RoundUp)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return out.Sub(fee), nil
}

// xykHopOut prices a trade on a constant-product pair. The fee is taken from
// the input before it enters the curve.
func (q *quoter) xykHopOut(hop types.Hop, amountIn sdkmath.Int) (sdkmath.Int, error) {
	pool, ok := q.xykPool(hop.PoolID)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: xyk pool %d", ErrUnknownPool, hop.PoolID)
	}

	var reserveIn, reserveOut sdkmath.Int
	switch {
	case hop.AssetIn == pool.AssetA && hop.AssetOut == pool.AssetB:
		reserveIn, reserveOut = pool.ReserveA, pool.ReserveB
	case hop.AssetIn == pool.AssetB && hop.AssetOut == pool.AssetA:
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	default:
		return sdkmath.Int{}, fmt.Errorf("%w: asset pair not in xyk pool %d", ErrUnknownAsset, hop.PoolID)
	}

	feeAmount, err := pool.Fee.MulBalance(amountIn, fixedpoint.RoundUp)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return xyk.CalculateOutGivenIn(reserveIn, reserveOut, amountIn.Sub(feeAmount))
}

func (q *quoter) hubAssetState(assetID types.AssetID) (hubpool.AssetState, error) {
	info, ok := q.snapshot.HubAsset(assetID)
	if !ok {
		return hubpool.AssetState{}, fmt.Errorf("%w: asset %d not on hub pool", ErrUnknownAsset, assetID)
	}
	return hubpool.AssetState{Reserve: info.Reserve, HubReserve: info.HubReserve}, nil
}

func (q *quoter) stableswapPool(poolID types.PoolID) (types.StableswapPool, bool) {
	for _, p := range q.snapshot.Stableswap {
		if p.ID == poolID {
			return p, true
		}
	}
	return types.StableswapPool{}, false
}

func (q *quoter) xykPool(poolID types.PoolID) (types.XYKPool, bool) {
	for _, p := range q.snapshot.XYKPairs {
		if p.ID == poolID {
			return p, true
		}
	}
	return types.XYKPool{}, false
}

// effectiveFees yields the asset and protocol fee for a hub pool asset. When
// the snapshot carries fee parameters and an oracle entry for the asset both
// fees are recomputed from recent flow; otherwise the static snapshot fees
// apply as-is.
func (q *quoter) effectiveFees(assetID types.AssetID) (assetFees, error) {
	if cached, ok := q.feeCache[assetID]; ok {
		return cached, nil
	}

	info, ok := q.snapshot.HubAsset(assetID)
	if !ok {
		return assetFees{}, fmt.Errorf("%w: asset %d not on hub pool", ErrUnknownAsset, assetID)
	}
	result := assetFees{assetFee: info.Fee, hubFee: info.HubFee}

	oracle, hasOracle := q.snapshot.Oracle(assetID)
	if q.snapshot.FeeParams != nil && hasOracle {
		result = assetFees{
			assetFee: fees.RecalculateAssetFee(
				oracle.Volume, fixedpoint.Permill(oracle.PreviousAssetFee),
				oracle.BlocksElapsed, *q.snapshot.FeeParams),
			hubFee: fees.RecalculateProtocolFee(
				oracle.Volume, fixedpoint.Permill(oracle.PreviousProtocolFee),
				oracle.BlocksElapsed, *q.snapshot.FeeParams),
		}
	}

	q.feeCache[assetID] = result
	return result, nil
}
