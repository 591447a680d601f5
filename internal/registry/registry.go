/*

This file contains the pool registry: the capability interfaces the solver
consumes (PoolInfo provider, Router) and an in-memory implementation of both
over a single immutable PoolSnapshot. Routing is deterministic; when several
routes exist, snapshot declaration order decides.

*/

package registry

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
	"github.com/hubdex-protocol/solvercore/internal/types"
)

var (
	ErrNoRoute     = errors.New("no route between assets")
	ErrSelfRoute   = errors.New("asset cannot be routed to itself")
	ErrNilProvider = errors.New("pool info provider is nil")
)

// PoolInfoProvider supplies the asset universe the solver may trade against.
// Implemented off-core by the chain-state collaborator; called once per solve
// to build the snapshot.
type PoolInfoProvider interface {
	Assets(filter []types.AssetID) ([]types.AssetInfo, error)
}

// Router resolves an ordered list of pool hops between two assets when no
// direct pool exists.
type Router interface {
	Route(assetIn, assetOut types.AssetID) ([]types.Hop, error)
}

// SnapshotRegistry indexes one PoolSnapshot and serves both capability
// interfaces from it. It never mutates the snapshot.
type SnapshotRegistry struct {
	snapshot types.PoolSnapshot
	hubIndex map[types.AssetID]int
}

// New validates the snapshot's structural integrity and builds the index.
// Structural defects are hard errors wrapping types.ErrInvalidSnapshot.
func New(snapshot types.PoolSnapshot) (*SnapshotRegistry, error) {
	if snapshot.IsEmpty() {
		return nil, fmt.Errorf("%w: snapshot carries no liquidity", types.ErrInvalidSnapshot)
	}

	hubIndex := make(map[types.AssetID]int, len(snapshot.HubAssets))
	for i, a := range snapshot.HubAssets {
		if a.AssetID == snapshot.HubAssetID {
			return nil, fmt.Errorf("%w: hub asset %d listed as tradable", types.ErrInvalidSnapshot, a.AssetID)
		}
		if _, dup := hubIndex[a.AssetID]; dup {
			return nil, fmt.Errorf("%w: duplicate hub-pool asset %d", types.ErrInvalidSnapshot, a.AssetID)
		}
		if err := validateBalances(a.Reserve, a.HubReserve); err != nil {
			return nil, fmt.Errorf("%w: asset %d: %v", types.ErrInvalidSnapshot, a.AssetID, err)
		}
		if a.Fee > fixedpoint.PermillDenominator || a.HubFee > fixedpoint.PermillDenominator {
			return nil, fmt.Errorf("%w: asset %d fee out of permill range", types.ErrInvalidSnapshot, a.AssetID)
		}
		hubIndex[a.AssetID] = i
	}

	for _, p := range snapshot.Stableswap {
		if len(p.Assets) < 2 || len(p.Assets) != len(p.Reserves) || len(p.Assets) != len(p.Decimals) {
			return nil, fmt.Errorf("%w: stableswap pool %d dimensions", types.ErrInvalidSnapshot, p.ID)
		}
		if p.Amplification == 0 {
			return nil, fmt.Errorf("%w: stableswap pool %d amplification", types.ErrInvalidSnapshot, p.ID)
		}
		if err := validateBalances(p.Reserves...); err != nil {
			return nil, fmt.Errorf("%w: stableswap pool %d: %v", types.ErrInvalidSnapshot, p.ID, err)
		}
	}

	for _, p := range snapshot.XYKPairs {
		if p.AssetA == p.AssetB {
			return nil, fmt.Errorf("%w: xyk pool %d is degenerate", types.ErrInvalidSnapshot, p.ID)
		}
		if err := validateBalances(p.ReserveA, p.ReserveB); err != nil {
			return nil, fmt.Errorf("%w: xyk pool %d: %v", types.ErrInvalidSnapshot, p.ID, err)
		}
	}

	return &SnapshotRegistry{snapshot: snapshot, hubIndex: hubIndex}, nil
}

// Snapshot returns the indexed snapshot.
func (r *SnapshotRegistry) Snapshot() types.PoolSnapshot {
	return r.snapshot
}

// Assets implements PoolInfoProvider over the snapshot's hub-pool universe.
// A nil filter returns every listed asset.
func (r *SnapshotRegistry) Assets(filter []types.AssetID) ([]types.AssetInfo, error) {
	if filter == nil {
		out := make([]types.AssetInfo, len(r.snapshot.HubAssets))
		copy(out, r.snapshot.HubAssets)
		return out, nil
	}
	out := make([]types.AssetInfo, 0, len(filter))
	for _, id := range filter {
		info, ok := r.snapshot.HubAsset(id)
		if !ok {
			return nil, fmt.Errorf("%w: asset %d", types.ErrAssetNotFound, id)
		}
		out = append(out, info)
	}
	return out, nil
}

// Route implements Router: direct pool first, then one intermediate asset,
// at most two hops.
func (r *SnapshotRegistry) Route(assetIn, assetOut types.AssetID) ([]types.Hop, error) {
	if assetIn == assetOut {
		return nil, ErrSelfRoute
	}

	if hop, ok := r.directHop(assetIn, assetOut); ok {
		return []types.Hop{hop}, nil
	}

	for _, n := range r.neighbors(assetIn) {
		if n.asset == assetOut {
			continue
		}
		if second, ok := r.directHop(n.asset, assetOut); ok {
			return []types.Hop{n.hop, second}, nil
		}
	}

	return nil, fmt.Errorf("%w: %d -> %d", ErrNoRoute, assetIn, assetOut)
}

// directHop finds a single-pool traversal between two assets.
func (r *SnapshotRegistry) directHop(assetIn, assetOut types.AssetID) (types.Hop, bool) {
	if r.onHubPool(assetIn) && r.onHubPool(assetOut) {
		return types.Hop{Kind: types.PoolKindHub, AssetIn: assetIn, AssetOut: assetOut}, true
	}
	for _, p := range r.snapshot.Stableswap {
		if containsAsset(p.Assets, assetIn) && containsAsset(p.Assets, assetOut) {
			return types.Hop{Kind: types.PoolKindStableswap, PoolID: p.ID, AssetIn: assetIn, AssetOut: assetOut}, true
		}
	}
	for _, p := range r.snapshot.XYKPairs {
		if (p.AssetA == assetIn && p.AssetB == assetOut) || (p.AssetB == assetIn && p.AssetA == assetOut) {
			return types.Hop{Kind: types.PoolKindXYK, PoolID: p.ID, AssetIn: assetIn, AssetOut: assetOut}, true
		}
	}
	return types.Hop{}, false
}

type neighbor struct {
	asset types.AssetID
	hop   types.Hop
}

// neighbors enumerates single-hop destinations from an asset in snapshot
// declaration order. Hub-pool membership contributes every co-member, each
// reachable through one composed hub hop.
func (r *SnapshotRegistry) neighbors(asset types.AssetID) []neighbor {
	var out []neighbor
	if r.onHubPool(asset) {
		for _, a := range r.snapshot.HubAssets {
			if a.AssetID == asset {
				continue
			}
			out = append(out, neighbor{
				asset: a.AssetID,
				hop:   types.Hop{Kind: types.PoolKindHub, AssetIn: asset, AssetOut: a.AssetID},
			})
		}
	}
	for _, p := range r.snapshot.Stableswap {
		if !containsAsset(p.Assets, asset) {
			continue
		}
		for _, other := range p.Assets {
			if other == asset {
				continue
			}
			out = append(out, neighbor{
				asset: other,
				hop:   types.Hop{Kind: types.PoolKindStableswap, PoolID: p.ID, AssetIn: asset, AssetOut: other},
			})
		}
	}
	for _, p := range r.snapshot.XYKPairs {
		var other types.AssetID
		switch asset {
		case p.AssetA:
			other = p.AssetB
		case p.AssetB:
			other = p.AssetA
		default:
			continue
		}
		out = append(out, neighbor{
			asset: other,
			hop:   types.Hop{Kind: types.PoolKindXYK, PoolID: p.ID, AssetIn: asset, AssetOut: other},
		})
	}
	return out
}

// onHubPool reports whether an asset participates in the hub-mediated pool,
// the hub asset included.
func (r *SnapshotRegistry) onHubPool(asset types.AssetID) bool {
	if asset == r.snapshot.HubAssetID {
		return len(r.snapshot.HubAssets) > 0
	}
	_, ok := r.hubIndex[asset]
	return ok
}

// BuildSnapshot assembles a hub-pool snapshot from an external provider,
// called once per solve.
func BuildSnapshot(provider PoolInfoProvider, hubAssetID types.AssetID, filter []types.AssetID) (types.PoolSnapshot, error) {
	if provider == nil {
		return types.PoolSnapshot{}, ErrNilProvider
	}
	assets, err := provider.Assets(filter)
	if err != nil {
		return types.PoolSnapshot{}, err
	}
	snapshot := types.PoolSnapshot{HubAssetID: hubAssetID, HubAssets: assets}
	if _, err := New(snapshot); err != nil {
		return types.PoolSnapshot{}, err
	}
	return snapshot, nil
}

func containsAsset(assets []types.AssetID, id types.AssetID) bool {
	for _, a := range assets {
		if a == id {
			return true
		}
	}
	return false
}

func validateBalances(balances ...sdkmath.Int) error {
	for _, b := range balances {
		if b.IsNil() || b.IsZero() {
			return errors.New("reserve must be positive")
		}
		if err := fixedpoint.CheckBalance(b); err != nil {
			return err
		}
	}
	return nil
}
