/*

This is a custom type for assets which contains all the state the solver needs
from a single hub-mediated pool position.

*/

package types

import (
	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
)

// AssetID identifies an asset in the pool universe.
type AssetID uint32

// PoolID identifies a stableswap group or constant-product pair.
type PoolID uint64

// AssetInfo is the per-asset view of the hub-mediated pool: the asset reserve,
// the hub-asset reserve backing it, native decimal precision and the two fee
// components currently in force.
type AssetInfo struct {
	AssetID    AssetID            `json:"asset_id"`
	Reserve    sdkmath.Int        `json:"reserve"`
	HubReserve sdkmath.Int        `json:"hub_reserve"`
	Decimals   uint8              `json:"decimals"`
	Fee        fixedpoint.Permill `json:"fee"`     // asset-leg fee, ppm
	HubFee     fixedpoint.Permill `json:"hub_fee"` // protocol fee on the hub leg, ppm
}

// StableswapPool is a snapshot of one multi-asset stableswap group.
type StableswapPool struct {
	ID            PoolID             `json:"id"`
	Assets        []AssetID          `json:"assets"`
	Reserves      []sdkmath.Int      `json:"reserves"`
	Decimals      []uint8            `json:"decimals"`
	Amplification uint64             `json:"amplification"`
	Fee           fixedpoint.Permill `json:"fee"`
}

// XYKPool is a snapshot of one constant-product pair.
type XYKPool struct {
	ID       PoolID             `json:"id"`
	AssetA   AssetID            `json:"asset_a"`
	AssetB   AssetID            `json:"asset_b"`
	ReserveA sdkmath.Int        `json:"reserve_a"`
	ReserveB sdkmath.Int        `json:"reserve_b"`
	Fee      fixedpoint.Permill `json:"fee"`
}

// PoolKind distinguishes the curve family a trade hop executes against.
type PoolKind string

const (
	PoolKindHub        PoolKind = "HUB"
	PoolKindStableswap PoolKind = "STABLESWAP"
	PoolKindXYK        PoolKind = "XYK"
)

// Hop is one pool traversal inside a route. PoolID is zero for hub hops; the
// hub pool is a singleton.
type Hop struct {
	Kind     PoolKind `json:"kind"`
	PoolID   PoolID   `json:"pool_id,omitempty"`
	AssetIn  AssetID  `json:"asset_in"`
	AssetOut AssetID  `json:"asset_out"`
}
