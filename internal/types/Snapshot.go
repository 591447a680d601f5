/*

This file contains the immutable per-solve view of pool liquidity. A snapshot
is assembled once per Solve call and never mutated; the solver performs no
ambient state reads.

*/

package types

// AssetOracle carries the rolling trade-volume aggregate the dynamic fee
// engine recomputes per-asset fees from. When a snapshot carries no oracle
// entry for an asset, the static fees on its AssetInfo are used as-is.
type AssetOracle struct {
	AssetID             AssetID     `json:"asset_id"`
	Volume              OracleEntry `json:"volume"`
	PreviousAssetFee    uint32      `json:"previous_asset_fee"`    // ppm
	PreviousProtocolFee uint32      `json:"previous_protocol_fee"` // ppm
	BlocksElapsed       uint64      `json:"blocks_elapsed"`
}

// PoolSnapshot is the full liquidity universe one Solve call may touch.
type PoolSnapshot struct {
	// HubAssetID is the shared accounting unit of the hub-mediated pool.
	HubAssetID AssetID `json:"hub_asset_id"`

	// Timestamp is the unix time the snapshot was taken at, used only for
	// intent deadline checks. Zero disables the check so the math core
	// stays clock-free.
	Timestamp uint64 `json:"timestamp,omitempty"`

	HubAssets  []AssetInfo      `json:"hub_assets"`
	Stableswap []StableswapPool `json:"stableswap,omitempty"`
	XYKPairs   []XYKPool        `json:"xyk_pairs,omitempty"`

	// Dynamic fee inputs, optional.
	FeeParams *FeeParams    `json:"fee_params,omitempty"`
	FeeOracle []AssetOracle `json:"fee_oracle,omitempty"`
}

// IsEmpty reports whether the snapshot carries no liquidity at all.
func (s PoolSnapshot) IsEmpty() bool {
	return len(s.HubAssets) == 0 && len(s.Stableswap) == 0 && len(s.XYKPairs) == 0
}

// HubAsset returns the hub-mediated state for an asset, if listed.
func (s PoolSnapshot) HubAsset(id AssetID) (AssetInfo, bool) {
	for _, a := range s.HubAssets {
		if a.AssetID == id {
			return a, true
		}
	}
	return AssetInfo{}, false
}

// Oracle returns the fee-oracle entry for an asset, if present.
func (s PoolSnapshot) Oracle(id AssetID) (AssetOracle, bool) {
	for _, o := range s.FeeOracle {
		if o.AssetID == id {
			return o, true
		}
	}
	return AssetOracle{}, false
}

// HasAsset reports whether an asset appears anywhere in the snapshot,
// including as a stableswap or constant-product leg.
func (s PoolSnapshot) HasAsset(id AssetID) bool {
	if id == s.HubAssetID && len(s.HubAssets) > 0 {
		return true
	}
	if _, ok := s.HubAsset(id); ok {
		return true
	}
	for _, p := range s.Stableswap {
		for _, a := range p.Assets {
			if a == id {
				return true
			}
		}
	}
	for _, p := range s.XYKPairs {
		if p.AssetA == id || p.AssetB == id {
			return true
		}
	}
	return false
}
