package registry

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
	"github.com/hubdex-protocol/solvercore/internal/types"
)

const (
	hubID  = types.AssetID(0)
	assetA = types.AssetID(1)
	assetB = types.AssetID(2)
	assetC = types.AssetID(10) // stableswap only
	assetD = types.AssetID(20) // xyk only
	assetE = types.AssetID(99) // not in snapshot
)

func testSnapshot() types.PoolSnapshot {
	return types.PoolSnapshot{
		HubAssetID: hubID,
		HubAssets: []types.AssetInfo{
			{AssetID: assetA, Reserve: sdkmath.NewInt(1_000_000), HubReserve: sdkmath.NewInt(2_000_000), Decimals: 6},
			{AssetID: assetB, Reserve: sdkmath.NewInt(3_000_000), HubReserve: sdkmath.NewInt(1_500_000), Decimals: 6},
		},
		Stableswap: []types.StableswapPool{{
			ID:            7,
			Assets:        []types.AssetID{assetB, assetC},
			Reserves:      []sdkmath.Int{sdkmath.NewInt(5_000_000), sdkmath.NewInt(5_000_000)},
			Decimals:      []uint8{6, 6},
			Amplification: 100,
		}},
		XYKPairs: []types.XYKPool{{
			ID:       9,
			AssetA:   assetA,
			AssetB:   assetD,
			ReserveA: sdkmath.NewInt(1_000_000),
			ReserveB: sdkmath.NewInt(4_000_000),
		}},
	}
}

func TestNewValidSnapshot(t *testing.T) {
	reg, err := New(testSnapshot())
	require.NoError(t, err)
	require.NotNil(t, reg)
}

func TestNewRejectsEmptySnapshot(t *testing.T) {
	_, err := New(types.PoolSnapshot{HubAssetID: hubID})
	require.ErrorIs(t, err, types.ErrInvalidSnapshot)
}

func TestNewRejectsHubAssetListedAsTradable(t *testing.T) {
	snap := testSnapshot()
	snap.HubAssets = append(snap.HubAssets, types.AssetInfo{
		AssetID: hubID, Reserve: sdkmath.NewInt(1), HubReserve: sdkmath.NewInt(1),
	})
	_, err := New(snap)
	require.ErrorIs(t, err, types.ErrInvalidSnapshot)
}

func TestNewRejectsDuplicateAsset(t *testing.T) {
	snap := testSnapshot()
	snap.HubAssets = append(snap.HubAssets, snap.HubAssets[0])
	_, err := New(snap)
	require.ErrorIs(t, err, types.ErrInvalidSnapshot)
}

func TestNewRejectsZeroReserve(t *testing.T) {
	snap := testSnapshot()
	snap.HubAssets[0].Reserve = sdkmath.ZeroInt()
	_, err := New(snap)
	require.ErrorIs(t, err, types.ErrInvalidSnapshot)
}

func TestNewRejectsFeeOutOfRange(t *testing.T) {
	snap := testSnapshot()
	snap.HubAssets[0].Fee = fixedpoint.Permill(fixedpoint.PermillDenominator + 1)
	_, err := New(snap)
	require.ErrorIs(t, err, types.ErrInvalidSnapshot)
}

func TestNewRejectsBadStableswap(t *testing.T) {
	snap := testSnapshot()
	snap.Stableswap[0].Amplification = 0
	_, err := New(snap)
	require.ErrorIs(t, err, types.ErrInvalidSnapshot)

	snap = testSnapshot()
	snap.Stableswap[0].Reserves = snap.Stableswap[0].Reserves[:1]
	_, err = New(snap)
	require.ErrorIs(t, err, types.ErrInvalidSnapshot)
}

func TestNewRejectsDegenerateXYK(t *testing.T) {
	snap := testSnapshot()
	snap.XYKPairs[0].AssetB = snap.XYKPairs[0].AssetA
	_, err := New(snap)
	require.ErrorIs(t, err, types.ErrInvalidSnapshot)
}

func TestRouteDirectHub(t *testing.T) {
	reg, err := New(testSnapshot())
	require.NoError(t, err)

	route, err := reg.Route(assetA, assetB)
	require.NoError(t, err)
	require.Equal(t, []types.Hop{
		{Kind: types.PoolKindHub, AssetIn: assetA, AssetOut: assetB},
	}, route)

	// To and from the hub asset itself is still one hub hop.
	route, err = reg.Route(assetA, hubID)
	require.NoError(t, err)
	require.Len(t, route, 1)
	require.Equal(t, types.PoolKindHub, route[0].Kind)
}

func TestRouteDirectStableswapAndXYK(t *testing.T) {
	reg, err := New(testSnapshot())
	require.NoError(t, err)

	route, err := reg.Route(assetB, assetC)
	require.NoError(t, err)
	require.Equal(t, []types.Hop{
		{Kind: types.PoolKindStableswap, PoolID: 7, AssetIn: assetB, AssetOut: assetC},
	}, route)

	route, err = reg.Route(assetD, assetA)
	require.NoError(t, err)
	require.Equal(t, []types.Hop{
		{Kind: types.PoolKindXYK, PoolID: 9, AssetIn: assetD, AssetOut: assetA},
	}, route)
}

func TestRouteTwoHops(t *testing.T) {
	reg, err := New(testSnapshot())
	require.NoError(t, err)

	// assetC reaches assetA only through the stableswap into assetB, then
	// the hub pool.
	route, err := reg.Route(assetC, assetA)
	require.NoError(t, err)
	require.Equal(t, []types.Hop{
		{Kind: types.PoolKindStableswap, PoolID: 7, AssetIn: assetC, AssetOut: assetB},
		{Kind: types.PoolKindHub, AssetIn: assetB, AssetOut: assetA},
	}, route)

	// assetD reaches assetB through the xyk pair into assetA, then the hub.
	route, err = reg.Route(assetD, assetB)
	require.NoError(t, err)
	require.Equal(t, []types.Hop{
		{Kind: types.PoolKindXYK, PoolID: 9, AssetIn: assetD, AssetOut: assetA},
		{Kind: types.PoolKindHub, AssetIn: assetA, AssetOut: assetB},
	}, route)
}

// Two-hop routes resolve in both directions: the hub leg may come first,
// reaching the outer pool through a hub-pool co-member.
func TestRouteTwoHopsSymmetric(t *testing.T) {
	reg, err := New(testSnapshot())
	require.NoError(t, err)

	route, err := reg.Route(assetA, assetC)
	require.NoError(t, err)
	require.Equal(t, []types.Hop{
		{Kind: types.PoolKindHub, AssetIn: assetA, AssetOut: assetB},
		{Kind: types.PoolKindStableswap, PoolID: 7, AssetIn: assetB, AssetOut: assetC},
	}, route)

	route, err = reg.Route(assetB, assetD)
	require.NoError(t, err)
	require.Equal(t, []types.Hop{
		{Kind: types.PoolKindHub, AssetIn: assetB, AssetOut: assetA},
		{Kind: types.PoolKindXYK, PoolID: 9, AssetIn: assetA, AssetOut: assetD},
	}, route)
}

func TestRouteErrors(t *testing.T) {
	reg, err := New(testSnapshot())
	require.NoError(t, err)

	_, err = reg.Route(assetA, assetA)
	require.ErrorIs(t, err, ErrSelfRoute)

	_, err = reg.Route(assetA, assetE)
	require.ErrorIs(t, err, ErrNoRoute)

	// assetC to assetD would need three hops.
	_, err = reg.Route(assetC, assetD)
	require.ErrorIs(t, err, ErrNoRoute)
}

func TestRouteDeterministic(t *testing.T) {
	snap := testSnapshot()
	first, err := New(snap)
	require.NoError(t, err)
	second, err := New(snap)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		a, errA := first.Route(assetC, assetA)
		b, errB := second.Route(assetC, assetA)
		require.NoError(t, errA)
		require.NoError(t, errB)
		require.Equal(t, a, b)
	}
}

func TestAssetsFilter(t *testing.T) {
	reg, err := New(testSnapshot())
	require.NoError(t, err)

	all, err := reg.Assets(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	some, err := reg.Assets([]types.AssetID{assetB})
	require.NoError(t, err)
	require.Len(t, some, 1)
	require.Equal(t, assetB, some[0].AssetID)

	_, err = reg.Assets([]types.AssetID{assetE})
	require.ErrorIs(t, err, types.ErrAssetNotFound)
}

type staticProvider struct {
	assets []types.AssetInfo
}

func (p staticProvider) Assets(filter []types.AssetID) ([]types.AssetInfo, error) {
	return p.assets, nil
}

func TestBuildSnapshot(t *testing.T) {
	provider := staticProvider{assets: testSnapshot().HubAssets}

	snap, err := BuildSnapshot(provider, hubID, nil)
	require.NoError(t, err)
	require.Equal(t, hubID, snap.HubAssetID)
	require.Len(t, snap.HubAssets, 2)

	_, err = BuildSnapshot(nil, hubID, nil)
	require.ErrorIs(t, err, ErrNilProvider)
}

func TestRouteXYKDoesNotCrossToStableswapDirectly(t *testing.T) {
	reg, err := New(testSnapshot())
	require.NoError(t, err)

	// The direct stableswap check must not match a pool the asset is not in.
	hop, ok := reg.directHop(assetA, assetC)
	require.False(t, ok)
	require.Equal(t, types.Hop{}, hop)
}
