package hubpool

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
)

func testStates() (AssetState, AssetState) {
	in := AssetState{
		Reserve:    sdkmath.NewInt(1_000_000_000_000),
		HubReserve: sdkmath.NewInt(2_000_000_000_000),
	}
	out := AssetState{
		Reserve:    sdkmath.NewInt(3_000_000_000_000),
		HubReserve: sdkmath.NewInt(1_500_000_000_000),
	}
	return in, out
}

// Hub minted on the sell leg always equals hub burned on the buy leg plus
// the retained protocol fee.
func TestSellHubConservation(t *testing.T) {
	in, out := testStates()
	amountIn := sdkmath.NewInt(1_000_000_000)

	changes, err := CalculateSellStateChanges(in, out, amountIn, fixedpoint.Permill(2_500), fixedpoint.Permill(500))
	require.NoError(t, err)

	require.True(t, changes.AmountOut.IsPositive())
	require.True(t, changes.HubMinted.Equal(changes.HubBurned.Add(changes.ProtocolFeeAmount)))

	// Asset-leg fee is charged on the full sold amount, rounded up.
	expectedFee, err := fixedpoint.Permill(2_500).MulBalance(amountIn, fixedpoint.RoundUp)
	require.NoError(t, err)
	require.True(t, changes.AssetFeeAmount.Equal(expectedFee))
}

func TestBuyHubConservation(t *testing.T) {
	in, out := testStates()
	amountOut := sdkmath.NewInt(1_000_000_000)

	changes, err := CalculateBuyStateChanges(in, out, amountOut, fixedpoint.Permill(2_500), fixedpoint.Permill(500))
	require.NoError(t, err)

	require.True(t, changes.AmountOut.Equal(amountOut))
	require.True(t, changes.AmountIn.IsPositive())
	require.True(t, changes.HubMinted.Equal(changes.HubBurned.Add(changes.ProtocolFeeAmount)))
}

// With no fees, buying an exact amount and selling the quoted input back
// reproduces the target within the per-leg rounding slack.
func TestBuySellRoundTrip(t *testing.T) {
	in, out := testStates()
	amountOut := sdkmath.NewInt(500_000_000)

	buy, err := CalculateBuyStateChanges(in, out, amountOut, 0, 0)
	require.NoError(t, err)

	sell, err := CalculateSellStateChanges(in, out, buy.AmountIn, 0, 0)
	require.NoError(t, err)

	require.True(t, sell.AmountOut.GTE(amountOut.Sub(sdkmath.NewInt(2))))
	require.True(t, sell.AmountOut.LTE(amountOut.Add(sdkmath.NewInt(2))))
}

// A fee makes the buy strictly more expensive than the fee-free trade.
func TestBuyFeeRaisesCost(t *testing.T) {
	in, out := testStates()
	amountOut := sdkmath.NewInt(500_000_000)

	free, err := CalculateBuyStateChanges(in, out, amountOut, 0, 0)
	require.NoError(t, err)
	taxed, err := CalculateBuyStateChanges(in, out, amountOut, fixedpoint.Permill(10_000), fixedpoint.Permill(1_000))
	require.NoError(t, err)

	require.True(t, taxed.AmountIn.GT(free.AmountIn))
}

func TestSellToHub(t *testing.T) {
	in, _ := testStates()
	amountIn := sdkmath.NewInt(1_000_000_000)

	changes, err := CalculateSellToHubStateChanges(in, amountIn, fixedpoint.Permill(2_500))
	require.NoError(t, err)

	// No buy leg: nothing burned, no protocol fee.
	require.True(t, changes.HubBurned.IsNil() || changes.HubBurned.IsZero())
	require.True(t, changes.ProtocolFeeAmount.IsNil() || changes.ProtocolFeeAmount.IsZero())
	require.True(t, changes.HubMinted.Equal(changes.AmountOut))
	require.True(t, changes.AmountOut.IsPositive())
}

func TestSellHubAsset(t *testing.T) {
	_, out := testStates()
	hubIn := sdkmath.NewInt(1_000_000_000)

	changes, err := CalculateSellHubAssetStateChanges(out, hubIn, fixedpoint.Permill(500))
	require.NoError(t, err)

	// No sell leg: nothing minted, no asset fee.
	require.True(t, changes.HubMinted.IsNil() || changes.HubMinted.IsZero())
	require.True(t, changes.AssetFeeAmount.IsNil() || changes.AssetFeeAmount.IsZero())
	require.True(t, changes.ProtocolFeeAmount.IsPositive())
	require.True(t, changes.HubBurned.Add(changes.ProtocolFeeAmount).Equal(hubIn))
	require.True(t, changes.AmountOut.IsPositive())
}

func TestBuyHubAsset(t *testing.T) {
	in, _ := testStates()
	hubOut := sdkmath.NewInt(1_000_000_000)

	changes, err := CalculateBuyHubAssetStateChanges(in, hubOut, fixedpoint.Permill(2_500))
	require.NoError(t, err)
	require.True(t, changes.AmountOut.Equal(hubOut))
	require.True(t, changes.HubMinted.Equal(hubOut))
	require.True(t, changes.AmountIn.GT(changes.AssetFeeAmount))
}

func TestBuyExceedsReserve(t *testing.T) {
	in, out := testStates()

	_, err := CalculateBuyStateChanges(in, out, out.Reserve, 0, 0)
	require.ErrorIs(t, err, ErrInsufficientOutReserve)

	_, err = CalculateBuyHubAssetStateChanges(in, in.HubReserve, 0)
	require.ErrorIs(t, err, ErrInsufficientHubReserve)
}

func TestZeroReserveRejected(t *testing.T) {
	bad := AssetState{Reserve: sdkmath.ZeroInt(), HubReserve: sdkmath.NewInt(1)}
	_, err := CalculateSellToHubStateChanges(bad, sdkmath.NewInt(100), 0)
	require.ErrorIs(t, err, ErrZeroReserve)
}

func TestSpotPrice(t *testing.T) {
	in, out := testStates()

	// (2/1) hub per in times (3/1.5) out per hub = 4.
	price, err := CalculateSpotPrice(in, out)
	require.NoError(t, err)
	require.True(t, price.Equal(sdkmath.LegacyNewDec(4)))

	withFee, err := CalculateSpotPriceWithFee(in, out, fixedpoint.Permill(2_500), fixedpoint.Permill(500))
	require.NoError(t, err)
	require.True(t, withFee.LT(price))
}

// The executed rate of a sell never beats spot.
func TestSellNeverBeatsSpot(t *testing.T) {
	in, out := testStates()
	amountIn := sdkmath.NewInt(10_000_000_000)

	changes, err := CalculateSellStateChanges(in, out, amountIn, 0, 0)
	require.NoError(t, err)

	spot, err := CalculateSpotPrice(in, out)
	require.NoError(t, err)

	executed := sdkmath.LegacyNewDecFromInt(changes.AmountOut).QuoInt(amountIn)
	require.True(t, executed.LT(spot))
}
