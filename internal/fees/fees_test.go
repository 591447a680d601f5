package fees

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
	"github.com/hubdex-protocol/solvercore/internal/types"
)

func wideParams() types.FeeParams {
	return types.FeeParams{
		MinFee:        0,
		MaxFee:        fixedpoint.Permill(fixedpoint.PermillDenominator),
		Amplification: sdkmath.LegacyNewDec(2),
		Decay:         sdkmath.LegacyZeroDec(),
	}
}

func volume(in, out, liquidity int64) types.OracleEntry {
	return types.OracleEntry{
		AmountIn:  sdkmath.NewInt(in),
		AmountOut: sdkmath.NewInt(out),
		Liquidity: sdkmath.NewInt(liquidity),
	}
}

// With net inflow the asset fee falls and the protocol fee rises by the same
// amplified fraction of liquidity.
func TestNetInflowMovesFeesOppositeWays(t *testing.T) {
	params := wideParams()
	oracle := volume(25, 20, 1_000)
	previous := fixedpoint.Permill(100_000) // 10%

	// delta = 2 * (20 - 25) / 1000 = -0.01
	asset := RecalculateAssetFee(oracle, previous, 1, params)
	require.Equal(t, fixedpoint.Permill(90_000), asset)

	protocol := RecalculateProtocolFee(oracle, previous, 1, params)
	require.Equal(t, fixedpoint.Permill(110_000), protocol)
}

func TestNetOutflowRaisesAssetFee(t *testing.T) {
	params := wideParams()
	oracle := volume(20, 25, 1_000)
	previous := fixedpoint.Permill(100_000)

	asset := RecalculateAssetFee(oracle, previous, 1, params)
	require.Equal(t, fixedpoint.Permill(110_000), asset)
}

func TestClampToBand(t *testing.T) {
	params := types.FeeParams{
		MinFee:        fixedpoint.Permill(2_500),
		MaxFee:        fixedpoint.Permill(50_000),
		Amplification: sdkmath.LegacyNewDec(2),
		Decay:         sdkmath.LegacyZeroDec(),
	}

	// Massive outflow pins the asset fee at the cap.
	high := RecalculateAssetFee(volume(0, 1_000, 1_000), fixedpoint.Permill(10_000), 1, params)
	require.Equal(t, params.MaxFee, high)

	// Massive inflow pins it at the floor.
	low := RecalculateAssetFee(volume(1_000, 0, 1_000), fixedpoint.Permill(10_000), 1, params)
	require.Equal(t, params.MinFee, low)
}

func TestZeroLiquidityKeepsPreviousFee(t *testing.T) {
	params := wideParams()
	previous := fixedpoint.Permill(42_000)

	got := RecalculateAssetFee(volume(10, 20, 0), previous, 1, params)
	require.Equal(t, previous, got)
}

func TestNilVolumeKeepsPreviousFee(t *testing.T) {
	params := wideParams()
	previous := fixedpoint.Permill(42_000)

	got := RecalculateAssetFee(types.OracleEntry{Liquidity: sdkmath.NewInt(1_000)}, previous, 1, params)
	require.Equal(t, previous, got)
}

// Full decay weight pulls an idle asset's fee all the way to the band
// midpoint after a skipped block.
func TestDecayTowardMidpoint(t *testing.T) {
	params := types.FeeParams{
		MinFee:        0,
		MaxFee:        fixedpoint.Permill(200_000),
		Amplification: sdkmath.LegacyNewDec(2),
		Decay:         sdkmath.LegacyOneDec(),
	}

	got := RecalculateAssetFee(volume(1, 1, 1_000_000), fixedpoint.Permill(180_000), 2, params)
	require.Equal(t, fixedpoint.Permill(100_000), got)
}

// One elapsed block applies no decay at all.
func TestNoDecayOnConsecutiveBlocks(t *testing.T) {
	params := types.FeeParams{
		MinFee:        0,
		MaxFee:        fixedpoint.Permill(200_000),
		Amplification: sdkmath.LegacyNewDec(2),
		Decay:         sdkmath.LegacyOneDec(),
	}

	// Balanced volume, delta zero: the fee only moves if decay applies.
	got := RecalculateAssetFee(volume(5, 5, 1_000), fixedpoint.Permill(180_000), 1, params)
	require.Equal(t, fixedpoint.Permill(180_000), got)
}

// A partial decay lands between the previous fee and the midpoint.
func TestPartialDecay(t *testing.T) {
	params := types.FeeParams{
		MinFee:        0,
		MaxFee:        fixedpoint.Permill(200_000),
		Amplification: sdkmath.LegacyNewDec(2),
		Decay:         sdkmath.LegacyNewDecWithPrec(5, 1), // 0.5
	}

	// candidate 0.18, mid 0.10: one decay step of 0.5 lands at 0.14.
	got := RecalculateAssetFee(volume(5, 5, 1_000), fixedpoint.Permill(180_000), 2, params)
	require.Equal(t, fixedpoint.Permill(140_000), got)
}

// Huge elapsed block counts are capped instead of overflowing the decay
// exponent.
func TestDecayExponentCapped(t *testing.T) {
	params := types.FeeParams{
		MinFee:        0,
		MaxFee:        fixedpoint.Permill(200_000),
		Amplification: sdkmath.LegacyNewDec(2),
		Decay:         sdkmath.LegacyNewDecWithPrec(5, 1),
	}

	got := RecalculateAssetFee(volume(5, 5, 1_000), fixedpoint.Permill(180_000), 1<<40, params)
	// 0.5^64 of the distance remains: indistinguishable from the midpoint
	// at permill resolution.
	require.Equal(t, fixedpoint.Permill(100_000), got)
}

func TestFeeParamsValidate(t *testing.T) {
	good := types.FeeParams{
		MinFee:        fixedpoint.Permill(2_500),
		MaxFee:        fixedpoint.Permill(50_000),
		Amplification: sdkmath.LegacyNewDec(2),
		Decay:         sdkmath.LegacyZeroDec(),
	}
	require.NoError(t, good.Validate())

	inverted := good
	inverted.MinFee, inverted.MaxFee = inverted.MaxFee, inverted.MinFee
	require.ErrorIs(t, inverted.Validate(), types.ErrInvalidFeeParams)

	negAmp := good
	negAmp.Amplification = sdkmath.LegacyNewDec(-1)
	require.ErrorIs(t, negAmp.Validate(), types.ErrInvalidFeeParams)

	bigDecay := good
	bigDecay.Decay = sdkmath.LegacyNewDec(2)
	require.ErrorIs(t, bigDecay.Validate(), types.ErrInvalidFeeParams)
}
