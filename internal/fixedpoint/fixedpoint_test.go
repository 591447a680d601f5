package fixedpoint

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestMulDivRounding(t *testing.T) {
	a, b, den := sdkmath.NewInt(7), sdkmath.NewInt(3), sdkmath.NewInt(2)

	down, err := MulDiv(a, b, den, RoundDown)
	require.NoError(t, err)
	require.Equal(t, int64(10), down.Int64())

	up, err := MulDiv(a, b, den, RoundUp)
	require.NoError(t, err)
	require.Equal(t, int64(11), up.Int64())

	// 21/2 = 10.5 rounds half away from zero.
	nearest, err := MulDiv(a, b, den, RoundNearest)
	require.NoError(t, err)
	require.Equal(t, int64(11), nearest.Int64())

	// 5/4 = 1.25 rounds to 1.
	nearest, err = MulDiv(sdkmath.NewInt(5), sdkmath.OneInt(), sdkmath.NewInt(4), RoundNearest)
	require.NoError(t, err)
	require.Equal(t, int64(1), nearest.Int64())
}

func TestMulDivExactNoRounding(t *testing.T) {
	for _, rounding := range []Rounding{RoundDown, RoundUp, RoundNearest} {
		out, err := MulDiv(sdkmath.NewInt(6), sdkmath.NewInt(4), sdkmath.NewInt(8), rounding)
		require.NoError(t, err)
		require.Equal(t, int64(3), out.Int64())
	}
}

func TestMulDivDivisionByZero(t *testing.T) {
	_, err := MulDiv(sdkmath.OneInt(), sdkmath.OneInt(), sdkmath.ZeroInt(), RoundDown)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMulDivNegativeInput(t *testing.T) {
	_, err := MulDiv(sdkmath.NewInt(-1), sdkmath.OneInt(), sdkmath.OneInt(), RoundDown)
	require.ErrorIs(t, err, ErrNegative)
}

func TestMulDivDoubleWidthIntermediate(t *testing.T) {
	// max * max / max overflows 128 bits in the intermediate but narrows
	// back inside the balance range.
	out, err := MulDiv(MaxBalance, MaxBalance, MaxBalance, RoundDown)
	require.NoError(t, err)
	require.True(t, out.Equal(MaxBalance))
}

func TestMulDivOverflowResult(t *testing.T) {
	_, err := MulDiv(MaxBalance, sdkmath.NewInt(2), sdkmath.OneInt(), RoundDown)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestCheckBalance(t *testing.T) {
	require.NoError(t, CheckBalance(sdkmath.ZeroInt()))
	require.NoError(t, CheckBalance(MaxBalance))
	require.ErrorIs(t, CheckBalance(MaxBalance.Add(sdkmath.OneInt())), ErrOverflow)
	require.ErrorIs(t, CheckBalance(sdkmath.NewInt(-1)), ErrNegative)
	require.Error(t, CheckBalance(sdkmath.Int{}))
}

func TestCheckedAddSub(t *testing.T) {
	sum, err := CheckedAdd(sdkmath.NewInt(2), sdkmath.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, int64(5), sum.Int64())

	_, err = CheckedAdd(MaxBalance, sdkmath.OneInt())
	require.ErrorIs(t, err, ErrOverflow)

	diff, err := CheckedSub(sdkmath.NewInt(5), sdkmath.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, int64(2), diff.Int64())

	_, err = CheckedSub(sdkmath.NewInt(3), sdkmath.NewInt(5))
	require.ErrorIs(t, err, ErrNegative)
}

func TestPermillBounds(t *testing.T) {
	p, err := NewPermill(250_000)
	require.NoError(t, err)
	require.Equal(t, Permill(250_000), p)

	_, err = NewPermill(PermillDenominator + 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestPermillComplement(t *testing.T) {
	require.Equal(t, Permill(997_500), Permill(2_500).Complement())
	require.Equal(t, Permill(0), Permill(PermillDenominator).Complement())
	require.Equal(t, Permill(PermillDenominator), Permill(0).Complement())
}

func TestPermillMulBalance(t *testing.T) {
	// 2500 ppm of 1_000_000 is exactly 2500.
	out, err := Permill(2_500).MulBalance(sdkmath.NewInt(1_000_000), RoundDown)
	require.NoError(t, err)
	require.Equal(t, int64(2_500), out.Int64())

	// 2500 ppm of 999 is 2.4975: direction decided by rounding.
	down, err := Permill(2_500).MulBalance(sdkmath.NewInt(999), RoundDown)
	require.NoError(t, err)
	require.Equal(t, int64(2), down.Int64())

	up, err := Permill(2_500).MulBalance(sdkmath.NewInt(999), RoundUp)
	require.NoError(t, err)
	require.Equal(t, int64(3), up.Int64())
}

func TestPermillFromDec(t *testing.T) {
	require.Equal(t, Permill(90_000), PermillFromDec(sdkmath.LegacyMustNewDecFromStr("0.09")))
	require.Equal(t, Permill(0), PermillFromDec(sdkmath.LegacyMustNewDecFromStr("-0.5")))
	// Above one clamps.
	require.Equal(t, Permill(PermillDenominator), PermillFromDec(sdkmath.LegacyNewDec(2)))
}

func TestFractionFromRational(t *testing.T) {
	f, err := FromRational(sdkmath.OneInt(), sdkmath.NewInt(4))
	require.NoError(t, err)
	require.False(t, f.IsZero())
	require.False(t, f.IsOne())

	_, err = FromRational(sdkmath.OneInt(), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrDivisionByZero)

	// Numerator above denominator saturates instead of leaving [0, 1].
	sat, err := FromRational(sdkmath.NewInt(7), sdkmath.NewInt(4))
	require.NoError(t, err)
	require.True(t, sat.IsOne())
}

func TestFractionComplementMulBalance(t *testing.T) {
	f, err := FromRational(sdkmath.OneInt(), sdkmath.NewInt(4))
	require.NoError(t, err)

	quarter, err := f.MulBalance(sdkmath.NewInt(100), RoundDown)
	require.NoError(t, err)
	require.Equal(t, int64(25), quarter.Int64())

	threeQuarters, err := f.Complement().MulBalance(sdkmath.NewInt(100), RoundDown)
	require.NoError(t, err)
	require.Equal(t, int64(75), threeQuarters.Int64())

	require.True(t, ZeroFraction().Complement().IsOne())
	require.True(t, OneFraction().Complement().IsZero())
}
