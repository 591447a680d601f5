package fixedpoint

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// PermillDenominator is the fee wire scale: 1_000_000 = 100%.
const PermillDenominator = 1_000_000

// Permill is a fee percentage expressed in parts per million, bounded to
// [0, 1_000_000]. It is the only fee representation that crosses the wire.
type Permill uint32

// NewPermill validates the parts-per-million bound.
func NewPermill(v uint32) (Permill, error) {
	if v > PermillDenominator {
		return 0, fmt.Errorf("%w: permill %d exceeds %d", ErrOverflow, v, PermillDenominator)
	}
	return Permill(v), nil
}

// PermillFromDec converts a decimal fee fraction to parts per million,
// clamping to the valid range and rounding half up.
func PermillFromDec(d sdkmath.LegacyDec) Permill {
	if d.IsNil() || d.IsNegative() {
		return 0
	}
	scaled := d.MulInt64(PermillDenominator)
	v := scaled.RoundInt()
	if v.GT(sdkmath.NewInt(PermillDenominator)) {
		return Permill(PermillDenominator)
	}
	return Permill(v.Uint64())
}

// IsZero reports whether the fee is zero.
func (p Permill) IsZero() bool { return p == 0 }

// Complement returns 1 - p in permill terms.
func (p Permill) Complement() Permill {
	if p > PermillDenominator {
		return 0
	}
	return PermillDenominator - p
}

// Fraction widens the permill into the exact rational type.
func (p Permill) Fraction() Fraction {
	return Fraction{
		num: sdkmath.NewInt(int64(p)),
		den: sdkmath.NewInt(PermillDenominator),
	}
}

// Dec converts the fee to the 18-decimal externally visible type.
func (p Permill) Dec() sdkmath.LegacyDec {
	return sdkmath.LegacyNewDec(int64(p)).QuoInt64(PermillDenominator)
}

// MulBalance charges the fee against a balance with the requested rounding.
func (p Permill) MulBalance(balance sdkmath.Int, rounding Rounding) (sdkmath.Int, error) {
	return p.Fraction().MulBalance(balance, rounding)
}
