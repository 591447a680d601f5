package fixedpoint

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Fraction is an exact unsigned rational confined to [0, 1]. It is the
// high-precision intermediate used for fee fractions and per-unit ratios;
// prices and fees cross package boundaries as the coarser sdkmath.LegacyDec.
type Fraction struct {
	num sdkmath.Int
	den sdkmath.Int
}

// ZeroFraction is the additive identity.
func ZeroFraction() Fraction {
	return Fraction{num: sdkmath.ZeroInt(), den: sdkmath.OneInt()}
}

// OneFraction is the multiplicative identity.
func OneFraction() Fraction {
	return Fraction{num: sdkmath.OneInt(), den: sdkmath.OneInt()}
}

// FromRational builds a fraction n/d. It fails with ErrDivisionByZero when d
// is zero and saturates to one when n exceeds d, so a mis-scaled fee input
// degrades to a 100% fee instead of panicking.
func FromRational(n, d sdkmath.Int) (Fraction, error) {
	if d.IsZero() {
		return Fraction{}, ErrDivisionByZero
	}
	if n.IsNegative() || d.IsNegative() {
		return Fraction{}, ErrNegative
	}
	if err := CheckBalance(n); err != nil {
		return Fraction{}, err
	}
	if err := CheckBalance(d); err != nil {
		return Fraction{}, err
	}
	if n.GT(d) {
		n = d
	}
	return Fraction{num: n, den: d}, nil
}

// IsZero reports whether the fraction is exactly zero.
func (f Fraction) IsZero() bool {
	return f.num.IsNil() || f.num.IsZero()
}

// IsOne reports whether the fraction is exactly one.
func (f Fraction) IsOne() bool {
	return !f.num.IsNil() && f.num.Equal(f.den)
}

// Complement returns 1 - f.
func (f Fraction) Complement() Fraction {
	if f.num.IsNil() {
		return OneFraction()
	}
	return Fraction{num: f.den.Sub(f.num), den: f.den}
}

// MulBalance applies the fraction to a balance with the requested rounding.
func (f Fraction) MulBalance(balance sdkmath.Int, rounding Rounding) (sdkmath.Int, error) {
	if err := CheckBalance(balance); err != nil {
		return sdkmath.Int{}, err
	}
	if f.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return MulDiv(balance, f.num, f.den, rounding)
}

// LegacyDec converts the fraction to the 18-decimal externally visible type.
func (f Fraction) LegacyDec() sdkmath.LegacyDec {
	if f.IsZero() {
		return sdkmath.LegacyZeroDec()
	}
	return sdkmath.LegacyNewDecFromInt(f.num).QuoInt(f.den)
}

func (f Fraction) String() string {
	if f.num.IsNil() {
		return "0/1"
	}
	return fmt.Sprintf("%s/%s", f.num.String(), f.den.String())
}
