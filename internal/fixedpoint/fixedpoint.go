/*

This file contains the exact rational and fixed-point primitives shared by every
curve implementation. All balances are unsigned 128-bit integers carried in
sdkmath.Int; every multiply-then-divide chain widens into a big.Int intermediate
before narrowing back, so no sequence of valid inputs can silently wrap.

*/

package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("balance overflow")
	ErrNegative       = errors.New("negative amount")
)

// Rounding selects the direction a division narrows toward. Every division in
// the curve math names its rounding explicitly; the convention is to round
// against the pool's counterparty (Up for amounts charged, Down for amounts
// paid out).
type Rounding uint8

const (
	RoundDown Rounding = iota
	RoundUp
	RoundNearest
)

// MaxBalance is the largest representable balance, 2^128 - 1.
var MaxBalance = sdkmath.NewIntFromBigInt(new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 128),
	big.NewInt(1),
))

// CheckBalance verifies that v is inside the unsigned 128-bit balance range.
func CheckBalance(v sdkmath.Int) error {
	if v.IsNil() {
		return fmt.Errorf("%w: nil balance", ErrOverflow)
	}
	if v.IsNegative() {
		return ErrNegative
	}
	if v.GT(MaxBalance) {
		return ErrOverflow
	}
	return nil
}

// MulDiv computes a*b/den with a double-width intermediate and the requested
// rounding. It fails with ErrDivisionByZero when den is zero and with
// ErrOverflow when the narrowed result leaves the balance range.
func MulDiv(a, b, den sdkmath.Int, rounding Rounding) (sdkmath.Int, error) {
	if den.IsZero() {
		return sdkmath.Int{}, ErrDivisionByZero
	}
	if a.IsNegative() || b.IsNegative() || den.IsNegative() {
		return sdkmath.Int{}, ErrNegative
	}

	num := new(big.Int).Mul(a.BigInt(), b.BigInt())
	quo, rem := new(big.Int).QuoRem(num, den.BigInt(), new(big.Int))

	if rem.Sign() != 0 {
		switch rounding {
		case RoundUp:
			quo.Add(quo, big.NewInt(1))
		case RoundNearest:
			// Round half away from zero.
			doubled := new(big.Int).Lsh(rem, 1)
			if doubled.Cmp(den.BigInt()) >= 0 {
				quo.Add(quo, big.NewInt(1))
			}
		}
	}

	out := sdkmath.NewIntFromBigInt(quo)
	if err := CheckBalance(out); err != nil {
		return sdkmath.Int{}, err
	}
	return out, nil
}

// CheckedAdd adds two balances, failing if the sum leaves the balance range.
func CheckedAdd(a, b sdkmath.Int) (sdkmath.Int, error) {
	sum := a.Add(b)
	if err := CheckBalance(sum); err != nil {
		return sdkmath.Int{}, err
	}
	return sum, nil
}

// CheckedSub subtracts b from a, failing on underflow.
func CheckedSub(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.LT(b) {
		return sdkmath.Int{}, fmt.Errorf("%w: %s - %s", ErrNegative, a.String(), b.String())
	}
	return a.Sub(b), nil
}
