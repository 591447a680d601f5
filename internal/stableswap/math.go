/*

This file contains the multi-asset stableswap math. The invariant D is found
by Newton-Raphson iteration with a hard cap; exceeding the cap is a typed
NonConvergence failure, never an approximate result and never a hang. Reserves
are normalized to a common 18-digit precision before any invariant work and
denormalized back to native precision on the way out. The invariant and
remaining-balance solves run on unbounded big.Int because their intermediates
(D^(n+1) folds) legitimately pass 2^128 at ordinary pool sizes; the 128-bit
balance bound applies at native precision only, on the way in and out.

*/

package stableswap

import (
	"errors"
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
)

const (
	// MaxDIterations caps the invariant solve.
	MaxDIterations = 128
	// MaxYIterations caps the nested remaining-balance solve.
	MaxYIterations = 64
	// TargetPrecision is the common fractional precision reserves are
	// normalized to.
	TargetPrecision = 18
)

var (
	ErrNonConvergence       = errors.New("newton-raphson iteration did not converge")
	ErrZeroReserve          = errors.New("stableswap reserve is zero")
	ErrZeroAmplification    = errors.New("amplification must be positive")
	ErrAssetIndexOutOfRange = errors.New("asset index out of range")
	ErrDimensionMismatch    = errors.New("reserves and decimals length mismatch")
	ErrPrecisionTooHigh     = errors.New("asset precision exceeds target precision")
	ErrInsufficientReserve  = errors.New("amount out exceeds pool reserve")
)

var (
	one    = sdkmath.OneInt()
	bigOne = big.NewInt(1)
)

// CalculateD computes the invariant for already-normalized reserves.
// Convergence tolerance is one integer unit.
func CalculateD(normalized []sdkmath.Int, amplification uint64) (sdkmath.Int, error) {
	n := len(normalized)
	if n < 2 {
		return sdkmath.Int{}, ErrDimensionMismatch
	}
	if amplification == 0 {
		return sdkmath.Int{}, ErrZeroAmplification
	}

	xs := make([]*big.Int, n)
	s := new(big.Int)
	for i, x := range normalized {
		if x.IsNil() || !x.IsPositive() {
			return sdkmath.Int{}, ErrZeroReserve
		}
		xs[i] = x.BigInt()
		s.Add(s, xs[i])
	}

	nBig := big.NewInt(int64(n))
	ann := annCoefficient(amplification, n).BigInt()

	d := new(big.Int).Set(s)
	for i := 0; i < MaxDIterations; i++ {
		// dP = D^(n+1) / (n^n * prod(x)), folded one asset at a time.
		dP := new(big.Int).Set(d)
		for _, x := range xs {
			dP.Mul(dP, d)
			dP.Quo(dP, new(big.Int).Mul(x, nBig))
		}

		// next = (ann*s + n*dP) * d / ((ann-1)*d + (n+1)*dP)
		numerator := new(big.Int).Mul(ann, s)
		numerator.Add(numerator, new(big.Int).Mul(dP, nBig))
		numerator.Mul(numerator, d)
		denominator := new(big.Int).Sub(ann, bigOne)
		denominator.Mul(denominator, d)
		denominator.Add(denominator, new(big.Int).Mul(new(big.Int).Add(nBig, bigOne), dP))
		next := new(big.Int).Quo(numerator, denominator)

		if withinOneUnit(next, d) {
			return sdkmath.NewIntFromBigInt(next), nil
		}
		d = next
	}
	return sdkmath.Int{}, ErrNonConvergence
}

// calculateY solves the remaining-balance equation for the reserve of one
// asset, given the invariant and every other normalized reserve.
func calculateY(others []sdkmath.Int, d sdkmath.Int, amplification uint64, n int) (sdkmath.Int, error) {
	if len(others) != n-1 {
		return sdkmath.Int{}, ErrDimensionMismatch
	}

	nBig := big.NewInt(int64(n))
	ann := annCoefficient(amplification, n).BigInt()
	dBig := d.BigInt()

	s := new(big.Int)
	c := new(big.Int).Set(dBig)
	for _, x := range others {
		if x.IsNil() || !x.IsPositive() {
			return sdkmath.Int{}, ErrZeroReserve
		}
		xb := x.BigInt()
		s.Add(s, xb)
		c.Mul(c, dBig)
		c.Quo(c, new(big.Int).Mul(xb, nBig))
	}
	c.Mul(c, dBig)
	c.Quo(c, new(big.Int).Mul(ann, nBig))
	b := new(big.Int).Add(s, new(big.Int).Quo(dBig, ann))

	y := new(big.Int).Set(dBig)
	for i := 0; i < MaxYIterations; i++ {
		// y' = (y^2 + c) / (2y + b - D)
		numerator := new(big.Int).Mul(y, y)
		numerator.Add(numerator, c)
		denominator := new(big.Int).Lsh(y, 1)
		denominator.Add(denominator, b)
		denominator.Sub(denominator, dBig)
		if denominator.Sign() <= 0 {
			return sdkmath.Int{}, ErrNonConvergence
		}
		next := new(big.Int).Quo(numerator, denominator)
		if withinOneUnit(next, y) {
			return sdkmath.NewIntFromBigInt(next), nil
		}
		y = next
	}
	return sdkmath.Int{}, ErrNonConvergence
}

// CalculateOutGivenIn quotes a sell of amountIn of reserves[idxIn] for
// reserves[idxOut]. Amounts are in native precision; the result is rounded
// down so the invariant can only grow.
func CalculateOutGivenIn(reserves []sdkmath.Int, decimals []uint8, idxIn, idxOut int, amountIn sdkmath.Int, amplification uint64) (sdkmath.Int, error) {
	xp, err := validateAndNormalize(reserves, decimals, idxIn, idxOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if err := fixedpoint.CheckBalance(amountIn); err != nil {
		return sdkmath.Int{}, err
	}
	if amountIn.IsZero() {
		return sdkmath.ZeroInt(), nil
	}

	d, err := CalculateD(xp, amplification)
	if err != nil {
		return sdkmath.Int{}, err
	}

	amountInNorm, err := normalize(amountIn, decimals[idxIn])
	if err != nil {
		return sdkmath.Int{}, err
	}

	others := make([]sdkmath.Int, 0, len(xp)-1)
	for i, x := range xp {
		switch i {
		case idxOut:
		case idxIn:
			others = append(others, x.Add(amountInNorm))
		default:
			others = append(others, x)
		}
	}

	y, err := calculateY(others, d, amplification, len(xp))
	if err != nil {
		return sdkmath.Int{}, err
	}
	if y.GTE(xp[idxOut]) {
		return sdkmath.ZeroInt(), nil
	}

	// y converges from above, so xp[out]-y already understates the exact
	// output; denormalizing down keeps the bias against the counterparty.
	return denormalize(xp[idxOut].Sub(y), decimals[idxOut], fixedpoint.RoundDown)
}

// CalculateInGivenOut quotes the input required to buy amountOut of
// reserves[idxOut] with reserves[idxIn], rounded up.
func CalculateInGivenOut(reserves []sdkmath.Int, decimals []uint8, idxIn, idxOut int, amountOut sdkmath.Int, amplification uint64) (sdkmath.Int, error) {
	xp, err := validateAndNormalize(reserves, decimals, idxIn, idxOut)
	if err != nil {
		return sdkmath.Int{}, err
	}
	if err := fixedpoint.CheckBalance(amountOut); err != nil {
		return sdkmath.Int{}, err
	}
	if amountOut.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if amountOut.GTE(reserves[idxOut]) {
		return sdkmath.Int{}, ErrInsufficientReserve
	}

	d, err := CalculateD(xp, amplification)
	if err != nil {
		return sdkmath.Int{}, err
	}

	amountOutNorm, err := normalize(amountOut, decimals[idxOut])
	if err != nil {
		return sdkmath.Int{}, err
	}
	if amountOutNorm.GTE(xp[idxOut]) {
		return sdkmath.Int{}, ErrInsufficientReserve
	}

	others := make([]sdkmath.Int, 0, len(xp)-1)
	for i, x := range xp {
		switch i {
		case idxIn:
		case idxOut:
			others = append(others, x.Sub(amountOutNorm))
		default:
			others = append(others, x)
		}
	}

	y, err := calculateY(others, d, amplification, len(xp))
	if err != nil {
		return sdkmath.Int{}, err
	}
	if y.LTE(xp[idxIn]) {
		return sdkmath.ZeroInt(), nil
	}

	// One extra normalized unit covers the round-down drift of the y solve.
	return denormalize(y.Sub(xp[idxIn]).Add(one), decimals[idxIn], fixedpoint.RoundUp)
}

// CalculateInvariant computes D for native-precision reserves. Exposed for
// post-trade monotonicity checks.
func CalculateInvariant(reserves []sdkmath.Int, decimals []uint8, amplification uint64) (sdkmath.Int, error) {
	if len(reserves) != len(decimals) {
		return sdkmath.Int{}, ErrDimensionMismatch
	}
	xp := make([]sdkmath.Int, len(reserves))
	for i, r := range reserves {
		n, err := normalize(r, decimals[i])
		if err != nil {
			return sdkmath.Int{}, err
		}
		xp[i] = n
	}
	return CalculateD(xp, amplification)
}

func validateAndNormalize(reserves []sdkmath.Int, decimals []uint8, idxIn, idxOut int) ([]sdkmath.Int, error) {
	if len(reserves) != len(decimals) || len(reserves) < 2 {
		return nil, ErrDimensionMismatch
	}
	if idxIn < 0 || idxIn >= len(reserves) || idxOut < 0 || idxOut >= len(reserves) || idxIn == idxOut {
		return nil, ErrAssetIndexOutOfRange
	}
	xp := make([]sdkmath.Int, len(reserves))
	for i, r := range reserves {
		if r.IsNil() || r.IsZero() {
			return nil, ErrZeroReserve
		}
		if err := fixedpoint.CheckBalance(r); err != nil {
			return nil, err
		}
		n, err := normalize(r, decimals[i])
		if err != nil {
			return nil, err
		}
		xp[i] = n
	}
	return xp, nil
}

// normalize rescales a native-precision amount to TargetPrecision digits.
// The scaling is an exact multiplication and may leave the balance range;
// normalized values live on the unbounded invariant scale.
func normalize(amount sdkmath.Int, decimals uint8) (sdkmath.Int, error) {
	if decimals > TargetPrecision {
		return sdkmath.Int{}, ErrPrecisionTooHigh
	}
	if decimals == TargetPrecision {
		return amount, nil
	}
	return amount.Mul(pow10(TargetPrecision - decimals)), nil
}

// denormalize rescales a TargetPrecision amount back to native precision.
func denormalize(amount sdkmath.Int, decimals uint8, rounding fixedpoint.Rounding) (sdkmath.Int, error) {
	if decimals > TargetPrecision {
		return sdkmath.Int{}, ErrPrecisionTooHigh
	}
	if decimals == TargetPrecision {
		return amount, nil
	}
	factor := pow10(TargetPrecision - decimals)
	return fixedpoint.MulDiv(amount, one, factor, rounding)
}

// annCoefficient is A*n^n.
func annCoefficient(amplification uint64, n int) sdkmath.Int {
	ann := sdkmath.NewIntFromUint64(amplification)
	nInt := sdkmath.NewInt(int64(n))
	for i := 0; i < n; i++ {
		ann = ann.Mul(nInt)
	}
	return ann
}

func pow10(exp uint8) sdkmath.Int {
	out := one
	ten := sdkmath.NewInt(10)
	for i := uint8(0); i < exp; i++ {
		out = out.Mul(ten)
	}
	return out
}

func withinOneUnit(a, b *big.Int) bool {
	diff := new(big.Int).Sub(a, b)
	return diff.CmpAbs(bigOne) <= 0
}
