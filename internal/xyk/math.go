/*

This file contains the constant-product (x*y=k) pricing math. All functions
are pure, never panic, and round against the pool's counterparty so the
invariant reserve_a*reserve_b never decreases across a trade.

*/

package xyk

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
)

var (
	ErrZeroReserve            = errors.New("pool reserve is zero")
	ErrInsufficientOutReserve = errors.New("amount out exceeds pool reserve")
	ErrZeroShares             = errors.New("total shares is zero")
)

// CalculateOutGivenIn returns the amount of the out asset bought with
// amountIn: reserve_out*amount_in/(reserve_in+amount_in), rounded down.
// A zero amountIn short-circuits to zero.
func CalculateOutGivenIn(reserveIn, reserveOut, amountIn sdkmath.Int) (sdkmath.Int, error) {
	if err := validateReserves(reserveIn, reserveOut); err != nil {
		return sdkmath.Int{}, err
	}
	if err := fixedpoint.CheckBalance(amountIn); err != nil {
		return sdkmath.Int{}, err
	}
	if amountIn.IsZero() {
		return sdkmath.ZeroInt(), nil
	}

	newReserveIn, err := fixedpoint.CheckedAdd(reserveIn, amountIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return fixedpoint.MulDiv(reserveOut, amountIn, newReserveIn, fixedpoint.RoundDown)
}

// CalculateInGivenOut returns the amount of the in asset required to buy
// amountOut: reserve_in*amount_out/(reserve_out-amount_out), rounded up by one
// smallest unit so the invariant never decreases. Fails with
// ErrInsufficientOutReserve when amountOut meets or exceeds the out reserve.
func CalculateInGivenOut(reserveOut, reserveIn, amountOut sdkmath.Int) (sdkmath.Int, error) {
	if err := validateReserves(reserveIn, reserveOut); err != nil {
		return sdkmath.Int{}, err
	}
	if err := fixedpoint.CheckBalance(amountOut); err != nil {
		return sdkmath.Int{}, err
	}
	if amountOut.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if amountOut.GTE(reserveOut) {
		return sdkmath.Int{}, ErrInsufficientOutReserve
	}

	in, err := fixedpoint.MulDiv(reserveIn, amountOut, reserveOut.Sub(amountOut), fixedpoint.RoundDown)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return fixedpoint.CheckedAdd(in, sdkmath.OneInt())
}

// CalculateSpotPrice returns the instantaneous marginal rate of the out asset
// per unit of the in asset implied by current reserves.
func CalculateSpotPrice(reserveIn, reserveOut sdkmath.Int) (sdkmath.LegacyDec, error) {
	if err := validateReserves(reserveIn, reserveOut); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return sdkmath.LegacyNewDecFromInt(reserveOut).QuoInt(reserveIn), nil
}

// CalculateLiquidityIn returns the amount of asset B that must accompany
// amountA when adding liquidity, rounded up so the provider can never
// underpay the pool.
func CalculateLiquidityIn(reserveA, reserveB, amountA sdkmath.Int) (sdkmath.Int, error) {
	if err := validateReserves(reserveA, reserveB); err != nil {
		return sdkmath.Int{}, err
	}
	if err := fixedpoint.CheckBalance(amountA); err != nil {
		return sdkmath.Int{}, err
	}
	if amountA.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	return fixedpoint.MulDiv(amountA, reserveB, reserveA, fixedpoint.RoundUp)
}

// CalculateLiquidityOut returns the asset amounts redeemed for burning shares
// out of totalShares, both rounded down.
func CalculateLiquidityOut(reserveA, reserveB, shares, totalShares sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	if err := validateReserves(reserveA, reserveB); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if totalShares.IsNil() || totalShares.IsZero() {
		return sdkmath.Int{}, sdkmath.Int{}, ErrZeroShares
	}
	if err := fixedpoint.CheckBalance(shares); err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	if shares.GT(totalShares) {
		return sdkmath.Int{}, sdkmath.Int{}, ErrInsufficientOutReserve
	}

	outA, err := fixedpoint.MulDiv(reserveA, shares, totalShares, fixedpoint.RoundDown)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	outB, err := fixedpoint.MulDiv(reserveB, shares, totalShares, fixedpoint.RoundDown)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return outA, outB, nil
}

// CalculateShares returns the pool shares minted for depositing amountA
// against reserveA, rounded down so the pool never over-issues.
func CalculateShares(reserveA, amountA, totalShares sdkmath.Int) (sdkmath.Int, error) {
	if reserveA.IsNil() || reserveA.IsZero() {
		return sdkmath.Int{}, ErrZeroReserve
	}
	if err := fixedpoint.CheckBalance(amountA); err != nil {
		return sdkmath.Int{}, err
	}
	if totalShares.IsNil() || totalShares.IsZero() {
		// Bootstrap: first provider receives shares equal to the deposit.
		return amountA, nil
	}
	return fixedpoint.MulDiv(totalShares, amountA, reserveA, fixedpoint.RoundDown)
}

func validateReserves(a, b sdkmath.Int) error {
	if a.IsNil() || b.IsNil() || a.IsZero() || b.IsZero() {
		return ErrZeroReserve
	}
	if err := fixedpoint.CheckBalance(a); err != nil {
		return err
	}
	return fixedpoint.CheckBalance(b)
}
