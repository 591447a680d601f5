/*

This file contains the hub-mediated two-sided pool math. Every tradable asset
keeps an (asset reserve, hub reserve) pair; the hub asset itself is a shared
accounting unit with no reserve of its own. Asset-to-asset trades compose two
legs through the hub atomically, so intermediate hub flow never exists
on-ledger.

Fee model: the asset-leg fee is charged on the asset amount a trader sells
into a subpool (skipped when the sold side is the hub asset); the protocol fee
is debited from the hub amount entering a subpool on the buy leg (absent when
the trade terminates in the hub). Hub minted on the sell leg always equals hub
burned on the buy leg plus the retained protocol fee.

*/

package hubpool

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
)

var (
	ErrZeroReserve            = errors.New("hub pool reserve is zero")
	ErrInsufficientOutReserve = errors.New("amount out exceeds asset reserve")
	ErrInsufficientHubReserve = errors.New("required hub amount exceeds hub reserve")
)

// AssetState is the two-sided reserve pair of one tradable asset.
type AssetState struct {
	Reserve    sdkmath.Int
	HubReserve sdkmath.Int
}

// BalanceUpdate is the signed-by-convention reserve movement of one asset
// subpool: deltas are magnitudes, direction is fixed by the trade shape.
type BalanceUpdate struct {
	DeltaReserve    sdkmath.Int // asset units
	DeltaHubReserve sdkmath.Int // hub units
}

// TradeStateChanges is the complete effect of one hub-mediated trade. A
// single-leg trade populates only the side it touches.
type TradeStateChanges struct {
	AmountIn  sdkmath.Int
	AmountOut sdkmath.Int

	AssetIn  BalanceUpdate // reserve grows, hub reserve shrinks
	AssetOut BalanceUpdate // hub reserve grows, reserve shrinks

	HubMinted sdkmath.Int // hub leaving the in-asset subpool on the sell leg
	HubBurned sdkmath.Int // hub entering the out-asset subpool on the buy leg

	AssetFeeAmount    sdkmath.Int // in-asset units retained in the subpool
	ProtocolFeeAmount sdkmath.Int // hub units retained by the protocol
}

// CalculateSellStateChanges computes a composed asset-to-asset sell of
// amountIn, applying the in-asset fee on the asset leg and the protocol fee
// on the hub leg. Output is rounded down at every narrowing.
func CalculateSellStateChanges(in, out AssetState, amountIn sdkmath.Int, assetFee, protocolFee fixedpoint.Permill) (*TradeStateChanges, error) {
	if err := validateState(in); err != nil {
		return nil, err
	}
	if err := validateState(out); err != nil {
		return nil, err
	}
	if err := fixedpoint.CheckBalance(amountIn); err != nil {
		return nil, err
	}

	feeAmount, netIn, err := chargeFee(amountIn, assetFee)
	if err != nil {
		return nil, err
	}

	hubOut, err := hubOutGivenAssetIn(in, netIn)
	if err != nil {
		return nil, err
	}

	protocolFeeAmount, hubIn, err := chargeFee(hubOut, protocolFee)
	if err != nil {
		return nil, err
	}

	amountOut, err := assetOutGivenHubIn(out, hubIn)
	if err != nil {
		return nil, err
	}

	return &TradeStateChanges{
		AmountIn:          amountIn,
		AmountOut:         amountOut,
		AssetIn:           BalanceUpdate{DeltaReserve: amountIn, DeltaHubReserve: hubOut},
		AssetOut:          BalanceUpdate{DeltaReserve: amountOut, DeltaHubReserve: hubIn},
		HubMinted:         hubOut,
		HubBurned:         hubIn,
		AssetFeeAmount:    feeAmount,
		ProtocolFeeAmount: protocolFeeAmount,
	}, nil
}

// CalculateBuyStateChanges computes the composed trade backwards from an
// exact amountOut, rounding every narrowing up so the pool is never
// underpaid. Fails with ErrInsufficientOutReserve when the out reserve cannot
// cover the purchase.
func CalculateBuyStateChanges(in, out AssetState, amountOut sdkmath.Int, assetFee, protocolFee fixedpoint.Permill) (*TradeStateChanges, error) {
	if err := validateState(in); err != nil {
		return nil, err
	}
	if err := validateState(out); err != nil {
		return nil, err
	}
	if err := fixedpoint.CheckBalance(amountOut); err != nil {
		return nil, err
	}
	if amountOut.GTE(out.Reserve) {
		return nil, ErrInsufficientOutReserve
	}

	hubIn, err := hubInGivenAssetOut(out, amountOut)
	if err != nil {
		return nil, err
	}

	hubOut, protocolFeeAmount, err := grossUpFee(hubIn, protocolFee)
	if err != nil {
		return nil, err
	}

	netIn, err := assetInGivenHubOut(in, hubOut)
	if err != nil {
		return nil, err
	}

	amountIn, assetFeeAmount, err := grossUpFee(netIn, assetFee)
	if err != nil {
		return nil, err
	}

	return &TradeStateChanges{
		AmountIn:          amountIn,
		AmountOut:         amountOut,
		AssetIn:           BalanceUpdate{DeltaReserve: amountIn, DeltaHubReserve: hubOut},
		AssetOut:          BalanceUpdate{DeltaReserve: amountOut, DeltaHubReserve: hubIn},
		HubMinted:         hubOut,
		HubBurned:         hubIn,
		AssetFeeAmount:    assetFeeAmount,
		ProtocolFeeAmount: protocolFeeAmount,
	}, nil
}

// CalculateSellToHubStateChanges sells an asset for the hub asset itself.
// The asset-leg fee applies; there is no buy leg, so no protocol fee.
func CalculateSellToHubStateChanges(in AssetState, amountIn sdkmath.Int, assetFee fixedpoint.Permill) (*TradeStateChanges, error) {
	if err := validateState(in); err != nil {
		return nil, err
	}
	if err := fixedpoint.CheckBalance(amountIn); err != nil {
		return nil, err
	}

	feeAmount, netIn, err := chargeFee(amountIn, assetFee)
	if err != nil {
		return nil, err
	}
	hubOut, err := hubOutGivenAssetIn(in, netIn)
	if err != nil {
		return nil, err
	}

	return &TradeStateChanges{
		AmountIn:       amountIn,
		AmountOut:      hubOut,
		AssetIn:        BalanceUpdate{DeltaReserve: amountIn, DeltaHubReserve: hubOut},
		HubMinted:      hubOut,
		AssetFeeAmount: feeAmount,
	}, nil
}

// CalculateSellHubAssetStateChanges sells hub directly for an asset. The
// asset-leg fee is skipped because the sold side is the hub; the protocol fee
// debits the hub amount entering the subpool.
func CalculateSellHubAssetStateChanges(out AssetState, hubAmountIn sdkmath.Int, protocolFee fixedpoint.Permill) (*TradeStateChanges, error) {
	if err := validateState(out); err != nil {
		return nil, err
	}
	if err := fixedpoint.CheckBalance(hubAmountIn); err != nil {
		return nil, err
	}

	protocolFeeAmount, hubIn, err := chargeFee(hubAmountIn, protocolFee)
	if err != nil {
		return nil, err
	}
	amountOut, err := assetOutGivenHubIn(out, hubIn)
	if err != nil {
		return nil, err
	}

	return &TradeStateChanges{
		AmountIn:          hubAmountIn,
		AmountOut:         amountOut,
		AssetOut:          BalanceUpdate{DeltaReserve: amountOut, DeltaHubReserve: hubIn},
		HubBurned:         hubIn,
		ProtocolFeeAmount: protocolFeeAmount,
	}, nil
}

// CalculateBuyFromHubStateChanges buys an exact asset amount paying in hub.
func CalculateBuyFromHubStateChanges(out AssetState, amountOut sdkmath.Int, protocolFee fixedpoint.Permill) (*TradeStateChanges, error) {
	if err := validateState(out); err != nil {
		return nil, err
	}
	if err := fixedpoint.CheckBalance(amountOut); err != nil {
		return nil, err
	}
	if amountOut.GTE(out.Reserve) {
		return nil, ErrInsufficientOutReserve
	}

	hubIn, err := hubInGivenAssetOut(out, amountOut)
	if err != nil {
		return nil, err
	}
	hubAmountIn, protocolFeeAmount, err := grossUpFee(hubIn, protocolFee)
	if err != nil {
		return nil, err
	}

	return &TradeStateChanges{
		AmountIn:          hubAmountIn,
		AmountOut:         amountOut,
		AssetOut:          BalanceUpdate{DeltaReserve: amountOut, DeltaHubReserve: hubIn},
		HubBurned:         hubIn,
		ProtocolFeeAmount: protocolFeeAmount,
	}, nil
}

// CalculateBuyHubAssetStateChanges buys an exact hub amount with an asset.
func CalculateBuyHubAssetStateChanges(in AssetState, hubAmountOut sdkmath.Int, assetFee fixedpoint.Permill) (*TradeStateChanges, error) {
	if err := validateState(in); err != nil {
		return nil, err
	}
	if err := fixedpoint.CheckBalance(hubAmountOut); err != nil {
		return nil, err
	}
	if hubAmountOut.GTE(in.HubReserve) {
		return nil, ErrInsufficientHubReserve
	}

	netIn, err := assetInGivenHubOut(in, hubAmountOut)
	if err != nil {
		return nil, err
	}
	amountIn, assetFeeAmount, err := grossUpFee(netIn, assetFee)
	if err != nil {
		return nil, err
	}

	return &TradeStateChanges{
		AmountIn:       amountIn,
		AmountOut:      hubAmountOut,
		AssetIn:        BalanceUpdate{DeltaReserve: amountIn, DeltaHubReserve: hubAmountOut},
		HubMinted:      hubAmountOut,
		AssetFeeAmount: assetFeeAmount,
	}, nil
}

// CalculateSpotPrice returns the marginal out-per-in rate implied by the two
// subpools, ignoring fees.
func CalculateSpotPrice(in, out AssetState) (sdkmath.LegacyDec, error) {
	if err := validateState(in); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	if err := validateState(out); err != nil {
		return sdkmath.LegacyDec{}, err
	}
	hubPerIn := sdkmath.LegacyNewDecFromInt(in.HubReserve).QuoInt(in.Reserve)
	outPerHub := sdkmath.LegacyNewDecFromInt(out.Reserve).QuoInt(out.HubReserve)
	return hubPerIn.Mul(outPerHub), nil
}

// CalculateSpotPriceWithFee returns the marginal rate net of both fee
// components.
func CalculateSpotPriceWithFee(in, out AssetState, assetFee, protocolFee fixedpoint.Permill) (sdkmath.LegacyDec, error) {
	gross, err := CalculateSpotPrice(in, out)
	if err != nil {
		return sdkmath.LegacyDec{}, err
	}
	return gross.
		Mul(assetFee.Complement().Dec()).
		Mul(protocolFee.Complement().Dec()), nil
}

// hubOutGivenAssetIn: dH = H*dR/(R+dR), rounded down.
func hubOutGivenAssetIn(s AssetState, amountIn sdkmath.Int) (sdkmath.Int, error) {
	if amountIn.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	newReserve, err := fixedpoint.CheckedAdd(s.Reserve, amountIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return fixedpoint.MulDiv(s.HubReserve, amountIn, newReserve, fixedpoint.RoundDown)
}

// assetOutGivenHubIn: dR = R*dH/(H+dH), rounded down.
func assetOutGivenHubIn(s AssetState, hubIn sdkmath.Int) (sdkmath.Int, error) {
	if hubIn.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	newHub, err := fixedpoint.CheckedAdd(s.HubReserve, hubIn)
	if err != nil {
		return sdkmath.Int{}, err
	}
	return fixedpoint.MulDiv(s.Reserve, hubIn, newHub, fixedpoint.RoundDown)
}

// hubInGivenAssetOut: dH = H*dR/(R-dR), rounded up.
func hubInGivenAssetOut(s AssetState, amountOut sdkmath.Int) (sdkmath.Int, error) {
	if amountOut.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if amountOut.GTE(s.Reserve) {
		return sdkmath.Int{}, ErrInsufficientOutReserve
	}
	return fixedpoint.MulDiv(s.HubReserve, amountOut, s.Reserve.Sub(amountOut), fixedpoint.RoundUp)
}

// assetInGivenHubOut: dR = R*dH/(H-dH), rounded up.
func assetInGivenHubOut(s AssetState, hubOut sdkmath.Int) (sdkmath.Int, error) {
	if hubOut.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	if hubOut.GTE(s.HubReserve) {
		return sdkmath.Int{}, ErrInsufficientHubReserve
	}
	return fixedpoint.MulDiv(s.Reserve, hubOut, s.HubReserve.Sub(hubOut), fixedpoint.RoundUp)
}

// chargeFee splits an amount into (fee, net), rounding the fee up so the
// retained portion is never understated.
func chargeFee(amount sdkmath.Int, fee fixedpoint.Permill) (sdkmath.Int, sdkmath.Int, error) {
	if fee.IsZero() || amount.IsZero() {
		return sdkmath.ZeroInt(), amount, nil
	}
	feeAmount, err := fee.MulBalance(amount, fixedpoint.RoundUp)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	net, err := fixedpoint.CheckedSub(amount, feeAmount)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return feeAmount, net, nil
}

// grossUpFee inverts chargeFee: given the net amount that must survive the
// fee, it returns (gross, fee) with the gross rounded up.
func grossUpFee(net sdkmath.Int, fee fixedpoint.Permill) (sdkmath.Int, sdkmath.Int, error) {
	if fee.IsZero() || net.IsZero() {
		return net, sdkmath.ZeroInt(), nil
	}
	if fee == fixedpoint.PermillDenominator {
		return sdkmath.Int{}, sdkmath.Int{}, fixedpoint.ErrDivisionByZero
	}
	gross, err := fixedpoint.MulDiv(
		net,
		sdkmath.NewInt(fixedpoint.PermillDenominator),
		sdkmath.NewInt(int64(fee.Complement())),
		fixedpoint.RoundUp,
	)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	feeAmount, err := fixedpoint.CheckedSub(gross, net)
	if err != nil {
		return sdkmath.Int{}, sdkmath.Int{}, err
	}
	return gross, feeAmount, nil
}

func validateState(s AssetState) error {
	if s.Reserve.IsNil() || s.HubReserve.IsNil() || s.Reserve.IsZero() || s.HubReserve.IsZero() {
		return ErrZeroReserve
	}
	if err := fixedpoint.CheckBalance(s.Reserve); err != nil {
		return err
	}
	return fixedpoint.CheckBalance(s.HubReserve)
}
