/*

This file contains the dynamic fee engine. Fee recomputation is pure and
total: it never fails, and degenerate inputs (zero liquidity) fall back to the
previous fee unchanged so the guard lives in exactly one place.

*/

package fees

import (
	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
	"github.com/hubdex-protocol/solvercore/internal/types"
)

// decayExponentCap bounds the Power call; for any positive decay the
// remaining deviation is negligible past this many blocks.
const decayExponentCap = 64

// RecalculateAssetFee recomputes the asset-leg fee from the rolling volume
// oracle. Net outflow (amount_out > amount_in) raises the fee, net inflow
// lowers it; the result is clamped to [MinFee, MaxFee].
func RecalculateAssetFee(volume types.OracleEntry, previousFee fixedpoint.Permill, blocksElapsed uint64, params types.FeeParams) fixedpoint.Permill {
	return recalculate(volume, previousFee, blocksElapsed, params, false)
}

// RecalculateProtocolFee recomputes the hub-leg protocol fee. It moves
// opposite to the asset fee: net inflow raises it, net outflow lowers it.
func RecalculateProtocolFee(volume types.OracleEntry, previousFee fixedpoint.Permill, blocksElapsed uint64, params types.FeeParams) fixedpoint.Permill {
	return recalculate(volume, previousFee, blocksElapsed, params, true)
}

func recalculate(volume types.OracleEntry, previousFee fixedpoint.Permill, blocksElapsed uint64, params types.FeeParams, protocol bool) fixedpoint.Permill {
	if degenerate(volume) || params.Amplification.IsNil() {
		return previousFee
	}

	// diff = amplification * (out - in) / liquidity, signed. The asset fee
	// follows the net flow directly; the protocol fee mirrors it.
	netFlow := sdkmath.LegacyNewDecFromInt(volume.AmountOut).
		Sub(sdkmath.LegacyNewDecFromInt(volume.AmountIn))
	if protocol {
		netFlow = netFlow.Neg()
	}
	delta := params.Amplification.Mul(netFlow).QuoInt(volume.Liquidity)

	candidate := previousFee.Dec().Add(delta)

	// Geometric decay toward the fee-band midpoint, applied per idle block:
	// after k skipped blocks (1-decay)^k of the deviation remains.
	if blocksElapsed > 1 && !params.Decay.IsNil() && params.Decay.IsPositive() {
		exp := blocksElapsed - 1
		if exp > decayExponentCap {
			exp = decayExponentCap
		}
		remaining := sdkmath.LegacyOneDec().Sub(params.Decay).Power(exp)
		mid := params.MinFee.Dec().Add(params.MaxFee.Dec()).QuoInt64(2)
		candidate = mid.Add(candidate.Sub(mid).Mul(remaining))
	}

	minDec, maxDec := params.MinFee.Dec(), params.MaxFee.Dec()
	if candidate.LT(minDec) {
		candidate = minDec
	}
	if candidate.GT(maxDec) {
		candidate = maxDec
	}
	return fixedpoint.PermillFromDec(candidate)
}

// degenerate reports inputs the engine must not divide by.
func degenerate(volume types.OracleEntry) bool {
	return volume.Liquidity.IsNil() || volume.Liquidity.IsZero() ||
		volume.AmountIn.IsNil() || volume.AmountOut.IsNil()
}
