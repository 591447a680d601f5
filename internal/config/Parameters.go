/*

This file contains the default dynamic fee parameters for the solver.

These defaults are used if no active parameters are found in the database
during initialization. They keep the fee band wide enough to price one-sided
flow while the floor still covers routine two-way volume.

*/

package config

import (
	sdkmath "cosmossdk.io/math"

	"github.com/hubdex-protocol/solvercore/internal/fixedpoint"
	"github.com/hubdex-protocol/solvercore/internal/types"
)

// DefaultFeeParameters provides a baseline dynamic fee configuration.
var DefaultFeeParameters = types.FeeParams{
	// MinFee is the fee floor. 0.25% covers routine balanced flow.
	MinFee: fixedpoint.Permill(2_500),

	// MaxFee caps what one-sided flow can push the fee to.
	MaxFee: fixedpoint.Permill(50_000), // 5%

	// Amplification scales how strongly net flow relative to liquidity
	// moves the fee between blocks.
	Amplification: sdkmath.LegacyNewDec(2),

	// Decay pulls an idle asset's fee back toward the band midpoint, per
	// block without trades.
	Decay: sdkmath.LegacyNewDecWithPrec(1, 3), // 0.001
}
