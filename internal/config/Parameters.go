/*

This file contains the default parameters for the position simulator.

These parameters shape every derived figure the simulator produces (yield,
health, rebalance advice), so each value carries the reasoning behind it.

*/

package config

import (
	"github.com/rangebound/clmm-simulator/internal/types"
)

// DefaultSimulationParameters provides a baseline set of parameters for the
// simulator's yield, health, and rebalance logic.
// These values are used if no active parameters are found in the database
// during initialization.
var DefaultSimulationParameters = types.SimulationParameters{
	// --- Yield Estimation Parameters ---
	CapitalEfficiencyCap: 100.0, // Cap concentration multiplier at 100x.
	// Rationale: Efficiency is the inverse of range width, so vanishingly
	// narrow ranges produce absurd multipliers. Real positions that tight
	// fall out of range within minutes, making the theoretical efficiency
	// unearnable. 100x bounds the estimate to something achievable.

	ProtocolFeeShare: 0.2, // Protocol retains 20% of swap fees.
	// Rationale: Matches the fee split common across major concentrated
	// liquidity deployments. Only the remaining 80% accrues to LPs, so
	// projecting on gross fees would overstate returns by a quarter.

	APYCeiling: 100.0, // Cap compounded APY at 10,000%.
	// Rationale: Narrow ranges on high-volume pools can compound into
	// astronomical APY figures that no position sustains. The cap keeps
	// projections in a range a user can take at face value.

	// --- Health Scoring Parameters ---
	HealthILPenaltyPerPercent: 5.0, // Deduct 5 health points per 1% of IL.
	// Rationale: The IL component spans 25 points, so 5%+ of IL zeroes it.
	// Beyond that level IL usually dominates fee income for typical
	// holding periods, which is exactly what the score should surface.

	HealthHighILThreshold: 5.0, // Flag IL above 5% in the summary.
	// Rationale: Aligned with the penalty slope above. Past this point the
	// position's main risk is divergence, not range placement.

	HealthExcellentThreshold: 85.0,
	HealthGoodThreshold:      70.0,
	HealthFairThreshold:      50.0,
	HealthPoorThreshold:      30.0,
	// Rationale: A position loses its full proximity component the moment
	// price exits the range, so the tier boundaries are spaced to make
	// out-of-range positions land no better than "fair" even when every
	// other component is perfect.

	// --- Rebalance Evaluation Parameters ---
	GasTransactionsPerRebalance: 2, // A rebalance is a withdraw plus a mint.
	// Rationale: Closing the old position and opening the new one are
	// separate transactions on every major deployment. Collecting fees
	// rides along with the withdrawal.

	BreakEvenRecommendDays: 7.0, // Recommend if gas pays back within a week.
	// Rationale: Fee projections are only as stable as recent volume. A
	// payback inside one week sits within the window where today's volume
	// figures remain a reasonable forecast.

	BreakEvenRejectDays: 30.0, // Reject if payback takes more than a month.
	// Rationale: Past 30 days the volume and price assumptions behind the
	// fee delta have decayed too far to justify spending gas on them.

	MinFeeDeltaUSD: 0.000001, // Treat fee deltas below a micro-dollar as zero.
	// Rationale: Guards the break-even division against float noise when
	// the old and new ranges produce effectively identical fee income.
}
