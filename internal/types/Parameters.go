/*

This file contains the tunable parameters for the simulator. Different sets
can exist for different risk profiles; the active set is versioned in the
database.

*/

package types

// SimulationParameters holds all tunable caps, weights, splits and
// thresholds used by the yield estimator, the health scorer and the
// rebalance advisor.
type SimulationParameters struct {
	// --- Yield Estimation ---
	CapitalEfficiencyCap float64 `json:"capital_efficiency_cap"` // Upper bound on 1/rangeWidthRatio (e.g., 100) to contain pathological narrow ranges.
	ProtocolFeeShare     float64 `json:"protocol_fee_share"`     // Fraction of trading fees retained by the protocol (0.0 to 1.0); LPs receive the remainder.
	APYCeiling           float64 `json:"apy_ceiling"`            // Maximum APY reported, decimal (e.g., 100.0 for 10000%), guards near-zero-denominator inputs.

	// --- Health Scoring ---
	HealthILPenaltyPerPercent float64 `json:"health_il_penalty_per_percent"` // Points deducted from the IL sub-score per percent of IL magnitude.
	HealthHighILThreshold     float64 `json:"health_high_il_threshold"`      // |IL| percent above which the summary flags high impermanent loss.
	HealthExcellentThreshold  float64 `json:"health_excellent_threshold"`    // Minimum composite score for the "excellent" tier.
	HealthGoodThreshold       float64 `json:"health_good_threshold"`
	HealthFairThreshold       float64 `json:"health_fair_threshold"`
	HealthPoorThreshold       float64 `json:"health_poor_threshold"`

	// --- Rebalance Advisor ---
	GasTransactionsPerRebalance int     `json:"gas_transactions_per_rebalance"` // Transactions charged per rebalance (withdraw + redeposit).
	BreakEvenRecommendDays      float64 `json:"break_even_recommend_days"`      // Break-even below this many days is Recommended.
	BreakEvenRejectDays         float64 `json:"break_even_reject_days"`         // Break-even above this many days is NotRecommended.
	MinFeeDeltaUSD              float64 `json:"min_fee_delta_usd"`              // Epsilon under which the daily-fee improvement counts as zero.
}
