/*

This file contains the yield, health and rebalance result types.

*/

package types

import (
	"encoding/json"
	"math"
)

// YieldEstimate is the fee-income projection for a position.
type YieldEstimate struct {
	APY               float64 `json:"apy"`                 // Compounded annual yield, decimal (0.25 = 25%)
	FeeAPR            float64 `json:"fee_apr"`             // Simple annualized fee rate, decimal
	DailyFeesUSD      float64 `json:"daily_fees_usd"`      // LP share after the protocol cut
	DailyRewardsUSD   float64 `json:"daily_rewards_usd"`   // Mining-reward allocation
	ProtocolFeeUSD    float64 `json:"protocol_fee_usd"`    // Daily protocol retention
	CapitalEfficiency float64 `json:"capital_efficiency"`  // Narrow-range fee multiplier, capped
	EffectiveShare    float64 `json:"effective_share"`     // Efficiency-weighted share of pool volume
}

// HealthStatus is the discrete tier a health score maps to.
type HealthStatus string

const (
	HealthExcellent HealthStatus = "excellent"
	HealthGood      HealthStatus = "good"
	HealthFair      HealthStatus = "fair"
	HealthPoor      HealthStatus = "poor"
	HealthCritical  HealthStatus = "critical"
)

// HealthReport is the composite 0-100 position-health score with its
// component breakdown.
type HealthReport struct {
	Score      float64      `json:"score"` // 0-100
	Status     HealthStatus `json:"status"`
	Summary    string       `json:"summary"`
	Components struct {
		RangeProximity    float64 `json:"range_proximity"`    // 0-30
		ILMagnitude       float64 `json:"il_magnitude"`       // 0-25
		NetTrend          float64 `json:"net_trend"`          // 0-25
		CapitalEfficiency float64 `json:"capital_efficiency"` // 0-20
	} `json:"components"`
}

// Recommendation is the verdict of a rebalance evaluation.
type Recommendation string

const (
	Recommended    Recommendation = "RECOMMENDED"
	Neutral        Recommendation = "NEUTRAL"
	NotRecommended Recommendation = "NOT_RECOMMENDED"
)

// RebalanceScenario compares an existing range against a candidate range.
type RebalanceScenario struct {
	OldRange       PriceRange     `json:"old_range"`
	NewRange       PriceRange     `json:"new_range"`
	OldAPY         float64        `json:"old_apy"`
	ProjectedAPY   float64        `json:"projected_apy"`
	GasCostUSD     float64        `json:"gas_cost_usd"`     // Withdraw + redeposit
	BreakEvenDays  float64        `json:"break_even_days"`  // +Inf when the fee delta is non-positive
	Recommendation Recommendation `json:"recommendation"`
	Reason         string         `json:"reason"`
}

// rebalanceScenarioAlias breaks the method set so the codecs below can reuse
// the struct tags without recursing.
type rebalanceScenarioAlias RebalanceScenario

// MarshalJSON encodes break_even_days as null when no break-even exists,
// since JSON has no representation for an infinite (or undefined) horizon.
func (r RebalanceScenario) MarshalJSON() ([]byte, error) {
	out := struct {
		rebalanceScenarioAlias
		BreakEvenDays *float64 `json:"break_even_days"`
	}{rebalanceScenarioAlias: rebalanceScenarioAlias(r)}

	if !math.IsInf(r.BreakEvenDays, 0) && !math.IsNaN(r.BreakEvenDays) {
		out.BreakEvenDays = &r.BreakEvenDays
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a null break_even_days to +Inf so persisted
// scenarios round-trip through storage.
func (r *RebalanceScenario) UnmarshalJSON(data []byte) error {
	in := struct {
		*rebalanceScenarioAlias
		BreakEvenDays *float64 `json:"break_even_days"`
	}{rebalanceScenarioAlias: (*rebalanceScenarioAlias)(r)}

	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.BreakEvenDays == nil {
		r.BreakEvenDays = math.Inf(1)
	} else {
		r.BreakEvenDays = *in.BreakEvenDays
	}
	return nil
}
