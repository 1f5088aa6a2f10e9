/*

This file contains the composite position-health score: four independently
capped sub-scores summed to 0-100, a discrete status tier, and a short
summary chosen by a fixed decision table.

*/

package analyzer

import (
	"errors"
	"fmt"
	"math"

	"github.com/rangebound/clmm-simulator/internal/logger"
	"github.com/rangebound/clmm-simulator/internal/types"
)

var healthLogger = logger.GetForComponent("health_scorer")

var ErrInvalidHealthParameters = errors.New("invalid health parameters")

// Sub-score caps. The proximity component dominates because an
// out-of-range position earns nothing regardless of its other metrics.
const (
	proximityCap  = 30.0
	ilCap         = 25.0
	trendCap      = 25.0
	efficiencyCap = 20.0
)

// CalculatePositionHealth scores a position 0-100.
// Inputs:
//   - currentPrice: the pool's current quote-per-base price.
//   - rng: the position's range.
//   - ilPercent: current impermanent loss (negative when underperforming).
//   - feeAPR: simple annualized fee rate, decimal.
//   - daysHeld: how long the position has been open; drives the net-of-fees
//     trend component.
//
// Output:
//   - A HealthReport with the component breakdown, status tier and summary.
func CalculatePositionHealth(currentPrice float64, rng types.PriceRange, ilPercent, feeAPR, daysHeld float64, params types.SimulationParameters) (types.HealthReport, error) {
	if err := validatePrice(currentPrice); err != nil {
		return types.HealthReport{}, err
	}
	if err := validateRange(rng); err != nil {
		return types.HealthReport{}, err
	}
	if err := validateHealthParams(params); err != nil {
		return types.HealthReport{}, err
	}
	for _, v := range []float64{ilPercent, feeAPR, daysHeld} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.HealthReport{}, errors.New("health input is not finite")
		}
	}
	if daysHeld < 0 {
		return types.HealthReport{}, errors.New("daysHeld cannot be negative")
	}

	var report types.HealthReport
	inRange := rng.Contains(currentPrice)

	// Proximity to range center (0-30). Zero when out of range; linear
	// decay from the center to the boundary otherwise.
	if inRange {
		center := (rng.PriceLower + rng.PriceUpper) / 2
		halfWidth := (rng.PriceUpper - rng.PriceLower) / 2
		distance := math.Abs(currentPrice-center) / halfWidth
		report.Components.RangeProximity = clamp(proximityCap*(1-distance), 0, proximityCap)
	}

	// IL magnitude (0-25), linear penalty per percent of loss.
	report.Components.ILMagnitude = clamp(ilCap-math.Abs(ilPercent)*params.HealthILPenaltyPerPercent, 0, ilCap)

	// Net-of-fees trend (0-25): fees accrued over the holding period
	// against the current IL, centered at half credit when they cancel.
	feesEarnedPercent := feeAPR / daysPerYear * daysHeld * 100
	netPercent := feesEarnedPercent + ilPercent
	report.Components.NetTrend = clamp(trendCap/2+netPercent*(trendCap/10), 0, trendCap)

	// Capital efficiency (0-20): an efficiency multiplier of 10x or more
	// earns the full component.
	widthRatio := rng.WidthRatio()
	capitalEfficiency := params.CapitalEfficiencyCap
	if widthRatio > 0 {
		capitalEfficiency = math.Min(1/widthRatio, params.CapitalEfficiencyCap)
	}
	report.Components.CapitalEfficiency = clamp(efficiencyCap*capitalEfficiency/10, 0, efficiencyCap)

	report.Score = report.Components.RangeProximity +
		report.Components.ILMagnitude +
		report.Components.NetTrend +
		report.Components.CapitalEfficiency

	if math.IsNaN(report.Score) || math.IsInf(report.Score, 0) {
		return types.HealthReport{}, errors.New("health score calculation resulted in non-finite value")
	}

	report.Status = statusForScore(report.Score, params)
	report.Summary = summaryFor(inRange, ilPercent, feesEarnedPercent, params)

	healthLogger.Debug().
		Float64("currentPrice", currentPrice).
		Bool("inRange", inRange).
		Float64("ilPercent", ilPercent).
		Float64("score", report.Score).
		Str("status", string(report.Status)).
		Msg("Position health calculated")

	return report, nil
}

// statusForScore maps a composite score to its tier via fixed thresholds.
func statusForScore(score float64, params types.SimulationParameters) types.HealthStatus {
	switch {
	case score >= params.HealthExcellentThreshold:
		return types.HealthExcellent
	case score >= params.HealthGoodThreshold:
		return types.HealthGood
	case score >= params.HealthFairThreshold:
		return types.HealthFair
	case score >= params.HealthPoorThreshold:
		return types.HealthPoor
	default:
		return types.HealthCritical
	}
}

// summaryFor picks the summary line. Checked in priority order:
// out-of-range beats high-IL beats fees-outpacing-IL beats the default.
func summaryFor(inRange bool, ilPercent, feesEarnedPercent float64, params types.SimulationParameters) string {
	switch {
	case !inRange:
		return "Position is out of range and earning no trading fees; consider rebalancing."
	case math.Abs(ilPercent) > params.HealthHighILThreshold:
		return fmt.Sprintf("Impermanent loss of %.2f%% is elevated for this range.", ilPercent)
	case feesEarnedPercent > math.Abs(ilPercent):
		return "Fee income is outpacing impermanent loss; the position is net positive."
	default:
		return "Position is in range and operating normally."
	}
}

func validateHealthParams(params types.SimulationParameters) error {
	if params.HealthILPenaltyPerPercent < 0 || math.IsNaN(params.HealthILPenaltyPerPercent) {
		return errors.Join(ErrInvalidHealthParameters, errors.New("HealthILPenaltyPerPercent cannot be negative"))
	}
	if params.HealthHighILThreshold < 0 || math.IsNaN(params.HealthHighILThreshold) {
		return errors.Join(ErrInvalidHealthParameters, errors.New("HealthHighILThreshold cannot be negative"))
	}
	thresholds := []float64{
		params.HealthExcellentThreshold,
		params.HealthGoodThreshold,
		params.HealthFairThreshold,
		params.HealthPoorThreshold,
	}
	previous := math.Inf(1)
	for _, t := range thresholds {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return errors.Join(ErrInvalidHealthParameters, errors.New("health threshold is not finite"))
		}
		if t > previous {
			return errors.Join(ErrInvalidHealthParameters, errors.New("health thresholds must be non-increasing"))
		}
		previous = t
	}
	if params.CapitalEfficiencyCap <= 0 {
		return errors.Join(ErrInvalidHealthParameters, errors.New("CapitalEfficiencyCap must be positive"))
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
