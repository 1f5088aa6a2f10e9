/*

This file contains the rebalance advisor: it compares the fee projection of
the current range against a candidate range, charges the gas cost of a
withdraw-and-redeposit, and walks a fixed decision table to a
recommendation.

*/

package analyzer

import (
	"errors"
	"fmt"
	"math"

	"github.com/rangebound/clmm-simulator/internal/logger"
	"github.com/rangebound/clmm-simulator/internal/types"
)

var rebalanceLogger = logger.GetForComponent("rebalance_advisor")

var ErrInvalidRebalanceParameters = errors.New("invalid rebalance parameters")

// EvaluateRebalance scores a move from oldRange to newRange.
// Inputs:
//   - currentPrice, positionValueUSD, dailyVolumeUSD, feeRate, poolTVLUSD:
//     the shared snapshot the projections run on.
//   - gasCostPerTxUSD: cost of one transaction; a rebalance is charged as
//     GasTransactionsPerRebalance of them (withdraw + redeposit).
//
// Output:
//   - A RebalanceScenario with old/new APY, break-even time and a verdict.
//     BreakEvenDays is +Inf when the candidate range does not improve daily
//     fees by more than the configured epsilon.
func EvaluateRebalance(
	currentPrice float64,
	oldRange, newRange types.PriceRange,
	positionValueUSD, dailyVolumeUSD, feeRate, poolTVLUSD, gasCostPerTxUSD float64,
	params types.SimulationParameters,
) (types.RebalanceScenario, error) {
	if err := validatePrice(currentPrice); err != nil {
		return types.RebalanceScenario{}, err
	}
	if err := validateRange(oldRange); err != nil {
		return types.RebalanceScenario{}, fmt.Errorf("old range: %w", err)
	}
	if err := validateRange(newRange); err != nil {
		return types.RebalanceScenario{}, fmt.Errorf("new range: %w", err)
	}
	if gasCostPerTxUSD < 0 || math.IsNaN(gasCostPerTxUSD) || math.IsInf(gasCostPerTxUSD, 0) {
		return types.RebalanceScenario{}, errors.Join(ErrInvalidRebalanceParameters, errors.New("gas cost cannot be negative"))
	}
	if params.GasTransactionsPerRebalance <= 0 {
		return types.RebalanceScenario{}, errors.Join(ErrInvalidRebalanceParameters, errors.New("GasTransactionsPerRebalance must be positive"))
	}
	if params.BreakEvenRecommendDays <= 0 || params.BreakEvenRejectDays < params.BreakEvenRecommendDays {
		return types.RebalanceScenario{}, errors.Join(ErrInvalidRebalanceParameters, errors.New("break-even thresholds are inconsistent"))
	}

	oldYield, err := EstimateYield(dailyVolumeUSD, feeRate, positionValueUSD, poolTVLUSD, oldRange.WidthRatio(), params)
	if err != nil {
		return types.RebalanceScenario{}, fmt.Errorf("current-range yield projection failed: %w", err)
	}
	newYield, err := EstimateYield(dailyVolumeUSD, feeRate, positionValueUSD, poolTVLUSD, newRange.WidthRatio(), params)
	if err != nil {
		return types.RebalanceScenario{}, fmt.Errorf("candidate-range yield projection failed: %w", err)
	}

	scenario := types.RebalanceScenario{
		OldRange:     oldRange,
		NewRange:     newRange,
		OldAPY:       oldYield.APY,
		ProjectedAPY: newYield.APY,
		GasCostUSD:   gasCostPerTxUSD * float64(params.GasTransactionsPerRebalance),
	}

	// An out-of-range current position contributes no fees regardless of
	// what the width-based projection says.
	oldDailyFees := oldYield.DailyFeesUSD
	if !oldRange.Contains(currentPrice) {
		oldDailyFees = 0
	}

	feeDelta := newYield.DailyFeesUSD - oldDailyFees
	if feeDelta <= params.MinFeeDeltaUSD {
		scenario.BreakEvenDays = math.Inf(1)
	} else {
		scenario.BreakEvenDays = scenario.GasCostUSD / feeDelta
	}

	scenario.Recommendation, scenario.Reason = decideRebalance(currentPrice, oldRange, newRange, scenario.BreakEvenDays, params)

	rebalanceLogger.Debug().
		Float64("currentPrice", currentPrice).
		Float64("gasCostUSD", scenario.GasCostUSD).
		Float64("feeDeltaUSD", feeDelta).
		Float64("breakEvenDays", scenario.BreakEvenDays).
		Str("recommendation", string(scenario.Recommendation)).
		Msg("Rebalance scenario evaluated")

	return scenario, nil
}

// decideRebalance walks the decision table in order; the first matching
// branch wins.
func decideRebalance(currentPrice float64, oldRange, newRange types.PriceRange, breakEvenDays float64, params types.SimulationParameters) (types.Recommendation, string) {
	oldInRange := oldRange.Contains(currentPrice)
	newInRange := newRange.Contains(currentPrice)

	switch {
	case !newInRange:
		return types.NotRecommended,
			"Candidate range does not contain the current price; the new position would start out of range and earn no fees."
	case !oldInRange && newInRange:
		return types.Recommended,
			"Current position is out of range and earning nothing; moving back in range restores fee income."
	case breakEvenDays < params.BreakEvenRecommendDays:
		return types.Recommended,
			fmt.Sprintf("Gas cost is recovered in %.1f days of improved fees.", breakEvenDays)
	case breakEvenDays > params.BreakEvenRejectDays:
		return types.NotRecommended,
			fmt.Sprintf("Break-even takes longer than %.0f days; the fee improvement does not justify the gas cost.", params.BreakEvenRejectDays)
	default:
		return types.Neutral,
			fmt.Sprintf("Break-even in %.1f days; marginal improvement, either choice is defensible.", breakEvenDays)
	}
}
