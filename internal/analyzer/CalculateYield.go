/*

This file contains the fee-yield estimator: capital-efficiency weighting,
the protocol/LP fee split, daily-compounded APY and the mining-reward
allocation.

*/

package analyzer

import (
	"errors"
	"math"

	"github.com/rangebound/clmm-simulator/internal/logger"
	"github.com/rangebound/clmm-simulator/internal/types"
)

var yieldLogger = logger.GetForComponent("yield_estimator")

var ErrInvalidYieldParameters = errors.New("invalid yield parameters")

const daysPerYear = 365.0

// EstimateYield projects fee income for a position.
// Inputs:
//   - dailyVolumeUSD, poolTVLUSD: pool figures; 0 means "unknown" and
//     degrades the estimate to zero rather than erroring.
//   - feeRate: decimal trading-fee fraction, e.g. 0.003.
//   - positionValueUSD: current USD value of the position.
//   - rangeWidthRatio: range width relative to its midpoint price; its
//     inverse (capped) is the capital-efficiency multiplier.
//
// Output:
//   - A YieldEstimate. Degenerate inputs (non-positive position value or
//     TVL) yield an all-zero estimate, not an error.
func EstimateYield(dailyVolumeUSD, feeRate, positionValueUSD, poolTVLUSD, rangeWidthRatio float64, params types.SimulationParameters) (types.YieldEstimate, error) {
	if err := validateYieldParams(params); err != nil {
		return types.YieldEstimate{}, err
	}
	for _, v := range []float64{dailyVolumeUSD, feeRate, positionValueUSD, poolTVLUSD, rangeWidthRatio} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.YieldEstimate{}, errors.New("yield input is not finite")
		}
	}

	if positionValueUSD <= 0 || poolTVLUSD <= 0 {
		yieldLogger.Debug().
			Float64("positionValueUSD", positionValueUSD).
			Float64("poolTVLUSD", poolTVLUSD).
			Msg("Degenerate yield inputs, returning zero estimate")
		return types.YieldEstimate{}, nil
	}

	capitalEfficiency := params.CapitalEfficiencyCap
	if rangeWidthRatio > 0 {
		capitalEfficiency = math.Min(1/rangeWidthRatio, params.CapitalEfficiencyCap)
	}

	effectiveShare := math.Min((positionValueUSD/poolTVLUSD)*capitalEfficiency, 1)

	totalDailyFees := dailyVolumeUSD * feeRate * effectiveShare
	protocolCut := totalDailyFees * params.ProtocolFeeShare
	lpDailyFees := totalDailyFees - protocolCut

	feeAPR := lpDailyFees * daysPerYear / positionValueUSD

	apy := math.Pow(1+lpDailyFees/positionValueUSD, daysPerYear) - 1
	if math.IsNaN(apy) || math.IsInf(apy, 0) || apy > params.APYCeiling {
		apy = params.APYCeiling
	}

	estimate := types.YieldEstimate{
		APY:               apy,
		FeeAPR:            feeAPR,
		DailyFeesUSD:      lpDailyFees,
		ProtocolFeeUSD:    protocolCut,
		CapitalEfficiency: capitalEfficiency,
		EffectiveShare:    effectiveShare,
	}

	yieldLogger.Debug().
		Float64("dailyVolumeUSD", dailyVolumeUSD).
		Float64("feeRate", feeRate).
		Float64("capitalEfficiency", capitalEfficiency).
		Float64("effectiveShare", effectiveShare).
		Float64("lpDailyFeesUSD", lpDailyFees).
		Float64("apy", apy).
		Msg("Yield estimated")

	return estimate, nil
}

// AllocateMiningRewards returns the position's share of a pool's daily
// reward emission, weighted by the same efficiency-adjusted share the fee
// estimate uses. Unknown emission (0) allocates nothing.
func AllocateMiningRewards(dailyEmissionUSD, effectiveShare float64) float64 {
	if dailyEmissionUSD <= 0 || effectiveShare <= 0 ||
		math.IsNaN(dailyEmissionUSD) || math.IsInf(dailyEmissionUSD, 0) ||
		math.IsNaN(effectiveShare) {
		return 0
	}
	return dailyEmissionUSD * math.Min(effectiveShare, 1)
}

func validateYieldParams(params types.SimulationParameters) error {
	if params.CapitalEfficiencyCap <= 0 || math.IsNaN(params.CapitalEfficiencyCap) || math.IsInf(params.CapitalEfficiencyCap, 0) {
		return errors.Join(ErrInvalidYieldParameters, errors.New("CapitalEfficiencyCap must be positive"))
	}
	if params.ProtocolFeeShare < 0 || params.ProtocolFeeShare > 1 || math.IsNaN(params.ProtocolFeeShare) {
		return errors.Join(ErrInvalidYieldParameters, errors.New("ProtocolFeeShare must be between 0 and 1"))
	}
	if params.APYCeiling <= 0 || math.IsNaN(params.APYCeiling) || math.IsInf(params.APYCeiling, 0) {
		return errors.Join(ErrInvalidYieldParameters, errors.New("APYCeiling must be positive"))
	}
	return nil
}
