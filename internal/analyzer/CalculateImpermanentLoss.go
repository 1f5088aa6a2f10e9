/*

This file contains the impermanent-loss engine: the value-based method (the
primary number, valid in and out of range), the closed-form analytical
approximation (an independent derivation kept as a cross-validation
oracle), and curve generation over a price-change grid.

*/

package analyzer

import (
	"errors"
	"fmt"
	"math"

	"github.com/rangebound/clmm-simulator/internal/liquidity"
	"github.com/rangebound/clmm-simulator/internal/logger"
	"github.com/rangebound/clmm-simulator/internal/types"
)

var ilLogger = logger.GetForComponent("il_engine")

var (
	ErrInvalidRange = errors.New("invalid price range")
	ErrInvalidPrice = errors.New("price must be positive and finite")
	ErrInvalidGrid  = errors.New("invalid curve grid")
)

// CalculateValueBasedIL computes impermanent loss at targetPrice relative
// to a deposit made at entryPrice.
// Inputs:
//   - entryPrice, targetPrice: quote-per-base prices, both positive.
//   - rng: the position's price range (PriceLower < PriceUpper, both positive).
//   - amountBase, amountQuote: the caller's deposit at entryPrice, token units.
//
// Output:
//   - An ILResult. The initial amounts in the result are reconciled onto the
//     constant-liquidity curve and may differ slightly from the raw inputs:
//     liquidity is a single scalar, so an inconsistent input ratio cannot be
//     represented exactly. IL is measured against the reconciled amounts.
//
// If the implied liquidity is non-finite or non-positive the result is a
// zero-IL report flagged Degenerate rather than an error: single-sided or
// inconsistent deposits are legitimate inputs and must not abort a batch
// curve generation.
func CalculateValueBasedIL(entryPrice, targetPrice float64, rng types.PriceRange, amountBase, amountQuote float64) (types.ILResult, error) {
	if err := validateRange(rng); err != nil {
		return types.ILResult{}, err
	}
	if err := validatePrice(entryPrice); err != nil {
		return types.ILResult{}, err
	}
	if err := validatePrice(targetPrice); err != nil {
		return types.ILResult{}, err
	}

	sqrtLower := math.Sqrt(rng.PriceLower)
	sqrtUpper := math.Sqrt(rng.PriceUpper)
	sqrtEntry := math.Sqrt(entryPrice)
	sqrtTarget := math.Sqrt(targetPrice)

	result := types.ILResult{
		EntryPrice:  entryPrice,
		TargetPrice: targetPrice,
		Regime:      rng.RegimeFor(targetPrice),
	}

	liq, err := liquidity.LiquidityFromAmounts(sqrtEntry, sqrtLower, sqrtUpper, amountBase, amountQuote)
	if err != nil {
		return types.ILResult{}, fmt.Errorf("liquidity derivation failed: %w", err)
	}
	if liq <= 0 || math.IsNaN(liq) || math.IsInf(liq, 0) {
		ilLogger.Debug().
			Float64("entryPrice", entryPrice).
			Float64("amountBase", amountBase).
			Float64("amountQuote", amountQuote).
			Float64("impliedLiquidity", liq).
			Msg("Implied liquidity unusable, reporting zero IL")
		result.Degenerate = true
		result.InitialAmounts = types.TokenAmounts{Base: amountBase, Quote: amountQuote}
		result.FinalAmounts = result.InitialAmounts
		result.ValueHold = result.InitialAmounts.ValueInQuote(targetPrice)
		result.ValuePool = result.ValueHold
		return result, nil
	}
	result.Liquidity = liq

	// Reconcile the initial split onto the curve, then move the same
	// liquidity to the target price.
	initial, err := liquidity.AmountsFromLiquidity(sqrtEntry, sqrtLower, sqrtUpper, liq)
	if err != nil {
		return types.ILResult{}, fmt.Errorf("initial amount derivation failed: %w", err)
	}
	final, err := liquidity.AmountsFromLiquidity(sqrtTarget, sqrtLower, sqrtUpper, liq)
	if err != nil {
		return types.ILResult{}, fmt.Errorf("final amount derivation failed: %w", err)
	}
	result.InitialAmounts = initial
	result.FinalAmounts = final

	result.ValueHold = initial.ValueInQuote(targetPrice)
	result.ValuePool = final.ValueInQuote(targetPrice)

	if result.ValueHold <= 0 || math.IsNaN(result.ValueHold) || math.IsInf(result.ValueHold, 0) {
		result.Degenerate = true
		result.ILPercent = 0
		return result, nil
	}

	result.ILPercent = (result.ValuePool/result.ValueHold - 1) * 100
	if math.IsNaN(result.ILPercent) || math.IsInf(result.ILPercent, 0) {
		result.Degenerate = true
		result.ILPercent = 0
	}
	return result, nil
}

// CalculateAnalyticalIL is the closed-form concentrated-range IL at price
// ratio k = targetPrice/entryPrice, valid only while the price stays inside
// the range. priceLower and priceUpper are expressed relative to the entry
// price (entry = 1). It scales the full-range constant-product IL,
// IL_v2 = 2*sqrt(k)/(1+k) - 1, by the concentration factor
// (1+k) / (k*(1 - 1/sqrt(pu)) + 1 - sqrt(pl)), which follows from
// expanding the constant-liquidity amounts at entry and target.
// Output is a percentage (negative when the position underperforms).
//
// This is an independent derivation of the same quantity as
// CalculateValueBasedIL and is kept as a built-in correctness check; the
// value-based method is the primary number because it also handles
// out-of-range prices.
func CalculateAnalyticalIL(k, priceLower, priceUpper float64) (float64, error) {
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return 0, fmt.Errorf("%w: ratio %f", ErrInvalidPrice, k)
	}
	if priceLower <= 0 || priceUpper <= priceLower {
		return 0, fmt.Errorf("%w: [%f, %f]", ErrInvalidRange, priceLower, priceUpper)
	}
	if k == 1 {
		return 0, nil
	}

	sqrtK := math.Sqrt(k)
	ilV2 := 2*sqrtK/(1+k) - 1

	denominator := k*(1-1/math.Sqrt(priceUpper)) + (1 - math.Sqrt(priceLower))
	if denominator <= 0 || math.IsNaN(denominator) || math.IsInf(denominator, 0) {
		return 0, fmt.Errorf("%w: concentration scale is undefined for [%f, %f]", ErrInvalidRange, priceLower, priceUpper)
	}

	scale := (1 + k) / denominator
	return ilV2 * scale * 100, nil
}

// GenerateILCurve samples value-based IL over a grid of price changes
// around currentPrice. Points whose target price would be non-positive are
// skipped silently; a degenerate point never aborts the rest of the curve.
// The output is a pure function of its inputs: identical calls produce
// identical sequences.
func GenerateILCurve(currentPrice float64, rng types.PriceRange, amountBase, amountQuote float64, grid types.CurveGrid) ([]types.ILCurvePoint, error) {
	if err := validatePrice(currentPrice); err != nil {
		return nil, err
	}
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	if grid.Steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidGrid, grid.Steps)
	}
	if grid.MinPercent >= grid.MaxPercent {
		return nil, fmt.Errorf("%w: min %f >= max %f", ErrInvalidGrid, grid.MinPercent, grid.MaxPercent)
	}

	stepSize := (grid.MaxPercent - grid.MinPercent) / float64(grid.Steps)
	points := make([]types.ILCurvePoint, 0, grid.Steps+1)

	for i := 0; i <= grid.Steps; i++ {
		pct := grid.MinPercent + float64(i)*stepSize
		targetPrice := currentPrice * (1 + pct/100)
		if targetPrice <= 0 {
			continue
		}

		result, err := CalculateValueBasedIL(currentPrice, targetPrice, rng, amountBase, amountQuote)
		if err != nil {
			// Hard validation failures cannot occur past the checks above;
			// anything else is a per-point degeneracy already absorbed into
			// the result, so this is unreachable in practice.
			return nil, fmt.Errorf("curve point at %+.2f%% failed: %w", pct, err)
		}

		k := targetPrice / currentPrice
		ilReference := (2*math.Sqrt(k)/(1+k) - 1) * 100

		amplification := 0.0
		if ilReference != 0 {
			amplification = math.Abs(result.ILPercent / ilReference)
			if result.Regime != types.RegimeInRange {
				// Out of range is where concentrated IL diverges most
				// sharply from the full-range reference.
				amplification *= 2
			}
		}

		points = append(points, types.ILCurvePoint{
			PriceChangePercent: pct,
			TargetPrice:        targetPrice,
			ILPercent:          result.ILPercent,
			ILReferencePercent: ilReference,
			Amplification:      amplification,
			ValueHold:          result.ValueHold,
			ValuePool:          result.ValuePool,
			Regime:             result.Regime,
		})
	}

	ilLogger.Debug().
		Float64("currentPrice", currentPrice).
		Int("requestedSteps", grid.Steps).
		Int("emittedPoints", len(points)).
		Msg("IL curve generated")

	return points, nil
}

func validateRange(rng types.PriceRange) error {
	if rng.PriceLower <= 0 || math.IsNaN(rng.PriceLower) || math.IsInf(rng.PriceLower, 0) {
		return fmt.Errorf("%w: lower price %f", ErrInvalidRange, rng.PriceLower)
	}
	if rng.PriceUpper <= rng.PriceLower || math.IsNaN(rng.PriceUpper) || math.IsInf(rng.PriceUpper, 0) {
		return fmt.Errorf("%w: [%f, %f]", ErrInvalidRange, rng.PriceLower, rng.PriceUpper)
	}
	return nil
}

func validatePrice(price float64) error {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: %f", ErrInvalidPrice, price)
	}
	return nil
}
