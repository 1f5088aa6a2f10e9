package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rangebound/clmm-simulator/internal/types"
)

func rangeAt(lower, upper float64) types.PriceRange {
	return types.PriceRange{PriceLower: lower, PriceUpper: upper}
}

func TestCalculateValueBasedIL_ZeroAtEntryPrice(t *testing.T) {
	result, err := CalculateValueBasedIL(1.0, 1.0, rangeAt(0.9, 1.1), 50, 50)
	require.NoError(t, err)

	require.Zero(t, result.ILPercent)
	require.False(t, result.Degenerate)
	require.Equal(t, types.RegimeInRange, result.Regime)
	require.InDelta(t, result.ValueHold, result.ValuePool, 1e-9)
}

func TestCalculateValueBasedIL_PriceExitsRangeAbove(t *testing.T) {
	result, err := CalculateValueBasedIL(1.0, 1.5, rangeAt(0.9, 1.1), 50, 50)
	require.NoError(t, err)

	// A 50/50 deposit at entry 1.0 is quote-bound: L = 50/(1-sqrt(0.9)).
	require.InEpsilon(t, 974.3416490252563, result.Liquidity, 1e-9)

	// The base side is reconciled down onto the curve; quote stays at 50.
	require.InDelta(t, 45.34333753581535, result.InitialAmounts.Base, 1e-9)
	require.InDelta(t, 50.0, result.InitialAmounts.Quote, 1e-9)

	// Above the range the position is fully converted to quote.
	require.Equal(t, types.RegimeAboveRange, result.Regime)
	require.Zero(t, result.FinalAmounts.Base)
	require.InDelta(t, 97.55649361312891, result.FinalAmounts.Quote, 1e-9)

	require.InDelta(t, -17.335518025514617, result.ILPercent, 1e-9)
}

func TestCalculateValueBasedIL_PriceExitsRangeBelow(t *testing.T) {
	result, err := CalculateValueBasedIL(1.0, 0.5, rangeAt(0.9, 1.1), 50, 50)
	require.NoError(t, err)

	require.Equal(t, types.RegimeBelowRange, result.Regime)
	require.Zero(t, result.FinalAmounts.Quote)
	require.Positive(t, result.FinalAmounts.Base)
	require.Negative(t, result.ILPercent)
}

func TestCalculateValueBasedIL_DepositMixDoesNotChangeIL(t *testing.T) {
	// IL depends only on the implied liquidity scalar, which cancels in the
	// pool/hold ratio; the raw deposit mix is reconciled away.
	rng := rangeAt(0.8, 1.25)
	a, err := CalculateValueBasedIL(1.0, 1.1, rng, 50, 50)
	require.NoError(t, err)
	b, err := CalculateValueBasedIL(1.0, 1.1, rng, 7, 7)
	require.NoError(t, err)

	require.InDelta(t, a.ILPercent, b.ILPercent, 1e-9)
}

func TestCalculateValueBasedIL_DegenerateDeposit(t *testing.T) {
	// Quote-only deposit in range implies zero liquidity; the result is a
	// flagged zero-IL report, never an error.
	result, err := CalculateValueBasedIL(1.0, 1.2, rangeAt(0.9, 1.1), 0, 100)
	require.NoError(t, err)

	require.True(t, result.Degenerate)
	require.Zero(t, result.ILPercent)
	require.Equal(t, result.ValueHold, result.ValuePool)
}

func TestCalculateValueBasedIL_Errors(t *testing.T) {
	_, err := CalculateValueBasedIL(0, 1.0, rangeAt(0.9, 1.1), 50, 50)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = CalculateValueBasedIL(1.0, math.NaN(), rangeAt(0.9, 1.1), 50, 50)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = CalculateValueBasedIL(1.0, 1.0, rangeAt(1.1, 0.9), 50, 50)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestCalculateAnalyticalIL_AgreesWithValueBasedInRange(t *testing.T) {
	// The closed form and the value-based method are independent
	// derivations of the same quantity and must coincide while the target
	// price stays inside the range. Bounds are relative to entry (k space).
	cases := []struct {
		priceLower, priceUpper, k float64
	}{
		{0.8, 1.25, 1.1},
		{0.8, 1.25, 0.9},
		{0.9, 1.1, 1.05},
		{0.5, 2.0, 1.3},
		{0.7, 1.4, 1.2},
	}
	for _, tc := range cases {
		value, err := CalculateValueBasedIL(1.0, tc.k, rangeAt(tc.priceLower, tc.priceUpper), 100, 100)
		require.NoError(t, err)
		require.False(t, value.Degenerate)

		analytical, err := CalculateAnalyticalIL(tc.k, tc.priceLower, tc.priceUpper)
		require.NoError(t, err)

		require.InDelta(t, value.ILPercent, analytical, 1e-9,
			"[%f, %f] at k=%f", tc.priceLower, tc.priceUpper, tc.k)
	}
}

func TestCalculateAnalyticalIL_KnownValue(t *testing.T) {
	il, err := CalculateAnalyticalIL(1.1, 0.8, 1.25)
	require.NoError(t, err)
	require.InDelta(t, -1.0745478167020, il, 1e-9)
}

func TestCalculateAnalyticalIL_ZeroAtUnitRatio(t *testing.T) {
	il, err := CalculateAnalyticalIL(1.0, 0.9, 1.1)
	require.NoError(t, err)
	require.Zero(t, il)
}

func TestCalculateAnalyticalIL_Errors(t *testing.T) {
	_, err := CalculateAnalyticalIL(0, 0.9, 1.1)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = CalculateAnalyticalIL(1.1, 1.1, 0.9)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestGenerateILCurve_EmitsFullGrid(t *testing.T) {
	grid := types.CurveGrid{MinPercent: -50, MaxPercent: 100, Steps: 30}
	points, err := GenerateILCurve(1.0, rangeAt(0.9, 1.1), 50, 50, grid)
	require.NoError(t, err)

	require.Len(t, points, 31)
	require.InDelta(t, -50.0, points[0].PriceChangePercent, 1e-9)
	require.InDelta(t, 100.0, points[len(points)-1].PriceChangePercent, 1e-9)

	for _, p := range points {
		require.Positive(t, p.TargetPrice)
		require.False(t, math.IsNaN(p.ILPercent))
	}
}

func TestGenerateILCurve_SkipsNonPositiveTargets(t *testing.T) {
	// A grid reaching -100% and beyond drops the unpriceable points
	// instead of failing the curve.
	grid := types.CurveGrid{MinPercent: -120, MaxPercent: 0, Steps: 12}
	points, err := GenerateILCurve(1.0, rangeAt(0.9, 1.1), 50, 50, grid)
	require.NoError(t, err)

	require.Len(t, points, 10)
	for _, p := range points {
		require.Positive(t, p.TargetPrice)
	}
}

func TestGenerateILCurve_Deterministic(t *testing.T) {
	grid := types.CurveGrid{MinPercent: -80, MaxPercent: 200, Steps: 56}
	first, err := GenerateILCurve(1.0, rangeAt(0.9, 1.1), 50, 50, grid)
	require.NoError(t, err)
	second, err := GenerateILCurve(1.0, rangeAt(0.9, 1.1), 50, 50, grid)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestGenerateILCurve_AmplificationDoublesOutOfRange(t *testing.T) {
	grid := types.CurveGrid{MinPercent: -40, MaxPercent: 40, Steps: 80}
	points, err := GenerateILCurve(1.0, rangeAt(0.9, 1.1), 50, 50, grid)
	require.NoError(t, err)

	var sawInRange, sawOutOfRange bool
	for _, p := range points {
		if p.ILReferencePercent == 0 {
			continue
		}
		raw := math.Abs(p.ILPercent / p.ILReferencePercent)
		if p.Regime == types.RegimeInRange {
			sawInRange = true
			require.InDelta(t, raw, p.Amplification, 1e-9)
		} else {
			sawOutOfRange = true
			require.InDelta(t, raw*2, p.Amplification, 1e-9)
		}
	}
	require.True(t, sawInRange)
	require.True(t, sawOutOfRange)
}

func TestGenerateILCurve_InvalidGrid(t *testing.T) {
	_, err := GenerateILCurve(1.0, rangeAt(0.9, 1.1), 50, 50, types.CurveGrid{MinPercent: -50, MaxPercent: 100, Steps: 0})
	require.ErrorIs(t, err, ErrInvalidGrid)

	_, err = GenerateILCurve(1.0, rangeAt(0.9, 1.1), 50, 50, types.CurveGrid{MinPercent: 100, MaxPercent: -50, Steps: 10})
	require.ErrorIs(t, err, ErrInvalidGrid)
}
