package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPriceRangeWidthRatio(t *testing.T) {
	rng := PriceRange{PriceLower: 0.8, PriceUpper: 1.2}
	require.InDelta(t, 0.4, rng.WidthRatio(), 1e-9)

	require.Zero(t, PriceRange{}.WidthRatio())
}

func TestPriceRangeContains(t *testing.T) {
	rng := PriceRange{PriceLower: 0.9, PriceUpper: 1.1}

	require.True(t, rng.Contains(0.9), "lower bound is inclusive")
	require.True(t, rng.Contains(1.0))
	require.False(t, rng.Contains(1.1), "upper bound is exclusive")
	require.False(t, rng.Contains(0.89))
}

func TestPriceRangeRegimeFor(t *testing.T) {
	rng := PriceRange{PriceLower: 0.9, PriceUpper: 1.1}

	require.Equal(t, RegimeBelowRange, rng.RegimeFor(0.5))
	require.Equal(t, RegimeInRange, rng.RegimeFor(0.9))
	require.Equal(t, RegimeInRange, rng.RegimeFor(1.0))
	require.Equal(t, RegimeAboveRange, rng.RegimeFor(1.1))
	require.Equal(t, RegimeAboveRange, rng.RegimeFor(2.0))
}

func TestTokenAmountsValueInQuote(t *testing.T) {
	amounts := TokenAmounts{Base: 2, Quote: 10}
	require.InDelta(t, 13.0, amounts.ValueInQuote(1.5), 1e-9)
}
