/*

This file contains the tick and price-range types shared by every component
of the simulator.

*/

package types

// Tick is an index into the geometric price ladder price(tick) = 1.0001^tick.
type Tick = int

// Tick bounds supported by the Q64.64 sqrt-price encoding. A sqrt price at
// MaxTick still fits a 128-bit word; beyond that the fixed-point path
// overflows.
const (
	MinTick Tick = -443636
	MaxTick Tick = 443636
)

// Regime describes where the current price sits relative to a position's
// range, and therefore which token(s) the position holds.
type Regime string

const (
	RegimeBelowRange Regime = "BELOW_RANGE" // price under the range: 100% base token
	RegimeInRange    Regime = "IN_RANGE"    // price inside the range: mixed holdings
	RegimeAboveRange Regime = "ABOVE_RANGE" // price over the range: 100% quote token
)

// PriceRange is a pair of tick boundaries with TickLower < TickUpper.
// PriceLower/PriceUpper are the derived float prices of the boundaries.
type PriceRange struct {
	TickLower  Tick    `json:"tick_lower"`
	TickUpper  Tick    `json:"tick_upper"`
	PriceLower float64 `json:"price_lower"`
	PriceUpper float64 `json:"price_upper"`
}

// WidthRatio returns the range width relative to its midpoint price,
// the quantity capital efficiency is derived from.
func (r PriceRange) WidthRatio() float64 {
	mid := (r.PriceLower + r.PriceUpper) / 2
	if mid <= 0 {
		return 0
	}
	return (r.PriceUpper - r.PriceLower) / mid
}

// Contains reports whether price lies inside [PriceLower, PriceUpper).
func (r PriceRange) Contains(price float64) bool {
	return price >= r.PriceLower && price < r.PriceUpper
}

// RegimeFor classifies price against the range boundaries.
//
// Token convention used across the whole simulator: price is quoted as
// units of the quote token per unit of the base token. When price falls
// below the range the position converges to 100% base (the depreciating
// asset); when it rises above the range it converges to 100% quote. The
// amounts are continuous at both boundaries.
func (r PriceRange) RegimeFor(price float64) Regime {
	switch {
	case price < r.PriceLower:
		return RegimeBelowRange
	case price >= r.PriceUpper:
		return RegimeAboveRange
	default:
		return RegimeInRange
	}
}
