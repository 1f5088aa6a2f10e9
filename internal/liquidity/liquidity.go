/*

This file contains the dual conversions between a position's liquidity
scalar and its token composition, across the three range regimes.

Token convention (applied consistently across the whole simulator): price
is quoted as quote tokens per base token and sqrtPrice = sqrt(price).
Below the range the position holds only the base token, above the range
only the quote token, and the amounts are continuous at both boundaries:

	amountBase  = L * (1/sqrtPrice - 1/sqrtUpper)   clamped to [sqrtLower, sqrtUpper]
	amountQuote = L * (sqrtPrice - sqrtLower)       clamped to [sqrtLower, sqrtUpper]

*/

package liquidity

import (
	"errors"
	"fmt"
	"math"

	"github.com/rangebound/clmm-simulator/internal/types"
)

var (
	ErrDegenerateRange   = errors.New("degenerate range: lower and upper sqrt prices coincide")
	ErrInvalidSqrtPrice  = errors.New("sqrt prices must be positive and finite")
	ErrNegativeLiquidity = errors.New("liquidity cannot be negative")
	ErrNegativeAmount    = errors.New("token amounts cannot be negative")
)

// AmountsFromLiquidity derives the token composition of a position with
// the given liquidity at the given sqrt price. Inputs are sqrt prices
// (not prices); sqrtLower < sqrtUpper is required.
func AmountsFromLiquidity(sqrtPrice, sqrtLower, sqrtUpper, liq float64) (types.TokenAmounts, error) {
	if err := validateSqrtInputs(sqrtPrice, sqrtLower, sqrtUpper); err != nil {
		return types.TokenAmounts{}, err
	}
	if liq < 0 || math.IsNaN(liq) || math.IsInf(liq, 0) {
		return types.TokenAmounts{}, fmt.Errorf("%w: %f", ErrNegativeLiquidity, liq)
	}

	switch {
	case sqrtPrice <= sqrtLower:
		// Price under the range: all base token, as if the price sat at
		// the lower boundary.
		return types.TokenAmounts{
			Base: liq * (1/sqrtLower - 1/sqrtUpper),
		}, nil
	case sqrtPrice >= sqrtUpper:
		// Price over the range: all quote token.
		return types.TokenAmounts{
			Quote: liq * (sqrtUpper - sqrtLower),
		}, nil
	default:
		return types.TokenAmounts{
			Base:  liq * (1/sqrtPrice - 1/sqrtUpper),
			Quote: liq * (sqrtPrice - sqrtLower),
		}, nil
	}
}

// LiquidityFromAmounts is the inverse of AmountsFromLiquidity, branch
// matched to the same three regimes. In range, each token amount implies a
// liquidity independently and the minimum binds: the scarcer token caps the
// position. If the inputs would imply negative liquidity it is clamped to
// zero.
func LiquidityFromAmounts(sqrtPrice, sqrtLower, sqrtUpper, amountBase, amountQuote float64) (float64, error) {
	if err := validateSqrtInputs(sqrtPrice, sqrtLower, sqrtUpper); err != nil {
		return 0, err
	}
	if amountBase < 0 || amountQuote < 0 {
		return 0, fmt.Errorf("%w: base=%f quote=%f", ErrNegativeAmount, amountBase, amountQuote)
	}

	var liq float64
	switch {
	case sqrtPrice <= sqrtLower:
		liq = amountBase / (1/sqrtLower - 1/sqrtUpper)
	case sqrtPrice >= sqrtUpper:
		liq = amountQuote / (sqrtUpper - sqrtLower)
	default:
		liqBase := amountBase / (1/sqrtPrice - 1/sqrtUpper)
		liqQuote := amountQuote / (sqrtPrice - sqrtLower)
		liq = math.Min(liqBase, liqQuote)
	}

	if liq < 0 {
		liq = 0
	}
	return liq, nil
}

func validateSqrtInputs(sqrtPrice, sqrtLower, sqrtUpper float64) error {
	for _, v := range []float64{sqrtPrice, sqrtLower, sqrtUpper} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: got (%f, %f, %f)", ErrInvalidSqrtPrice, sqrtPrice, sqrtLower, sqrtUpper)
		}
	}
	if sqrtLower >= sqrtUpper {
		return fmt.Errorf("%w: lower=%f upper=%f", ErrDegenerateRange, sqrtLower, sqrtUpper)
	}
	return nil
}
