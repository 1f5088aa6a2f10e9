/*

This file contains the position types which hold all the state needed for
simulating a concentrated-liquidity deposit.

*/

package types

// Position is a hypothetical concentrated-liquidity deposit. Liquidity is
// derived once from a reference price and a pair of token amounts, then
// held fixed while price moves; it only changes through an explicit
// rebalance (replace-with-new-position).
type Position struct {
	Liquidity     float64    `json:"liquidity"`      // Constant-product depth scalar, never negative
	Range         PriceRange `json:"range"`          // Active price range of the deposit
	DecimalsBase  int        `json:"decimals_base"`  // On-chain decimals of the base token
	DecimalsQuote int        `json:"decimals_quote"` // On-chain decimals of the quote token
}

// TokenAmounts is a base/quote amount pair in token units (not raw
// on-chain integers).
type TokenAmounts struct {
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// ValueInQuote prices the pair at the given base-token price.
func (a TokenAmounts) ValueInQuote(price float64) float64 {
	return a.Base*price + a.Quote
}
