/*

This file contains the pool snapshot type consumed by the simulator. The
snapshot is assembled by the datafetcher (or supplied directly by a caller)
and must be complete before the core is invoked: the engine itself performs
no I/O.

*/

package types

// Token describes one side of a pool pair.
type Token struct {
	Symbol   string  `json:"symbol"`    // e.g., "SOL"
	Decimals int     `json:"decimals"`  // On-chain decimal count, e.g., 9
	PriceUSD float64 `json:"price_usd"` // Spot price in USD, 0 if unknown
}

// PoolSnapshot is a single validated observation of a CLMM pool. TVL,
// volume and emission figures default to 0 meaning "unknown", in which case
// fee and APY outputs degrade to zero rather than erroring.
type PoolSnapshot struct {
	PoolID           string  `json:"pool_id"`
	TokenBase        Token   `json:"token_base"`
	TokenQuote       Token   `json:"token_quote"`
	CurrentPrice     float64 `json:"current_price"`      // Quote per base, must be positive
	FeeRate          float64 `json:"fee_rate"`           // Decimal fraction, e.g., 0.003
	TickSpacing      int     `json:"tick_spacing"`       // Positive tick-alignment divisor
	TvlUSD           float64 `json:"tvl_usd"`            // Pool TVL in USD
	DailyVolumeUSD   float64 `json:"daily_volume_usd"`   // 24h traded volume in USD
	RewardEmissionUSD float64 `json:"reward_emission_usd"` // Daily mining-reward emission in USD
}
