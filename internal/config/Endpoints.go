package config

import (
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// PoolStatsAPI is the base URL of the pool statistics API used to fetch
	// live pool snapshots (price, TVL, volume, fee rate).
	PoolStatsAPI string
	// TokenPriceAPI is the base URL of the token price API used to resolve
	// USD prices for a pool's tokens.
	TokenPriceAPI string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	PoolStatsAPI, err = getEnv("POOL_STATS_API")
	if err != nil {
		return err
	}

	TokenPriceAPI, err = getEnv("TOKEN_PRICE_API")
	if err != nil {
		return err
	}

	log.Debug().
		Str("PoolStatsAPI", PoolStatsAPI).
		Str("TokenPriceAPI", TokenPriceAPI).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
