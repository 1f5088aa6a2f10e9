package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// GasCostPerTxUSD is the assumed on-chain cost of a single transaction in USD.
	// Rebalance simulations multiply this by the number of transactions a
	// rebalance requires.
	GasCostPerTxUSD float64

	// FetchTimeoutSeconds bounds each pool stats API request.
	FetchTimeoutSeconds uint64

	// FetchMaxRetries caps retry attempts against the pool stats API.
	FetchMaxRetries uint64
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	GasCostPerTxUSD, err = getEnvAsFloat64("GAS_COST_PER_TX_USD")
	if err != nil {
		return err
	}

	FetchTimeoutSeconds, err = getEnvAsUint64("FETCH_TIMEOUT_SECONDS")
	if err != nil {
		return err
	}

	FetchMaxRetries, err = getEnvAsUint64("FETCH_MAX_RETRIES")
	if err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Float64("GasCostPerTxUSD", GasCostPerTxUSD).
		Uint64("FetchTimeoutSeconds", FetchTimeoutSeconds).
		Uint64("FetchMaxRetries", FetchMaxRetries).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsFloat64 retrieves an environment variable as a float64. Returns error if not set or invalid.
func getEnvAsFloat64(key string) (float64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}
