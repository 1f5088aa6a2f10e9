/*
This file fetches live pool statistics from the pool stats API.

Every derived figure the simulator produces starts from this snapshot, so the
data is validated strictly before it is allowed into the pipeline. A snapshot
with a bad price or fee rate poisons every downstream calculation.
*/

package datafetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rangebound/clmm-simulator/internal/config"
	"github.com/rangebound/clmm-simulator/internal/logger"
	"github.com/rangebound/clmm-simulator/internal/types"
)

var poolLogger = logger.GetForComponent("pool_retriever")

var (
	ErrInvalidPoolData  = errors.New("invalid pool data received")
	ErrPoolNotFound     = errors.New("pool not found")
	ErrAPIConfiguration = errors.New("API configuration error")
)

// poolStatsResponse mirrors the pool stats API payload.
type poolStatsResponse struct {
	PoolID        string  `json:"pool_id"`
	BaseSymbol    string  `json:"base_symbol"`
	BaseDecimals  int     `json:"base_decimals"`
	BasePriceUSD  float64 `json:"base_price_usd"`
	QuoteSymbol   string  `json:"quote_symbol"`
	QuoteDecimals int     `json:"quote_decimals"`
	QuotePriceUSD float64 `json:"quote_price_usd"`
	CurrentPrice  float64 `json:"current_price"`
	FeeRate       float64 `json:"fee_rate"`
	TickSpacing   int     `json:"tick_spacing"`
	TvlUSD        float64 `json:"tvl_usd"`
	VolumeUSD24h  float64 `json:"volume_usd_24h"`
	RewardsUSD24h float64 `json:"rewards_usd_24h"`
}

// FetchPoolSnapshot retrieves current statistics for a pool and validates them.
//
// Inputs:
//   - ctx: cancellation context bounding the whole retry sequence
//   - poolID: the pool identifier understood by the stats API
//
// Output: a validated PoolSnapshot, or an error if the API cannot produce one.
func FetchPoolSnapshot(ctx context.Context, poolID string) (*types.PoolSnapshot, error) {
	if poolID == "" {
		return nil, fmt.Errorf("%w: pool ID is empty", ErrAPIConfiguration)
	}
	if config.PoolStatsAPI == "" {
		return nil, fmt.Errorf("%w: POOL_STATS_API is not configured", ErrAPIConfiguration)
	}

	url := fmt.Sprintf("%s/pools/%s", config.PoolStatsAPI, poolID)
	client := &http.Client{
		Timeout: time.Duration(config.FetchTimeoutSeconds) * time.Second,
	}

	var snapshot *types.PoolSnapshot
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}

		resp, err := client.Do(req)
		if err != nil {
			poolLogger.Warn().Err(err).Str("poolID", poolID).Msg("HTTP request failed, will retry")
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrPoolNotFound, poolID))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("API returned status %d for pool %s", resp.StatusCode, poolID)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		var stats poolStatsResponse
		if err := json.Unmarshal(body, &stats); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse pool stats response: %w", err))
		}

		parsed, err := snapshotFromStats(stats)
		if err != nil {
			return backoff.Permanent(err)
		}
		snapshot = parsed
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), config.FetchMaxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		poolLogger.Error().Err(err).Str("poolID", poolID).Msg("Failed to fetch pool snapshot")
		return nil, fmt.Errorf("failed to fetch snapshot for pool %s: %w", poolID, err)
	}

	poolLogger.Info().
		Str("poolID", snapshot.PoolID).
		Str("pair", snapshot.TokenBase.Symbol+"/"+snapshot.TokenQuote.Symbol).
		Float64("currentPrice", snapshot.CurrentPrice).
		Float64("tvlUSD", snapshot.TvlUSD).
		Msg("Pool snapshot fetched")
	return snapshot, nil
}

// snapshotFromStats validates the raw API payload and converts it to the
// internal snapshot type. TVL, volume, and rewards may be zero (unknown);
// everything else must be well formed.
func snapshotFromStats(stats poolStatsResponse) (*types.PoolSnapshot, error) {
	if stats.PoolID == "" {
		return nil, fmt.Errorf("%w: missing pool ID", ErrInvalidPoolData)
	}
	if stats.BaseSymbol == "" || stats.QuoteSymbol == "" {
		return nil, fmt.Errorf("%w: missing token symbols for pool %s", ErrInvalidPoolData, stats.PoolID)
	}
	if stats.BaseDecimals < 0 || stats.BaseDecimals > 18 || stats.QuoteDecimals < 0 || stats.QuoteDecimals > 18 {
		return nil, fmt.Errorf("%w: token decimals out of range for pool %s", ErrInvalidPoolData, stats.PoolID)
	}

	if math.IsNaN(stats.CurrentPrice) || math.IsInf(stats.CurrentPrice, 0) || stats.CurrentPrice <= 0 {
		return nil, fmt.Errorf("%w: current price %f for pool %s", ErrInvalidPoolData, stats.CurrentPrice, stats.PoolID)
	}
	if math.IsNaN(stats.FeeRate) || stats.FeeRate < 0 || stats.FeeRate >= 1 {
		return nil, fmt.Errorf("%w: fee rate %f for pool %s", ErrInvalidPoolData, stats.FeeRate, stats.PoolID)
	}
	if stats.TickSpacing <= 0 {
		return nil, fmt.Errorf("%w: tick spacing %d for pool %s", ErrInvalidPoolData, stats.TickSpacing, stats.PoolID)
	}

	nonNegatives := []struct {
		value float64
		name  string
	}{
		{stats.TvlUSD, "tvl_usd"},
		{stats.VolumeUSD24h, "volume_usd_24h"},
		{stats.RewardsUSD24h, "rewards_usd_24h"},
		{stats.BasePriceUSD, "base_price_usd"},
		{stats.QuotePriceUSD, "quote_price_usd"},
	}
	for _, field := range nonNegatives {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return nil, fmt.Errorf("%w: %s is not finite for pool %s", ErrInvalidPoolData, field.name, stats.PoolID)
		}
		if field.value < 0 {
			return nil, fmt.Errorf("%w: %s is negative for pool %s", ErrInvalidPoolData, field.name, stats.PoolID)
		}
	}

	return &types.PoolSnapshot{
		PoolID: stats.PoolID,
		TokenBase: types.Token{
			Symbol:   stats.BaseSymbol,
			Decimals: stats.BaseDecimals,
			PriceUSD: stats.BasePriceUSD,
		},
		TokenQuote: types.Token{
			Symbol:   stats.QuoteSymbol,
			Decimals: stats.QuoteDecimals,
			PriceUSD: stats.QuotePriceUSD,
		},
		CurrentPrice:      stats.CurrentPrice,
		FeeRate:           stats.FeeRate,
		TickSpacing:       stats.TickSpacing,
		TvlUSD:            stats.TvlUSD,
		DailyVolumeUSD:    stats.VolumeUSD24h,
		RewardEmissionUSD: stats.RewardsUSD24h,
	}, nil
}
