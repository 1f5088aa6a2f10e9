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
)

var ErrInvalidTokenPrice = errors.New("invalid token price received")

type tokenPriceResponse struct {
	Symbol   string  `json:"symbol"`
	PriceUSD float64 `json:"price_usd"`
}

// FetchTokenPriceUSD resolves the USD price of a token from the token price API.
// Used to fill in token prices when the pool stats API omits them.
func FetchTokenPriceUSD(ctx context.Context, symbol string) (float64, error) {
	if symbol == "" {
		return 0, fmt.Errorf("%w: token symbol is empty", ErrAPIConfiguration)
	}
	if config.TokenPriceAPI == "" {
		return 0, fmt.Errorf("%w: TOKEN_PRICE_API is not configured", ErrAPIConfiguration)
	}

	url := fmt.Sprintf("%s/prices/%s", config.TokenPriceAPI, symbol)
	client := &http.Client{
		Timeout: time.Duration(config.FetchTimeoutSeconds) * time.Second,
	}

	var price float64
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
		}

		resp, err := client.Do(req)
		if err != nil {
			poolLogger.Warn().Err(err).Str("symbol", symbol).Msg("Token price request failed, will retry")
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("API returned status %d for token %s", resp.StatusCode, symbol)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		var parsed tokenPriceResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse token price response: %w", err))
		}

		if math.IsNaN(parsed.PriceUSD) || math.IsInf(parsed.PriceUSD, 0) || parsed.PriceUSD <= 0 {
			return backoff.Permanent(fmt.Errorf("%w: %f for token %s", ErrInvalidTokenPrice, parsed.PriceUSD, symbol))
		}
		price = parsed.PriceUSD
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), config.FetchMaxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		poolLogger.Error().Err(err).Str("symbol", symbol).Msg("Failed to fetch token price")
		return 0, fmt.Errorf("failed to fetch price for token %s: %w", symbol, err)
	}

	return price, nil
}
