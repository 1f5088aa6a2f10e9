package datafetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rangebound/clmm-simulator/internal/config"
)

const validStatsBody = `{
	"pool_id": "pool-sol-usdc",
	"base_symbol": "SOL",
	"base_decimals": 9,
	"base_price_usd": 150,
	"quote_symbol": "USDC",
	"quote_decimals": 6,
	"quote_price_usd": 1,
	"current_price": 150,
	"fee_rate": 0.003,
	"tick_spacing": 10,
	"tvl_usd": 1000000,
	"volume_usd_24h": 250000,
	"rewards_usd_24h": 500
}`

func withStatsAPI(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	oldAPI, oldTimeout, oldRetries := config.PoolStatsAPI, config.FetchTimeoutSeconds, config.FetchMaxRetries
	config.PoolStatsAPI = server.URL
	config.FetchTimeoutSeconds = 5
	config.FetchMaxRetries = 2
	t.Cleanup(func() {
		config.PoolStatsAPI = oldAPI
		config.FetchTimeoutSeconds = oldTimeout
		config.FetchMaxRetries = oldRetries
	})
}

func TestFetchPoolSnapshot(t *testing.T) {
	withStatsAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pools/pool-sol-usdc", r.URL.Path)
		w.Write([]byte(validStatsBody))
	})

	snapshot, err := FetchPoolSnapshot(context.Background(), "pool-sol-usdc")
	require.NoError(t, err)

	require.Equal(t, "pool-sol-usdc", snapshot.PoolID)
	require.Equal(t, "SOL", snapshot.TokenBase.Symbol)
	require.Equal(t, 9, snapshot.TokenBase.Decimals)
	require.Equal(t, "USDC", snapshot.TokenQuote.Symbol)
	require.InDelta(t, 150.0, snapshot.CurrentPrice, 1e-9)
	require.InDelta(t, 0.003, snapshot.FeeRate, 1e-9)
	require.Equal(t, 10, snapshot.TickSpacing)
	require.InDelta(t, 250000.0, snapshot.DailyVolumeUSD, 1e-9)
	require.InDelta(t, 500.0, snapshot.RewardEmissionUSD, 1e-9)
}

func TestFetchPoolSnapshot_RetriesTransientFailure(t *testing.T) {
	var calls int32
	withStatsAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(validStatsBody))
	})

	snapshot, err := FetchPoolSnapshot(context.Background(), "pool-sol-usdc")
	require.NoError(t, err)
	require.Equal(t, "pool-sol-usdc", snapshot.PoolID)
	require.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFetchPoolSnapshot_NotFoundIsPermanent(t *testing.T) {
	var calls int32
	withStatsAPI(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := FetchPoolSnapshot(context.Background(), "missing-pool")
	require.ErrorIs(t, err, ErrPoolNotFound)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls), "a 404 must not be retried")
}

func TestFetchPoolSnapshot_RejectsBadPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"zero price", `{"pool_id":"p","base_symbol":"A","quote_symbol":"B","current_price":0,"fee_rate":0.003,"tick_spacing":10}`},
		{"fee rate at one", `{"pool_id":"p","base_symbol":"A","quote_symbol":"B","current_price":1,"fee_rate":1,"tick_spacing":10}`},
		{"missing tick spacing", `{"pool_id":"p","base_symbol":"A","quote_symbol":"B","current_price":1,"fee_rate":0.003}`},
		{"negative tvl", `{"pool_id":"p","base_symbol":"A","quote_symbol":"B","current_price":1,"fee_rate":0.003,"tick_spacing":10,"tvl_usd":-5}`},
		{"missing pool id", `{"base_symbol":"A","quote_symbol":"B","current_price":1,"fee_rate":0.003,"tick_spacing":10}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			withStatsAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			})
			_, err := FetchPoolSnapshot(context.Background(), "p")
			require.ErrorIs(t, err, ErrInvalidPoolData)
		})
	}
}

func TestFetchPoolSnapshot_ConfigurationErrors(t *testing.T) {
	_, err := FetchPoolSnapshot(context.Background(), "")
	require.ErrorIs(t, err, ErrAPIConfiguration)

	old := config.PoolStatsAPI
	config.PoolStatsAPI = ""
	t.Cleanup(func() { config.PoolStatsAPI = old })

	_, err = FetchPoolSnapshot(context.Background(), "pool-sol-usdc")
	require.ErrorIs(t, err, ErrAPIConfiguration)
}

func TestFetchTokenPriceUSD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/prices/SOL", r.URL.Path)
		w.Write([]byte(`{"symbol":"SOL","price_usd":150.5}`))
	}))
	t.Cleanup(server.Close)

	old := config.TokenPriceAPI
	config.TokenPriceAPI = server.URL
	t.Cleanup(func() { config.TokenPriceAPI = old })

	price, err := FetchTokenPriceUSD(context.Background(), "SOL")
	require.NoError(t, err)
	require.InDelta(t, 150.5, price, 1e-9)
}

func TestFetchTokenPriceUSD_RejectsNonPositivePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"SOL","price_usd":0}`))
	}))
	t.Cleanup(server.Close)

	old := config.TokenPriceAPI
	config.TokenPriceAPI = server.URL
	t.Cleanup(func() { config.TokenPriceAPI = old })

	_, err := FetchTokenPriceUSD(context.Background(), "SOL")
	require.ErrorIs(t, err, ErrInvalidTokenPrice)
}
