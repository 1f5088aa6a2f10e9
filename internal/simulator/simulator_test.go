package simulator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rangebound/clmm-simulator/internal/config"
	"github.com/rangebound/clmm-simulator/internal/types"
)

func newTestSimulator(t *testing.T) *Simulator {
	t.Helper()
	params := config.DefaultSimulationParameters
	sim, err := New(Config{
		Params:          &params,
		GasCostPerTxUSD: 1.0,
		ConfigName:      DEFAULT_PARAMS_CONFIG_NAME,
		ConfigVersion:   DEFAULT_PARAMS_CONFIG_VERSION,
	})
	require.NoError(t, err)
	return sim
}

func testPool() types.PoolSnapshot {
	return types.PoolSnapshot{
		PoolID:            "pool-sol-usdc",
		TokenBase:         types.Token{Symbol: "SOL", Decimals: 9, PriceUSD: 1},
		TokenQuote:        types.Token{Symbol: "USDC", Decimals: 6, PriceUSD: 1},
		CurrentPrice:      1.0,
		FeeRate:           0.003,
		TickSpacing:       10,
		TvlUSD:            1e6,
		DailyVolumeUSD:    100000,
		RewardEmissionUSD: 1000,
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	params := config.DefaultSimulationParameters

	_, err := New(Config{Params: nil, GasCostPerTxUSD: 1, ConfigName: "x", ConfigVersion: 1})
	require.Error(t, err)

	_, err = New(Config{Params: &params, GasCostPerTxUSD: -1, ConfigName: "x", ConfigVersion: 1})
	require.Error(t, err)

	_, err = New(Config{Params: &params, GasCostPerTxUSD: 1, ConfigName: "", ConfigVersion: 1})
	require.Error(t, err)

	_, err = New(Config{Params: &params, GasCostPerTxUSD: 1, ConfigName: "x", ConfigVersion: 0})
	require.Error(t, err)
}

func TestBuildRange_AlignsToSpacing(t *testing.T) {
	sim := newTestSimulator(t)

	// +-10% around 100 hits raw ticks 45000 and 47007; the lower bound is
	// already aligned and the upper bound rounds up to 47010.
	rng, err := sim.BuildRange(100, 10, 10, 10)
	require.NoError(t, err)

	require.Equal(t, 45000, rng.TickLower)
	require.Equal(t, 47010, rng.TickUpper)
	require.Zero(t, rng.TickLower%10)
	require.Zero(t, rng.TickUpper%10)

	// The aligned range covers the requested one.
	require.LessOrEqual(t, rng.PriceLower, 90.0)
	require.GreaterOrEqual(t, rng.PriceUpper, 110.0)
}

func TestBuildRange_WidensCollapsedRange(t *testing.T) {
	sim := newTestSimulator(t)

	// Offsets so small that both bounds land on the same aligned tick; the
	// range is widened to one spacing instead of degenerating.
	rng, err := sim.BuildRange(1.0, -0.0001, 0.0002, 10)
	require.NoError(t, err)

	require.Equal(t, rng.TickLower+10, rng.TickUpper)
	require.Greater(t, rng.PriceUpper, rng.PriceLower)
}

func TestBuildRange_InvalidInputs(t *testing.T) {
	sim := newTestSimulator(t)

	_, err := sim.BuildRange(0, 10, 10, 10)
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = sim.BuildRange(100, math.NaN(), 10, 10)
	require.ErrorIs(t, err, ErrInvalidRequest)

	// A lower offset of 100% or more puts the bound at or below zero.
	_, err = sim.BuildRange(100, 100, 10, 10)
	require.ErrorIs(t, err, ErrInvalidRequest)

	// An upper offset below the lower bound inverts the range.
	_, err = sim.BuildRange(100, -20, 10, 10)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRunSnapshot_EndToEnd(t *testing.T) {
	sim := newTestSimulator(t)

	snapshot, err := sim.RunSnapshot(types.SimulationRequest{
		Pool:         testPool(),
		LowerPercent: 10,
		UpperPercent: 10,
		AmountBase:   50,
		AmountQuote:  50,
		DaysHeld:     3,
	})
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	require.Equal(t, "pool-sol-usdc", snapshot.PoolID)
	require.False(t, snapshot.Timestamp.IsZero())

	require.Positive(t, snapshot.Position.Liquidity)
	require.Equal(t, 9, snapshot.Position.DecimalsBase)
	require.Equal(t, 6, snapshot.Position.DecimalsQuote)
	require.Less(t, snapshot.Position.Range.PriceLower, 1.0)
	require.Greater(t, snapshot.Position.Range.PriceUpper, 1.0)

	// Entry equals current price, so the deposit value carries over intact
	// modulo curve reconciliation.
	require.InDelta(t, 100.0, snapshot.PositionValueUSD, 5.0)

	// The default grid emits 57 points.
	require.Len(t, snapshot.Curve, 57)

	require.Positive(t, snapshot.Yield.DailyFeesUSD)
	require.Positive(t, snapshot.Yield.DailyRewardsUSD)

	require.Greater(t, snapshot.Health.Score, 0.0)
	require.LessOrEqual(t, snapshot.Health.Score, 100.0)

	require.Nil(t, snapshot.Rebalance, "no candidate range was supplied")
}

func TestRunSnapshot_ExplicitEntryPrice(t *testing.T) {
	sim := newTestSimulator(t)

	pool := testPool()
	pool.CurrentPrice = 1.2

	// Position opened at 1.0 with a +-10% range; at 1.2 it sits above the
	// range and has fully converted to quote.
	snapshot, err := sim.RunSnapshot(types.SimulationRequest{
		Pool:         pool,
		EntryPrice:   1.0,
		LowerPercent: 10,
		UpperPercent: 10,
		AmountBase:   50,
		AmountQuote:  50,
		DaysHeld:     3,
	})
	require.NoError(t, err)

	require.Zero(t, snapshot.Amounts.Base)
	require.Positive(t, snapshot.Amounts.Quote)
	require.Zero(t, snapshot.Health.Components.RangeProximity)
}

func TestRunSnapshot_CandidateProducesRebalanceScenario(t *testing.T) {
	sim := newTestSimulator(t)

	snapshot, err := sim.RunSnapshot(types.SimulationRequest{
		Pool:         testPool(),
		LowerPercent: 20,
		UpperPercent: 20,
		AmountBase:   50,
		AmountQuote:  50,
		DaysHeld:     3,
		Candidate:    &types.CandidateRange{LowerPercent: 5, UpperPercent: 5},
	})
	require.NoError(t, err)

	require.NotNil(t, snapshot.Rebalance)
	require.Equal(t, snapshot.Position.Range, snapshot.Rebalance.OldRange)
	require.Greater(t, snapshot.Rebalance.ProjectedAPY, snapshot.Rebalance.OldAPY)
	require.NotEmpty(t, snapshot.Rebalance.Reason)
}

func TestRunSnapshot_ValidationErrors(t *testing.T) {
	sim := newTestSimulator(t)

	base := types.SimulationRequest{
		Pool:         testPool(),
		LowerPercent: 10,
		UpperPercent: 10,
		AmountBase:   50,
		AmountQuote:  50,
	}

	req := base
	req.Pool.PoolID = ""
	_, err := sim.RunSnapshot(req)
	require.ErrorIs(t, err, ErrInvalidRequest)

	req = base
	req.Pool.CurrentPrice = 0
	_, err = sim.RunSnapshot(req)
	require.ErrorIs(t, err, ErrInvalidRequest)

	req = base
	req.Pool.TickSpacing = 0
	_, err = sim.RunSnapshot(req)
	require.ErrorIs(t, err, ErrInvalidRequest)

	req = base
	req.AmountBase = 0
	req.AmountQuote = 0
	_, err = sim.RunSnapshot(req)
	require.ErrorIs(t, err, ErrInvalidRequest)

	req = base
	req.DaysHeld = -1
	_, err = sim.RunSnapshot(req)
	require.ErrorIs(t, err, ErrInvalidRequest)

	req = base
	req.Grid.Steps = -1
	_, err = sim.RunSnapshot(req)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestParams_ReturnsActiveSet(t *testing.T) {
	sim := newTestSimulator(t)
	require.Equal(t, config.DefaultSimulationParameters, sim.Params())
}
