package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rangebound/clmm-simulator/internal/config"
	"github.com/rangebound/clmm-simulator/internal/types"
)

func TestEstimateYield_ConcentratedPosition(t *testing.T) {
	// $1k position in a $1M pool, 0.3% fee tier, $10k daily volume,
	// 10% wide range: efficiency 10x, effective share 1%.
	estimate, err := EstimateYield(10000, 0.003, 1000, 1e6, 0.1, config.DefaultSimulationParameters)
	require.NoError(t, err)

	require.InDelta(t, 10.0, estimate.CapitalEfficiency, 1e-9)
	require.InDelta(t, 0.01, estimate.EffectiveShare, 1e-9)

	// $0.30 gross daily fees, 20% of which the protocol retains.
	require.InDelta(t, 0.24, estimate.DailyFeesUSD, 1e-9)
	require.InDelta(t, 0.06, estimate.ProtocolFeeUSD, 1e-9)

	require.InDelta(t, 0.0876, estimate.FeeAPR, 1e-9)
	require.InDelta(t, 0.09153994163419266, estimate.APY, 1e-9)
}

func TestEstimateYield_EfficiencyCapBinds(t *testing.T) {
	// A 0.1% wide range would imply 1000x efficiency; the cap holds it at 100x.
	estimate, err := EstimateYield(10000, 0.003, 1000, 1e6, 0.001, config.DefaultSimulationParameters)
	require.NoError(t, err)

	require.InDelta(t, config.DefaultSimulationParameters.CapitalEfficiencyCap, estimate.CapitalEfficiency, 1e-9)
}

func TestEstimateYield_EffectiveShareNeverExceedsOne(t *testing.T) {
	// A dominant position with a narrow range would imply more than the
	// whole pool's volume; the share clamps at 1.
	estimate, err := EstimateYield(10000, 0.003, 900000, 1e6, 0.05, config.DefaultSimulationParameters)
	require.NoError(t, err)

	require.InDelta(t, 1.0, estimate.EffectiveShare, 1e-9)
	require.InDelta(t, 10000*0.003*0.8, estimate.DailyFeesUSD, 1e-9)
}

func TestEstimateYield_UnknownInputsDegradeToZero(t *testing.T) {
	zero, err := EstimateYield(10000, 0.003, 0, 1e6, 0.1, config.DefaultSimulationParameters)
	require.NoError(t, err)
	require.Equal(t, types.YieldEstimate{}, zero)

	zero, err = EstimateYield(10000, 0.003, 1000, 0, 0.1, config.DefaultSimulationParameters)
	require.NoError(t, err)
	require.Equal(t, types.YieldEstimate{}, zero)
}

func TestEstimateYield_APYCeiling(t *testing.T) {
	// Huge volume against a tiny position compounds past the ceiling.
	estimate, err := EstimateYield(1e9, 0.003, 100, 1e6, 0.01, config.DefaultSimulationParameters)
	require.NoError(t, err)

	require.InDelta(t, config.DefaultSimulationParameters.APYCeiling, estimate.APY, 1e-9)
}

func TestEstimateYield_InvalidParameters(t *testing.T) {
	params := config.DefaultSimulationParameters
	params.ProtocolFeeShare = 1.5
	_, err := EstimateYield(10000, 0.003, 1000, 1e6, 0.1, params)
	require.ErrorIs(t, err, ErrInvalidYieldParameters)

	params = config.DefaultSimulationParameters
	params.CapitalEfficiencyCap = 0
	_, err = EstimateYield(10000, 0.003, 1000, 1e6, 0.1, params)
	require.ErrorIs(t, err, ErrInvalidYieldParameters)
}

func TestEstimateYield_NonFiniteInput(t *testing.T) {
	_, err := EstimateYield(math.NaN(), 0.003, 1000, 1e6, 0.1, config.DefaultSimulationParameters)
	require.Error(t, err)
}

func TestAllocateMiningRewards(t *testing.T) {
	require.InDelta(t, 1.0, AllocateMiningRewards(100, 0.01), 1e-9)

	// Unknown emission or an empty share allocates nothing.
	require.Zero(t, AllocateMiningRewards(0, 0.01))
	require.Zero(t, AllocateMiningRewards(100, 0))
	require.Zero(t, AllocateMiningRewards(math.NaN(), 0.01))

	// The share is clamped so a position never claims more than the emission.
	require.InDelta(t, 100.0, AllocateMiningRewards(100, 1.7), 1e-9)
}
