/*

The simulator orchestrates a full position simulation: it turns a request into
an aligned tick range, derives liquidity and token amounts, then runs the IL
curve, yield estimate, health score, and optional rebalance evaluation over
the result. All computation is pure; persistence happens only through
RecordSnapshot.

*/

package simulator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/rangebound/clmm-simulator/internal/analyzer"
	"github.com/rangebound/clmm-simulator/internal/liquidity"
	"github.com/rangebound/clmm-simulator/internal/logger"
	"github.com/rangebound/clmm-simulator/internal/state"
	"github.com/rangebound/clmm-simulator/internal/tickmath"
	"github.com/rangebound/clmm-simulator/internal/types"
)

const (
	// Export constants for use in main.go
	DEFAULT_PARAMS_CONFIG_NAME    = "default_simulator"
	DEFAULT_PARAMS_CONFIG_VERSION = 1
)

var (
	ErrInvalidRequest = errors.New("invalid simulation request")
)

// Default IL curve grid when the request leaves it unset.
var defaultGrid = types.CurveGrid{MinPercent: -80, MaxPercent: 200, Steps: 56}

// Simulator runs position simulations against pool snapshots
type Simulator struct {
	logger          zerolog.Logger
	params          *types.SimulationParameters
	gasCostPerTxUSD float64
	configName      string
	configVersion   int
}

// Config holds the configuration for creating a new Simulator instance
type Config struct {
	Params          *types.SimulationParameters
	GasCostPerTxUSD float64
	ConfigName      string
	ConfigVersion   int
}

// New creates a new Simulator instance with dependency injection
func New(cfg Config) (*Simulator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("simulator configuration validation failed: %w", err)
	}

	sim := &Simulator{
		logger:          logger.GetForComponent("simulator_core"),
		params:          cfg.Params,
		gasCostPerTxUSD: cfg.GasCostPerTxUSD,
		configName:      cfg.ConfigName,
		configVersion:   cfg.ConfigVersion,
	}

	sim.logger.Info().
		Str("configName", sim.configName).
		Int("configVersion", sim.configVersion).
		Float64("gasCostPerTxUSD", sim.gasCostPerTxUSD).
		Msg("Simulator instance created")

	return sim, nil
}

// validateConfig validates the simulator configuration
func validateConfig(cfg Config) error {
	if cfg.Params == nil {
		return fmt.Errorf("simulation parameters cannot be nil")
	}
	if math.IsNaN(cfg.GasCostPerTxUSD) || math.IsInf(cfg.GasCostPerTxUSD, 0) || cfg.GasCostPerTxUSD < 0 {
		return fmt.Errorf("gas cost per transaction must be a non-negative finite number, got %f", cfg.GasCostPerTxUSD)
	}
	if cfg.ConfigName == "" {
		return fmt.Errorf("config name cannot be empty")
	}
	if cfg.ConfigVersion <= 0 {
		return fmt.Errorf("config version must be positive")
	}
	return nil
}

// Params returns the active simulation parameters.
func (s *Simulator) Params() types.SimulationParameters {
	return *s.params
}

// BuildRange converts percent offsets around an anchor price into a price
// range snapped to the pool's tick spacing. The lower bound rounds down and
// the upper bound rounds up, so the aligned range always covers the requested
// one. A range that collapses to a single tick after alignment is widened by
// one spacing.
//
// Inputs:
//   - anchorPrice: the price the offsets are relative to
//   - lowerPercent: distance below the anchor, in percent (10 means -10%)
//   - upperPercent: distance above the anchor, in percent
//   - tickSpacing: the pool's tick spacing
//
// Output: the aligned PriceRange, or an error for unusable inputs.
func (s *Simulator) BuildRange(anchorPrice, lowerPercent, upperPercent float64, tickSpacing int) (types.PriceRange, error) {
	if math.IsNaN(anchorPrice) || math.IsInf(anchorPrice, 0) || anchorPrice <= 0 {
		return types.PriceRange{}, fmt.Errorf("%w: anchor price %f", ErrInvalidRequest, anchorPrice)
	}
	if math.IsNaN(lowerPercent) || math.IsNaN(upperPercent) {
		return types.PriceRange{}, fmt.Errorf("%w: range percents are not finite", ErrInvalidRequest)
	}

	priceLower := anchorPrice * (1 - lowerPercent/100)
	priceUpper := anchorPrice * (1 + upperPercent/100)
	if priceLower <= 0 {
		return types.PriceRange{}, fmt.Errorf("%w: lower percent %f puts the lower bound at or below zero", ErrInvalidRequest, lowerPercent)
	}
	if priceUpper <= priceLower {
		return types.PriceRange{}, fmt.Errorf("%w: upper bound %f is not above lower bound %f", ErrInvalidRequest, priceUpper, priceLower)
	}

	rawLower, err := tickmath.PriceToTick(priceLower)
	if err != nil {
		return types.PriceRange{}, fmt.Errorf("failed to convert lower price to tick: %w", err)
	}
	rawUpper, err := tickmath.PriceToTick(priceUpper)
	if err != nil {
		return types.PriceRange{}, fmt.Errorf("failed to convert upper price to tick: %w", err)
	}

	tickLower, err := tickmath.AlignToSpacing(rawLower, tickSpacing, false)
	if err != nil {
		return types.PriceRange{}, fmt.Errorf("failed to align lower tick: %w", err)
	}
	tickUpper, err := tickmath.AlignToSpacing(rawUpper, tickSpacing, true)
	if err != nil {
		return types.PriceRange{}, fmt.Errorf("failed to align upper tick: %w", err)
	}
	if tickUpper <= tickLower {
		tickUpper = tickLower + tickSpacing
	}
	if tickUpper > types.MaxTick {
		return types.PriceRange{}, fmt.Errorf("%w: aligned upper tick %d exceeds the tick range", ErrInvalidRequest, tickUpper)
	}

	return types.PriceRange{
		TickLower:  tickLower,
		TickUpper:  tickUpper,
		PriceLower: tickmath.TickToPrice(tickLower),
		PriceUpper: tickmath.TickToPrice(tickUpper),
	}, nil
}

// RunSnapshot executes a complete simulation for the given request.
//
// Output: a SimulationSnapshot holding the derived position, its reconciled
// amounts at the current price, the IL curve, yield estimate, health report,
// and, when the request carries a candidate range, a rebalance scenario.
func (s *Simulator) RunSnapshot(req types.SimulationRequest) (*types.SimulationSnapshot, error) {
	runLogger := s.logger.With().Str("pool_id", req.Pool.PoolID).Logger()
	runLogger.Info().Msg("--- Starting simulation run ---")

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	currentPrice := req.Pool.CurrentPrice
	entryPrice := req.EntryPrice
	if entryPrice == 0 {
		entryPrice = currentPrice
	}

	// Step 1: Range alignment
	rng, err := s.BuildRange(entryPrice, req.LowerPercent, req.UpperPercent, req.Pool.TickSpacing)
	if err != nil {
		return nil, err
	}
	runLogger.Debug().
		Int("tickLower", rng.TickLower).
		Int("tickUpper", rng.TickUpper).
		Float64("priceLower", rng.PriceLower).
		Float64("priceUpper", rng.PriceUpper).
		Msg("Step 1: Range aligned")

	// Step 2: Liquidity and reconciled amounts at the current price
	sqrtLower := math.Sqrt(rng.PriceLower)
	sqrtUpper := math.Sqrt(rng.PriceUpper)
	liq, err := liquidity.LiquidityFromAmounts(math.Sqrt(entryPrice), sqrtLower, sqrtUpper, req.AmountBase, req.AmountQuote)
	if err != nil {
		return nil, fmt.Errorf("failed to derive liquidity: %w", err)
	}
	amounts, err := liquidity.AmountsFromLiquidity(math.Sqrt(currentPrice), sqrtLower, sqrtUpper, liq)
	if err != nil {
		return nil, fmt.Errorf("failed to derive position amounts: %w", err)
	}
	runLogger.Debug().
		Float64("liquidity", liq).
		Float64("amountBase", amounts.Base).
		Float64("amountQuote", amounts.Quote).
		Msg("Step 2: Liquidity derived")

	// Step 3: Position value in USD. A quote token without a known USD price
	// is treated as the USD numeraire itself.
	quoteUSD := req.Pool.TokenQuote.PriceUSD
	if quoteUSD == 0 {
		quoteUSD = 1
	}
	positionValueUSD := amounts.ValueInQuote(currentPrice) * quoteUSD

	// Step 4: IL curve
	grid := req.Grid
	if grid.Steps == 0 {
		grid = defaultGrid
	}
	curve, err := analyzer.GenerateILCurve(currentPrice, rng, amounts.Base, amounts.Quote, grid)
	if err != nil {
		return nil, fmt.Errorf("failed to generate IL curve: %w", err)
	}

	// Step 5: Yield estimate
	yield, err := analyzer.EstimateYield(req.Pool.DailyVolumeUSD, req.Pool.FeeRate, positionValueUSD, req.Pool.TvlUSD, rng.WidthRatio(), *s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate yield: %w", err)
	}
	yield.DailyRewardsUSD = analyzer.AllocateMiningRewards(req.Pool.RewardEmissionUSD, yield.EffectiveShare)

	// Step 6: Health, scored on the IL accrued between entry and now
	ilNow, err := analyzer.CalculateValueBasedIL(entryPrice, currentPrice, rng, req.AmountBase, req.AmountQuote)
	if err != nil {
		return nil, fmt.Errorf("failed to compute current IL: %w", err)
	}
	health, err := analyzer.CalculatePositionHealth(currentPrice, rng, ilNow.ILPercent, yield.FeeAPR, req.DaysHeld, *s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to score position health: %w", err)
	}

	snapshot := &types.SimulationSnapshot{
		Timestamp: time.Now().UTC(),
		PoolID:    req.Pool.PoolID,
		Request:   req,
		Position: types.Position{
			Liquidity:     liq,
			Range:         rng,
			DecimalsBase:  req.Pool.TokenBase.Decimals,
			DecimalsQuote: req.Pool.TokenQuote.Decimals,
		},
		Amounts:          amounts,
		PositionValueUSD: positionValueUSD,
		Curve:            curve,
		Yield:            yield,
		Health:           health,
	}

	// Step 7: Optional rebalance scenario against the candidate range
	if req.Candidate != nil {
		newRange, err := s.BuildRange(currentPrice, req.Candidate.LowerPercent, req.Candidate.UpperPercent, req.Pool.TickSpacing)
		if err != nil {
			return nil, fmt.Errorf("failed to build candidate range: %w", err)
		}
		scenario, err := analyzer.EvaluateRebalance(
			currentPrice, rng, newRange,
			positionValueUSD, req.Pool.DailyVolumeUSD, req.Pool.FeeRate, req.Pool.TvlUSD,
			s.gasCostPerTxUSD, *s.params,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate rebalance: %w", err)
		}
		snapshot.Rebalance = &scenario
	}

	runLogger.Info().
		Float64("positionValueUSD", positionValueUSD).
		Float64("healthScore", health.Score).
		Str("healthStatus", string(health.Status)).
		Msg("--- Simulation run completed ---")

	return snapshot, nil
}

// RecordSnapshot persists a completed snapshot, tagging it with the currently
// active parameter set so results stay traceable.
func (s *Simulator) RecordSnapshot(snapshot types.SimulationSnapshot) (int64, error) {
	paramsID, err := state.GetActiveSimulationParametersID(s.configName)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Could not resolve active parameters ID, saving snapshot without it")
		paramsID = nil
	}
	return state.SaveSimulationSnapshot(snapshot, paramsID)
}

// validateRequest performs strict validation on a simulation request before
// any computation runs on it.
func validateRequest(req types.SimulationRequest) error {
	var errs []error

	if req.Pool.PoolID == "" {
		errs = append(errs, fmt.Errorf("pool ID is empty"))
	}
	if math.IsNaN(req.Pool.CurrentPrice) || math.IsInf(req.Pool.CurrentPrice, 0) || req.Pool.CurrentPrice <= 0 {
		errs = append(errs, fmt.Errorf("pool current price must be positive and finite, got %f", req.Pool.CurrentPrice))
	}
	if req.Pool.TickSpacing <= 0 {
		errs = append(errs, fmt.Errorf("tick spacing must be positive, got %d", req.Pool.TickSpacing))
	}
	if math.IsNaN(req.EntryPrice) || math.IsInf(req.EntryPrice, 0) || req.EntryPrice < 0 {
		errs = append(errs, fmt.Errorf("entry price must be a non-negative finite number, got %f", req.EntryPrice))
	}
	if math.IsNaN(req.AmountBase) || req.AmountBase < 0 || math.IsNaN(req.AmountQuote) || req.AmountQuote < 0 {
		errs = append(errs, fmt.Errorf("deposit amounts must be non-negative"))
	}
	if req.AmountBase == 0 && req.AmountQuote == 0 {
		errs = append(errs, fmt.Errorf("deposit must include at least one token"))
	}
	if math.IsNaN(req.DaysHeld) || math.IsInf(req.DaysHeld, 0) || req.DaysHeld < 0 {
		errs = append(errs, fmt.Errorf("days held must be non-negative and finite, got %f", req.DaysHeld))
	}
	if req.Grid.Steps < 0 {
		errs = append(errs, fmt.Errorf("grid steps cannot be negative, got %d", req.Grid.Steps))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
	}
	return nil
}
