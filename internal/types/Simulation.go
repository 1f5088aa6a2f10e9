/*

This file contains the result types produced by the impermanent-loss engine
and the snapshot type persisted after a full simulation run.

*/

package types

import "time"

// ILResult is the outcome of a value-based impermanent-loss computation at
// a single target price.
type ILResult struct {
	EntryPrice     float64      `json:"entry_price"`
	TargetPrice    float64      `json:"target_price"`
	Liquidity      float64      `json:"liquidity"`
	InitialAmounts TokenAmounts `json:"initial_amounts"` // Reconciled onto the constant-liquidity curve
	FinalAmounts   TokenAmounts `json:"final_amounts"`
	ValueHold      float64      `json:"value_hold"` // Initial split held, repriced at target
	ValuePool      float64      `json:"value_pool"` // Position value at target
	ILPercent      float64      `json:"il_percent"` // (pool/hold - 1) * 100
	Regime         Regime       `json:"regime"`     // Regime at the target price
	Degenerate     bool         `json:"degenerate"` // True when implied liquidity was unusable and IL defaulted to zero
}

// CurveGrid defines the price-change grid an IL curve is sampled over.
type CurveGrid struct {
	MinPercent float64 `json:"min_percent"` // e.g., -80
	MaxPercent float64 `json:"max_percent"` // e.g., +200
	Steps      int     `json:"steps"`       // Number of subdivisions, must be positive
}

// ILCurvePoint is one sample of a generated IL curve.
type ILCurvePoint struct {
	PriceChangePercent float64 `json:"price_change_percent"`
	TargetPrice        float64 `json:"target_price"`
	ILPercent          float64 `json:"il_percent"`           // Concentrated-range IL
	ILReferencePercent float64 `json:"il_reference_percent"` // Full-range (V2) IL at the same ratio
	Amplification      float64 `json:"amplification"`        // |IL / IL_reference|, doubled out of range
	ValueHold          float64 `json:"value_hold"`
	ValuePool          float64 `json:"value_pool"`
	Regime             Regime  `json:"regime"`
}

// CandidateRange optionally proposes a replacement range, in percent offsets
// from the current price, for rebalance evaluation.
type CandidateRange struct {
	LowerPercent float64 `json:"lower_percent"`
	UpperPercent float64 `json:"upper_percent"`
}

// SimulationRequest carries everything a single simulation run needs on top
// of the pool snapshot.
type SimulationRequest struct {
	Pool           PoolSnapshot    `json:"pool"`
	EntryPrice     float64         `json:"entry_price,omitempty"` // Price the position was opened at; 0 means the pool's current price
	LowerPercent   float64         `json:"lower_percent"`         // Range lower bound, % below the entry price (e.g., 10 for -10%)
	UpperPercent   float64         `json:"upper_percent"`         // Range upper bound, % above the entry price
	AmountBase     float64         `json:"amount_base"`           // Deposit, token units
	AmountQuote    float64         `json:"amount_quote"`
	AmountBaseRaw  string          `json:"amount_base_raw,omitempty"` // Deposit as a raw on-chain integer, converted with the pool's token decimals; overrides the float field when set
	AmountQuoteRaw string          `json:"amount_quote_raw,omitempty"`
	DaysHeld       float64         `json:"days_held"` // Used by the health trend component
	Grid           CurveGrid       `json:"grid"`
	Candidate      *CandidateRange `json:"candidate,omitempty"` // When set, a rebalance scenario is evaluated against this range
}

// SimulationSnapshot is the full output of one simulation run.
type SimulationSnapshot struct {
	SnapshotID       int64              `json:"snapshot_id,omitempty"` // Auto-incremented by DB
	Timestamp        time.Time          `json:"timestamp"`
	PoolID           string             `json:"pool_id"`
	Request          SimulationRequest  `json:"request"`
	Position         Position           `json:"position"`
	Amounts          TokenAmounts       `json:"amounts"` // Reconciled deposit at the current price
	PositionValueUSD float64            `json:"position_value_usd"`
	Curve            []ILCurvePoint     `json:"curve"`
	Yield            YieldEstimate      `json:"yield"`
	Health           HealthReport       `json:"health"`
	Rebalance        *RebalanceScenario `json:"rebalance,omitempty"` // Present when a candidate range was evaluated
}
