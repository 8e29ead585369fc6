// Package quote prices a candidate parlay: naive independence probability,
// AI correlation adjustment, house margin, and the resulting hedge plan.
// It is a pure computation over its inputs; the only I/O is the advisor
// call in step 2, and that call is isolated behind the CorrelationAdvisor
// capability so it can be swapped or stubbed (spec §9: "treat as a
// capability... the provider is swappable").
package quote

import (
	"context"

	"github.com/shopspring/decimal"
)

// LegInput is one leg of a candidate parlay, as consumed by the quote
// engine. Prob is a fraction in (0,1), not a percent — callers convert
// from the LegDraft's percent representation at the boundary.
type LegInput struct {
	MarketID    string
	Ticker      string
	OptionLabel string
	Side        string // "yes" | "no"
	Prob        float64
	Environment string
}

// AdjustResult is the AI correlation service's response, post-conversion
// to fractional probability.
type AdjustResult struct {
	PAdj              float64
	CorrelationFactor float64
	Reasoning         string
	RiskAssessment    string // "low" | "medium" | "high"
}

// CorrelationAdvisor consults an external model for a correlation-adjusted
// win probability across the given legs.
type CorrelationAdvisor interface {
	Adjust(ctx context.Context, legs []LegInput) (AdjustResult, error)
}

type HedgeLeg struct {
	LegNumber    int
	Ticker       string
	Side         string
	Notional     decimal.Decimal
	ProjectedWin decimal.Decimal
}

type Quote struct {
	Stake             decimal.Decimal
	PNaive            float64
	PAdj              float64
	CorrelationFactor float64
	UNaive            decimal.Decimal
	UFair             decimal.Decimal
	UOffer            decimal.Decimal
	Margin            float64
	HedgePlan         []HedgeLeg
	AIReasoning       string
	RiskAssessment    string
	Clamped           bool // true if the AI response violated p_adj >= p_naive and was clamped
}
