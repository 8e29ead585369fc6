package quote

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

type Engine struct {
	Advisor CorrelationAdvisor

	// Margin is the configured house margin m, already validated to lie
	// within [MarginMin, MarginMax] (config.MarginConfig.Default).
	Margin float64

	// AlphaMax caps the top hedge tier's fraction of stake.
	AlphaMax float64

	// Beta globally scales every tier's hedge fraction (config: hedging.beta).
	// 1.0 applies the tier table unscaled; values below 1 pull back hedge
	// sizing across the board without changing the tier boundaries
	// themselves.
	Beta float64
}

// Price produces a priced quote for a candidate parlay. It is a pure
// value computation: nothing here is persisted, the caller attaches the
// result to a Parlay only once the user accepts it.
func (e *Engine) Price(ctx context.Context, legs []LegInput, stake decimal.Decimal) (Quote, error) {
	if len(legs) < 2 {
		return Quote{}, ErrTooFewLegs
	}
	if stake.Sign() <= 0 {
		return Quote{}, ErrInvalidStake
	}
	env := legs[0].Environment
	pNaive := 1.0
	for _, leg := range legs {
		if leg.Prob <= 0 || leg.Prob >= 1 {
			return Quote{}, ErrInvalidProbability
		}
		if leg.Environment != env {
			return Quote{}, ErrEnvironmentMismatch
		}
		pNaive *= leg.Prob
	}

	adj, clamped, reasoning, risk := e.adjust(ctx, legs, pNaive)

	uNaive := stake.Div(decimal.NewFromFloat(pNaive))
	uFair := stake.Div(decimal.NewFromFloat(adj.PAdj))
	uOffer := uFair.Mul(decimal.NewFromFloat(1 - e.Margin))

	plan := e.hedgePlan(legs, stake)

	return Quote{
		Stake:             stake,
		PNaive:            pNaive,
		PAdj:              adj.PAdj,
		CorrelationFactor: adj.CorrelationFactor,
		UNaive:            uNaive,
		UFair:             uFair,
		UOffer:            uOffer,
		Margin:            e.Margin,
		HedgePlan:         plan,
		AIReasoning:       reasoning,
		RiskAssessment:    risk,
		Clamped:           clamped,
	}, nil
}

// adjust consults the AI correlation advisor and enforces the two hard
// constraints (p_adj >= p_naive, equivalently correlation_factor >= 1.0).
// A violation is clamped and logged, never rejected — the quote still
// goes out, just at the naive (worse for the house, safer for the user)
// probability. Falls back to naive when the advisor is unavailable.
func (e *Engine) adjust(ctx context.Context, legs []LegInput, pNaive float64) (AdjustResult, bool, string, string) {
	fallback := AdjustResult{PAdj: pNaive, CorrelationFactor: 1.0, Reasoning: "ai correlation service unavailable; using naive independence", RiskAssessment: "unknown"}
	if e.Advisor == nil {
		return fallback, false, fallback.Reasoning, fallback.RiskAssessment
	}
	res, err := e.Advisor.Adjust(ctx, legs)
	if err != nil {
		slog.Warn("quote.advisor_unavailable", "err", err)
		return fallback, false, fallback.Reasoning, fallback.RiskAssessment
	}
	if res.PAdj < pNaive || res.CorrelationFactor < 1.0 {
		slog.Warn("quote.advisor_violated_constraint", "p_adj", res.PAdj, "p_naive", pNaive, "correlation_factor", res.CorrelationFactor)
		res.PAdj = pNaive
		res.CorrelationFactor = 1.0
		return res, true, res.Reasoning, res.RiskAssessment
	}
	return res, false, res.Reasoning, res.RiskAssessment
}

func (e *Engine) hedgePlan(legs []LegInput, stake decimal.Decimal) []HedgeLeg {
	beta := e.Beta
	if beta <= 0 {
		beta = 1.0
	}
	var plan []HedgeLeg
	for i, leg := range legs {
		alpha := HedgeFraction(leg.Prob, e.AlphaMax) * beta
		if alpha <= 0 {
			continue
		}
		notional := stake.Mul(decimal.NewFromFloat(alpha))
		projectedWin := notional.Div(decimal.NewFromFloat(leg.Prob))
		plan = append(plan, HedgeLeg{
			LegNumber:    i + 1,
			Ticker:       leg.Ticker,
			Side:         leg.Side, // same-side hedging: mandatory, never flipped
			Notional:     notional,
			ProjectedWin: projectedWin,
		})
	}
	return plan
}
