package quote

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func legs(probs ...float64) []LegInput {
	out := make([]LegInput, len(probs))
	for i, p := range probs {
		out[i] = LegInput{MarketID: "m", Ticker: "T", OptionLabel: "o", Side: "yes", Prob: p, Environment: "demo"}
	}
	return out
}

func almostEqual(t *testing.T, got, want, tol float64) {
	t.Helper()
	require.Less(t, math.Abs(got-want), tol, "got %v want %v", got, want)
}

func TestPrice_S1HappyQuote(t *testing.T) {
	e := &Engine{Margin: 0.10, AlphaMax: 0.40}
	q, err := e.Price(context.Background(), legs(0.50, 0.50), decimal.NewFromInt(10))
	require.NoError(t, err)
	almostEqual(t, q.PNaive, 0.25, 1e-9)
	almostEqual(t, q.UNaive.InexactFloat64(), 40, 1e-6)
	// no advisor configured -> fallback to naive
	almostEqual(t, q.PAdj, 0.25, 1e-9)
	almostEqual(t, q.UOffer.InexactFloat64(), 36, 1e-6)
	require.Len(t, q.HedgePlan, 2)
	for _, h := range q.HedgePlan {
		almostEqual(t, h.Notional.InexactFloat64(), 1.50, 1e-6)
	}
}

func TestPrice_S2VarianceReduction(t *testing.T) {
	e := &Engine{Margin: 0.10, AlphaMax: 0.40}
	q, err := e.Price(context.Background(), legs(0.43, 0.52, 0.65), decimal.NewFromInt(5))
	require.NoError(t, err)
	almostEqual(t, q.PNaive, 0.43*0.52*0.65, 1e-9)
	almostEqual(t, q.UOffer.InexactFloat64(), q.UFair.InexactFloat64()*0.90, 1e-6)

	require.Len(t, q.HedgePlan, 2) // leg1 (0.43) skipped, below 0.50
	var total decimal.Decimal
	for _, h := range q.HedgePlan {
		total = total.Add(h.Notional)
	}
	almostEqual(t, total.InexactFloat64(), 2.75, 1e-6)
}

func TestPrice_QuoteMonotonicity(t *testing.T) {
	e := &Engine{Margin: 0.12, AlphaMax: 0.40}
	q, err := e.Price(context.Background(), legs(0.3, 0.6, 0.8), decimal.NewFromInt(20))
	require.NoError(t, err)
	require.True(t, q.UOffer.LessThanOrEqual(q.UFair))
	require.True(t, q.UFair.LessThanOrEqual(q.UNaive))
	require.GreaterOrEqual(t, q.PAdj, q.PNaive)
	require.GreaterOrEqual(t, q.CorrelationFactor, 1.0)
}

func TestPrice_RoundTripOrderInsensitive(t *testing.T) {
	e := &Engine{Margin: 0.10, AlphaMax: 0.40}
	a, err := e.Price(context.Background(), legs(0.3, 0.55, 0.7), decimal.NewFromInt(10))
	require.NoError(t, err)
	b, err := e.Price(context.Background(), legs(0.7, 0.3, 0.55), decimal.NewFromInt(10))
	require.NoError(t, err)
	almostEqual(t, a.PNaive, b.PNaive, 1e-12)
}

func TestPrice_ErrorConditions(t *testing.T) {
	e := &Engine{Margin: 0.10, AlphaMax: 0.40}
	_, err := e.Price(context.Background(), legs(0.5), decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrTooFewLegs)

	_, err = e.Price(context.Background(), legs(0, 0.5), decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrInvalidProbability)

	_, err = e.Price(context.Background(), legs(0.5, 0.5), decimal.NewFromInt(0))
	require.ErrorIs(t, err, ErrInvalidStake)

	mixed := []LegInput{
		{Prob: 0.5, Environment: "demo"},
		{Prob: 0.5, Environment: "production"},
	}
	_, err = e.Price(context.Background(), mixed, decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrEnvironmentMismatch)
}

type stubAdvisor struct {
	res AdjustResult
	err error
}

func (s stubAdvisor) Adjust(ctx context.Context, legs []LegInput) (AdjustResult, error) {
	return s.res, s.err
}

func TestPrice_ClampsViolatingAdvisor(t *testing.T) {
	e := &Engine{Margin: 0.10, AlphaMax: 0.40, Advisor: stubAdvisor{res: AdjustResult{PAdj: 0.01, CorrelationFactor: 0.5}}}
	q, err := e.Price(context.Background(), legs(0.5, 0.5), decimal.NewFromInt(10))
	require.NoError(t, err)
	require.True(t, q.Clamped)
	almostEqual(t, q.PAdj, q.PNaive, 1e-12)
	almostEqual(t, q.CorrelationFactor, 1.0, 1e-12)
}

func TestPrice_FallsBackOnAdvisorError(t *testing.T) {
	e := &Engine{Margin: 0.10, AlphaMax: 0.40, Advisor: stubAdvisor{err: context.DeadlineExceeded}}
	q, err := e.Price(context.Background(), legs(0.5, 0.5), decimal.NewFromInt(10))
	require.NoError(t, err)
	almostEqual(t, q.PAdj, q.PNaive, 1e-12)
}

func TestHedgeFraction_TierBoundaries(t *testing.T) {
	require.Equal(t, 0.0, HedgeFraction(0.4999999, 0.40))
	require.Equal(t, 0.15, HedgeFraction(0.5000001, 0.40))
	require.Equal(t, 0.15, HedgeFraction(0.52, 0.40))
	require.Equal(t, 0.25, HedgeFraction(0.60, 0.40))
	require.Equal(t, 0.40, HedgeFraction(0.65, 0.40))
	require.Equal(t, 0.30, HedgeFraction(0.90, 0.30)) // alpha_max caps the top tier
}
