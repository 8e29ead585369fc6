// Package hedging converts a quote's hedge plan into exchange orders:
// whole-contract sizing, idempotent client_order_id construction, and
// per-leg failure isolation so one rejected leg never aborts the batch or
// changes the user's promised payout.
package hedging

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"parlayhouse/internal/exchange"
	"parlayhouse/internal/quote"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Result struct {
	LegNumber    int
	Ticker       string
	Skipped      bool
	Failed       bool
	VenueOrderID string
	Err          error
}

// Submit executes one hedge plan. legProbs maps leg number (1-indexed, as
// used in quote.HedgeLeg) to the leg's venue probability, needed to
// convert notional into whole contracts.
func Submit(ctx context.Context, db *pgxpool.Pool, client exchange.Client, sessionID string, useLimitOrders bool, plan []quote.HedgeLeg, legProbs map[int]float64) []Result {
	results := make([]Result, 0, len(plan))
	for _, leg := range plan {
		res := submitOne(ctx, db, client, sessionID, useLimitOrders, leg, legProbs[leg.LegNumber])
		results = append(results, res)
	}
	logBatchSummary(sessionID, results)
	return results
}

func submitOne(ctx context.Context, db *pgxpool.Pool, client exchange.Client, sessionID string, useLimitOrders bool, leg quote.HedgeLeg, prob float64) Result {
	contractCostCents, count := contractsFor(leg.Notional, prob)
	if contractCostCents <= 0 || count == 0 {
		slog.Info("hedging.skip_zero_count", "session_id", sessionID, "leg", leg.LegNumber, "notional", leg.Notional.String())
		return Result{LegNumber: leg.LegNumber, Ticker: leg.Ticker, Skipped: true}
	}

	clientOrderID := fmt.Sprintf("hedge-%s-%d-%d", sessionID, leg.LegNumber, time.Now().UnixMilli())

	orderType := exchange.OrderTypeMarket
	limitPrice := 0
	if useLimitOrders {
		orderType = exchange.OrderTypeLimit
		limitPrice = contractCostCents
	}

	if _, err := db.Exec(ctx, `
		insert into hedge_orders (parlay_session_id, leg_number, ticker, side, count, limit_price, client_order_id, status)
		values ($1, $2, $3, $4, $5, nullif($6, 0), $7, 'submitting')
	`, sessionID, leg.LegNumber, leg.Ticker, leg.Side, count, limitPrice, clientOrderID); err != nil {
		slog.Error("hedging.persist_failed", "session_id", sessionID, "leg", leg.LegNumber, "err", err)
		return Result{LegNumber: leg.LegNumber, Ticker: leg.Ticker, Failed: true, Err: err}
	}

	out, err := client.PlaceOrder(ctx, exchange.PlaceOrderRequest{
		Ticker:             leg.Ticker,
		Side:               leg.Side,
		Action:             "buy",
		Count:              count,
		Type:               orderType,
		LimitPriceCents:    limitPrice,
		ClientOrderID:      clientOrderID,
		CancelOrderOnPause: true,
	})

	status := "accepted"
	venueOrderID := ""
	if err != nil {
		status = "failed"
		slog.Warn("hedging.order_failed", "session_id", sessionID, "leg", leg.LegNumber, "err", err)
	} else {
		venueOrderID = out.VenueOrderID
	}

	if _, uerr := db.Exec(ctx, `
		update hedge_orders set status = $3, venue_order_id = $4, updated_at = now()
		where parlay_session_id = $1 and leg_number = $2
	`, sessionID, leg.LegNumber, status, nullIfEmpty(venueOrderID)); uerr != nil {
		slog.Error("hedging.update_failed", "session_id", sessionID, "leg", leg.LegNumber, "err", uerr)
	}

	return Result{LegNumber: leg.LegNumber, Ticker: leg.Ticker, Failed: err != nil, VenueOrderID: venueOrderID, Err: err}
}

func logBatchSummary(sessionID string, results []Result) {
	var accepted, failed, skipped int
	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
		case r.Failed:
			failed++
		default:
			accepted++
		}
	}
	slog.Info("hedging.batch_complete", "session_id", sessionID, "accepted", accepted, "failed", failed, "skipped", skipped)
}

// contractsFor converts a hedge notional into whole venue contracts:
// contract_cost_cents = round(p*100); count = floor(notional*100 / cost).
func contractsFor(notional decimal.Decimal, prob float64) (contractCostCents, count int) {
	contractCostCents = int(math.Round(prob * 100))
	if contractCostCents <= 0 {
		return 0, 0
	}
	notionalCents, _ := notional.Mul(decimalHundred).Float64()
	return contractCostCents, int(notionalCents) / contractCostCents
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
