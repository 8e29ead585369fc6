package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"parlayhouse/internal/exchange"
	"parlayhouse/internal/ledger"

	"github.com/shopspring/decimal"
)

// ReconcileFills is the independent loop that matches accepted hedge
// orders against venue fill reports and posts the hedge's P&L into the
// liquidity pool (see applyFill). It is separate from RunOnePass because fills lag
// order acceptance by an unpredictable amount and must not block parlay
// settlement. Idempotent: a hedge order's fills column is set exactly
// once, guarded by "where fills is null", so a fill seen twice across
// passes only posts to the pool once.
func (w *Worker) ReconcileFills(ctx context.Context) error {
	rows, err := w.db.Query(ctx, `
		select parlay_session_id, leg_number, ticker, venue_order_id
		from hedge_orders
		where status = 'accepted' and fills is null and venue_order_id is not null
	`)
	if err != nil {
		return err
	}
	type pending struct {
		sessionID    string
		legNumber    int
		ticker       string
		venueOrderID string
	}
	var orders []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.sessionID, &p.legNumber, &p.ticker, &p.venueOrderID); err != nil {
			rows.Close()
			return err
		}
		orders = append(orders, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	fillsByTicker := map[string][]exchange.Fill{}
	for _, o := range orders {
		if _, ok := fillsByTicker[o.ticker]; ok {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
		fills, err := w.exchange.ListFills(callCtx, exchange.ListFillsQuery{Ticker: o.ticker})
		cancel()
		if err != nil {
			slog.Warn("settlement.reconcile_list_fills_failed", "ticker", o.ticker, "err", err)
			continue
		}
		fillsByTicker[o.ticker] = fills
	}

	for _, o := range orders {
		fill, ok := findFill(fillsByTicker[o.ticker], o.venueOrderID)
		if !ok {
			continue
		}
		if err := w.applyFill(ctx, o.sessionID, o.legNumber, fill); err != nil {
			switch {
			case errors.Is(err, errFillOutcomePending), errors.Is(err, errFillAlreadyApplied):
				// Expected races; retried or already settled on a later/earlier pass.
			default:
				slog.Warn("settlement.reconcile_apply_failed", "session_id", o.sessionID, "leg", o.legNumber, "err", err)
			}
		}
	}
	return nil
}

// ResubmitStaleOrders re-drives hedge orders left in 'submitting': rows
// persisted before a crash (or a venue call that never came back) whose
// network leg may or may not have happened. Resubmission reuses the
// stored client_order_id, so the venue deduplicates; at most one order
// ever fills regardless of how many times this retries.
func (w *Worker) ResubmitStaleOrders(ctx context.Context) error {
	rows, err := w.db.Query(ctx, `
		select parlay_session_id, leg_number, ticker, side, count, limit_price, client_order_id
		from hedge_orders
		where status = 'submitting' and created_at < now() - interval '1 minute'
	`)
	if err != nil {
		return err
	}
	type stale struct {
		sessionID     string
		legNumber     int
		ticker        string
		side          string
		count         int
		limitPrice    *int
		clientOrderID string
	}
	var orders []stale
	for rows.Next() {
		var s stale
		if err := rows.Scan(&s.sessionID, &s.legNumber, &s.ticker, &s.side, &s.count, &s.limitPrice, &s.clientOrderID); err != nil {
			rows.Close()
			return err
		}
		orders = append(orders, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, o := range orders {
		req := exchange.PlaceOrderRequest{
			Ticker:             o.ticker,
			Side:               o.side,
			Action:             "buy",
			Count:              o.count,
			Type:               exchange.OrderTypeMarket,
			ClientOrderID:      o.clientOrderID,
			CancelOrderOnPause: true,
		}
		if o.limitPrice != nil {
			req.Type = exchange.OrderTypeLimit
			req.LimitPriceCents = *o.limitPrice
		}

		callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
		out, perr := w.exchange.PlaceOrder(callCtx, req)
		cancel()

		status, venueOrderID := "accepted", any(out.VenueOrderID)
		if perr != nil {
			if errors.Is(perr, exchange.ErrRetryable) {
				continue // left in 'submitting' for the next pass
			}
			status, venueOrderID = "failed", nil
			slog.Warn("settlement.resubmit_rejected", "session_id", o.sessionID, "leg", o.legNumber, "err", perr)
		}
		if _, uerr := w.db.Exec(ctx, `
			update hedge_orders set status = $3, venue_order_id = $4, updated_at = now()
			where parlay_session_id = $1 and leg_number = $2 and status = 'submitting'
		`, o.sessionID, o.legNumber, status, venueOrderID); uerr != nil {
			slog.Warn("settlement.resubmit_update_failed", "session_id", o.sessionID, "leg", o.legNumber, "err", uerr)
		}
	}
	return nil
}

func findFill(fills []exchange.Fill, venueOrderID string) (exchange.Fill, bool) {
	for _, f := range fills {
		if f.VenueOrderID == venueOrderID {
			return f, true
		}
	}
	return exchange.Fill{}, false
}

// applyFill posts hedge P&L into the liquidity pool once the hedged
// leg's outcome is known (spec §4.5 step 4): a leg that resolved win
// pays out fill_count*(1-fill_price) to the pool, a leg that resolved
// loss costs the pool fill_count*fill_price, and a void leg is refunded
// at cost with no net pool movement. The fills column is stamped in the
// same transaction as the pool move so a crash between the two can never
// happen, and the update is guarded by both "where fills is null" and an
// explicit RowsAffected check so a fill raced by another pass never
// double-posts its P&L.
func (w *Worker) applyFill(ctx context.Context, sessionID string, legNumber int, fill exchange.Fill) error {
	price := decimal.NewFromInt(int64(fill.AvgPriceCents)).Div(decimal.NewFromInt(100))
	count := decimal.NewFromInt(int64(fill.FilledCount))

	payload, err := json.Marshal(fill)
	if err != nil {
		return err
	}

	return w.ledger.WithTx(ctx, func(q ledger.Querier) error {
		var outcome string
		if err := q.QueryRow(ctx, `
			select outcome from leg_outcomes where parlay_session_id = $1 and leg_number = $2
		`, sessionID, legNumber).Scan(&outcome); err != nil {
			return err
		}

		switch outcome {
		case "pending":
			return errFillOutcomePending
		case "win":
			proceeds := count.Mul(decimal.NewFromInt(1).Sub(price))
			if err := w.ledger.PoolCredit(ctx, q, proceeds, "hedge_fill_win:"+sessionID); err != nil {
				return err
			}
		case "loss":
			cost := count.Mul(price)
			if err := w.ledger.PoolDebit(ctx, q, cost, "hedge_fill_loss:"+sessionID); err != nil {
				return err
			}
		case "void":
			// Refunded at cost by the venue; no net pool movement.
		}

		tag, err := q.Exec(ctx, `
			update hedge_orders set fills = $3, updated_at = now()
			where parlay_session_id = $1 and leg_number = $2 and fills is null
		`, sessionID, legNumber, payload)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errFillAlreadyApplied
		}
		return nil
	})
}
