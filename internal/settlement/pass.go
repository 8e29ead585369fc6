package settlement

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"parlayhouse/internal/exchange"

	"github.com/shopspring/decimal"
)

// RunOnePass scans every pending parlay once, resolves whatever legs have
// settled at the venue since the last pass, and applies status
// transitions. Parlays are processed with bounded parallelism; a parlay
// already locked by another worker (or another pass still in flight) is
// skipped, not retried, within this pass.
func (w *Worker) RunOnePass(ctx context.Context) error {
	rows, err := w.db.Query(ctx, `select session_id from parlays where status = 'pending' order by created_at asc`)
	if err != nil {
		return err
	}
	var sessionIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		sessionIDs = append(sessionIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(sessionIDs) == 0 {
		return nil
	}

	sem := make(chan struct{}, w.maxParallel)
	var wg sync.WaitGroup
	for _, id := range sessionIDs {
		sem <- struct{}{}
		wg.Add(1)
		go func(sessionID string) {
			defer wg.Done()
			defer func() { <-sem }()
			w.processParlay(ctx, sessionID)
		}(id)
	}
	wg.Wait()
	return nil
}

type legRow struct {
	legNumber       int
	ticker          string
	side            string
	expectedOutcome string
	outcome         string
}

func (w *Worker) processParlay(ctx context.Context, sessionID string) {
	lock, ok, err := tryLockParlay(ctx, w.db, sessionID)
	if err != nil {
		slog.Warn("settlement.lock_error", "session_id", sessionID, "err", err)
		return
	}
	if !ok {
		return
	}
	defer lock.Release(ctx)

	var status string
	var userID string
	var stake, payout decimal.Decimal
	err = w.db.QueryRow(ctx, `select user_id, status, stake, payout from parlays where session_id = $1`, sessionID).
		Scan(&userID, &status, &stake, &payout)
	if err != nil {
		slog.Warn("settlement.load_parlay_failed", "session_id", sessionID, "err", err)
		return
	}
	if status != "pending" {
		return
	}

	rows, err := w.db.Query(ctx, `
		select leg_number, ticker, side, expected_outcome, outcome
		from leg_outcomes where parlay_session_id = $1 order by leg_number asc
	`, sessionID)
	if err != nil {
		slog.Warn("settlement.load_legs_failed", "session_id", sessionID, "err", err)
		return
	}
	var legs []legRow
	for rows.Next() {
		var lr legRow
		if err := rows.Scan(&lr.legNumber, &lr.ticker, &lr.side, &lr.expectedOutcome, &lr.outcome); err != nil {
			rows.Close()
			slog.Warn("settlement.scan_leg_failed", "session_id", sessionID, "err", err)
			return
		}
		legs = append(legs, lr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		slog.Warn("settlement.legs_iter_failed", "session_id", sessionID, "err", err)
		return
	}

	anyLoss := false
	anyWin := false
	allSettled := true
	for i, leg := range legs {
		if leg.outcome != "pending" {
			if leg.outcome == "loss" {
				anyLoss = true
			} else if leg.outcome == "win" {
				anyWin = true
			}
			continue
		}

		resolved, perr := w.resolveLegWithRetry(ctx, leg.ticker, leg.side)
		if perr != nil {
			if errors.Is(perr, errTransient) {
				allSettled = false
				continue
			}
			w.flagNeedsAttention(ctx, sessionID, leg.ticker, perr)
			return
		}
		if resolved == "" {
			allSettled = false
			continue
		}
		legs[i].outcome = resolved
		if _, err := w.db.Exec(ctx, `
			update leg_outcomes set market_status = 'settled', outcome = $3, settled_at = now()
			where parlay_session_id = $1 and leg_number = $2
		`, sessionID, leg.legNumber, resolved); err != nil {
			slog.Warn("settlement.persist_leg_failed", "session_id", sessionID, "leg", leg.legNumber, "err", err)
			allSettled = false
			continue
		}
		if resolved == "loss" {
			anyLoss = true
		} else if resolved == "win" {
			anyWin = true
		}
	}

	switch {
	case anyLoss:
		w.settleLost(ctx, sessionID, stake)
	case allSettled && anyWin:
		w.settleWon(ctx, sessionID, payout)
	default:
		// still awaiting at least one leg; next pass picks it up.
	}
}

// resolveLegWithRetry calls the venue for the leg's current market state
// and converts it to "win" | "loss" | "void" | "" (still open). The call
// is attempted up to maxRetries times, with exponential backoff after each
// transient venue error, before surfacing as errTransient to the caller
// (meaning: try again next pass, not a permanent failure). A pass deadline
// hit while backing off also surfaces as errTransient.
func (w *Worker) resolveLegWithRetry(ctx context.Context, ticker, side string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < w.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
		market, err := w.exchange.GetMarket(callCtx, ticker)
		cancel()
		if err == nil {
			return outcomeFor(market, side), nil
		}
		lastErr = err
		if !errors.Is(err, exchange.ErrRetryable) {
			return "", err
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		select {
		case <-ctx.Done():
			return "", errTransientWrap(ctx.Err())
		case <-time.After(backoff):
		}
	}
	return "", errTransientWrap(lastErr)
}

func errTransientWrap(cause error) error {
	if cause == nil {
		return errTransient
	}
	return errors.Join(errTransient, cause)
}

// outcomeFor derives a leg's outcome from resolved venue market state.
// A void market never counts against the user; a settled market pays out
// win/loss by comparing the leg's held side to the market's resolved
// side. An unsettled market yields "" (still pending).
func outcomeFor(m exchange.Market, side string) string {
	if m.Status != "settled" {
		return ""
	}
	if m.Void {
		return "void"
	}
	if m.ResolvedSide == side {
		return "win"
	}
	return "loss"
}
