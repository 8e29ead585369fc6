package settlement

import (
	"context"
	"log/slog"

	"parlayhouse/internal/ledger"

	"github.com/shopspring/decimal"
)

// settleLost credits the stake to the liquidity pool as revenue (the
// house keeps it; the stake left the user's wallet at placement and is
// posted to the pool only now) and flips status to lost. The user's
// promised payout is never paid. The status update is guarded by
// "where status = 'pending'" so a parlay already transitioned by a
// concurrent pass (it shouldn't be, it's lock-held, but belt and braces
// for a pass that outlives its lock) is never re-settled.
func (w *Worker) settleLost(ctx context.Context, sessionID string, stake decimal.Decimal) {
	err := w.ledger.WithTx(ctx, func(q ledger.Querier) error {
		if err := w.ledger.PoolCredit(ctx, q, stake, "parlay_lost:"+sessionID); err != nil {
			return err
		}
		_, err := q.Exec(ctx, `update parlays set status = 'lost' where session_id = $1 and status = 'pending'`, sessionID)
		return err
	})
	if err != nil {
		slog.Error("settlement.settle_lost_failed", "session_id", sessionID, "err", err)
		w.flagNeedsAttention(ctx, sessionID, "", err)
		return
	}
	slog.Info("settlement.parlay_lost", "session_id", sessionID, "stake", stake.String())
}

// settleWon records the payout as claimable and flips status to won. It
// does not move money into the user's wallet; that happens on explicit
// claim (ledger.Claim), matching spec §4.6's separation between a parlay
// resolving won and a user claiming winnings.
func (w *Worker) settleWon(ctx context.Context, sessionID string, payout decimal.Decimal) {
	err := w.ledger.WithTx(ctx, func(q ledger.Querier) error {
		if err := w.ledger.RecordClaimable(ctx, q, sessionID, payout); err != nil {
			return err
		}
		_, err := q.Exec(ctx, `update parlays set status = 'won' where session_id = $1 and status = 'pending'`, sessionID)
		return err
	})
	if err != nil {
		slog.Error("settlement.settle_won_failed", "session_id", sessionID, "err", err)
		w.flagNeedsAttention(ctx, sessionID, "", err)
		return
	}
	slog.Info("settlement.parlay_won", "session_id", sessionID, "payout", payout.String())
}

// flagNeedsAttention marks a parlay as stuck on a permanent error (a
// non-retryable venue rejection, or a failure posting the ledger
// transition itself) and pages an operator. needs_attention is terminal
// from this worker's perspective: no pass, including parlayctl's
// "settle parlay", processes a parlay that is no longer pending.
func (w *Worker) flagNeedsAttention(ctx context.Context, sessionID, ticker string, cause error) {
	if _, err := w.db.Exec(ctx, `update parlays set status = 'needs_attention' where session_id = $1 and status = 'pending'`, sessionID); err != nil {
		slog.Error("settlement.flag_needs_attention_failed", "session_id", sessionID, "err", err)
	}
	msg := "parlay " + sessionID + " needs attention"
	if ticker != "" {
		msg += " (ticker " + ticker + ")"
	}
	if cause != nil {
		msg += ": " + cause.Error()
	}
	slog.Error("settlement.needs_attention", "session_id", sessionID, "ticker", ticker, "err", cause)
	w.notifier.NotifyAdmins(ctx, msg)
}
