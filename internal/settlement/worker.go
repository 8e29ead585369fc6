// Package settlement runs the periodic reconciliation loop that resolves
// open parlays: it polls leg outcomes via the exchange client, transitions
// parlay status, posts ledger moves, and reconciles hedge fills into the
// liquidity pool's P&L. The loop shape is grounded on the teacher's
// internal/telegram/poller.go Run(ctx) idiom (select ctx.Done(), default;
// do work; sleep); the per-market settlement operations are grounded on
// _examples/other_examples's AttaboyGO PredictionSettlement
// (ValidateAttestation/ExecuteCreditWin/ExecuteCancelTransaction shape),
// adapted from single-market bets to per-leg, per-parlay reconciliation.
package settlement

import (
	"context"
	"log/slog"
	"time"

	"parlayhouse/internal/exchange"
	"parlayhouse/internal/ledger"
	"parlayhouse/internal/notify"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	db       *pgxpool.Pool
	exchange exchange.Client
	ledger   *ledger.Ledger
	notifier notify.Notifier

	pollInterval time.Duration
	passMax      time.Duration
	callTimeout  time.Duration
	maxParallel  int
	maxRetries   int
}

func NewWorker(db *pgxpool.Pool, ex exchange.Client, lg *ledger.Ledger, notifier notify.Notifier, pollInterval, passMax, callTimeout time.Duration, maxParallel, maxRetries int) *Worker {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if maxParallel <= 0 {
		maxParallel = 8
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Worker{
		db:           db,
		exchange:     ex,
		ledger:       lg,
		notifier:     notifier,
		pollInterval: pollInterval,
		passMax:      passMax,
		callTimeout:  callTimeout,
		maxParallel:  maxParallel,
		maxRetries:   maxRetries,
	}
}

// ProcessOne resolves a single parlay immediately, outside the periodic
// cadence: the on-demand settlement poll the gateway's
// GET /api/parlay-status/:sessionId and parlayctl's "settle parlay" both
// drive.
func (w *Worker) ProcessOne(ctx context.Context, sessionID string) {
	callCtx, cancel := context.WithTimeout(ctx, w.passMax)
	defer cancel()
	w.processParlay(callCtx, sessionID)
}

// Run is the long-running cooperative loop: one pass every pollInterval,
// plus whatever passes are kicked synchronously via RunOnePass from the
// admin endpoint/CLI. It never panics out of the loop on a single pass's
// error; it logs and waits for the next tick.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("settlement.worker.start", "poll_interval", w.pollInterval)
	defer slog.Info("settlement.worker.stop")
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		passCtx, cancel := context.WithTimeout(ctx, w.passMax)
		if err := w.RunOnePass(passCtx); err != nil {
			slog.Warn("settlement.pass_error", "err", err)
		}
		if err := w.ResubmitStaleOrders(passCtx); err != nil {
			slog.Warn("settlement.resubmit_error", "err", err)
		}
		if err := w.ReconcileFills(passCtx); err != nil {
			slog.Warn("settlement.reconcile_error", "err", err)
		}
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.pollInterval):
		}
	}
}
