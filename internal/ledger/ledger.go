// Package ledger owns every monetary state transition: user wallets, the
// platform liquidity pool, claimable winnings, and withdrawal requests.
// Every operation here is transactional, and every mutation appends one
// append-only ledger_events row suitable for audit reconciliation.
package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyClaimed    = errors.New("already claimed")
	ErrParlayNotWon      = errors.New("parlay not won")
	ErrNotFound          = errors.New("not found")
	ErrNotPending        = errors.New("not pending")
)

// Querier is the narrow subset of pgx's query surface the ledger needs.
// Both *pgxpool.Pool and pgx.Tx satisfy it, so ledger operations can run
// either standalone or composed into a larger caller transaction (e.g. the
// API gateway's place-parlay handler, which debits the wallet and inserts
// the parlay row in one commit).
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Ledger struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Ledger {
	return &Ledger{db: db}
}

// WithTx runs fn inside a fresh transaction, committing on success and
// rolling back on any error (mirroring the teacher's
// bets_resolve.go/wager.go tx.Begin/defer tx.Rollback pattern).
func (l *Ledger) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Pool exposes the underlying connection pool for callers (e.g. the API
// gateway) that need to compose ledger operations with their own inserts
// inside one transaction.
func (l *Ledger) Pool() *pgxpool.Pool {
	return l.db
}
