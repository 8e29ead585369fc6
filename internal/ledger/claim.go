package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// RecordClaimable sets the claimable amount on a won parlay. Idempotent by
// session id: a second call with the same session id is a no-op, it never
// overwrites a claimable amount already set.
func (l *Ledger) RecordClaimable(ctx context.Context, q Querier, sessionID string, amount decimal.Decimal) error {
	tag, err := q.Exec(ctx, `
		update parlays set claimable_amount = $2
		where session_id = $1 and claimable_amount is null
	`, sessionID, amount)
	if err != nil {
		return fmt.Errorf("record claimable: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	return recordEvent(ctx, q, "system", "claimable_recorded",
		map[string]any{"session_id": sessionID},
		map[string]string{"parlay:" + sessionID: amount.String()},
	)
}

// Claim atomically pays out a won, unclaimed parlay: it locks the parlay
// row, verifies status and claim state, moves claimable_amount from the
// liquidity pool to the user's wallet, and stamps claimed_at. Concurrent
// duplicate calls on the same session id are serialized by the row lock;
// exactly one of them performs the credit, the rest observe claimed_at
// already set and return ErrAlreadyClaimed.
func (l *Ledger) Claim(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := l.WithTx(ctx, func(q Querier) error {
		tx := q.(pgx.Tx)

		var (
			userID    string
			status    string
			claimable *decimal.Decimal
			claimedAt *string
		)
		err := tx.QueryRow(ctx, `
			select user_id, status, claimable_amount, claimed_at::text
			from parlays where session_id = $1 for update
		`, sessionID).Scan(&userID, &status, &claimable, &claimedAt)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("lock parlay: %w", err)
		}
		if claimedAt != nil {
			return ErrAlreadyClaimed
		}
		if status != "won" || claimable == nil {
			return ErrParlayNotWon
		}
		amount = *claimable

		if err := l.PoolDebit(ctx, tx, amount, "claim:"+sessionID); err != nil {
			return err
		}
		if err := l.CreditWallet(ctx, tx, userID, amount, "claim:"+sessionID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `update parlays set claimed_at = now() where session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("stamp claimed_at: %w", err)
		}
		return recordEvent(ctx, tx, userID, "claim",
			map[string]any{"session_id": sessionID},
			map[string]string{"wallet:" + userID: amount.String(), "pool": amount.Neg().String()},
		)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}
