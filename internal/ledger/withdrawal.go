package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type WithdrawalRequest struct {
	ID              string
	UserID          string
	Amount          decimal.Decimal
	Status          string
	VenueTransferID *string
}

// OpenWithdrawal atomically debits the wallet and creates a pending
// withdrawal request. If the venue transfer subsequently fails, the
// wallet is credited back by FailWithdrawal.
func (l *Ledger) OpenWithdrawal(ctx context.Context, userID string, amount decimal.Decimal) (WithdrawalRequest, error) {
	var req WithdrawalRequest
	err := l.WithTx(ctx, func(q Querier) error {
		if err := l.DebitWallet(ctx, q, userID, amount, "withdrawal"); err != nil {
			return err
		}
		err := q.QueryRow(ctx, `
			insert into withdrawal_requests (user_id, amount, status)
			values ($1, $2, 'pending')
			returning id::text
		`, userID, amount).Scan(&req.ID)
		if err != nil {
			return fmt.Errorf("insert withdrawal request: %w", err)
		}
		req.UserID = userID
		req.Amount = amount
		req.Status = "pending"
		return nil
	})
	return req, err
}

// CompleteWithdrawal marks a pending withdrawal as completed once the
// venue confirms the transfer.
func (l *Ledger) CompleteWithdrawal(ctx context.Context, q Querier, requestID, venueTransferID string) error {
	tag, err := q.Exec(ctx, `
		update withdrawal_requests set status = 'completed', venue_transfer_id = $2, updated_at = now()
		where id = $1 and status = 'pending'
	`, requestID, venueTransferID)
	if err != nil {
		return fmt.Errorf("complete withdrawal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return recordEvent(ctx, q, "system", "withdrawal_completed",
		map[string]any{"request_id": requestID, "venue_transfer_id": venueTransferID},
		map[string]string{},
	)
}

// FailWithdrawal transitions a pending withdrawal to failed and credits
// the wallet back, since the debit at open time assumed success.
func (l *Ledger) FailWithdrawal(ctx context.Context, requestID, reason string) error {
	return l.WithTx(ctx, func(q Querier) error {
		tx := q.(pgx.Tx)
		var (
			userID string
			amount decimal.Decimal
		)
		err := tx.QueryRow(ctx, `
			select user_id, amount from withdrawal_requests
			where id = $1 and status = 'pending' for update
		`, requestID).Scan(&userID, &amount)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrNotPending
			}
			return fmt.Errorf("lock withdrawal: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			update withdrawal_requests set status = 'failed', updated_at = now() where id = $1
		`, requestID); err != nil {
			return fmt.Errorf("fail withdrawal: %w", err)
		}
		if err := l.CreditWallet(ctx, tx, userID, amount, "withdrawal_failed:"+reason); err != nil {
			return err
		}
		return recordEvent(ctx, tx, userID, "withdrawal_failed",
			map[string]any{"request_id": requestID, "reason": reason},
			map[string]string{"wallet:" + userID: amount.String()},
		)
	})
}
