package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DebitWallet atomically decrements the wallet. It fails with
// ErrInsufficientFunds rather than letting the balance go negative; the
// `balance >= 0` check constraint on the wallets table is the last line
// of defense, this query is the first.
func (l *Ledger) DebitWallet(ctx context.Context, q Querier, userID string, amount decimal.Decimal, reason string) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("debit amount must be positive, got %s", amount)
	}
	var newBalance decimal.Decimal
	err := q.QueryRow(ctx, `
		update wallets set balance = balance - $2, updated_at = now()
		where user_id = $1 and balance >= $2
		returning balance
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrInsufficientFunds
		}
		return fmt.Errorf("debit wallet: %w", err)
	}
	return recordEvent(ctx, q, userID, "wallet_debit",
		map[string]any{"reason": reason},
		map[string]string{"wallet:" + userID: amount.Neg().String()},
	)
}

// CreditWallet atomically increments the wallet.
func (l *Ledger) CreditWallet(ctx context.Context, q Querier, userID string, amount decimal.Decimal, reason string) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("credit amount must be positive, got %s", amount)
	}
	_, err := q.Exec(ctx, `
		update wallets set balance = balance + $2, updated_at = now() where user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	return recordEvent(ctx, q, userID, "wallet_credit",
		map[string]any{"reason": reason},
		map[string]string{"wallet:" + userID: amount.String()},
	)
}
