package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PoolCredit increases the platform liquidity pool balance. The pool may
// go negative (it represents expected future liability against promised
// payouts), so there is no non-negativity check here, unlike the wallet.
func (l *Ledger) PoolCredit(ctx context.Context, q Querier, amount decimal.Decimal, reason string) error {
	return l.poolMove(ctx, q, amount, reason, "pool_credit")
}

// PoolDebit decreases the platform liquidity pool balance.
func (l *Ledger) PoolDebit(ctx context.Context, q Querier, amount decimal.Decimal, reason string) error {
	return l.poolMove(ctx, q, amount.Neg(), reason, "pool_debit")
}

func (l *Ledger) poolMove(ctx context.Context, q Querier, signedAmount decimal.Decimal, reason, kind string) error {
	if signedAmount.IsZero() {
		return nil
	}
	_, err := q.Exec(ctx, `
		update liquidity_pool set balance = balance + $1, updated_at = now() where id = 1
	`, signedAmount)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return recordEvent(ctx, q, "system", kind,
		map[string]any{"reason": reason},
		map[string]string{"pool": signedAmount.String()},
	)
}
