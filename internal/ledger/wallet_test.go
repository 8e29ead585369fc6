package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// nilQuerier panics if touched; used to prove the validation guards return
// before ever reaching the database.
type nilQuerier struct{ Querier }

func TestDebitWallet_RejectsNonPositiveAmount(t *testing.T) {
	l := &Ledger{}
	err := l.DebitWallet(context.Background(), nilQuerier{}, "u1", decimal.Zero, "stake")
	require.Error(t, err)

	err = l.DebitWallet(context.Background(), nilQuerier{}, "u1", decimal.NewFromInt(-5), "stake")
	require.Error(t, err)
}

func TestCreditWallet_RejectsNonPositiveAmount(t *testing.T) {
	l := &Ledger{}
	err := l.CreditWallet(context.Background(), nilQuerier{}, "u1", decimal.Zero, "refund")
	require.Error(t, err)
}
