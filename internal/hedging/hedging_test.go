package hedging

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestContractsFor_WholeContractRounding(t *testing.T) {
	cost, count := contractsFor(decimal.NewFromFloat(1.50), 0.52)
	require.Equal(t, 52, cost)
	require.Equal(t, 2, count) // 150 / 52 = 2.88 -> floor 2

	cost, count = contractsFor(decimal.NewFromFloat(2.00), 0.65)
	require.Equal(t, 65, cost)
	require.Equal(t, 3, count) // 200 / 65 = 3.07 -> floor 3
}

func TestContractsFor_ZeroWhenNotionalBelowOneContract(t *testing.T) {
	_, count := contractsFor(decimal.NewFromFloat(0.10), 0.60)
	require.Equal(t, 0, count)
}

func TestContractsFor_ZeroProbabilityNeverDivides(t *testing.T) {
	cost, count := contractsFor(decimal.NewFromFloat(1.00), 0)
	require.Equal(t, 0, cost)
	require.Equal(t, 0, count)
}
