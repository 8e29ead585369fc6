package exchange

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	getMarketCalls int
}

func (r *recordingClient) GetMarket(ctx context.Context, marketID string) (Market, error) {
	r.getMarketCalls++
	return Market{Ticker: marketID, Status: "open"}, nil
}
func (r *recordingClient) ListFills(ctx context.Context, q ListFillsQuery) ([]Fill, error) {
	return nil, nil
}
func (r *recordingClient) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	panic("network call must not happen in dry-run")
}
func (r *recordingClient) TransferOut(ctx context.Context, req TransferOutRequest) (TransferOutResult, error) {
	panic("network call must not happen in dry-run")
}

func TestDryRunClient_PlaceOrderIsSyntheticAndLocal(t *testing.T) {
	inner := &recordingClient{}
	d := &DryRunClient{Inner: inner}

	res, err := d.PlaceOrder(context.Background(), PlaceOrderRequest{ClientOrderID: "hedge-abc-1-123"})
	require.NoError(t, err)
	require.Equal(t, "dryrun-hedge-abc-1-123", res.VenueOrderID)
	require.Equal(t, "accepted", res.Status)
}

func TestDryRunClient_GetMarketPassesThrough(t *testing.T) {
	inner := &recordingClient{}
	d := &DryRunClient{Inner: inner}

	m, err := d.GetMarket(context.Background(), "FOO")
	require.NoError(t, err)
	require.Equal(t, "FOO", m.Ticker)
	require.Equal(t, 1, inner.getMarketCalls)
}
