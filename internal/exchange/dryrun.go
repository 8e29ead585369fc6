package exchange

import (
	"context"
	"log/slog"
)

// DryRunClient decorates an inner Client so PlaceOrder and TransferOut
// never perform network I/O: they return a synthetic success and log the
// full request payload plus the endpoint that would have been called.
// GetMarket and ListFills pass through unchanged — read-only venue access
// is still useful in DRY-RUN for pricing and settlement polling.
//
// The decorator is chosen once at process start (spec §4.1: "a single
// boolean flag resolved at process start"), grounded on
// _examples/other_examples's polybot exec-client DryRun field shape.
type DryRunClient struct {
	Inner Client
}

func (d *DryRunClient) GetMarket(ctx context.Context, marketID string) (Market, error) {
	return d.Inner.GetMarket(ctx, marketID)
}

func (d *DryRunClient) ListFills(ctx context.Context, q ListFillsQuery) ([]Fill, error) {
	return d.Inner.ListFills(ctx, q)
}

func (d *DryRunClient) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	slog.Info("exchange.dryrun.place_order",
		"endpoint", "POST /portfolio/orders",
		"ticker", req.Ticker,
		"side", req.Side,
		"count", req.Count,
		"type", req.Type,
		"limit_price_cents", req.LimitPriceCents,
		"client_order_id", req.ClientOrderID,
	)
	return PlaceOrderResult{
		VenueOrderID: "dryrun-" + req.ClientOrderID,
		Status:       "accepted",
	}, nil
}

func (d *DryRunClient) TransferOut(ctx context.Context, req TransferOutRequest) (TransferOutResult, error) {
	slog.Info("exchange.dryrun.transfer_out",
		"endpoint", "POST /portfolio/transfers",
		"user_handle", req.UserHandle,
		"amount_cents", req.AmountCents,
	)
	return TransferOutResult{VenueTransferID: "dryrun-transfer-" + req.UserHandle}, nil
}
