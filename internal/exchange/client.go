package exchange

import "context"

// Client is the surface the quote, hedging, and settlement components
// depend on. Both RESTClient and the DRY-RUN decorator satisfy it.
type Client interface {
	GetMarket(ctx context.Context, marketID string) (Market, error)
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error)
	ListFills(ctx context.Context, q ListFillsQuery) ([]Fill, error)
	TransferOut(ctx context.Context, req TransferOutRequest) (TransferOutResult, error)
}
