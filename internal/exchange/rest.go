package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// RESTClient is the signed HTTP implementation of Client against a single
// configured environment (demo or production; never both in one process).
type RESTClient struct {
	baseURL    string
	accessKey  string
	signer     *Signer
	httpClient *http.Client

	// orderLimiter self-paces order-placement calls with a shared token
	// bucket (spec §4.1/§5: "a rate limiter (token bucket, default
	// 10 ops/s) is the only shared state"). getMarket/listFills are not
	// rate-limited by this bucket.
	orderLimiter *rate.Limiter
}

func NewRESTClient(baseURL, accessKeyID string, signer *Signer, ratePerSec float64, callTimeout time.Duration) *RESTClient {
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	return &RESTClient{
		baseURL:      baseURL,
		accessKey:    accessKeyID,
		signer:       signer,
		httpClient:   &http.Client{Timeout: callTimeout},
		orderLimiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

func (c *RESTClient) GetMarket(ctx context.Context, marketID string) (Market, error) {
	var out struct {
		Ticker       string `json:"ticker"`
		Title        string `json:"title"`
		Image        string `json:"image"`
		Status       string `json:"status"`
		ResolvedSide string `json:"resolved_side"`
		Void         bool   `json:"void"`
		Contracts    []struct {
			Ticker         string  `json:"ticker"`
			Side           string  `json:"side"`
			ProbabilityPct float64 `json:"probability_percent"`
		} `json:"contracts"`
	}
	path := "/markets/" + marketID
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return Market{}, err
	}
	if out.Ticker == "" {
		return Market{}, ErrMarketNotFound
	}
	m := Market{Ticker: out.Ticker, Title: out.Title, Image: out.Image, Status: out.Status, ResolvedSide: out.ResolvedSide, Void: out.Void}
	for _, ct := range out.Contracts {
		m.Contracts = append(m.Contracts, Contract{Ticker: ct.Ticker, Side: ct.Side, ProbabilityPct: ct.ProbabilityPct})
	}
	return m, nil
}

func (c *RESTClient) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	if err := c.orderLimiter.Wait(ctx); err != nil {
		return PlaceOrderResult{}, fmt.Errorf("%w: rate limiter: %v", ErrRetryable, err)
	}
	var out struct {
		VenueOrderID string `json:"venue_order_id"`
		Status       string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/portfolio/orders", req, &out); err != nil {
		return PlaceOrderResult{}, err
	}
	return PlaceOrderResult{VenueOrderID: out.VenueOrderID, Status: out.Status}, nil
}

func (c *RESTClient) ListFills(ctx context.Context, q ListFillsQuery) ([]Fill, error) {
	path := "/portfolio/fills"
	if q.Ticker != "" {
		path += "?ticker=" + q.Ticker
	}
	var out struct {
		Fills []struct {
			VenueOrderID  string    `json:"venue_order_id"`
			FilledCount   int       `json:"filled_count"`
			AvgPriceCents int       `json:"avg_price"`
			FilledAt      time.Time `json:"filled_at"`
		} `json:"fills"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	fills := make([]Fill, 0, len(out.Fills))
	for _, f := range out.Fills {
		fills = append(fills, Fill{VenueOrderID: f.VenueOrderID, FilledCount: f.FilledCount, AvgPriceCents: f.AvgPriceCents, FilledAt: f.FilledAt})
	}
	return fills, nil
}

func (c *RESTClient) TransferOut(ctx context.Context, req TransferOutRequest) (TransferOutResult, error) {
	var out struct {
		VenueTransferID string `json:"venue_transfer_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/portfolio/transfers", req, &out); err != nil {
		return TransferOutResult{}, err
	}
	return TransferOutResult{VenueTransferID: out.VenueTransferID}, nil
}

func (c *RESTClient) do(ctx context.Context, method, path string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	sig, err := c.signer.Sign(ts, method, path)
	if err != nil {
		return err
	}
	req.Header.Set("ACCESS-KEY", c.accessKey)
	req.Header.Set("ACCESS-TIMESTAMP", ts)
	req.Header.Set("ACCESS-SIGNATURE", sig)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrFatalSignature
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: venue status %d", ErrRetryable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var errBody struct {
			Code string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return classify(errBody.Code)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
