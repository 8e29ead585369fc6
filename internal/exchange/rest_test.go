package exchange

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*RESTClient, *rsa.PublicKey) {
	t.Helper()
	pemKey, pub := generateTestKeyPEM(t)
	signer, err := NewSigner(pemKey)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRESTClient(srv.URL, "key-id-1", signer, 1000, 5*time.Second), pub
}

func TestRESTClient_AttachesSignedHeaders(t *testing.T) {
	var gotKey, gotTS, gotSig string
	c, pub := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("ACCESS-KEY")
		gotTS = r.Header.Get("ACCESS-TIMESTAMP")
		gotSig = r.Header.Get("ACCESS-SIGNATURE")
		_ = json.NewEncoder(w).Encode(map[string]any{"ticker": "FOO", "status": "open"})
	})

	_, err := c.GetMarket(context.Background(), "FOO")
	require.NoError(t, err)

	assert.Equal(t, "key-id-1", gotKey)
	require.NotEmpty(t, gotTS)
	require.NotEmpty(t, gotSig)

	sigBytes, err := base64.StdEncoding.DecodeString(gotSig)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte(gotTS + "GET" + "/markets/FOO"))
	err = rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sigBytes, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	assert.NoError(t, err, "header signature must verify over timestamp||method||path")
}

func TestRESTClient_PlaceOrderSendsVenuePayload(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"venue_order_id": "v-1", "status": "accepted"})
	})

	res, err := c.PlaceOrder(context.Background(), PlaceOrderRequest{
		Ticker:             "NFL-YES",
		Side:               "yes",
		Action:             "buy",
		Count:              3,
		Type:               OrderTypeLimit,
		LimitPriceCents:    52,
		ClientOrderID:      "hedge-s1-2-1700000000000",
		CancelOrderOnPause: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "v-1", res.VenueOrderID)

	assert.Equal(t, "NFL-YES", body["ticker"])
	assert.Equal(t, "yes", body["side"])
	assert.Equal(t, "buy", body["action"])
	assert.Equal(t, float64(3), body["count"])
	assert.Equal(t, "limit", body["type"])
	assert.Equal(t, float64(52), body["limit_price"])
	assert.Equal(t, "hedge-s1-2-1700000000000", body["client_order_id"])
	assert.Equal(t, true, body["cancel_order_on_pause"])
}

func TestRESTClient_MarketOrderOmitsLimitPrice(t *testing.T) {
	var body map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"venue_order_id": "v-2", "status": "accepted"})
	})

	_, err := c.PlaceOrder(context.Background(), PlaceOrderRequest{
		Ticker: "T", Side: "no", Action: "buy", Count: 1,
		Type: OrderTypeMarket, ClientOrderID: "hedge-x-1-1", CancelOrderOnPause: true,
	})
	require.NoError(t, err)
	_, present := body["limit_price"]
	assert.False(t, present)
}

func TestRESTClient_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    string
		wantErr error
	}{
		{"5xx is retryable", 502, "", ErrRetryable},
		{"401 is fatal", 401, "", ErrFatalSignature},
		{"insufficient funds", 400, "insufficient_funds", ErrInsufficientFunds},
		{"invalid ticker", 400, "invalid_ticker", ErrInvalidTicker},
		{"market paused", 400, "market_paused", ErrMarketPaused},
		{"unknown 4xx is a rejection", 422, "surprise", ErrOrderRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{"code": tt.code})
			})
			_, err := c.PlaceOrder(context.Background(), PlaceOrderRequest{ClientOrderID: "x"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRESTClient_UnknownMarketIsNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})
	_, err := c.GetMarket(context.Background(), "MISSING")
	assert.ErrorIs(t, err, ErrMarketNotFound)
}

func TestRESTClient_ListFillsParsesResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio/fills", r.URL.Path)
		assert.Equal(t, "FOO", r.URL.Query().Get("ticker"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"fills": []map[string]any{
				{"venue_order_id": "v-9", "filled_count": 2, "avg_price": 52, "filled_at": "2026-01-02T03:04:05Z"},
			},
		})
	})
	fills, err := c.ListFills(context.Background(), ListFillsQuery{Ticker: "FOO"})
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, "v-9", fills[0].VenueOrderID)
	assert.Equal(t, 2, fills[0].FilledCount)
	assert.Equal(t, 52, fills[0].AvgPriceCents)
}
