package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"parlayhouse/internal/exchange"
)

// MarketHandler normalizes a venue market into the shape the extension's
// bet-picker renders (spec §6).
type MarketHandler struct {
	Exchange exchange.Client
}

type marketContractResp struct {
	Label string          `json:"label"`
	Yes   *marketSideResp `json:"yes,omitempty"`
	No    *marketSideResp `json:"no,omitempty"`
}

type marketSideResp struct {
	Ticker string  `json:"ticker"`
	Prob   float64 `json:"prob"`
	Price  int     `json:"price"` // contract cost in cents
}

type marketResp struct {
	Title     string               `json:"title"`
	ImageURL  string               `json:"imageUrl"`
	Contracts []marketContractResp `json:"contracts"`
}

func (h *MarketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeErr(w, http.StatusBadRequest, "missing_market_id")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	m, err := h.Exchange.GetMarket(ctx, id)
	if err != nil {
		if errors.Is(err, exchange.ErrMarketNotFound) {
			writeErr(w, http.StatusNotFound, "market_not_found")
			return
		}
		writeErr(w, http.StatusBadGateway, "venue_unavailable")
		return
	}

	resp := marketResp{Title: m.Title, ImageURL: m.Image}
	for _, c := range m.Contracts {
		entry := marketContractResp{Label: c.Ticker}
		side := &marketSideResp{Ticker: c.Ticker, Prob: c.ProbabilityPct / 100, Price: int(math.Round(c.ProbabilityPct))}
		if c.Side == "yes" {
			entry.Yes = side
		} else {
			entry.No = side
		}
		resp.Contracts = append(resp.Contracts, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}
