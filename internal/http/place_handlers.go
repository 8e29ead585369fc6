package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"parlayhouse/internal/exchange"
	"parlayhouse/internal/hedging"
	"parlayhouse/internal/http/middleware"
	"parlayhouse/internal/ledger"
	"parlayhouse/internal/quote"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlaceParlayHandler is the one endpoint that touches money: it debits
// the wallet, creates the parlay and its leg outcomes, and clears the
// user's draft legs, all in a single transaction, then schedules hedge
// orders asynchronously (spec §6/§4.4: hedge submission never blocks
// placement, a failed hedge leg never unwinds an accepted parlay).
//
// The quote in the request body is advisory only: it is never trusted as
// the priced terms. The server recomputes the quote from parlayBets and
// stake with the same Engine a /api/quote call would have used, so a
// stale or tampered client-side quote can never change what the user is
// actually charged or promised.
type PlaceParlayHandler struct {
	Ledger   *ledger.Ledger
	Engine   *quote.Engine
	Exchange exchange.Client
	Validate *validator.Validate

	// UseLimitOrders mirrors config.Hedging.UseLimitOrders: hedge legs go
	// out as limit orders at contract cost instead of market orders.
	UseLimitOrders bool
}

type placeParlayReq struct {
	UserID      string        `json:"userId" validate:"required"`
	Environment string        `json:"environment" validate:"required,oneof=demo production"`
	Stake       string        `json:"stake" validate:"required"`
	ParlayBets  []quoteLegReq `json:"parlayBets" validate:"required,min=2,dive"`
}

type placeParlayResp struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

func (h *PlaceParlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req placeParlayReq
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if uid := middleware.UserID(r); uid == "" || uid != req.UserID {
		writeErr(w, http.StatusForbidden, "forbidden")
		return
	}
	stake, err := decimal.NewFromString(req.Stake)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "InvalidStake")
		return
	}

	legs := make([]quote.LegInput, 0, len(req.ParlayBets))
	for _, b := range req.ParlayBets {
		if b.Environment != req.Environment {
			writeErr(w, http.StatusConflict, "EnvironmentMismatch")
			return
		}
		legs = append(legs, quote.LegInput{
			MarketID: b.MarketTitle, Ticker: b.Ticker, OptionLabel: b.OptionLabel,
			Side: b.Side, Prob: b.Prob / 100, Environment: b.Environment,
		})
	}

	q, err := h.Engine.Price(r.Context(), legs, stake)
	if err != nil {
		writeQuoteError(w, err)
		return
	}

	sessionID := uuid.NewString()
	parlayData, _ := json.Marshal(req.ParlayBets)
	quoteSnapshot, _ := json.Marshal(q)
	hedgingPlan, _ := json.Marshal(q.HedgePlan)

	err = h.Ledger.WithTx(r.Context(), func(tx ledger.Querier) error {
		if err := h.Ledger.DebitWallet(r.Context(), tx, req.UserID, stake, "parlay:"+sessionID); err != nil {
			return err
		}
		if _, err := tx.Exec(r.Context(), `
			insert into parlays (session_id, user_id, environment, stake, payout, parlay_data, quote_snapshot, hedging_plan, status)
			values ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
		`, sessionID, req.UserID, req.Environment, stake, q.UOffer, parlayData, quoteSnapshot, hedgingPlan); err != nil {
			return err
		}
		for i, leg := range legs {
			if _, err := tx.Exec(r.Context(), `
				insert into leg_outcomes (parlay_session_id, leg_number, ticker, side, expected_outcome)
				values ($1, $2, $3, $4, $5)
			`, sessionID, i+1, leg.Ticker, leg.Side, leg.Side); err != nil {
				return err
			}
		}
		_, err := tx.Exec(r.Context(), `delete from leg_drafts where user_id = $1 and environment = $2`, req.UserID, req.Environment)
		return err
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			writeErr(w, http.StatusPaymentRequired, "InsufficientFunds")
			return
		}
		slog.Error("place_parlay.tx_failed", "err", err)
		writeErr(w, http.StatusInternalServerError, "internal_error")
		return
	}

	legProbs := make(map[int]float64, len(legs))
	for i, leg := range legs {
		legProbs[i+1] = leg.Prob
	}
	go func(plan []quote.HedgeLeg) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		hedging.Submit(ctx, h.Ledger.Pool(), h.Exchange, sessionID, h.UseLimitOrders, plan, legProbs)
	}(q.HedgePlan)

	writeJSON(w, http.StatusCreated, placeParlayResp{SessionID: sessionID, Status: "pending"})
}
