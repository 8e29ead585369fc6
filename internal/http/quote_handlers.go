package http

import (
	"errors"
	"net/http"

	"parlayhouse/internal/quote"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// QuoteHandler prices a candidate parlay without persisting anything
// (spec §6: POST /api/quote).
type QuoteHandler struct {
	Engine   *quote.Engine
	Validate *validator.Validate
}

type quoteLegReq struct {
	MarketTitle string  `json:"marketTitle" validate:"required"`
	Ticker      string  `json:"ticker" validate:"required"`
	OptionLabel string  `json:"optionLabel" validate:"required"`
	Side        string  `json:"side" validate:"required,oneof=yes no"`
	Prob        float64 `json:"prob" validate:"gt=0,lt=100"`
	Environment string  `json:"environment" validate:"required,oneof=demo production"`
}

type quoteReq struct {
	Bets  []quoteLegReq `json:"bets" validate:"required,min=2,dive"`
	Stake string        `json:"stake" validate:"required"`
}

type payoutResp struct {
	NaivePayout    string `json:"naivePayout"`
	AdjustedPayout string `json:"adjustedPayout"`
}

type analysisResp struct {
	AdjustedProbability float64 `json:"adjustedProbability"`
	CorrelationFactor   float64 `json:"correlationFactor"`
	Reasoning           string  `json:"reasoning"`
	RiskAssessment      string  `json:"riskAssessment"`
}

type hedgeLegResp struct {
	LegNumber    int    `json:"legNumber"`
	Ticker       string `json:"ticker"`
	Side         string `json:"side"`
	Notional     string `json:"notional"`
	ProjectedWin string `json:"projectedWin"`
}

type quoteResp struct {
	Stake           string         `json:"stake"`
	Payout          payoutResp     `json:"payout"`
	Analysis        analysisResp   `json:"analysis"`
	HedgingStrategy []hedgeLegResp `json:"hedgingStrategy"`
}

func (h *QuoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req quoteReq
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}
	stake, err := decimal.NewFromString(req.Stake)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "InvalidStake")
		return
	}

	legs := make([]quote.LegInput, 0, len(req.Bets))
	for _, b := range req.Bets {
		legs = append(legs, quote.LegInput{
			MarketID:    b.MarketTitle,
			Ticker:      b.Ticker,
			OptionLabel: b.OptionLabel,
			Side:        b.Side,
			Prob:        b.Prob / 100,
			Environment: b.Environment,
		})
	}

	q, err := h.Engine.Price(r.Context(), legs, stake)
	if err != nil {
		writeQuoteError(w, err)
		return
	}

	hs := make([]hedgeLegResp, 0, len(q.HedgePlan))
	for _, l := range q.HedgePlan {
		hs = append(hs, hedgeLegResp{LegNumber: l.LegNumber, Ticker: l.Ticker, Side: l.Side, Notional: l.Notional.String(), ProjectedWin: l.ProjectedWin.String()})
	}

	writeJSON(w, http.StatusOK, map[string]quoteResp{"quote": {
		Stake: q.Stake.String(),
		Payout: payoutResp{
			NaivePayout:    q.UNaive.String(),
			AdjustedPayout: q.UOffer.String(),
		},
		Analysis: analysisResp{
			AdjustedProbability: q.PAdj,
			CorrelationFactor:   q.CorrelationFactor,
			Reasoning:           q.AIReasoning,
			RiskAssessment:      q.RiskAssessment,
		},
		HedgingStrategy: hs,
	}})
}

func writeQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quote.ErrTooFewLegs):
		writeErr(w, http.StatusBadRequest, "TooFewLegs")
	case errors.Is(err, quote.ErrInvalidStake):
		writeErr(w, http.StatusBadRequest, "InvalidStake")
	case errors.Is(err, quote.ErrInvalidProbability):
		writeErr(w, http.StatusBadRequest, "InvalidProbability")
	case errors.Is(err, quote.ErrEnvironmentMismatch):
		writeErr(w, http.StatusConflict, "EnvironmentMismatch")
	default:
		writeErr(w, http.StatusInternalServerError, "internal_error")
	}
}
