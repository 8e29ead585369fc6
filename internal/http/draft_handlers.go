package http

import (
	"context"
	"net/http"
	"time"

	"parlayhouse/internal/http/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DraftHandler manages a user's in-progress parlay legs before quote and
// placement (spec §6: GET/POST/DELETE /api/parlay/:userId[/:betId]).
type DraftHandler struct {
	DB       *pgxpool.Pool
	Validate *validator.Validate
}

type legDraftReq struct {
	MarketID       string  `json:"marketId" validate:"required"`
	OptionLabel    string  `json:"optionLabel" validate:"required"`
	Ticker         string  `json:"ticker" validate:"required"`
	Side           string  `json:"side" validate:"required,oneof=yes no"`
	Prob           float64 `json:"prob" validate:"gt=0,lt=100"`
	Environment    string  `json:"environment" validate:"required,oneof=demo production"`
	MarketURL      string  `json:"marketUrl"`
	MarketImageURL string  `json:"marketImageUrl"`
	OptionImageURL string  `json:"optionImageUrl"`
}

type legDraftResp struct {
	ID          string  `json:"id"`
	MarketID    string  `json:"marketId"`
	Ticker      string  `json:"ticker"`
	OptionLabel string  `json:"optionLabel"`
	Side        string  `json:"side"`
	Prob        float64 `json:"prob"`
	Environment string  `json:"environment"`
}

func (h *DraftHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UserID(r)
	if uid == "" || uid != r.PathValue("userId") {
		writeErr(w, http.StatusForbidden, "forbidden")
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (h *DraftHandler) list(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	env := r.URL.Query().Get("environment")
	if env == "" {
		writeErr(w, http.StatusBadRequest, "missing_environment")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rows, err := h.DB.Query(ctx, `
		select id::text, market_id, ticker, option_label, side, prob, environment
		from leg_drafts where user_id = $1 and environment = $2 order by position asc
	`, userID, env)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()

	legs := []legDraftResp{}
	for rows.Next() {
		var l legDraftResp
		if err := rows.Scan(&l.ID, &l.MarketID, &l.Ticker, &l.OptionLabel, &l.Side, &l.Prob, &l.Environment); err != nil {
			writeErr(w, http.StatusInternalServerError, "db_error")
			return
		}
		legs = append(legs, l)
	}
	writeJSON(w, http.StatusOK, legs)
}

func (h *DraftHandler) create(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	var req legDraftReq
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var existingEnv string
	err := h.DB.QueryRow(ctx, `select environment from leg_drafts where user_id = $1 limit 1`, userID).Scan(&existingEnv)
	if err == nil && existingEnv != req.Environment {
		writeErr(w, http.StatusConflict, "environment_mismatch")
		return
	}

	var nextPos int
	if err := h.DB.QueryRow(ctx, `
		select coalesce(max(position), 0) + 1 from leg_drafts where user_id = $1 and environment = $2
	`, userID, req.Environment).Scan(&nextPos); err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}

	var id string
	err = h.DB.QueryRow(ctx, `
		insert into leg_drafts (user_id, environment, position, market_id, ticker, option_label, side, prob, market_url, market_image_url, option_image_url)
		values ($1, $2, $3, $4, $5, $6, $7, $8, nullif($9,''), nullif($10,''), nullif($11,''))
		returning id::text
	`, userID, req.Environment, nextPos, req.MarketID, req.Ticker, req.OptionLabel, req.Side, req.Prob, req.MarketURL, req.MarketImageURL, req.OptionImageURL).Scan(&id)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusCreated, legDraftResp{
		ID: id, MarketID: req.MarketID, Ticker: req.Ticker, OptionLabel: req.OptionLabel,
		Side: req.Side, Prob: req.Prob, Environment: req.Environment,
	})
}

func (h *DraftHandler) delete(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	betID := r.PathValue("betId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if betID == "" {
		if _, err := h.DB.Exec(ctx, `delete from leg_drafts where user_id = $1`, userID); err != nil {
			writeErr(w, http.StatusInternalServerError, "db_error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if _, err := h.DB.Exec(ctx, `delete from leg_drafts where user_id = $1 and id = $2`, userID, betID); err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
