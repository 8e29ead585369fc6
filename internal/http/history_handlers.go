package http

import (
	"context"
	"net/http"
	"time"

	"parlayhouse/internal/http/middleware"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type HistoryHandler struct {
	DB     *pgxpool.Pool
	Worker interface {
		ProcessOne(ctx context.Context, sessionID string)
	}
}

type legOutcomeResp struct {
	LegNumber int    `json:"legNumber"`
	Ticker    string `json:"ticker"`
	Side      string `json:"side"`
	Outcome   string `json:"outcome"`
}

type parlayResp struct {
	SessionID       string           `json:"sessionId"`
	Status          string           `json:"status"`
	Stake           decimal.Decimal  `json:"stake"`
	Payout          decimal.Decimal  `json:"payout"`
	ClaimableAmount *decimal.Decimal `json:"claimableAmount,omitempty"`
	ClaimedAt       *time.Time       `json:"claimedAt,omitempty"`
	LegOutcomes     []legOutcomeResp `json:"legOutcomes"`
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if sessionID := r.PathValue("sessionId"); sessionID != "" {
		h.status(w, r, sessionID)
		return
	}
	h.list(w, r)
}

func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UserID(r)
	if uid == "" || uid != r.PathValue("userId") {
		writeErr(w, http.StatusForbidden, "forbidden")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.DB.Query(ctx, `
		select session_id::text, status, stake, payout, claimable_amount, claimed_at
		from parlays where user_id = $1 order by created_at desc
	`, uid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()

	var parlays []parlayResp
	for rows.Next() {
		var p parlayResp
		if err := rows.Scan(&p.SessionID, &p.Status, &p.Stake, &p.Payout, &p.ClaimableAmount, &p.ClaimedAt); err != nil {
			writeErr(w, http.StatusInternalServerError, "db_error")
			return
		}
		parlays = append(parlays, p)
	}

	for i := range parlays {
		legs, err := h.legOutcomes(ctx, parlays[i].SessionID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "db_error")
			return
		}
		parlays[i].LegOutcomes = legs
	}
	writeJSON(w, http.StatusOK, parlays)
}

func (h *HistoryHandler) status(w http.ResponseWriter, r *http.Request, sessionID string) {
	uid := middleware.UserID(r)
	if uid == "" {
		writeErr(w, http.StatusForbidden, "forbidden")
		return
	}

	if h.Worker != nil {
		h.Worker.ProcessOne(r.Context(), sessionID)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var p parlayResp
	err := h.DB.QueryRow(ctx, `
		select session_id::text, status, stake, payout, claimable_amount, claimed_at
		from parlays where session_id = $1 and user_id = $2
	`, sessionID, uid).Scan(&p.SessionID, &p.Status, &p.Stake, &p.Payout, &p.ClaimableAmount, &p.ClaimedAt)
	if err != nil {
		writeErr(w, http.StatusNotFound, "not_found")
		return
	}
	legs, err := h.legOutcomes(ctx, sessionID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	p.LegOutcomes = legs
	writeJSON(w, http.StatusOK, p)
}

func (h *HistoryHandler) legOutcomes(ctx context.Context, sessionID string) ([]legOutcomeResp, error) {
	rows, err := h.DB.Query(ctx, `
		select leg_number, ticker, side, outcome from leg_outcomes
		where parlay_session_id = $1 order by leg_number asc
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	legs := []legOutcomeResp{}
	for rows.Next() {
		var l legOutcomeResp
		if err := rows.Scan(&l.LegNumber, &l.Ticker, &l.Side, &l.Outcome); err != nil {
			return nil, err
		}
		legs = append(legs, l)
	}
	return legs, rows.Err()
}
