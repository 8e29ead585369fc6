package http

import (
	"errors"
	"net/http"

	"parlayhouse/internal/ledger"
)

// ClaimHandler pays out a won parlay's claimable amount into the user's
// wallet. Concurrent duplicate calls on one session result in exactly one
// credit; every other caller gets AlreadyClaimed and no money moves.
type ClaimHandler struct {
	Ledger *ledger.Ledger
}

type claimResp struct {
	Credited string `json:"credited"`
}

func (h *ClaimHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	amount, err := h.Ledger.Claim(r.Context(), sessionID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, claimResp{Credited: amount.String()})
	case errors.Is(err, ledger.ErrAlreadyClaimed):
		writeErr(w, http.StatusConflict, "AlreadyClaimed")
	case errors.Is(err, ledger.ErrParlayNotWon):
		writeErr(w, http.StatusConflict, "ParlayNotWon")
	case errors.Is(err, ledger.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found")
	default:
		writeErr(w, http.StatusInternalServerError, "internal_error")
	}
}
