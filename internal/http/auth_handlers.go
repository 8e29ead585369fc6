package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthHandler owns the one public auth-adjacent route: the identity
// provider's signup webhook. Token verification for every other route is
// middleware.WithAuth/RequireAuth, not this handler (spec §3: "Created on
// identity-provider signup (webhook)").
type AuthHandler struct {
	DB *pgxpool.Pool
}

type authCallbackReq struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Callback upserts the User and Wallet rows the first time the identity
// provider reports a signup. It is idempotent: replays of the same
// user_id are a no-op.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req authCallbackReq
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" || req.Email == "" {
		writeErr(w, http.StatusBadRequest, "invalid_request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		insert into users (id, email) values ($1, $2)
		on conflict (id) do update set email = excluded.email
	`, req.UserID, req.Email); err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	if _, err := tx.Exec(ctx, `
		insert into wallets (user_id, balance) values ($1, 0)
		on conflict (user_id) do nothing
	`, req.UserID); err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	if err := tx.Commit(ctx); err != nil {
		writeErr(w, http.StatusInternalServerError, "db_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
