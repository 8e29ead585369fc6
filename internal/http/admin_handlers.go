package http

import (
	"context"
	"net/http"
	"time"

	"parlayhouse/internal/http/middleware"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminHandler is the supplemented operator endpoint that kicks one
// settlement pass synchronously (spec §4.5: "on demand via an operator
// endpoint"). Gated to the admin role since settlement passes touch
// every user's money.
type AdminHandler struct {
	DB     *pgxpool.Pool
	Worker interface {
		RunOnePass(ctx context.Context) error
	}
}

type adminRunResp struct {
	Ran bool `json:"ran"`
}

func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	uid := middleware.UserID(r)
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	role, err := middleware.GetUserRole(ctx, h.DB, uid)
	if err != nil || role != middleware.RoleAdmin {
		writeErr(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.Worker.RunOnePass(r.Context()); err != nil {
		writeErr(w, http.StatusInternalServerError, "pass_failed")
		return
	}
	writeJSON(w, http.StatusOK, adminRunResp{Ran: true})
}
