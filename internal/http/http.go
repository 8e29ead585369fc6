package http

import (
	"log/slog"
	"net/http"
	"time"

	"parlayhouse/internal/config"
	"parlayhouse/internal/exchange"
	"parlayhouse/internal/http/middleware"
	"parlayhouse/internal/ledger"
	"parlayhouse/internal/quote"
	"parlayhouse/internal/settlement"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewMux builds the gateway's JSON/HTTPS surface (the browser extension's
// only entry point into the service; there is no server-rendered UI here
// at all, unlike the teacher). Operator alerting (internal/notify,
// internal/telegram) is wired into the settlement worker and startup path
// at cmd/server, not here; the gateway itself never sends a notification.
func NewMux(db *pgxpool.Pool, cfg *config.Config, ex exchange.Client, eng *quote.Engine, lg *ledger.Ledger, worker *settlement.Worker) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	val := validator.New()

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /api/config", &ConfigHandler{Cfg: cfg})

	ah := &AuthHandler{DB: db}
	mux.HandleFunc("POST /auth/callback", ah.Callback)

	mh := &MarketHandler{Exchange: ex}
	mux.Handle("GET /api/kalshi/market/{id}", mh)

	dh := &DraftHandler{DB: db, Validate: val}
	mux.Handle("GET /api/parlay/{userId}", middleware.RequireAuth(dh))
	mux.Handle("POST /api/parlay/{userId}", middleware.RequireAuth(dh))
	mux.Handle("DELETE /api/parlay/{userId}", middleware.RequireAuth(dh))
	mux.Handle("DELETE /api/parlay/{userId}/{betId}", middleware.RequireAuth(dh))

	// Quotes fan out to the AI service, so they get a per-client rate
	// limit on top of auth; nothing else on the surface is expensive
	// enough to need one.
	quoteLimiter := middleware.NewRateLimiter(30, time.Minute)
	qh := &QuoteHandler{Engine: eng, Validate: val}
	mux.Handle("POST /api/quote", middleware.RequireAuth(rateLimited(quoteLimiter, qh)))

	ph := &PlaceParlayHandler{Ledger: lg, Engine: eng, Exchange: ex, Validate: val, UseLimitOrders: cfg.Hedging.UseLimitOrders}
	mux.Handle("POST /api/place-parlay", middleware.RequireAuth(ph))

	hh := &HistoryHandler{DB: db, Worker: worker}
	mux.Handle("GET /api/parlay-history/{userId}", middleware.RequireAuth(hh))
	mux.Handle("GET /api/parlay-status/{sessionId}", middleware.RequireAuth(hh))

	ch := &ClaimHandler{Ledger: lg}
	mux.Handle("POST /api/claim-winnings/{sessionId}", middleware.RequireAuth(ch))

	mux.Handle("GET /api/wallet/{userId}", middleware.RequireAuth(&WalletHandler{DB: db}))
	mux.Handle("POST /api/withdraw/{userId}", middleware.RequireAuth(&WithdrawalHandler{Ledger: lg, Exchange: ex}))
	mux.Handle("GET /api/purchase-history/{userId}", middleware.RequireAuth(&PurchaseHistoryHandler{DB: db}))

	adm := &AdminHandler{DB: db, Worker: worker}
	mux.Handle("GET /api/admin/settlement/run", middleware.RequireAuth(adm))

	return mux, nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func rateLimited(rl *middleware.RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := middleware.UserID(r)
		if key == "" {
			key = middleware.ClientIP(r)
		}
		if !rl.Allow(key) {
			writeErr(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithStandardMiddleware(next http.Handler) http.Handler {
	return requestLogger(securityHeaders(middleware.WithAuth(next)))
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &wrapWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		slog.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
