package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parlayhouse/internal/ai"
	"parlayhouse/internal/auth"
	"parlayhouse/internal/config"
	"parlayhouse/internal/db"
	"parlayhouse/internal/dbinit"
	apphttp "parlayhouse/internal/http"
	"parlayhouse/internal/ledger"
	"parlayhouse/internal/logging"
	"parlayhouse/internal/notify"
	"parlayhouse/internal/quote"
	"parlayhouse/internal/settlement"
	"parlayhouse/internal/telegram"

	"parlayhouse/internal/exchange"
)

// Exit codes: 0 normal, 2 invalid configuration, 3 unrecoverable database
// init failure.
const (
	exitConfigInvalid = 2
	exitDatabaseInit  = 3
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil && cfg == nil {
		log.Printf("config: %v", err)
		os.Exit(exitConfigInvalid)
	}

	l := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	slog.SetDefault(l)

	if err != nil {
		slog.Warn("could not read config.yaml, running with defaults")
		if cfg.Security.JWTVerificationKey == "change-me" {
			slog.Warn("the JWT verification key is a default placeholder; set security.jwt_verification_key or JWT_VERIFICATION_KEY in production")
		}
	}
	if verr := cfg.Validate(); verr != nil {
		slog.Error("config.invalid", "err", verr)
		os.Exit(exitConfigInvalid)
	}
	auth.SetVerificationKey(cfg.Security.JWTVerificationKey)

	appURL, err := cfg.Database.AppURL()
	if err != nil {
		slog.Error("db.url", "err", err)
		os.Exit(exitConfigInvalid)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	if err := dbinit.EnsureDatabaseAndMigrate(ctx, appURL, cfg.Database.Name, cfg.Database.User); err != nil {
		cancel()
		slog.Error("db.init_failed", "err", err)
		os.Exit(exitDatabaseInit)
	}
	cancel()
	slog.Info("db.ready")

	ctxpool, cancelpool := context.WithTimeout(context.Background(), 20*time.Second)
	pool, err := db.NewPool(ctxpool, appURL)
	cancelpool()
	if err != nil {
		slog.Error("db.pool", "err", err)
		os.Exit(exitDatabaseInit)
	}
	defer pool.Close()

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Telegram.BotToken != "" {
		notifier = telegram.New(pool, cfg.Telegram.BotToken, cfg.Telegram.GroupChatID)
	} else {
		slog.Warn("telegram.bot_token not set; operator alerts are disabled")
	}

	exClient, err := buildExchangeClient(cfg)
	if err != nil {
		slog.Error("exchange.client_init_failed", "err", err)
		notifier.NotifyAdmins(context.Background(), "startup aborted: exchange client init failed: "+err.Error())
		os.Exit(exitConfigInvalid)
	}

	var advisor quote.CorrelationAdvisor
	if cfg.AI.Endpoint != "" {
		advisor = ai.NewHTTPAdvisor(cfg.AI.Endpoint, cfg.AI.Model, cfg.AI.APIKey, time.Duration(cfg.AI.TimeoutSec)*time.Second)
	} else {
		slog.Warn("ai.endpoint not set; quotes fall back to naive independence pricing")
	}

	lg := ledger.New(pool)
	eng := &quote.Engine{
		Advisor:  advisor,
		Margin:   cfg.Margin.Default,
		AlphaMax: cfg.Hedging.AlphaMax,
		Beta:     cfg.Hedging.Beta,
	}

	worker := settlement.NewWorker(pool, exClient, lg, notifier,
		time.Duration(cfg.Settlement.PollIntervalSec)*time.Second,
		time.Duration(cfg.Settlement.PassMaxSec)*time.Second,
		time.Duration(cfg.Settlement.CallTimeoutSec)*time.Second,
		cfg.Settlement.MaxParallel,
		cfg.Settlement.MaxRetries,
	)

	mux, err := apphttp.NewMux(pool, cfg, exClient, eng, lg, worker)
	if err != nil {
		slog.Error("http.mux_init_failed", "err", err)
		os.Exit(1)
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	go worker.Run(rootCtx)
	if poller := telegram.NewPoller(pool, cfg.Telegram.BotToken); poller != nil {
		go poller.Run(rootCtx)
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      apphttp.WithStandardMiddleware(mux),
		BaseContext:  func(net.Listener) context.Context { return rootCtx },
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http.listening", "addr", srv.Addr)
		serverErr <- srv.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		slog.Info("http.shutting_down")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http.failed", "err", err)
			pool.Close()
			os.Exit(1)
		}
	}

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := srv.Shutdown(shCtx); err != nil {
		slog.Warn("http.shutdown_error", "err", err)
	}
	rootCancel()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("http.serve_returned", "err", err)
		}
	case <-time.After(3 * time.Second):
		slog.Warn("http.serve_wait_timeout")
	}

	slog.Info("http.stopped")
	pool.Close()
	slog.Info("pool.closed")
}

// buildExchangeClient wires the signed REST client and, in DRY-RUN mode,
// wraps it in the no-network decorator. DRY-RUN only skips network I/O
// for placeOrder/transferOut; GetMarket/ListFills always hit the venue,
// so a valid signing key is required in every environment.
func buildExchangeClient(cfg *config.Config) (exchange.Client, error) {
	signer, err := exchange.NewSigner(cfg.Exchange.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}
	baseURL := cfg.Exchange.VenueBaseURL(cfg.Environment)
	rest := exchange.NewRESTClient(baseURL, cfg.Exchange.AccessKeyID, signer,
		cfg.Exchange.RateLimitHz, time.Duration(cfg.Exchange.CallTimeoutSec)*time.Second)

	var client exchange.Client = rest
	if cfg.DryRun {
		client = &exchange.DryRunClient{Inner: rest}
	}
	return client, nil
}
