package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"parlayhouse/internal/config"
	"parlayhouse/internal/db"
	"parlayhouse/internal/exchange"
	"parlayhouse/internal/ledger"
	"parlayhouse/internal/settlement"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "wallet":
		walletCmd(os.Args[2:])
	case "pool":
		poolCmd(os.Args[2:])
	case "settle":
		settleCmd(os.Args[2:])
	case "exchange":
		exchangeCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println(`parlayctl - parlayhouse admin CLI

Usage:
  parlayctl wallet credit <user-id> <amount> [-note "text"] [-config config.yaml]
  parlayctl pool show                         [-config config.yaml]
  parlayctl settle run                        [-config config.yaml]
  parlayctl settle parlay <session-id>        [-config config.yaml]
  parlayctl exchange set-key                  [-config config.yaml]

Examples:
  parlayctl wallet credit 3fa85f64-5717-4562-b3fc-2c963f66afa6 25 -note "support credit"
  parlayctl pool show
  parlayctl settle run
  parlayctl settle parlay 9c858901-8a57-4791-81fe-4c455b099bc9`)
}

func walletCmd(args []string) {
	if len(args) < 1 || args[0] != "credit" {
		usage()
		os.Exit(2)
	}
	walletCredit(args[1:])
}

func walletCredit(args []string) {
	fs := flag.NewFlagSet("wallet credit", flag.ExitOnError)
	var (
		cfgPath = fs.String("config", "config.yaml", "path to config file")
		note    = fs.String("note", "manual admin credit", "reason recorded on the ledger event")
	)
	_ = fs.Parse(reorderArgs(args))

	rest := fs.Args()
	if len(rest) < 2 {
		fmt.Println(`usage: parlayctl wallet credit <user-id> <amount> [-note "..."]`)
		os.Exit(2)
	}
	userID := strings.TrimSpace(rest[0])
	amount, err := decimal.NewFromString(rest[1])
	if err != nil || !amount.IsPositive() {
		fmt.Println("amount must be a positive decimal")
		os.Exit(2)
	}

	cfg := loadConfig(*cfgPath)
	pool := connectPool(cfg)
	defer pool.Close()

	lg := ledger.New(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := lg.CreditWallet(ctx, pool, userID, amount, *note); err != nil {
		log.Fatalf("wallet credit: %v", err)
	}
	fmt.Printf("ok: credited %s to wallet %s\n", amount.String(), userID)
}

func poolCmd(args []string) {
	if len(args) < 1 || args[0] != "show" {
		usage()
		os.Exit(2)
	}
	fs := flag.NewFlagSet("pool show", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	_ = fs.Parse(reorderArgs(args[1:]))

	cfg := loadConfig(*cfgPath)
	pool := connectPool(cfg)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var balance decimal.Decimal
	var updatedAt time.Time
	if err := pool.QueryRow(ctx, `select balance, updated_at from liquidity_pool where id = 1`).Scan(&balance, &updatedAt); err != nil {
		log.Fatalf("pool show: %v", err)
	}
	fmt.Printf("liquidity pool balance: %s (updated %s)\n", balance.String(), updatedAt.Format(time.RFC3339))
}

func settleCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	switch args[0] {
	case "run":
		settleRun(args[1:])
	case "parlay":
		settleParlay(args[1:])
	default:
		usage()
		os.Exit(2)
	}
}

func settleRun(args []string) {
	fs := flag.NewFlagSet("settle run", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	_ = fs.Parse(reorderArgs(args))

	cfg := loadConfig(*cfgPath)
	pool := connectPool(cfg)
	defer pool.Close()

	w := newWorker(cfg, pool)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Settlement.PassMaxSec)*time.Second)
	defer cancel()

	if err := w.RunOnePass(ctx); err != nil {
		log.Fatalf("settle run: %v", err)
	}
	if err := w.ResubmitStaleOrders(ctx); err != nil {
		log.Fatalf("settle run (resubmit): %v", err)
	}
	if err := w.ReconcileFills(ctx); err != nil {
		log.Fatalf("settle run (reconcile): %v", err)
	}
	fmt.Println("ok: settlement pass complete")
}

func settleParlay(args []string) {
	fs := flag.NewFlagSet("settle parlay", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	_ = fs.Parse(reorderArgs(args))

	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Println("usage: parlayctl settle parlay <session-id>")
		os.Exit(2)
	}
	sessionID := strings.TrimSpace(rest[0])

	cfg := loadConfig(*cfgPath)
	pool := connectPool(cfg)
	defer pool.Close()

	w := newWorker(cfg, pool)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Settlement.PassMaxSec)*time.Second)
	defer cancel()

	w.ProcessOne(ctx, sessionID)
	fmt.Printf("ok: processed %s\n", sessionID)
}

// exchangeCmd checks that a pasted venue signing key parses as an RSA
// private key and tells the operator which environment variable to set;
// it stores nothing itself. The masked prompt mirrors the teacher's
// password prompt for onboarding a new admin account.
func exchangeCmd(args []string) {
	if len(args) < 1 || args[0] != "set-key" {
		usage()
		os.Exit(2)
	}
	pem := promptSecret("Paste exchange RSA private key (PEM), then press enter: ")
	if strings.TrimSpace(pem) == "" {
		fmt.Println("private key cannot be empty")
		os.Exit(2)
	}
	if _, err := exchange.NewSigner(pem); err != nil {
		log.Fatalf("key rejected: %v", err)
	}
	fmt.Println("ok: key parses as a valid RSA private key.")
	fmt.Println("export it as EXCHANGE_PRIVATE_KEY in the server's environment; keys are never read from config.yaml.")
}

func promptSecret(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("read secret: %v", err)
	}
	return strings.TrimSpace(string(b))
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil && cfg == nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func connectPool(cfg *config.Config) *pgxpool.Pool {
	appURL, err := cfg.Database.AppURL()
	if err != nil {
		log.Fatalf("db url: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	pool, err := db.NewPool(ctx, appURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return pool
}

func newWorker(cfg *config.Config, pool *pgxpool.Pool) *settlement.Worker {
	signer, err := exchange.NewSigner(cfg.Exchange.PrivateKeyPEM)
	if err != nil {
		log.Fatalf("exchange signer: %v", err)
	}
	baseURL := cfg.Exchange.VenueBaseURL(cfg.Environment)
	rest := exchange.NewRESTClient(baseURL, cfg.Exchange.AccessKeyID, signer,
		cfg.Exchange.RateLimitHz, time.Duration(cfg.Exchange.CallTimeoutSec)*time.Second)

	var client exchange.Client = rest
	if cfg.DryRun {
		client = &exchange.DryRunClient{Inner: rest}
	}

	lg := ledger.New(pool)
	return settlement.NewWorker(pool, client, lg, nil,
		time.Duration(cfg.Settlement.PollIntervalSec)*time.Second,
		time.Duration(cfg.Settlement.PassMaxSec)*time.Second,
		time.Duration(cfg.Settlement.CallTimeoutSec)*time.Second,
		cfg.Settlement.MaxParallel,
		cfg.Settlement.MaxRetries,
	)
}

func reorderArgs(args []string) []string {
	var flags []string
	var positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg != "-" && arg != "--" && arg[0] == '-' {
			flags = append(flags, arg)
			if !strings.Contains(arg, "=") && i+1 < len(args) && (len(args[i+1]) == 0 || args[i+1][0] != '-') {
				flags = append(flags, args[i+1])
				i++
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}
