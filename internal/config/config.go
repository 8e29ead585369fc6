package config

import (
	"errors"
	"net/url"
	"strconv"
)

// Environment selects the upstream venue base URL and credential pair.
// A process runs in exactly one environment for its lifetime; there is no
// mixing of demo and production data or credentials.
type Environment string

const (
	EnvDemo       Environment = "demo"
	EnvProduction Environment = "production"
)

type Config struct {
	BaseURL     string      `yaml:"base_url"`
	Environment Environment `yaml:"environment"`
	DryRun      bool        `yaml:"dry_run"`

	HTTP struct {
		Address string `yaml:"address"`
	} `yaml:"http"`

	Database DatabaseConfig `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
		Format string `yaml:"format"` // "text" | "json"
	} `yaml:"logging"`

	// IdentityProvider holds the provider's public coordinates, served
	// verbatim to clients via GET /api/config. The anon key is public by
	// design; the token verification key under Security is not.
	IdentityProvider struct {
		PublicURL string `yaml:"public_url"`
		AnonKey   string `yaml:"anon_key"`
	} `yaml:"identity_provider"`

	Security struct {
		// JWTVerificationKey verifies bearer tokens issued by the external
		// identity provider. HS256 shared secret for demo deployments.
		JWTVerificationKey string `yaml:"jwt_verification_key"`
	} `yaml:"security"`

	Exchange ExchangeConfig `yaml:"exchange"`
	AI       AIConfig       `yaml:"ai"`

	Hedging HedgingConfig `yaml:"hedging"`
	Margin  MarginConfig  `yaml:"margin"`

	Settlement SettlementConfig `yaml:"settlement"`

	// Telegram carries operator alert credentials; repurposed from the
	// teacher's social bet-announcement bot into the settlement worker's
	// and startup path's alerting transport.
	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		GroupChatID string `yaml:"group_chat_id"`
	} `yaml:"telegram"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"` // e.g. "disable" | "require"
}

// ExchangeConfig holds per-environment venue connectivity. Demo and
// production credentials are kept in separate blocks so a misconfigured
// process cannot accidentally sign requests with the wrong key pair.
type ExchangeConfig struct {
	DemoBaseURL       string `yaml:"demo_base_url"`
	ProductionBaseURL string `yaml:"production_base_url"`

	// AccessKeyID is the caller's key id, sent as ACCESS-KEY. It and the
	// private signing key are read from environment only (see EnvOverlay).
	AccessKeyID    string  `yaml:"-"`
	PrivateKeyPEM  string  `yaml:"-"`
	RateLimitHz    float64 `yaml:"rate_limit_hz"`
	CallTimeoutSec int     `yaml:"call_timeout_sec"`
}

type AIConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"-"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type HedgingConfig struct {
	Beta     float64 `yaml:"beta"`
	AlphaMax float64 `yaml:"alpha_max"`

	// UseLimitOrders submits hedge legs as limit orders at the contract
	// cost instead of market orders.
	UseLimitOrders bool `yaml:"use_limit_orders"`
}

type MarginConfig struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Default float64 `yaml:"default"`
}

type SettlementConfig struct {
	PollIntervalSec int `yaml:"poll_interval_sec"` // T_poll
	PassMaxSec      int `yaml:"pass_max_sec"`      // T_pass_max
	CallTimeoutSec  int `yaml:"call_timeout_sec"`
	MaxParallel     int `yaml:"max_parallel"`
	MaxRetries      int `yaml:"max_retries"`
}

func (c *Config) Defaults() {
	if c.Environment == "" {
		c.Environment = EnvDemo
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Database.Host == "" {
		c.Database.Host = "db"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.User == "" {
		c.Database.User = "parlayhouse"
	}
	if c.Database.Name == "" {
		c.Database.Name = "parlayhouse"
	}
	if c.Database.Password == "" {
		c.Database.Password = "password"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Security.JWTVerificationKey == "" {
		c.Security.JWTVerificationKey = "change-me"
	}
	if c.Exchange.DemoBaseURL == "" {
		c.Exchange.DemoBaseURL = "https://demo-api.exchange.example/trade-api/v2"
	}
	if c.Exchange.ProductionBaseURL == "" {
		c.Exchange.ProductionBaseURL = "https://api.exchange.example/trade-api/v2"
	}
	if c.Exchange.RateLimitHz <= 0 {
		c.Exchange.RateLimitHz = 10
	}
	if c.Exchange.CallTimeoutSec <= 0 {
		c.Exchange.CallTimeoutSec = 10
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = 8
	}
	if c.Hedging.Beta <= 0 {
		c.Hedging.Beta = 1.0
	}
	if c.Hedging.AlphaMax <= 0 {
		c.Hedging.AlphaMax = 0.40
	}
	if c.Margin.Min <= 0 {
		c.Margin.Min = 0.10
	}
	if c.Margin.Max <= 0 {
		c.Margin.Max = 0.15
	}
	if c.Margin.Default <= 0 {
		c.Margin.Default = c.Margin.Min
	}
	if c.Settlement.PollIntervalSec <= 0 {
		c.Settlement.PollIntervalSec = 30
	}
	if c.Settlement.PassMaxSec <= 0 {
		c.Settlement.PassMaxSec = 60
	}
	if c.Settlement.CallTimeoutSec <= 0 {
		c.Settlement.CallTimeoutSec = 10
	}
	if c.Settlement.MaxParallel <= 0 {
		c.Settlement.MaxParallel = 8
	}
	if c.Settlement.MaxRetries <= 0 {
		c.Settlement.MaxRetries = 5
	}
}

func (c *Config) Validate() error {
	var errs []string
	if c.Database.URL == "" {
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			errs = append(errs, "database.url or database.{host,user,name} must be set")
		}
	}
	if c.Environment != EnvDemo && c.Environment != EnvProduction {
		errs = append(errs, "environment must be demo or production")
	}
	if c.Margin.Min > c.Margin.Max {
		errs = append(errs, "margin.min must be <= margin.max")
	}
	if c.Margin.Default < c.Margin.Min || c.Margin.Default > c.Margin.Max {
		errs = append(errs, "margin.default must be within [margin.min, margin.max]")
	}
	if c.Environment == EnvProduction && !c.DryRun {
		if c.Exchange.AccessKeyID == "" || c.Exchange.PrivateKeyPEM == "" {
			errs = append(errs, "exchange credentials (access key id + private key) are required in production unless dry_run is set")
		}
	}
	if len(errs) > 0 {
		return errors.New(joinErrs(errs))
	}
	return nil
}

func joinErrs(es []string) string {
	if len(es) == 1 {
		return es[0]
	}
	out := es[0]
	for i := 1; i < len(es); i++ {
		out += "; " + es[i]
	}
	return out
}

// VenueBaseURL returns the venue base URL for the configured environment.
func (e *ExchangeConfig) VenueBaseURL(env Environment) string {
	if env == EnvProduction {
		return e.ProductionBaseURL
	}
	return e.DemoBaseURL
}

// AppURL returns a postgres connection URL for the application DB.
func (d *DatabaseConfig) AppURL() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return "", errors.New("database config incomplete: need host, user, name or set url")
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
