package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_FillsSpecValues(t *testing.T) {
	var cfg Config
	cfg.Defaults()

	assert.Equal(t, EnvDemo, cfg.Environment)
	assert.Equal(t, 0.10, cfg.Margin.Min)
	assert.Equal(t, 0.15, cfg.Margin.Max)
	assert.Equal(t, cfg.Margin.Min, cfg.Margin.Default)
	assert.Equal(t, 0.40, cfg.Hedging.AlphaMax)
	assert.Equal(t, 1.0, cfg.Hedging.Beta)
	assert.Equal(t, 30, cfg.Settlement.PollIntervalSec)
	assert.Equal(t, 60, cfg.Settlement.PassMaxSec)
	assert.Equal(t, 10, cfg.Settlement.CallTimeoutSec)
	assert.Equal(t, 8, cfg.Settlement.MaxParallel)
	assert.Equal(t, float64(10), cfg.Exchange.RateLimitHz)
}

func TestValidate_MarginDefaultMustSitInsideRange(t *testing.T) {
	var cfg Config
	cfg.Defaults()
	cfg.Margin.Default = 0.20

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "margin.default")
}

func TestValidate_ProductionRequiresExchangeCredentials(t *testing.T) {
	var cfg Config
	cfg.Defaults()
	cfg.Environment = EnvProduction

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange credentials")

	cfg.DryRun = true
	assert.NoError(t, cfg.Validate())
}

func TestFromReader_RejectsUnknownFields(t *testing.T) {
	_, err := FromReader(strings.NewReader("environment: demo\nno_such_field: true\n"))
	require.Error(t, err)
}

func TestFromReader_ParsesHedgeTuning(t *testing.T) {
	cfg, err := FromReader(strings.NewReader(`
environment: demo
hedging:
  beta: 0.8
  alpha_max: 0.35
  use_limit_orders: true
margin:
  default: 0.12
`))
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Hedging.Beta)
	assert.Equal(t, 0.35, cfg.Hedging.AlphaMax)
	assert.True(t, cfg.Hedging.UseLimitOrders)
	assert.Equal(t, 0.12, cfg.Margin.Default)
}

func TestVenueBaseURL_SelectsByEnvironment(t *testing.T) {
	var cfg Config
	cfg.Defaults()
	assert.Equal(t, cfg.Exchange.DemoBaseURL, cfg.Exchange.VenueBaseURL(EnvDemo))
	assert.Equal(t, cfg.Exchange.ProductionBaseURL, cfg.Exchange.VenueBaseURL(EnvProduction))
}

func TestAppURL_BuildsFromParts(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "pw", Name: "parlayhouse", SSLMode: "disable"}
	u, err := d.AppURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db:5432/parlayhouse?sslmode=disable", u)
}

func TestAppURL_ExplicitURLWins(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://x@y/z"}
	u, err := d.AppURL()
	require.NoError(t, err)
	assert.Equal(t, "postgres://x@y/z", u)
}

func TestEnvOverlay_ReadsSecretsFromEnvironment(t *testing.T) {
	t.Setenv("EXCHANGE_ACCESS_KEY_ID", "key-123")
	t.Setenv("EXCHANGE_PRIVATE_KEY", "pem-blob")
	t.Setenv("AI_API_KEY", "sk-test")

	var cfg Config
	cfg.Defaults()
	cfg.EnvOverlay()
	assert.Equal(t, "key-123", cfg.Exchange.AccessKeyID)
	assert.Equal(t, "pem-blob", cfg.Exchange.PrivateKeyPEM)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
}
