package config

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		var cfg Config
		cfg.Defaults()
		cfg.EnvOverlay()
		return &cfg, err
	}
	defer f.Close()
	return FromReader(f)
}

func FromReader(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.Defaults()
	cfg.EnvOverlay()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnvOverlay reads secret fields from the process environment. Secrets are
// never accepted from the YAML file; only non-secret tuning lives there.
func (c *Config) EnvOverlay() {
	if v := os.Getenv("JWT_VERIFICATION_KEY"); v != "" {
		c.Security.JWTVerificationKey = v
	}
	if v := os.Getenv("EXCHANGE_ACCESS_KEY_ID"); v != "" {
		c.Exchange.AccessKeyID = v
	}
	if v := os.Getenv("EXCHANGE_PRIVATE_KEY"); v != "" {
		c.Exchange.PrivateKeyPEM = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_GROUP_CHAT_ID"); v != "" {
		c.Telegram.GroupChatID = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
}
