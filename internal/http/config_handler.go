package http

import (
	"net/http"

	"parlayhouse/internal/config"
)

// ConfigHandler serves the public, secret-free subset of config a client
// needs to talk to the identity provider (spec §6: "identity-provider
// public URL and anon key only. No secrets.").
type ConfigHandler struct {
	Cfg *config.Config
}

type configResp struct {
	Environment         string `json:"environment"`
	IdentityProviderURL string `json:"identityProviderUrl"`
	AnonKey             string `json:"anonKey"`
}

func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, configResp{
		Environment:         string(h.Cfg.Environment),
		IdentityProviderURL: h.Cfg.IdentityProvider.PublicURL,
		AnonKey:             h.Cfg.IdentityProvider.AnonKey,
	})
}
