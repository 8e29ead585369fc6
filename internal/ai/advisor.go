// Package ai implements the quote engine's CorrelationAdvisor capability
// against an external language-model service. Grounded on the teacher's
// plain net/http + encoding/json Telegram client shape
// (internal/telegram/notifier.go) since no dedicated LLM SDK appears
// anywhere in the retrieval pack.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"parlayhouse/internal/quote"
)

type HTTPAdvisor struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPAdvisor(endpoint, model, apiKey string, timeout time.Duration) *HTTPAdvisor {
	return &HTTPAdvisor{
		endpoint:   endpoint,
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type legPayload struct {
	Title string  `json:"title"`
	Prob  float64 `json:"probability_percent"`
}

type requestPayload struct {
	Model string       `json:"model"`
	Legs  []legPayload `json:"legs"`
}

type responsePayload struct {
	PAdjPercent       float64 `json:"p_adj"`
	CorrelationFactor float64 `json:"correlation_factor"`
	Reasoning         string  `json:"reasoning"`
	RiskAssessment    string  `json:"risk_assessment"`
}

func (a *HTTPAdvisor) Adjust(ctx context.Context, legs []quote.LegInput) (quote.AdjustResult, error) {
	payload := requestPayload{Model: a.model}
	for _, leg := range legs {
		title := leg.OptionLabel
		if title == "" {
			title = leg.Ticker
		}
		payload.Legs = append(payload.Legs, legPayload{Title: title, Prob: leg.Prob * 100})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return quote.AdjustResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return quote.AdjustResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return quote.AdjustResult{}, fmt.Errorf("ai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return quote.AdjustResult{}, fmt.Errorf("ai service returned status %d", resp.StatusCode)
	}

	var out responsePayload
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return quote.AdjustResult{}, fmt.Errorf("decode ai response: %w", err)
	}

	return quote.AdjustResult{
		PAdj:              out.PAdjPercent / 100,
		CorrelationFactor: out.CorrelationFactor,
		Reasoning:         out.Reasoning,
		RiskAssessment:    out.RiskAssessment,
	}, nil
}
