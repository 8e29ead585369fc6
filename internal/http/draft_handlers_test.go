package http

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestLegDraftReq_Validation(t *testing.T) {
	val := validator.New()

	valid := legDraftReq{
		MarketID:    "mkt-1",
		OptionLabel: "Over 2.5",
		Ticker:      "NFL-OVER",
		Side:        "yes",
		Prob:        62.5,
		Environment: "demo",
	}
	assert.NoError(t, val.Struct(valid))

	tests := []struct {
		name   string
		mutate func(*legDraftReq)
	}{
		{"missing ticker", func(r *legDraftReq) { r.Ticker = "" }},
		{"bad side", func(r *legDraftReq) { r.Side = "maybe" }},
		{"prob at zero", func(r *legDraftReq) { r.Prob = 0 }},
		{"prob at hundred", func(r *legDraftReq) { r.Prob = 100 }},
		{"bad environment", func(r *legDraftReq) { r.Environment = "staging" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			assert.Error(t, val.Struct(req))
		})
	}
}
