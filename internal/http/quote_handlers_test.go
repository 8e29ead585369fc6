package http

import (
	"net/http/httptest"
	"testing"

	"parlayhouse/internal/quote"

	"github.com/stretchr/testify/assert"
)

func TestWriteQuoteError_MapsKnownSentinels(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"too few legs", quote.ErrTooFewLegs, 400, "TooFewLegs"},
		{"invalid stake", quote.ErrInvalidStake, 400, "InvalidStake"},
		{"invalid probability", quote.ErrInvalidProbability, 400, "InvalidProbability"},
		{"environment mismatch", quote.ErrEnvironmentMismatch, 409, "EnvironmentMismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeQuoteError(rec, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestWriteQuoteError_UnknownErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	writeQuoteError(rec, assert.AnError)
	assert.Equal(t, 500, rec.Code)
}
