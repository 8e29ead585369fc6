package http

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, 201, map[string]string{"a": "b"})
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"a":"b"}`, rec.Body.String())
}

func TestWriteErr_WrapsCodeInErrorField(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, 404, "not_found")
	assert.Equal(t, 404, rec.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, rec.Body.String())
}

func TestDecodeJSON_PopulatesStruct(t *testing.T) {
	req := httptest.NewRequest("POST", "/x", strings.NewReader(`{"stake":"10"}`))
	var dst quoteReq
	require.NoError(t, decodeJSON(req, &dst))
	assert.Equal(t, "10", dst.Stake)
}

func TestDecodeJSON_RejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/x", strings.NewReader(`not json`))
	var dst quoteReq
	require.Error(t, decodeJSON(req, &dst))
}
