package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parlayhouse/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithAuth_AttachesUserIDFromBearerToken(t *testing.T) {
	auth.SetVerificationKey("middleware-test-key")
	t.Cleanup(func() { auth.SetVerificationKey("") })

	tok, err := auth.IssueDemoToken("user-7", time.Hour)
	require.NoError(t, err)

	var seen string
	h := WithAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r)
	}))

	req := httptest.NewRequest("GET", "/api/wallet/user-7", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "user-7", seen)
}

func TestWithAuth_InvalidTokenLeavesRequestAnonymous(t *testing.T) {
	auth.SetVerificationKey("middleware-test-key")
	t.Cleanup(func() { auth.SetVerificationKey("") })

	var seen string
	h := WithAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "", seen)
}

func TestRequireAuth_RejectsAnonymous(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without auth")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken_ParsesHeaderForms(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"normal", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"missing", "", ""},
		{"wrong scheme", "Basic dXNlcjpwdw==", ""},
		{"trailing space", "Bearer tok ", "tok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(r))
		})
	}
}
