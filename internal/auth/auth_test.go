package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken_RoundTrip(t *testing.T) {
	SetVerificationKey("test-secret")
	t.Cleanup(func() { SetVerificationKey("") })

	tok, err := IssueDemoToken("user-42", time.Hour)
	require.NoError(t, err)

	uid, err := ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-42", uid)
}

func TestParseToken_RejectsWrongKey(t *testing.T) {
	SetVerificationKey("key-a")
	tok, err := IssueDemoToken("user-42", time.Hour)
	require.NoError(t, err)

	SetVerificationKey("key-b")
	t.Cleanup(func() { SetVerificationKey("") })
	_, err = ParseToken(tok)
	assert.Error(t, err)
}

func TestParseToken_RejectsExpired(t *testing.T) {
	SetVerificationKey("test-secret")
	t.Cleanup(func() { SetVerificationKey("") })

	claims := jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ParseToken(tok)
	assert.Error(t, err)
}

func TestParseToken_RejectsMissingSubject(t *testing.T) {
	SetVerificationKey("test-secret")
	t.Cleanup(func() { SetVerificationKey("") })

	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ParseToken(tok)
	assert.Error(t, err)
}

func TestParseToken_FailsWithoutConfiguredKey(t *testing.T) {
	SetVerificationKey("")
	_, err := ParseToken("whatever")
	assert.Error(t, err)
}
