package exchange

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func generateTestKeyPEM(t *testing.T) (string, *rsa.PublicKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	return string(pem.EncodeToMemory(block)), &key.PublicKey
}

func TestSigner_SignVerifiesAgainstPublicKey(t *testing.T) {
	pemKey, pub := generateTestKeyPEM(t)
	s, err := NewSigner(pemKey)
	require.NoError(t, err)

	sig, err := s.Sign("1700000000000", "POST", "/trade-api/v2/portfolio/orders")
	require.NoError(t, err)

	sigBytes, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("1700000000000POST/trade-api/v2/portfolio/orders"))
	err = rsa.VerifyPSS(pub, crypto.SHA256, digest[:], sigBytes, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	require.NoError(t, err, "signature must verify with PSS, salt length = digest length")
}

func TestSigner_AcceptsBareBase64Key(t *testing.T) {
	pemKey, _ := generateTestKeyPEM(t)
	block, _ := pem.Decode([]byte(pemKey))
	require.NotNil(t, block)
	bare := base64.StdEncoding.EncodeToString(block.Bytes)

	s, err := NewSigner(bare)
	require.NoError(t, err)
	_, err = s.Sign("1700000000000", "GET", "/trade-api/v2/markets/FOO")
	require.NoError(t, err)
}

func TestSigner_RejectsGarbageKey(t *testing.T) {
	_, err := NewSigner("not a key")
	require.ErrorIs(t, err, ErrFatalSignature)
}
