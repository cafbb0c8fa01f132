package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const tokenSeparator = "."

// TokenSigner issues and verifies opaque session tokens of the form
// "<random>.<signature>", where the signature is an HMAC-SHA256 digest
// of the random half under the process secret. Tokens are unguessable
// and tamper-evident but carry no decodable payload.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner builds a signer over the process-wide secret.
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// NewRandomSecret returns a hex-encoded 256-bit random value.
func NewRandomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Sign computes the hex HMAC-SHA256 digest of payload.
func (s *TokenSigner) Sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// IssueToken mints a fresh signed token.
func (s *TokenSigner) IssueToken() (string, error) {
	random, err := NewRandomSecret()
	if err != nil {
		return "", err
	}
	return random + tokenSeparator + s.Sign(random), nil
}

// Verify splits and checks a token, returning its random component.
// The signature comparison is constant-time.
func (s *TokenSigner) Verify(token string) (string, bool) {
	random, signature, found := strings.Cut(token, tokenSeparator)
	if !found || random == "" {
		return "", false
	}
	expected := s.Sign(random)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", false
	}
	return random, true
}
