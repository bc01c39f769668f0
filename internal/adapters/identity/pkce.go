package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
)

// verifierMaxAge is how long an emailed sign-in link can be completed, in seconds.
const verifierMaxAge = 60 * 60

// NewCodeVerifier returns a random PKCE verifier of 43 URL-safe characters.
func NewCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("identity: code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CodeChallenge is the S256 challenge for verifier.
func CodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifierCookie keeps verifier in the browser until /auth/callback.
func VerifierCookie(opts CookieOptions, verifier string) *http.Cookie {
	return opts.withDefaults().cookie(CodeVerifierCookie, verifier, verifierMaxAge)
}

// ClearVerifierCookie expires the verifier cookie.
func ClearVerifierCookie(opts CookieOptions) *http.Cookie {
	return opts.withDefaults().cookie(CodeVerifierCookie, "", -1)
}
