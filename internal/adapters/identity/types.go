// Package identity talks to the external identity provider (a Supabase Auth /
// GoTrue compatible REST API) and turns request cookies into a signed-in user.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnauthenticated means no valid session could be established. Every
// provider, network and decoding failure during resolution wraps it.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrNoSession means the request carried no session cookie at all.
var ErrNoSession = fmt.Errorf("%w: no session cookie", ErrUnauthenticated)

// ErrUserNotFound is returned by admin lookups that match no user.
var ErrUserNotFound = errors.New("identity user not found")

// User is the provider's view of an account.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Role             string         `json:"role,omitempty"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	AppMetadata      map[string]any `json:"app_metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// MetadataString returns a string user_metadata field, or "".
func (u User) MetadataString(key string) string {
	if v, ok := u.UserMetadata[key].(string); ok {
		return v
	}
	return ""
}

// Session is the token bundle issued by the provider. It lives only in the
// session cookie and is never persisted server-side.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// expiryMargin refreshes slightly early so a token does not expire in flight.
const expiryMargin = 10 * time.Second

// Expired reports whether the access token is (about to be) expired at now.
// A session without expires_at is never considered expired locally.
func (s Session) Expired(now time.Time) bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return !now.Add(expiryMargin).Before(time.Unix(s.ExpiresAt, 0))
}

// normalize fills ExpiresAt from ExpiresIn when the provider omitted it.
func (s *Session) normalize(now time.Time) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Unix() + s.ExpiresIn
	}
	if s.TokenType == "" {
		s.TokenType = "bearer"
	}
}

// Identity is a resolved, signed-in user.
type Identity struct {
	User    User
	Session Session
}

// ProviderError is a non-2xx answer from the identity provider.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity provider returned status %d", e.Status)
	}
	return e.Message
}

// IsClientError reports whether the provider rejected the request itself
// (bad credentials, revoked refresh token) rather than failing.
func (e *ProviderError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// providerErrorBody covers the error shapes GoTrue has used across versions.
type providerErrorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b providerErrorBody) toError(status int) *ProviderError {
	pe := &ProviderError{Status: status, Code: b.ErrorCode}
	if pe.Code == "" {
		pe.Code = b.Error
	}
	for _, m := range []string{b.Msg, b.Message, b.ErrorDescription, b.Error} {
		if strings.TrimSpace(m) != "" {
			pe.Message = m
			break
		}
	}
	return pe
}
