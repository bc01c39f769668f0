package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Resolver turns request cookies into a signed-in Identity. Rotated session
// cookies are written back through the same CookieStore.
type Resolver interface {
	// Resolve returns an error wrapping ErrUnauthenticated when no valid
	// session exists, and ErrNoSession when there is no session cookie at all.
	Resolve(ctx context.Context, cookies CookieStore) (Identity, error)
}

// sessionProvider is the subset of *Client used by resolvers.
type sessionProvider interface {
	GetUser(ctx context.Context, accessToken string) (User, error)
	RefreshSession(ctx context.Context, refreshToken string) (Session, error)
}

var _ sessionProvider = (*Client)(nil)

// NetworkResolver validates every access token with the provider. A revoked
// session is detected on the next request.
type NetworkResolver struct {
	provider sessionProvider
	cookies  CookieOptions
	now      func() time.Time
}

// NewNetworkResolver creates a resolver that calls the provider for every request.
func NewNetworkResolver(client *Client, opts CookieOptions) *NetworkResolver {
	return &NetworkResolver{provider: client, cookies: opts.withDefaults(), now: time.Now}
}

// Resolve implements Resolver.
// PRE: ctx carries the caller's timeout
// POST: on refresh the rotated session is written to cookies before validation;
// any provider or network failure yields an error wrapping ErrUnauthenticated
func (r *NetworkResolver) Resolve(ctx context.Context, cookies CookieStore) (Identity, error) {
	sess, err := refreshIfExpired(ctx, r.provider, r.cookies, r.now(), cookies)
	if err != nil {
		return Identity{}, err
	}

	user, err := r.provider.GetUser(ctx, sess.AccessToken)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.IsClientError() {
			cookies.WriteAll(ClearSession(r.cookies, cookies.ReadAll()))
		}
		return Identity{}, fmt.Errorf("%w: validate session: %w", ErrUnauthenticated, err)
	}
	return Identity{User: user, Session: sess}, nil
}

// refreshIfExpired decodes the session cookie and rotates it when expired.
// Rejected refresh tokens clear the cookie; transport failures leave it for the next request.
func refreshIfExpired(ctx context.Context, provider sessionProvider, opts CookieOptions, now time.Time, cookies CookieStore) (Session, error) {
	existing := cookies.ReadAll()
	sess, ok, err := DecodeSession(opts.Name, existing)
	if !ok {
		return Session{}, ErrNoSession
	}
	if err != nil {
		cookies.WriteAll(ClearSession(opts, existing))
		return Session{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !sess.Expired(now) {
		return sess, nil
	}

	if provider == nil || sess.RefreshToken == "" {
		return Session{}, fmt.Errorf("%w: session expired", ErrUnauthenticated)
	}
	refreshed, err := provider.RefreshSession(ctx, sess.RefreshToken)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.IsClientError() {
			cookies.WriteAll(ClearSession(opts, existing))
		}
		return Session{}, fmt.Errorf("%w: refresh session: %w", ErrUnauthenticated, err)
	}

	rotated, err := EncodeSession(refreshed, opts, existing)
	if err != nil {
		return Session{}, fmt.Errorf("%w: encode session: %w", ErrUnauthenticated, err)
	}
	cookies.WriteAll(rotated)
	slog.Debug("auth_event", "event", "session_refreshed")
	return refreshed, nil
}

// SessionClaims are the claims the provider puts in its access tokens.
type SessionClaims struct {
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	SessionID    string         `json:"session_id"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
	jwt.RegisteredClaims
}

// DecodeResolver verifies access tokens locally with the project's JWT
// secret. Revocation is only noticed when the token expires.
type DecodeResolver struct {
	secret   []byte
	audience string
	provider sessionProvider
	cookies  CookieOptions
	now      func() time.Time
}

// DecodeConfig configures a DecodeResolver.
type DecodeConfig struct {
	JWTSecret string
	// Audience defaults to "authenticated".
	Audience string
	// Refresher, when set, rotates expired sessions; nil treats them as signed out.
	Refresher *Client
	Cookies   CookieOptions
}

// NewDecodeResolver creates a resolver that never calls the provider for valid tokens.
func NewDecodeResolver(cfg DecodeConfig) (*DecodeResolver, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("identity: jwt secret is required for the decode strategy")
	}
	if cfg.Audience == "" {
		cfg.Audience = "authenticated"
	}
	r := &DecodeResolver{
		secret:   []byte(cfg.JWTSecret),
		audience: cfg.Audience,
		cookies:  cfg.Cookies.withDefaults(),
		now:      time.Now,
	}
	if cfg.Refresher != nil {
		r.provider = cfg.Refresher
	}
	return r, nil
}

// Resolve implements Resolver.
// POST: the user is built from verified claims; no network call is made
// unless the session is expired and a refresher is configured
func (r *DecodeResolver) Resolve(ctx context.Context, cookies CookieStore) (Identity, error) {
	sess, err := refreshIfExpired(ctx, r.provider, r.cookies, r.now(), cookies)
	if err != nil {
		return Identity{}, err
	}

	claims, err := r.verify(sess.AccessToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	user := User{
		ID:           claims.Subject,
		Email:        claims.Email,
		Role:         claims.Role,
		UserMetadata: claims.UserMetadata,
		AppMetadata:  claims.AppMetadata,
	}
	return Identity{User: user, Session: sess}, nil
}

func (r *DecodeResolver) verify(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(r.audience),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}
