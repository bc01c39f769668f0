package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// DefaultTimeout bounds every provider call when none is configured.
const DefaultTimeout = 5 * time.Second

// ClientConfig configures the public (anon key) provider client.
type ClientConfig struct {
	URL        string
	AnonKey    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the provider's public auth endpoints with the anon key.
type Client struct {
	baseURL    string
	apiKey     string
	api        gotrue.Client
	httpClient *http.Client
	now        func() time.Time
}

// NewClient validates cfg and returns a ready client.
// PRE: cfg.URL is an absolute URL; cfg.AnonKey is non-empty
// POST: every request made by the client is bounded by cfg.Timeout
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := normalizeBaseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("identity: anon key is required")
	}
	return &Client{
		baseURL:    base,
		apiKey:     cfg.AnonKey,
		api:        newGoTrue(base, cfg.AnonKey),
		httpClient: httpClientFor(cfg.HTTPClient, cfg.Timeout),
		now:        time.Now,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("identity: invalid provider url %q", raw)
	}
	return strings.TrimRight(u.String(), "/") + "/auth/v1", nil
}

func httpClientFor(hc *http.Client, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if hc == nil {
		return &http.Client{Timeout: timeout}
	}
	clone := *hc
	clone.Timeout = timeout
	return &clone
}

func (c *Client) scoped(ctx context.Context) gotrue.Client {
	return bind(ctx, c.api, c.httpClient, nil)
}

// GetUser validates accessToken with the provider and returns its user.
// PRE: accessToken is non-empty
// POST: Returns the user, or a *ProviderError / transport error
func (c *Client) GetUser(ctx context.Context, accessToken string) (User, error) {
	resp, err := c.scoped(ctx).WithToken(accessToken).GetUser()
	if err != nil {
		return User{}, providerError(err)
	}
	return userFromGoTrue(resp.User), nil
}

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	resp, err := c.scoped(ctx).SignInWithEmailPassword(email, password)
	return c.session(resp, err)
}

// RefreshSession exchanges a refresh token for a rotated session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	resp, err := c.scoped(ctx).RefreshToken(refreshToken)
	return c.session(resp, err)
}

// SignOut revokes the session's refresh tokens at the provider.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return providerError(c.scoped(ctx).WithToken(accessToken).Logout())
}

func (c *Client) session(resp *types.TokenResponse, err error) (Session, error) {
	if err != nil {
		return Session{}, providerError(err)
	}
	return c.finish(sessionFromGoTrue(resp.Session))
}

func (c *Client) finish(s Session) (Session, error) {
	if s.AccessToken == "" {
		return Session{}, &ProviderError{Status: http.StatusBadGateway, Message: "identity provider returned no access token"}
	}
	s.normalize(c.now())
	return s, nil
}

// ExchangeCode completes a PKCE flow started by SendEmailLink.
// gotrue's TokenRequest names the code "code"; the pkce grant reads "auth_code".
func (c *Client) ExchangeCode(ctx context.Context, authCode, codeVerifier string) (Session, error) {
	var s Session
	body := map[string]string{"auth_code": authCode, "code_verifier": codeVerifier}
	if err := do(ctx, c.httpClient, http.MethodPost, c.baseURL+"/token?grant_type=pkce", c.apiKey, body, &s); err != nil {
		return Session{}, err
	}
	return c.finish(s)
}

// EmailLink asks the provider to email a one-time sign-in link.
type EmailLink struct {
	Email string
	// CodeChallenge is the S256 challenge of the verifier kept in the browser.
	CodeChallenge string
	// RedirectTo is where the link lands; the provider appends ?code=.
	RedirectTo string
}

// SendEmailLink starts a passwordless PKCE sign-in for an existing account.
// gotrue's OTPRequest has no code challenge fields, so this call is made directly.
// POST: never creates a provider account
func (c *Client) SendEmailLink(ctx context.Context, link EmailLink) error {
	endpoint := c.baseURL + "/otp"
	if link.RedirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(link.RedirectTo)
	}
	body := map[string]any{
		"email":                 link.Email,
		"create_user":           false,
		"code_challenge":        link.CodeChallenge,
		"code_challenge_method": "s256",
	}
	return do(ctx, c.httpClient, http.MethodPost, endpoint, c.apiKey, body, nil)
}

// do performs one JSON request authenticated with apiKey.
func do(ctx context.Context, hc *http.Client, method, endpoint, apiKey string, body, target any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return parseProviderError(resp.StatusCode, raw)
	}

	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode identity response: %w", err)
	}
	return nil
}
