package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// newGoTrue returns a gotrue client for the provider rooted at base (".../auth/v1").
func newGoTrue(base, apiKey string) gotrue.Client {
	return gotrue.New("", apiKey).WithCustomGoTrueURL(base)
}

// bind returns a copy of api whose requests carry ctx and, when non-empty,
// the extra query parameters. gotrue methods take no context of their own.
func bind(ctx context.Context, api gotrue.Client, hc *http.Client, query url.Values) gotrue.Client {
	return api.WithClient(http.Client{
		Transport: &scopedTransport{ctx: ctx, query: query, base: hc.Transport},
		Timeout:   hc.Timeout,
	})
}

type scopedTransport struct {
	ctx   context.Context
	query url.Values
	base  http.RoundTripper
}

func (t *scopedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if len(t.query) > 0 {
		q := req.URL.Query()
		for k, vs := range t.query {
			q[k] = vs
		}
		req.URL.RawQuery = q.Encode()
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// gotrue reports non-2xx answers as "response status code N: <body>".
var statusPattern = regexp.MustCompile(`^response status code (\d{3})(?s:: (.*))?$`)

// providerError maps a gotrue error to *ProviderError when the provider
// answered, and wraps it as a transport failure otherwise.
func providerError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrInvalidTokenRequest) {
		return &ProviderError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid token request"}
	}
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("identity provider request failed: %w", err)
	}
	status, _ := strconv.Atoi(m[1])
	return parseProviderError(status, []byte(m[2]))
}

func parseProviderError(status int, raw []byte) *ProviderError {
	var eb providerErrorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return &ProviderError{Status: status, Message: strings.TrimSpace(string(raw))}
	}
	return eb.toError(status)
}

func userFromGoTrue(u types.User) User {
	out := User{
		Email:            u.Email,
		Role:             u.Role,
		EmailConfirmedAt: u.EmailConfirmedAt,
		LastSignInAt:     u.LastSignInAt,
		UserMetadata:     u.UserMetadata,
		AppMetadata:      u.AppMetadata,
		CreatedAt:        u.CreatedAt,
	}
	if u.ID != uuid.Nil {
		out.ID = u.ID.String()
	}
	return out
}

func sessionFromGoTrue(s types.Session) Session {
	u := userFromGoTrue(s.User)
	return Session{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		ExpiresIn:    int64(s.ExpiresIn),
		ExpiresAt:    s.ExpiresAt,
		RefreshToken: s.RefreshToken,
		User:         &u,
	}
}
