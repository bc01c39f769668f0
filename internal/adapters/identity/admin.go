package identity

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// AdminConfig configures the privileged admin client. The service role key
// grants full provider access and must never reach a browser.
type AdminConfig struct {
	URL            string
	ServiceRoleKey string
	Timeout        time.Duration
	HTTPClient     *http.Client
}

// AdminClient calls the provider's /admin endpoints.
type AdminClient struct {
	api        gotrue.Client
	httpClient *http.Client
}

// NewAdminClient validates cfg and returns a ready admin client.
func NewAdminClient(cfg AdminConfig) (*AdminClient, error) {
	base, err := normalizeBaseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.ServiceRoleKey == "" {
		return nil, errors.New("identity: service role key is required")
	}
	return &AdminClient{
		api:        newGoTrue(base, cfg.ServiceRoleKey).WithToken(cfg.ServiceRoleKey),
		httpClient: httpClientFor(cfg.HTTPClient, cfg.Timeout),
	}, nil
}

// CreateUserParams is the admin create-user request.
type CreateUserParams struct {
	Email        string         `json:"email"`
	Password     string         `json:"password,omitempty"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// CreateUser creates a provider account.
// PRE: p.Email is non-empty
// POST: Returns the new user, or a *ProviderError carrying the provider's message
func (a *AdminClient) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	req := types.AdminCreateUserRequest{
		Email:        p.Email,
		EmailConfirm: p.EmailConfirm,
		UserMetadata: p.UserMetadata,
	}
	if p.Password != "" {
		req.Password = &p.Password
	}
	resp, err := bind(ctx, a.api, a.httpClient, nil).AdminCreateUser(req)
	if err != nil {
		return User{}, providerError(err)
	}
	return userFromGoTrue(resp.User), nil
}

// ListUsers returns one page of provider users. page starts at 1.
func (a *AdminClient) ListUsers(ctx context.Context, page, perPage int) ([]User, error) {
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	resp, err := bind(ctx, a.api, a.httpClient, query).AdminListUsers()
	if err != nil {
		return nil, providerError(err)
	}
	users := make([]User, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, userFromGoTrue(u))
	}
	return users, nil
}

// maxUserPages bounds FindUserByEmail on very large projects.
const maxUserPages = 20

// FindUserByEmail pages through users until one matches email case-insensitively.
// POST: Returns ErrUserNotFound when no page contains the email
func (a *AdminClient) FindUserByEmail(ctx context.Context, email string) (User, error) {
	const perPage = 200
	for page := 1; page <= maxUserPages; page++ {
		users, err := a.ListUsers(ctx, page, perPage)
		if err != nil {
			return User{}, err
		}
		for _, u := range users {
			if strings.EqualFold(u.Email, email) {
				return u, nil
			}
		}
		if len(users) < perPage {
			break
		}
	}
	return User{}, ErrUserNotFound
}
