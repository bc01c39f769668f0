package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// Provider user IDs are UUIDs; gotrue rejects anything else.
const (
	danaID    = "8c9d2f7e-4b1a-4c3e-9f2a-1d2e3f4a5b6c"
	newUserID = "3f1e2d4c-5b6a-4789-8abc-def012345678"
)

// tokenBody covers every grant the fake accepts.
type tokenBody struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
	AuthCode     string `json:"auth_code"`
	CodeVerifier string `json:"code_verifier"`
}

type otpBody struct {
	Email               string `json:"email"`
	CreateUser          bool   `json:"create_user"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method"`
}

// fakeProvider is a minimal GoTrue stand-in.
type fakeProvider struct {
	mu           sync.Mutex
	users        map[string]User // access token -> user
	refresh      map[string]Session
	passwords    map[string]string
	created      []CreateUserParams
	calls        map[string]int
	lastAPIKey   string
	lastBearer   string
	lastQuery    string
	userStatus   int
	createStatus int
	delay        time.Duration

	// email link state: the last /otp request and the code it "emailed"
	otp        otpBody
	redirectTo string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		users:     map[string]User{},
		refresh:   map[string]Session{},
		passwords: map[string]string{},
		calls:     map[string]int{},
	}
}

func (f *fakeProvider) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	if gt := r.URL.Query().Get("grant_type"); gt != "" {
		key += "?" + gt
	}
	f.calls[key]++
	f.lastAPIKey = r.Header.Get("apikey")
	f.lastBearer = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	f.lastQuery = r.URL.RawQuery

	writeJSON := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	issue := func(email string) {
		writeJSON(http.StatusOK, map[string]any{
			"access_token": "at-" + email, "refresh_token": "rt", "expires_in": 3600,
			"user": map[string]any{"id": danaID, "email": email},
		})
	}

	switch key {
	case "GET /auth/v1/user":
		if f.userStatus != 0 {
			writeJSON(f.userStatus, map[string]any{"code": f.userStatus, "msg": "provider says no"})
			return
		}
		u, ok := f.users[f.lastBearer]
		if !ok {
			writeJSON(http.StatusUnauthorized, map[string]any{"code": 401, "error_code": "bad_jwt", "msg": "invalid JWT"})
			return
		}
		writeJSON(http.StatusOK, u)

	case "POST /auth/v1/token?refresh_token":
		var body tokenBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		s, ok := f.refresh[body.RefreshToken]
		if !ok {
			writeJSON(http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid Refresh Token"})
			return
		}
		writeJSON(http.StatusOK, s)

	case "POST /auth/v1/token?password":
		var body tokenBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		if f.passwords[body.Email] != body.Password || body.Password == "" {
			writeJSON(http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Invalid login credentials"})
			return
		}
		issue(body.Email)

	case "POST /auth/v1/token?pkce":
		var body tokenBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.AuthCode != "emailed-code" || f.otp.CodeChallenge == "" || CodeChallenge(body.CodeVerifier) != f.otp.CodeChallenge {
			writeJSON(http.StatusBadRequest, map[string]any{"code": 400, "error_code": "bad_code_verifier", "msg": "code challenge does not match previously saved code verifier"})
			return
		}
		issue(f.otp.Email)

	case "POST /auth/v1/otp":
		var body otpBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := f.passwords[body.Email]; !ok {
			writeJSON(http.StatusUnprocessableEntity, map[string]any{"code": 422, "error_code": "otp_disabled", "msg": "Signups not allowed for otp"})
			return
		}
		f.otp = body
		f.redirectTo = r.URL.Query().Get("redirect_to")
		writeJSON(http.StatusOK, map[string]any{})

	case "POST /auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)

	case "POST /auth/v1/admin/users":
		var p CreateUserParams
		_ = json.NewDecoder(r.Body).Decode(&p)
		if f.createStatus != 0 {
			writeJSON(f.createStatus, map[string]any{"code": f.createStatus, "error_code": "email_exists", "msg": "A user with this email address has already been registered"})
			return
		}
		f.created = append(f.created, p)
		writeJSON(http.StatusOK, User{ID: newUserID, Email: p.Email, UserMetadata: p.UserMetadata})

	case "GET /auth/v1/admin/users":
		var users []User
		for _, u := range f.users {
			users = append(users, u)
		}
		if r.URL.Query().Get("page") != "1" {
			users = nil
		}
		writeJSON(http.StatusOK, map[string]any{"users": users, "aud": "authenticated"})

	default:
		http.NotFound(w, r)
	}
}

func startFake(t *testing.T, f *fakeProvider) string {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv.URL
}

// memCookies is a CookieStore over plain slices.
type memCookies struct {
	in      []*http.Cookie
	written []*http.Cookie
}

func (m *memCookies) ReadAll() []*http.Cookie { return m.in }

func (m *memCookies) WriteAll(cookies []*http.Cookie) {
	m.written = append(m.written, cookies...)
}

func (m *memCookies) find(name string) *http.Cookie {
	for i := len(m.written) - 1; i >= 0; i-- {
		if m.written[i].Name == name {
			return m.written[i]
		}
	}
	return nil
}
