package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rosteriq/internal/adapters/http/perf"
	"rosteriq/internal/adapters/identity"
)

// publicPrefixes are reachable without a session. /api/ handlers authorize
// themselves and answer 401/403 instead of redirecting.
var publicPrefixes = []string{"/login", "/auth/callback", "/api/"}

// IsPublicPath reports whether path bypasses the login redirect.
// INVARIANT: evaluated before any identity provider call
func IsPublicPath(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

var excludedSuffixes = []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".ico", ".woff", ".woff2"}

// IsExcludedPath reports whether the gate never runs for path (static assets).
func IsExcludedPath(path string) bool {
	if strings.HasPrefix(path, "/static/") || path == "/favicon.ico" {
		return true
	}
	lower := strings.ToLower(path)
	for _, s := range excludedSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// Decision is the gate's verdict for one request.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "allow"
}

// Decide applies the redirect table top to bottom:
// public paths pass, anonymous users go to login, the signed-in root goes
// home, everything else passes.
func Decide(authenticated bool, path string, public bool) Decision {
	switch {
	case public:
		return Allow
	case !authenticated:
		return RedirectLogin
	case path == "/" || path == "/login":
		return RedirectHome
	default:
		return Allow
	}
}

// DefaultResolveTimeout bounds session resolution when GateConfig.Timeout is zero.
const DefaultResolveTimeout = 5 * time.Second

// GateConfig configures Gate.
type GateConfig struct {
	// Resolver may be nil when the identity provider is not configured; the
	// gate then passes every request through unauthenticated.
	Resolver identity.Resolver
	Timeout  time.Duration
	// LoginPath and HomePath default to /login and /app/home.
	LoginPath string
	HomePath  string
	// Strategy labels provider timings in the collector.
	Strategy  string
	Collector *perf.Collector
	// Cookies names the session cookie cleared when a session is rejected.
	Cookies identity.CookieOptions
}

// Gate resolves the session for every non-static request and applies Decide.
// Allowed requests carry the Identity in their context and see any rotated
// session cookie both on the response and in their own Cookie header.
func Gate(cfg GateConfig) func(http.Handler) http.Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultResolveTimeout
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/app/home"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if IsExcludedPath(path) {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.Resolver == nil {
				slog.Error("gate_misconfigured", "path", path, "reason", "identity provider url or anon key missing")
				next.ServeHTTP(w, r)
				return
			}
			if IsPublicPath(path) {
				next.ServeHTTP(w, r)
				return
			}

			jar := NewRequestCookies(w, r)
			id, err := resolve(r.Context(), cfg, jar)
			authenticated := err == nil

			switch Decide(authenticated, path, false) {
			case RedirectLogin:
				slog.Debug("gate_decision", "decision", RedirectLogin.String(), "path", path)
				if !errors.Is(err, identity.ErrNoSession) {
					// /login trusts an unexpired cookie without asking the provider
					jar.WriteAll(identity.ClearSession(cfg.Cookies, jar.ReadAll()))
				}
				http.Redirect(w, r, cfg.LoginPath, http.StatusSeeOther)
			case RedirectHome:
				http.Redirect(w, r, cfg.HomePath, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
			}
		})
	}
}

// resolve runs the configured resolver under the gate timeout and records
// its latency. Failures are logged and reported as unauthenticated.
func resolve(ctx context.Context, cfg GateConfig, jar identity.CookieStore) (identity.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	start := time.Now()
	id, err := cfg.Resolver.Resolve(ctx, jar)
	if cfg.Collector != nil {
		cfg.Collector.Record(perf.Entry{
			Kind:       perf.KindProvider,
			Label:      cfg.Strategy,
			DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
			At:         start,
		})
	}

	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, identity.ErrNoSession):
		// anonymous, nothing to report
	default:
		slog.Warn("auth_event", "event", "session_rejected", "error", err.Error())
	}
	return identity.Identity{}, err
}

// RequestCookies implements identity.CookieStore for one request. Written
// cookies go to the response and replace the request's Cookie header so
// handlers downstream read the rotated session.
type RequestCookies struct {
	w http.ResponseWriter
	r *http.Request
}

var _ identity.CookieStore = (*RequestCookies)(nil)

// NewRequestCookies binds a cookie store to w and r.
func NewRequestCookies(w http.ResponseWriter, r *http.Request) *RequestCookies {
	return &RequestCookies{w: w, r: r}
}

// ReadAll returns the request's cookies.
func (c *RequestCookies) ReadAll() []*http.Cookie {
	return c.r.Cookies()
}

// WriteAll sets cookies on the response and mirrors them into the request.
// POST: expired cookies (MaxAge < 0) are removed from the request's Cookie header
func (c *RequestCookies) WriteAll(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	current := c.r.Cookies()
	updated := make(map[string]*http.Cookie, len(cookies))
	for _, ck := range cookies {
		http.SetCookie(c.w, ck)
		updated[ck.Name] = ck
	}

	pairs := make([]string, 0, len(current)+len(cookies))
	for _, ck := range current {
		if _, replaced := updated[ck.Name]; replaced {
			continue
		}
		pairs = append(pairs, (&http.Cookie{Name: ck.Name, Value: ck.Value}).String())
	}
	for _, ck := range cookies {
		if ck.MaxAge < 0 {
			continue
		}
		pairs = append(pairs, (&http.Cookie{Name: ck.Name, Value: ck.Value}).String())
	}
	if len(pairs) == 0 {
		c.r.Header.Del("Cookie")
		return
	}
	c.r.Header.Set("Cookie", strings.Join(pairs, "; "))
}
