package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"rosteriq/internal/adapters/email"
	"rosteriq/internal/adapters/http/middleware"
	"rosteriq/internal/adapters/http/perf"
	"rosteriq/internal/adapters/identity"
	auditStore "rosteriq/internal/adapters/storage/audit"
	membershipStore "rosteriq/internal/adapters/storage/membership"
	profileStore "rosteriq/internal/adapters/storage/profile"
	tenantStore "rosteriq/internal/adapters/storage/tenant"
	"rosteriq/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	Tenants     tenantStore.Store
	Memberships membershipStore.Store
	Profiles    profileStore.Store
	Audit       auditStore.Store
}

// AdminUsers is the privileged provider surface. It is nil when no service
// role key is configured.
type AdminUsers interface {
	orchestrators.AdminUserCreator
	orchestrators.UserFinder
}

// Settings are the request-independent knobs the handlers read.
type Settings struct {
	Production bool
	// CSRFKey must be 32 bytes.
	CSRFKey        []byte
	AllowedOrigins []string
	// PublicURL is the externally visible base URL used in emails.
	PublicURL string
	StaticDir string
	// HarnessSecretHash is a bcrypt hash; an empty hash disables the dev seed.
	HarnessSecretHash []byte
	SeedAdminEmail    string
	Strategy          string
	ResolveTimeout    time.Duration
	SlowRequest       time.Duration
	RateLimit         int
}

// Deps is everything the server needs. There is no package-level state.
type Deps struct {
	Stores Stores
	// Resolver backs the redirect gate with the configured strategy. Nil puts
	// the gate in pass-through mode.
	Resolver identity.Resolver
	// Validator always checks sessions with the provider. Side-effecting
	// handlers use it regardless of the gate strategy.
	Validator identity.Resolver
	Sessions  orchestrators.SessionIssuer
	Admin     AdminUsers
	Mailer    email.Sender
	Collector *perf.Collector
	Cookies   identity.CookieOptions
	Settings  Settings
}

// Server wires HTTP handlers for the app.
type Server struct {
	deps    Deps
	views   *views
	limiter *middleware.RateLimiter
	now     func() time.Time
}

// NewServer validates deps and parses the templates.
func NewServer(deps Deps) (*Server, error) {
	if deps.Stores.Tenants == nil || deps.Stores.Memberships == nil || deps.Stores.Profiles == nil || deps.Stores.Audit == nil {
		return nil, errors.New("web: every store is required")
	}
	if len(deps.Settings.CSRFKey) != 32 {
		return nil, errors.New("web: csrf key must be 32 bytes")
	}
	if deps.Collector == nil {
		deps.Collector = perf.NewCollector(perf.DefaultRingSize)
	}
	if deps.Settings.RateLimit <= 0 {
		deps.Settings.RateLimit = 20
	}
	v, err := parseViews()
	if err != nil {
		return nil, err
	}
	return &Server{
		deps:    deps,
		views:   v,
		limiter: middleware.NewRateLimiter(deps.Settings.RateLimit, time.Second),
		now:     time.Now,
	}, nil
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Close()
}

// Handler returns the full middleware chain around the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Timing -> Recover -> RateLimit -> SecurityHeaders -> CORS -> Gate -> CSRF -> mux
	return middleware.Chain(mux,
		middleware.CSRF(middleware.CSRFConfig{
			AuthKey:        s.deps.Settings.CSRFKey,
			Secure:         s.deps.Settings.Production,
			TrustedOrigins: trustedOrigins(s.deps.Settings.AllowedOrigins),
		}),
		middleware.Gate(middleware.GateConfig{
			Resolver:  s.deps.Resolver,
			Timeout:   s.deps.Settings.ResolveTimeout,
			Strategy:  s.deps.Settings.Strategy,
			Collector: s.deps.Collector,
			Cookies:   s.deps.Cookies,
		}),
		middleware.CORS(s.deps.Settings.AllowedOrigins),
		middleware.SecurityHeaders,
		middleware.RateLimit(s.limiter),
		middleware.Recover,
		middleware.Timing(s.deps.Collector, s.deps.Settings.SlowRequest),
	)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	if s.deps.Settings.StaticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.deps.Settings.StaticDir))))
	}

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /login/email-link", s.handleEmailLink)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /auth/callback", s.handleAuthCallback)

	page := middleware.RequireIdentity("/login")
	mux.Handle("GET /app/home", page(http.HandlerFunc(s.handleHome)))
	mux.Handle("GET /app/{section}", page(http.HandlerFunc(s.handleSection)))

	mux.Handle("GET /platform/tenants", page(http.HandlerFunc(s.handleTenantsPage)))
	mux.Handle("POST /platform/tenants", page(http.HandlerFunc(s.handleCreateTenant)))
	mux.Handle("POST /platform/tenants/{id}/toggle", page(http.HandlerFunc(s.handleToggleTenant)))
	mux.Handle("GET /platform/admins", page(http.HandlerFunc(s.handleAdminsPage)))
	mux.Handle("GET /platform/audit", page(http.HandlerFunc(s.handleAuditPage)))
	mux.Handle("GET /platform", http.RedirectHandler("/platform/tenants", http.StatusSeeOther))

	mux.HandleFunc("POST /api/platform/admin-users", s.handleCreateAdminUser)
	mux.HandleFunc("POST /api/dev/seed", s.handleDevSeed)
	mux.HandleFunc("GET /api/platform/perf", s.handlePerf)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/app/home", http.StatusSeeOther)
	})
}

// validate re-checks the session with the provider, rotating cookies as needed.
func (s *Server) validate(w http.ResponseWriter, r *http.Request) (identity.Identity, error) {
	if s.deps.Validator == nil {
		return identity.Identity{}, errProviderNotConfigured
	}
	timeout := s.deps.Settings.ResolveTimeout
	if timeout <= 0 {
		timeout = middleware.DefaultResolveTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	return s.deps.Validator.Resolve(ctx, middleware.NewRequestCookies(w, r))
}

var errProviderNotConfigured = errors.New("identity provider is not configured")

func trustedOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := parseOrigin(o); err == nil {
			out = append(out, u)
		}
	}
	return out
}
