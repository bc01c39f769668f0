package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	_ "modernc.org/sqlite"

	"rosteriq/internal/adapters/email"
	web "rosteriq/internal/adapters/http"
	"rosteriq/internal/adapters/http/perf"
	"rosteriq/internal/adapters/identity"
	"rosteriq/internal/adapters/storage"
	auditStore "rosteriq/internal/adapters/storage/audit"
	membershipStore "rosteriq/internal/adapters/storage/membership"
	"rosteriq/internal/adapters/storage/postgres"
	profileStore "rosteriq/internal/adapters/storage/profile"
	tenantStore "rosteriq/internal/adapters/storage/tenant"
	"rosteriq/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var cfg config.Config
	kctx := kong.Parse(&cfg,
		kong.Name("rosteriq"),
		kong.Description("RosterIQ club management server"),
		kong.Vars{"version": version},
	)
	kctx.FatalIfErrorf(cfg.Validate())

	setupLogger(cfg.Debug, cfg.Production())
	if err := run(&cfg); err != nil {
		slog.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func setupLogger(debug, production bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if production {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := perf.NewCollector(perf.DefaultRingSize)

	stores, closeStores, err := openStores(ctx, cfg, collector)
	if err != nil {
		return err
	}
	defer closeStores()

	cookies := identity.CookieOptions{
		Name:   cfg.Identity.CookieName,
		Domain: cfg.Identity.CookieDomain,
		Secure: cfg.Production(),
	}
	deps := web.Deps{
		Stores:    stores,
		Collector: collector,
		Cookies:   cookies,
	}

	if cfg.Identity.PublicConfigured() {
		client, err := identity.NewClient(identity.ClientConfig{
			URL:     cfg.Identity.URL,
			AnonKey: cfg.Identity.AnonKey,
			Timeout: cfg.Identity.Timeout,
		})
		if err != nil {
			return fmt.Errorf("identity client: %w", err)
		}
		network := identity.NewNetworkResolver(client, cookies)
		deps.Sessions = client
		deps.Validator = network
		deps.Resolver = network
		if cfg.Identity.SessionStrategy == config.StrategyDecode {
			decode, err := identity.NewDecodeResolver(identity.DecodeConfig{
				JWTSecret: cfg.Identity.JWTSecret,
				Refresher: client,
				Cookies:   cookies,
			})
			if err != nil {
				return fmt.Errorf("decode resolver: %w", err)
			}
			deps.Resolver = decode
		}
	} else {
		slog.Error("gate_misconfigured", "reason", "identity provider url or anon key missing; every page redirects to /login")
	}

	if cfg.Identity.AdminConfigured() {
		admin, err := identity.NewAdminClient(identity.AdminConfig{
			URL:            cfg.Identity.URL,
			ServiceRoleKey: cfg.Identity.ServiceRoleKey,
			Timeout:        cfg.Identity.Timeout,
		})
		if err != nil {
			return fmt.Errorf("identity admin client: %w", err)
		}
		deps.Admin = admin
	}

	if cfg.Email.ResendKey != "" {
		sender, err := email.NewResendSender(email.ResendConfig{
			APIKey:  cfg.Email.ResendKey,
			From:    cfg.Email.From,
			ReplyTo: cfg.Email.ReplyTo,
		})
		if err != nil {
			return fmt.Errorf("email sender: %w", err)
		}
		deps.Mailer = sender
		slog.Info("email_configured", "provider", "resend")
	} else {
		deps.Mailer = email.NewNoopSender()
		if cfg.Production() {
			slog.Warn("email_configured", "provider", "noop", "reason", "ROSTERIQ_RESEND_KEY is not set; invitations are not delivered")
		}
	}

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	if csrfKey == nil {
		// Development only; Validate rejects a missing key in production.
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			return fmt.Errorf("generate csrf key: %w", err)
		}
	}
	var harnessHash []byte
	if cfg.Dev.HarnessSecretHash != "" {
		harnessHash = []byte(cfg.Dev.HarnessSecretHash)
	}
	deps.Settings = web.Settings{
		Production:        cfg.Production(),
		CSRFKey:           csrfKey,
		AllowedOrigins:    cfg.AllowedOrigins,
		PublicURL:         cfg.PublicURL,
		StaticDir:         cfg.StaticDir,
		HarnessSecretHash: harnessHash,
		SeedAdminEmail:    cfg.Dev.SeedAdminEmail,
		Strategy:          cfg.Identity.SessionStrategy,
		ResolveTimeout:    cfg.Identity.Timeout,
		SlowRequest:       cfg.SlowRequest,
		RateLimit:         cfg.RateLimit,
	}

	server, err := web.NewServer(deps)
	if err != nil {
		return err
	}
	defer server.Close()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Listen, "env", cfg.Env,
			"store", cfg.Store.Driver, "strategy", cfg.Identity.SessionStrategy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStores connects the configured datastore and applies migrations.
func openStores(ctx context.Context, cfg *config.Config, collector *perf.Collector) (web.Stores, func(), error) {
	if cfg.Store.Driver == "postgres" {
		pool, err := postgres.NewPool(ctx, &postgres.PoolConfig{
			ConnString: cfg.Store.ConnString,
			MaxConns:   cfg.Store.MaxConns,
			MinConns:   cfg.Store.MinConns,
		})
		if err != nil {
			return web.Stores{}, nil, err
		}
		return web.Stores{
			Tenants:     tenantStore.NewPostgresStore(pool),
			Memberships: membershipStore.NewPostgresStore(pool),
			Profiles:    profileStore.NewPostgresStore(pool),
			Audit:       auditStore.NewPostgresStore(pool),
		}, pool.Close, nil
	}

	dsn := cfg.Store.SQLitePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return web.Stores{}, nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return web.Stores{}, nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.MigrateDB(ctx, db); err != nil {
		db.Close()
		return web.Stores{}, nil, fmt.Errorf("migrate database: %w", err)
	}
	slog.Info("database_ready", "driver", "sqlite", "path", cfg.Store.SQLitePath, "schema", storage.LatestSchemaVersion())

	timed := storage.NewTimedDB(db, collector, cfg.SlowQuery)
	return web.Stores{
		Tenants:     tenantStore.NewSQLiteStore(timed),
		Memberships: membershipStore.NewSQLiteStore(timed),
		Profiles:    profileStore.NewSQLiteStore(timed),
		Audit:       auditStore.NewSQLiteStore(timed),
	}, func() { db.Close() }, nil
}
