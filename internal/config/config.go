// Package config declares every runtime setting as kong flags with
// environment variable fallbacks.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alecthomas/kong"
)

// Session strategies accepted by --identity-session-strategy.
const (
	StrategyNetwork = "network"
	StrategyDecode  = "decode"
)

// Config is the server command line.
type Config struct {
	Debug   bool             `help:"enable debug logging" env:"ROSTERIQ_DEBUG"`
	Version kong.VersionFlag `help:"print the version and exit"`

	Env            string        `help:"deployment environment" default:"development" enum:"development,production" env:"ROSTERIQ_ENV"`
	Listen         string        `help:"HTTP listen address" default:":8080" env:"ROSTERIQ_LISTEN"`
	PublicURL      string        `help:"externally visible base URL, used in emails" default:"http://localhost:8080" env:"ROSTERIQ_PUBLIC_URL"`
	StaticDir      string        `help:"directory served under /static/" default:"static" env:"ROSTERIQ_STATIC_DIR"`
	CSRFKey        string        `help:"hex-encoded 32-byte CSRF key" name:"csrf-key" env:"ROSTERIQ_CSRF_KEY"`
	AllowedOrigins []string      `help:"origins allowed to call /api/ and submit forms" default:"http://localhost:8080" env:"ROSTERIQ_ALLOWED_ORIGINS"`
	RateLimit      int           `help:"requests per second allowed per client IP" default:"20" env:"ROSTERIQ_RATE_LIMIT"`
	SlowRequest    time.Duration `help:"log requests slower than this" default:"200ms" env:"ROSTERIQ_SLOW_REQUEST"`
	SlowQuery      time.Duration `help:"log queries slower than this" default:"100ms" env:"ROSTERIQ_SLOW_QUERY"`

	Identity IdentityFlags `embed:"" prefix:"identity-"`
	Store    StoreFlags    `embed:"" prefix:"store-"`
	Email    EmailFlags    `embed:"" prefix:"email-"`
	Dev      DevFlags      `embed:"" prefix:"dev-"`
}

// IdentityFlags configure the identity provider.
type IdentityFlags struct {
	URL             string        `help:"identity provider base URL" name:"url" env:"SUPABASE_URL"`
	AnonKey         string        `help:"public anon key" env:"SUPABASE_ANON_KEY"`
	ServiceRoleKey  string        `help:"service role key for user administration" env:"SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret       string        `help:"JWT secret for the decode strategy" name:"jwt-secret" env:"SUPABASE_JWT_SECRET"`
	SessionStrategy string        `help:"how the gate validates sessions" default:"network" enum:"network,decode" env:"ROSTERIQ_IDENTITY_SESSION_STRATEGY"`
	Timeout         time.Duration `help:"bound on every provider call" default:"5s" env:"ROSTERIQ_IDENTITY_TIMEOUT"`
	CookieName      string        `help:"session cookie name" default:"rosteriq-auth-token" env:"ROSTERIQ_IDENTITY_COOKIE_NAME"`
	CookieDomain    string        `help:"session cookie domain" env:"ROSTERIQ_IDENTITY_COOKIE_DOMAIN"`
}

// PublicConfigured reports whether the gate can resolve sessions. When it is
// false the gate passes every request through and logs a diagnostic.
func (f *IdentityFlags) PublicConfigured() bool {
	return f.URL != "" && f.AnonKey != ""
}

// AdminConfigured reports whether user administration is available.
func (f *IdentityFlags) AdminConfigured() bool {
	return f.URL != "" && f.ServiceRoleKey != ""
}

func (f *IdentityFlags) Validate() error {
	if f.URL != "" {
		u, err := url.Parse(f.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("identity url must be an absolute http(s) URL (--identity-url or SUPABASE_URL), got %q", f.URL)
		}
	}
	if f.SessionStrategy == StrategyDecode && f.JWTSecret == "" {
		return errors.New("jwt secret is required for the decode strategy (--identity-jwt-secret or SUPABASE_JWT_SECRET)")
	}
	if f.Timeout <= 0 {
		return errors.New("identity timeout must be positive")
	}
	return nil
}

// StoreFlags select and configure the datastore.
type StoreFlags struct {
	Driver     string `help:"datastore driver" default:"sqlite" enum:"sqlite,postgres" env:"ROSTERIQ_STORE_DRIVER"`
	SQLitePath string `help:"SQLite database file" name:"sqlite-path" default:"rosteriq.db" env:"ROSTERIQ_SQLITE_PATH"`
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`
	MaxConns   int32  `help:"maximum number of connections in pool" default:"10"`
	MinConns   int32  `help:"minimum number of connections in pool" default:"1"`
}

func (f *StoreFlags) Validate() error {
	switch f.Driver {
	case "postgres":
		if f.ConnString == "" {
			return errors.New("PostgreSQL connection string is required (--store-conn-string or POSTGRES_CONNECTION_STRING)")
		}
		if f.MinConns > f.MaxConns {
			return fmt.Errorf("min conns (%d) exceeds max conns (%d)", f.MinConns, f.MaxConns)
		}
	case "sqlite":
		if f.SQLitePath == "" {
			return errors.New("SQLite path is required (--store-sqlite-path or ROSTERIQ_SQLITE_PATH)")
		}
	default:
		return fmt.Errorf("unknown store driver %q", f.Driver)
	}
	return nil
}

// EmailFlags configure invitation delivery. Without an API key mail is dropped.
type EmailFlags struct {
	ResendKey string `help:"Resend API key" env:"ROSTERIQ_RESEND_KEY"`
	From      string `help:"sender address" default:"RosterIQ <noreply@rosteriq.app>" env:"ROSTERIQ_EMAIL_FROM"`
	ReplyTo   string `help:"reply-to address" env:"ROSTERIQ_EMAIL_REPLY_TO"`
}

// DevFlags configure the dev seed endpoint.
type DevFlags struct {
	HarnessSecretHash string `help:"bcrypt hash of the harness secret" env:"ROSTERIQ_HARNESS_SECRET_HASH"`
	SeedAdminEmail    string `help:"account promoted to platform_admin by the dev seed" env:"ROSTERIQ_SEED_ADMIN_EMAIL"`
}

func (f *DevFlags) Validate() error {
	if f.HarnessSecretHash != "" && !strings.HasPrefix(f.HarnessSecretHash, "$2") {
		return errors.New("harness secret hash must be a bcrypt hash (--dev-harness-secret-hash or ROSTERIQ_HARNESS_SECRET_HASH)")
	}
	return nil
}

// Production reports whether the server runs in production mode.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// CSRFKeyBytes decodes the CSRF key. An empty key yields nil.
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKey)
	if err != nil {
		return nil, fmt.Errorf("csrf key must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("csrf key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Validate checks every flag group.
func (c *Config) Validate() error {
	if _, err := c.CSRFKeyBytes(); err != nil {
		return err
	}
	if c.Production() {
		if c.CSRFKey == "" {
			return errors.New("csrf key is required in production (--csrf-key or ROSTERIQ_CSRF_KEY)")
		}
		if c.Dev.HarnessSecretHash != "" {
			return errors.New("the dev seed cannot be enabled in production")
		}
	}
	if c.RateLimit <= 0 {
		return errors.New("rate limit must be positive")
	}
	if err := c.Identity.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.Dev.Validate()
}
