package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"rosteriq/internal/adapters/identity"
	"rosteriq/internal/domain/audit"
)

// SessionIssuer is the provider surface for password and PKCE sign-in.
type SessionIssuer interface {
	SignInWithPassword(ctx context.Context, email, password string) (identity.Session, error)
	SendEmailLink(ctx context.Context, link identity.EmailLink) error
	ExchangeCode(ctx context.Context, authCode, codeVerifier string) (identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// LastLoginToucher records sign-in times on profiles.
type LastLoginToucher interface {
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginDeps holds dependencies for Login and ExchangeCode.
type LoginDeps struct {
	Provider SessionIssuer
	Profiles LastLoginToucher
	Audit    AuditSaver
	Now      func() time.Time
}

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrProviderUnavailable = errors.New("sign-in is temporarily unavailable")
	ErrMissingAuthCode     = errors.New("missing authorization code")
)

// ExecuteLogin exchanges credentials for a provider session.
// PRE: none
// POST: Returns a session carrying its user, ErrInvalidCredentials for any
// 4xx answer, or ErrProviderUnavailable when the provider cannot be reached
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (identity.Session, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return identity.Session{}, ErrInvalidCredentials
	}

	s, err := deps.Provider.SignInWithPassword(ctx, email, input.Password)
	if err != nil {
		if isClientError(err) {
			slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "rejected")
			return identity.Session{}, ErrInvalidCredentials
		}
		slog.Error("auth_event", "event", "login_failed", "email", email, "reason", "provider", "error", err.Error())
		return identity.Session{}, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	recordSignIn(ctx, s, "password", deps)
	return s, nil
}

// EmailLinkInput carries the address to email and the callback URL.
type EmailLinkInput struct {
	Email      string
	RedirectTo string
}

// ExecuteStartEmailLink emails a one-time sign-in link bound to a fresh PKCE
// verifier. The caller keeps the returned verifier in a cookie until the
// link lands on /auth/callback.
// PRE: none
// POST: Returns *ValidationError for a malformed address, ErrProviderUnavailable
// when the provider cannot be reached, and otherwise a verifier. Provider 4xx
// answers (unknown address, rate limit) also return a verifier so the response
// does not reveal which addresses have accounts
func ExecuteStartEmailLink(ctx context.Context, input EmailLinkInput, deps LoginDeps) (string, error) {
	addr := strings.TrimSpace(input.Email)
	if parsed, err := mail.ParseAddress(addr); err != nil || parsed.Address != addr {
		return "", invalid(ErrInvalidEmail)
	}

	verifier, err := identity.NewCodeVerifier()
	if err != nil {
		return "", err
	}
	err = deps.Provider.SendEmailLink(ctx, identity.EmailLink{
		Email:         addr,
		CodeChallenge: identity.CodeChallenge(verifier),
		RedirectTo:    input.RedirectTo,
	})
	switch {
	case err == nil:
		slog.Info("auth_event", "event", "email_link_sent", "email", addr)
	case isClientError(err):
		slog.Info("auth_event", "event", "email_link_refused", "email", addr, "error", err.Error())
	default:
		slog.Error("auth_event", "event", "email_link_failed", "email", addr, "error", err.Error())
		return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	return verifier, nil
}

// ExchangeCodeInput carries the callback query and the stored PKCE verifier.
type ExchangeCodeInput struct {
	Code         string
	CodeVerifier string
}

// ExecuteExchangeCode completes an email-link or OAuth sign-in.
// POST: Returns ErrMissingAuthCode for an empty code; provider 4xx answers
// pass through as *identity.ProviderError
func ExecuteExchangeCode(ctx context.Context, input ExchangeCodeInput, deps LoginDeps) (identity.Session, error) {
	if strings.TrimSpace(input.Code) == "" {
		return identity.Session{}, ErrMissingAuthCode
	}
	s, err := deps.Provider.ExchangeCode(ctx, input.Code, input.CodeVerifier)
	if err != nil {
		slog.Info("auth_event", "event", "code_exchange_failed", "error", err.Error())
		return identity.Session{}, fmt.Errorf("exchange code: %w", err)
	}
	recordSignIn(ctx, s, "pkce", deps)
	return s, nil
}

func recordSignIn(ctx context.Context, s identity.Session, method string, deps LoginDeps) {
	if s.User == nil || s.User.ID == "" {
		slog.Info("auth_event", "event", "login_success", "method", method)
		return
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	userID := s.User.ID
	if deps.Profiles != nil {
		if err := deps.Profiles.TouchLastLogin(ctx, userID, now().UTC()); err != nil {
			slog.Error("profile_write_failed", "user_id", userID, "error", err.Error())
		}
	}
	saveAudit(ctx, deps.Audit, audit.NewEvent(userID, audit.ActionLogin, audit.EntitySession, userID).
		WithMetadata(map[string]any{"method": method}))
	slog.Info("auth_event", "event", "login_success", "user_id", userID, "method", method)
}

// LogoutInput identifies the session being ended.
type LogoutInput struct {
	UserID      string
	AccessToken string
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Provider SessionIssuer
	Audit    AuditSaver
}

// ExecuteLogout revokes the session at the provider, best effort.
// POST: never fails; the caller clears the cookie regardless
func ExecuteLogout(ctx context.Context, input LogoutInput, deps LogoutDeps) {
	if input.AccessToken != "" && deps.Provider != nil {
		if err := deps.Provider.SignOut(ctx, input.AccessToken); err != nil {
			slog.Warn("auth_event", "event", "logout_provider_failed", "user_id", input.UserID, "error", err.Error())
		}
	}
	if input.UserID != "" {
		saveAudit(ctx, deps.Audit, audit.NewEvent(input.UserID, audit.ActionLogout, audit.EntitySession, input.UserID))
	}
	slog.Info("auth_event", "event", "logout", "user_id", input.UserID)
}

// RecordVisitDeps holds dependencies for RecordVisit.
type RecordVisitDeps struct {
	Profiles LastLoginToucher
	Now      func() time.Time
}

// ExecuteRecordVisit stamps last_login_at each time the app shell renders.
// POST: write failures are logged and ignored
func ExecuteRecordVisit(ctx context.Context, userID string, deps RecordVisitDeps) {
	if userID == "" || deps.Profiles == nil {
		return
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	if err := deps.Profiles.TouchLastLogin(ctx, userID, now().UTC()); err != nil {
		slog.Warn("profile_write_failed", "user_id", userID, "error", err.Error())
	}
}

func isClientError(err error) bool {
	var pe *identity.ProviderError
	return errors.As(err, &pe) && pe.IsClientError()
}
