package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"rosteriq/internal/adapters/identity"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const identityContextKey contextKey = "identity"

// ContextWithIdentity returns a context carrying id.
func ContextWithIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the identity the gate resolved for this request.
// POST: ok is false for anonymous requests and for paths the gate skips
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(identity.Identity)
	if !ok || id.User.ID == "" {
		return identity.Identity{}, false
	}
	return id, true
}

// UserIDFromContext returns the signed-in user's ID, or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.User.ID
}

// RequireIdentity redirects to loginPath when the gate did not attach an
// identity. It guards pages when the gate runs in pass-through mode.
func RequireIdentity(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				slog.Debug("auth_denied", "path", r.URL.Path, "reason", "no identity")
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
