package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"rosteriq/internal/domain/membership"
)

// MembershipLister loads a user's grants.
type MembershipLister interface {
	ListByUser(ctx context.Context, userID string) ([]membership.Membership, error)
}

// AuthorizePlatformAdminDeps holds dependencies for AuthorizePlatformAdmin.
type AuthorizePlatformAdminDeps struct {
	Memberships MembershipLister
}

// ExecuteAuthorizePlatformAdmin checks that userID holds platform_admin.
// PRE: userID comes from a network-validated session ("" when anonymous)
// POST: returns ErrUnauthenticated, ErrForbidden, a wrapped store error, or
// the caller's memberships
func ExecuteAuthorizePlatformAdmin(ctx context.Context, userID string, deps AuthorizePlatformAdminDeps) ([]membership.Membership, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	ms, err := deps.Memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}
	if !membership.IsPlatformAdmin(ms) {
		slog.Warn("auth_denied", "user_id", userID, "required", string(membership.RolePlatformAdmin))
		return ms, ErrForbidden
	}
	return ms, nil
}
