package membership

import (
	"context"

	domain "rosteriq/internal/domain/membership"
)

// Store persists Membership grants. Uniqueness of (user, tenant, role) is
// enforced by the datastore; Create reports a duplicate as storage.ErrConflict.
type Store interface {
	Create(ctx context.Context, m domain.Membership) error
	ListByUser(ctx context.Context, userID string) ([]domain.Membership, error)
	// ListByRoles returns grants holding any of roles, newest first.
	ListByRoles(ctx context.Context, roles []domain.Role) ([]domain.Membership, error)
	// Find returns storage.ErrNotFound when the exact grant does not exist.
	Find(ctx context.Context, userID, tenantID string, role domain.Role) (domain.Membership, error)
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
