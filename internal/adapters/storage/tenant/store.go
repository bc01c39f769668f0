package tenant

import (
	"context"

	domain "rosteriq/internal/domain/tenant"
)

// Store persists Tenant state. Tenants are never deleted.
type Store interface {
	// Create inserts a new tenant.
	// PRE: t has been validated and has an ID
	// POST: returns storage.ErrConflict when the name is taken
	Create(ctx context.Context, t domain.Tenant) error

	// GetByID returns storage.ErrNotFound when no tenant matches.
	GetByID(ctx context.Context, id string) (domain.Tenant, error)

	// GetByName returns storage.ErrNotFound when no tenant matches.
	GetByName(ctx context.Context, name string) (domain.Tenant, error)

	// List returns tenants ordered by name.
	List(ctx context.Context, filter ListFilter) ([]domain.Tenant, error)

	// Count returns how many tenants match filter, ignoring Limit and Offset.
	Count(ctx context.Context, filter ListFilter) (int, error)

	// UpdateStatus sets a tenant's status.
	// POST: returns storage.ErrNotFound when no tenant matches
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
}

// ListFilter carries filtering parameters for List. Zero Limit means no limit.
type ListFilter struct {
	Status domain.Status
	Search string
	Limit  int
	Offset int
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
