package projections

import (
	"context"

	"rosteriq/internal/adapters/storage/audit"
	"rosteriq/internal/adapters/storage/tenant"
	domainAudit "rosteriq/internal/domain/audit"
	domainMembership "rosteriq/internal/domain/membership"
	domainProfile "rosteriq/internal/domain/profile"
	domainTenant "rosteriq/internal/domain/tenant"
)

// MembershipStore interface for membership queries.
type MembershipStore interface {
	ListByUser(ctx context.Context, userID string) ([]domainMembership.Membership, error)
	ListByRoles(ctx context.Context, roles []domainMembership.Role) ([]domainMembership.Membership, error)
}

// ProfileStore interface for profile queries.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (domainProfile.Profile, error)
	ListByUserIDs(ctx context.Context, userIDs []string) (map[string]domainProfile.Profile, error)
}

// TenantStore interface for tenant queries.
type TenantStore interface {
	List(ctx context.Context, filter tenant.ListFilter) ([]domainTenant.Tenant, error)
	Count(ctx context.Context, filter tenant.ListFilter) (int, error)
}

// AuditStore interface for audit trail queries.
type AuditStore interface {
	List(ctx context.Context, filter audit.Filter, limit, offset int) ([]domainAudit.Event, error)
}

// TenantOption is a tenant reduced to what pickers and the sidebar show.
type TenantOption struct {
	ID   string
	Name string
}

func tenantOptions(ts []domainTenant.Tenant) []TenantOption {
	out := make([]TenantOption, 0, len(ts))
	for _, t := range ts {
		out = append(out, TenantOption{ID: t.ID, Name: t.Name})
	}
	return out
}
