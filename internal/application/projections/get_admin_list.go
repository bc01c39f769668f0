package projections

import (
	"context"
	"fmt"
	"time"

	"rosteriq/internal/adapters/storage/tenant"
	domainMembership "rosteriq/internal/domain/membership"
	domainTenant "rosteriq/internal/domain/tenant"
)

// AdminRow is one admin grant joined with the grantee's profile.
type AdminRow struct {
	MembershipID string
	UserID       string
	Name         string
	Role         domainMembership.Role
	RoleLabel    string
	TenantID     string
	// TenantName is "All tenants" for platform-wide grants.
	TenantName  string
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

// RoleOption is a role selectable on the create-admin form.
type RoleOption struct {
	Value string
	Label string
}

// GetAdminListResult is the /platform/admins view model.
type GetAdminListResult struct {
	Admins        []AdminRow
	ActiveTenants []TenantOption
	Roles         []RoleOption
}

// GetAdminListDeps holds dependencies for GetAdminList.
type GetAdminListDeps struct {
	Memberships MembershipStore
	Profiles    ProfileStore
	Tenants     TenantStore
}

const allTenantsLabel = "All tenants"

// QueryGetAdminList lists platform and club admins, newest grant first, and the
// active tenants the create form may target.
// PRE: caller is an authorized platform admin
// POST: rows without a profile show the user id as their name
func QueryGetAdminList(ctx context.Context, deps GetAdminListDeps) (GetAdminListResult, error) {
	grants, err := deps.Memberships.ListByRoles(ctx, domainMembership.AdminRoles)
	if err != nil {
		return GetAdminListResult{}, fmt.Errorf("load admin memberships: %w", err)
	}

	userIDs := make([]string, 0, len(grants))
	seen := make(map[string]bool, len(grants))
	for _, g := range grants {
		if !seen[g.UserID] {
			seen[g.UserID] = true
			userIDs = append(userIDs, g.UserID)
		}
	}
	profiles, err := deps.Profiles.ListByUserIDs(ctx, userIDs)
	if err != nil {
		return GetAdminListResult{}, fmt.Errorf("load admin profiles: %w", err)
	}

	all, err := deps.Tenants.List(ctx, tenant.ListFilter{})
	if err != nil {
		return GetAdminListResult{}, fmt.Errorf("load tenants: %w", err)
	}
	names := make(map[string]string, len(all))
	var active []domainTenant.Tenant
	for _, t := range all {
		names[t.ID] = t.Name
		if t.IsActive() {
			active = append(active, t)
		}
	}

	rows := make([]AdminRow, 0, len(grants))
	for _, g := range grants {
		p := profiles[g.UserID]
		row := AdminRow{
			MembershipID: g.ID,
			UserID:       g.UserID,
			Name:         p.DisplayName(g.UserID),
			Role:         g.Role,
			RoleLabel:    domainMembership.Label(g.Role),
			TenantID:     g.TenantID,
			TenantName:   allTenantsLabel,
			LastLoginAt:  p.LastLoginAt,
			CreatedAt:    g.CreatedAt,
		}
		if !g.IsGlobal() {
			row.TenantName = names[g.TenantID]
		}
		rows = append(rows, row)
	}

	roles := make([]RoleOption, 0, len(domainMembership.AdminRoles))
	for _, r := range domainMembership.AdminRoles {
		roles = append(roles, RoleOption{Value: string(r), Label: domainMembership.Label(r)})
	}

	return GetAdminListResult{Admins: rows, ActiveTenants: tenantOptions(active), Roles: roles}, nil
}
