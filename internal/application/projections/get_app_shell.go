package projections

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rosteriq/internal/adapters/storage"
	"rosteriq/internal/adapters/storage/tenant"
	domainMembership "rosteriq/internal/domain/membership"
	domainProfile "rosteriq/internal/domain/profile"
)

// GetAppShellQuery identifies the signed-in user and the page being rendered.
type GetAppShellQuery struct {
	UserID      string
	Email       string
	CurrentPath string
}

// NavItem is one sidebar link.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

// AppShell is everything the authenticated layout renders around a page.
type AppShell struct {
	UserID          string
	Email           string
	DisplayName     string
	Initials        string
	Greeting        string
	RoleLabel       string
	IsPlatformAdmin bool
	Memberships     []domainMembership.Membership
	Tenants         []TenantOption
	// CurrentTenant is the first tenant by name, nil when none is visible.
	CurrentTenant *TenantOption
	Nav           []NavItem
	PlatformNav   []NavItem
}

// GetAppShellDeps holds dependencies for GetAppShell.
type GetAppShellDeps struct {
	Memberships MembershipStore
	Profiles    ProfileStore
	Tenants     TenantStore
}

var appNav = []NavItem{
	{Label: "Home", Href: "/app/home"},
	{Label: "Roster", Href: "/app/roster"},
	{Label: "Reviews", Href: "/app/reviews"},
	{Label: "Education", Href: "/app/education"},
	{Label: "Recruitment", Href: "/app/recruitment"},
	{Label: "Fields", Href: "/app/fields"},
}

var platformNav = []NavItem{
	{Label: "Tenants", Href: "/platform/tenants"},
	{Label: "Admins", Href: "/platform/admins"},
	{Label: "Audit", Href: "/platform/audit"},
}

// QueryGetAppShell loads profile, memberships and visible tenants for the layout.
// PRE: query.UserID is a resolved identity
// POST: RoleLabel is the highest role's label or "Member"; PlatformNav is
// empty for non platform admins
// INVARIANT: platform admins see every tenant, others only tenants they hold a grant in
func QueryGetAppShell(ctx context.Context, query GetAppShellQuery, deps GetAppShellDeps) (AppShell, error) {
	p, err := deps.Profiles.GetByUserID(ctx, query.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return AppShell{}, fmt.Errorf("load profile: %w", err)
	}
	if errors.Is(err, storage.ErrNotFound) {
		p = domainProfile.Profile{UserID: query.UserID}
	}

	ms, err := deps.Memberships.ListByUser(ctx, query.UserID)
	if err != nil {
		return AppShell{}, fmt.Errorf("load memberships: %w", err)
	}
	isPlatformAdmin := domainMembership.IsPlatformAdmin(ms)

	all, err := deps.Tenants.List(ctx, tenant.ListFilter{})
	if err != nil {
		return AppShell{}, fmt.Errorf("load tenants: %w", err)
	}
	visible := tenantOptions(all)
	if !isPlatformAdmin {
		granted := make(map[string]bool, len(ms))
		for _, m := range ms {
			granted[m.TenantID] = true
		}
		visible = visible[:0]
		for _, t := range all {
			if granted[t.ID] {
				visible = append(visible, TenantOption{ID: t.ID, Name: t.Name})
			}
		}
	}

	shell := AppShell{
		UserID:          query.UserID,
		Email:           query.Email,
		DisplayName:     p.DisplayName(query.Email),
		Initials:        p.Initials(),
		Greeting:        p.Greeting(),
		RoleLabel:       domainMembership.HighestRoleLabel(ms),
		IsPlatformAdmin: isPlatformAdmin,
		Memberships:     ms,
		Tenants:         visible,
		Nav:             markActive(appNav, query.CurrentPath),
	}
	if len(visible) > 0 {
		first := visible[0]
		shell.CurrentTenant = &first
	}
	if isPlatformAdmin {
		shell.PlatformNav = markActive(platformNav, query.CurrentPath)
	}
	return shell, nil
}

func markActive(items []NavItem, path string) []NavItem {
	out := make([]NavItem, len(items))
	for i, it := range items {
		it.Active = path == it.Href || strings.HasPrefix(path, it.Href+"/")
		out[i] = it
	}
	return out
}
