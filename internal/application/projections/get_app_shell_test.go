package projections

import (
	"context"
	"testing"

	domainMembership "rosteriq/internal/domain/membership"
	domainProfile "rosteriq/internal/domain/profile"
)

func shellDeps(grants ...domainMembership.Membership) GetAppShellDeps {
	return GetAppShellDeps{
		Memberships: &mockMembershipStore{grants: grants},
		Profiles: &mockProfileStore{profiles: map[string]domainProfile.Profile{
			"u1": {UserID: "u1", FirstName: "Dana", LastName: "Lopez"},
		}},
		Tenants: clubTenants(),
	}
}

func TestQueryGetAppShell_PlatformAdmin(t *testing.T) {
	deps := shellDeps(domainMembership.Membership{ID: "m1", UserID: "u1", Role: domainMembership.RolePlatformAdmin})
	shell, err := QueryGetAppShell(context.Background(), GetAppShellQuery{UserID: "u1", Email: "dana@rosteriq.test", CurrentPath: "/platform/admins"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shell.IsPlatformAdmin {
		t.Error("expected platform admin")
	}
	if shell.RoleLabel != "Platform Administrator" {
		t.Errorf("expected Platform Administrator, got %s", shell.RoleLabel)
	}
	if len(shell.Tenants) != 3 {
		t.Errorf("expected every tenant, got %d", len(shell.Tenants))
	}
	if shell.CurrentTenant == nil || shell.CurrentTenant.Name != "Andromeda FC" {
		t.Errorf("expected the first tenant by name, got %+v", shell.CurrentTenant)
	}
	if shell.Greeting != "Welcome back, Dana" || shell.DisplayName != "Dana Lopez" || shell.Initials != "DL" {
		t.Errorf("unexpected profile fields: %+v", shell)
	}
	if len(shell.PlatformNav) != 3 {
		t.Fatalf("expected platform nav, got %v", shell.PlatformNav)
	}
	for _, it := range shell.PlatformNav {
		if it.Active != (it.Href == "/platform/admins") {
			t.Errorf("unexpected active state for %s", it.Href)
		}
	}
}

func TestQueryGetAppShell_ClubMemberSeesOwnTenants(t *testing.T) {
	deps := shellDeps(
		domainMembership.Membership{ID: "m1", UserID: "u1", TenantID: "t-solar", Role: domainMembership.RoleSelectCoach},
		domainMembership.Membership{ID: "m2", UserID: "u1", TenantID: "t-coppell", Role: domainMembership.RoleClubDirector},
	)
	shell, err := QueryGetAppShell(context.Background(), GetAppShellQuery{UserID: "u1", CurrentPath: "/app/roster"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shell.IsPlatformAdmin || len(shell.PlatformNav) != 0 {
		t.Error("expected no platform access")
	}
	if shell.RoleLabel != "Club Director" {
		t.Errorf("expected highest role Club Director, got %s", shell.RoleLabel)
	}
	if len(shell.Tenants) != 2 || shell.CurrentTenant.Name != "Coppell FC" {
		t.Errorf("expected Coppell FC then Solar SC, got %+v", shell.Tenants)
	}
	for _, it := range shell.Nav {
		if it.Active != (it.Href == "/app/roster") {
			t.Errorf("unexpected active state for %s", it.Href)
		}
	}
}

func TestQueryGetAppShell_NoProfileNoMemberships(t *testing.T) {
	shell, err := QueryGetAppShell(context.Background(), GetAppShellQuery{UserID: "u2", Email: "new@rosteriq.test"}, shellDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shell.RoleLabel != domainMembership.DefaultLabel {
		t.Errorf("expected %s, got %s", domainMembership.DefaultLabel, shell.RoleLabel)
	}
	if shell.DisplayName != "new@rosteriq.test" || shell.Greeting != "Welcome back" {
		t.Errorf("unexpected fallbacks: %+v", shell)
	}
	if shell.CurrentTenant != nil || len(shell.Tenants) != 0 {
		t.Errorf("expected no tenants, got %+v", shell.Tenants)
	}
}

func TestQueryGetDashboard(t *testing.T) {
	d := QueryGetDashboard(AppShell{Greeting: "Welcome back, Dana", RoleLabel: "Club Administrator", CurrentTenant: &TenantOption{Name: "Coppell FC"}})
	if len(d.Cards) != 5 {
		t.Fatalf("expected 5 cards, got %d", len(d.Cards))
	}
	if d.Cards[0].Href != "/app/roster" || d.TenantName != "Coppell FC" {
		t.Errorf("unexpected dashboard: %+v", d)
	}
	for _, c := range d.Cards {
		if _, err := QueryGetSection(c.Slug); err != nil {
			t.Errorf("card %s has no section: %v", c.Slug, err)
		}
	}
	if _, err := QueryGetSection("billing"); err != ErrUnknownSection {
		t.Errorf("expected ErrUnknownSection, got %v", err)
	}
}
