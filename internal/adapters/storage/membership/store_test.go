package membership_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rosteriq/internal/adapters/storage"
	store "rosteriq/internal/adapters/storage/membership"
	tenantstore "rosteriq/internal/adapters/storage/tenant"
	domain "rosteriq/internal/domain/membership"
	tenantdomain "rosteriq/internal/domain/tenant"
)

// Ids are UUIDs so the same cases run against both backends.
const (
	t1 = "5d0c2a9e-2222-4b7f-8e3a-000000000001"
	t2 = "5d0c2a9e-2222-4b7f-8e3a-000000000002"

	u1     = "5d0c2a9e-3333-4b7f-8e3a-000000000001"
	u2     = "5d0c2a9e-3333-4b7f-8e3a-000000000002"
	u3     = "5d0c2a9e-3333-4b7f-8e3a-000000000003"
	nobody = "5d0c2a9e-3333-4b7f-8e3a-0000000000ff"

	m1 = "5d0c2a9e-4444-4b7f-8e3a-000000000001"
	m2 = "5d0c2a9e-4444-4b7f-8e3a-000000000002"
	m3 = "5d0c2a9e-4444-4b7f-8e3a-000000000003"
	m4 = "5d0c2a9e-4444-4b7f-8e3a-000000000004"
	m5 = "5d0c2a9e-4444-4b7f-8e3a-000000000005"
)

// opener returns an empty grant store and the tenant store on the same database.
type opener func(t *testing.T) (store.Store, tenantstore.Store)

func setup(t *testing.T, open opener) store.Store {
	t.Helper()
	grants, tenants := open(t)
	for _, id := range []string{t1, t2} {
		err := tenants.Create(context.Background(), tenantdomain.Tenant{
			ID: id, Name: "Club " + id, Timezone: tenantdomain.DefaultTimezone,
			Status: tenantdomain.StatusActive, CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("create tenant: %v", err)
		}
	}
	return grants
}

func grant(id, userID, tenantID string, role domain.Role, at time.Time) domain.Membership {
	return domain.Membership{ID: id, UserID: userID, TenantID: tenantID, Role: role, CreatedAt: at}
}

func mustCreate(t *testing.T, s store.Store, m domain.Membership) {
	t.Helper()
	if err := s.Create(context.Background(), m); err != nil {
		t.Fatalf("Create(%s): %v", m.ID, err)
	}
}

// testStore runs the Store contract against open.
func testStore(t *testing.T, open opener) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("ListByUser", func(t *testing.T) {
		s := setup(t, open)
		mustCreate(t, s, grant(m1, u1, t1, domain.RoleClubAdmin, base))
		mustCreate(t, s, grant(m2, u1, "", domain.RolePlatformAdmin, base.Add(time.Hour)))
		mustCreate(t, s, grant(m3, u2, t2, domain.RoleSelectCoach, base))

		got, err := s.ListByUser(ctx, u1)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 grants, got %d", len(got))
		}
		if got[0].ID != m1 || got[0].TenantID != t1 {
			t.Errorf("expected the tenant grant first, got %+v", got[0])
		}
		if got[1].TenantID != "" {
			t.Errorf("a NULL tenant reads back as empty, got %q", got[1].TenantID)
		}
		if got[1].Role != domain.RolePlatformAdmin {
			t.Errorf("expected platform_admin, got %s", got[1].Role)
		}

		none, err := s.ListByUser(ctx, nobody)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no grants, got %+v", none)
		}
	})

	t.Run("DuplicateGrantIsConflict", func(t *testing.T) {
		s := setup(t, open)
		mustCreate(t, s, grant(m1, u1, "", domain.RolePlatformAdmin, base))
		// NULL tenants are equal for uniqueness
		if err := s.Create(ctx, grant(m2, u1, "", domain.RolePlatformAdmin, base)); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("duplicate platform grant: expected ErrConflict, got %v", err)
		}

		mustCreate(t, s, grant(m3, u1, t1, domain.RoleClubAdmin, base))
		if err := s.Create(ctx, grant(m4, u1, t1, domain.RoleClubAdmin, base)); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("duplicate tenant grant: expected ErrConflict, got %v", err)
		}

		// same role in another tenant is a distinct grant
		if err := s.Create(ctx, grant(m5, u1, t2, domain.RoleClubAdmin, base)); err != nil {
			t.Errorf("expected a distinct grant, got %v", err)
		}
	})

	t.Run("ListByRoles_NewestFirst", func(t *testing.T) {
		s := setup(t, open)
		mustCreate(t, s, grant(m1, u1, t1, domain.RoleClubAdmin, base))
		mustCreate(t, s, grant(m2, u2, "", domain.RolePlatformAdmin, base.Add(2*time.Hour)))
		mustCreate(t, s, grant(m3, u3, t1, domain.RoleSelectPlayer, base.Add(time.Hour)))

		got, err := s.ListByRoles(ctx, domain.AdminRoles)
		if err != nil {
			t.Fatalf("ListByRoles: %v", err)
		}
		if len(got) != 2 || got[0].ID != m2 || got[1].ID != m1 {
			t.Errorf("expected [m2 m1], got %+v", got)
		}

		empty, err := s.ListByRoles(ctx, nil)
		if err != nil {
			t.Fatalf("ListByRoles(nil): %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected nothing for no roles, got %+v", empty)
		}
	})

	t.Run("Find", func(t *testing.T) {
		s := setup(t, open)
		mustCreate(t, s, grant(m1, u1, "", domain.RolePlatformAdmin, base))
		mustCreate(t, s, grant(m2, u1, t1, domain.RoleClubAdmin, base))

		tests := []struct {
			name     string
			tenantID string
			role     domain.Role
			wantID   string
		}{
			{"null tenant", "", domain.RolePlatformAdmin, m1},
			{"tenant grant", t1, domain.RoleClubAdmin, m2},
			{"role held without a tenant only", t1, domain.RolePlatformAdmin, ""},
			{"role held in a tenant only", "", domain.RoleClubAdmin, ""},
			{"other tenant", t2, domain.RoleClubAdmin, ""},
		}
		for _, tt := range tests {
			got, err := s.Find(ctx, u1, tt.tenantID, tt.role)
			if tt.wantID == "" {
				if !errors.Is(err, storage.ErrNotFound) {
					t.Errorf("%s: expected ErrNotFound, got %v", tt.name, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("%s: %v", tt.name, err)
				continue
			}
			if got.ID != tt.wantID {
				t.Errorf("%s: want %s, got %s", tt.name, tt.wantID, got.ID)
			}
		}
	})
}
