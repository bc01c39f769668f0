package tenant_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rosteriq/internal/adapters/storage"
	store "rosteriq/internal/adapters/storage/tenant"
	domain "rosteriq/internal/domain/tenant"
)

// Tenant ids are UUIDs so the same cases run against both backends.
const (
	t1      = "0b6a3c1e-1111-4a8e-9c1d-000000000001"
	t2      = "0b6a3c1e-1111-4a8e-9c1d-000000000002"
	t3      = "0b6a3c1e-1111-4a8e-9c1d-000000000003"
	missing = "0b6a3c1e-1111-4a8e-9c1d-0000000000ff"
)

func newTenant(id, name string, status domain.Status) domain.Tenant {
	return domain.Tenant{
		ID:        id,
		Name:      name,
		Timezone:  domain.DefaultTimezone,
		Status:    status,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func mustCreate(t *testing.T, s store.Store, tn domain.Tenant) {
	t.Helper()
	if err := s.Create(context.Background(), tn); err != nil {
		t.Fatalf("Create(%s): %v", tn.Name, err)
	}
}

// testStore runs the Store contract against open, which returns an empty store.
func testStore(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		s := open(t)
		want := newTenant(t1, "Coppell FC", domain.StatusActive)
		want.AddressText = "123 Field Rd"
		mustCreate(t, s, want)

		got, err := s.GetByID(ctx, t1)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Name != want.Name || got.AddressText != want.AddressText || got.Status != domain.StatusActive {
			t.Errorf("unexpected tenant: %+v", got)
		}
		if !want.CreatedAt.Equal(got.CreatedAt) {
			t.Errorf("created_at: want %v, got %v", want.CreatedAt, got.CreatedAt)
		}

		byName, err := s.GetByName(ctx, "Coppell FC")
		if err != nil {
			t.Fatalf("GetByName: %v", err)
		}
		if byName.ID != t1 {
			t.Errorf("expected %s, got %s", t1, byName.ID)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		s := open(t)
		if _, err := s.GetByID(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetByID: expected ErrNotFound, got %v", err)
		}
		if _, err := s.GetByName(ctx, "Nobody FC"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetByName: expected ErrNotFound, got %v", err)
		}
		if err := s.UpdateStatus(ctx, missing, domain.StatusInactive); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("UpdateStatus: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DuplicateName", func(t *testing.T) {
		s := open(t)
		mustCreate(t, s, newTenant(t1, "Coppell FC", domain.StatusActive))
		err := s.Create(ctx, newTenant(t2, "Coppell FC", domain.StatusActive))
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("ListOrderedByName", func(t *testing.T) {
		s := open(t)
		mustCreate(t, s, newTenant(t1, "Solar SC", domain.StatusActive))
		mustCreate(t, s, newTenant(t2, "andromeda FC", domain.StatusInactive))
		mustCreate(t, s, newTenant(t3, "Coppell FC", domain.StatusActive))

		all, err := s.List(ctx, store.ListFilter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"andromeda FC", "Coppell FC", "Solar SC"}
		if len(all) != len(want) {
			t.Fatalf("expected %d tenants, got %d", len(want), len(all))
		}
		for i, name := range want {
			if all[i].Name != name {
				t.Errorf("position %d: want %q, got %q", i, name, all[i].Name)
			}
		}

		filters := []struct {
			name   string
			filter store.ListFilter
			want   int
		}{
			{"status", store.ListFilter{Status: domain.StatusActive}, 2},
			{"search is case-insensitive", store.ListFilter{Search: "fc"}, 2},
			{"no match", store.ListFilter{Search: "united"}, 0},
		}
		for _, f := range filters {
			got, err := s.List(ctx, f.filter)
			if err != nil {
				t.Fatalf("%s: %v", f.name, err)
			}
			if len(got) != f.want {
				t.Errorf("%s: want %d, got %d", f.name, f.want, len(got))
			}
		}

		page, err := s.List(ctx, store.ListFilter{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("List page: %v", err)
		}
		if len(page) != 1 || page[0].Name != "Coppell FC" {
			t.Errorf("unexpected page: %+v", page)
		}

		n, err := s.Count(ctx, store.ListFilter{Search: "fc", Limit: 1})
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if n != 2 {
			t.Errorf("count ignores paging: want 2, got %d", n)
		}
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		s := open(t)
		mustCreate(t, s, newTenant(t1, "Coppell FC", domain.StatusActive))
		if err := s.UpdateStatus(ctx, t1, domain.StatusInactive); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		got, err := s.GetByID(ctx, t1)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Status != domain.StatusInactive {
			t.Errorf("expected inactive, got %s", got.Status)
		}
	})
}
