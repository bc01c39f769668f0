package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rosteriq/internal/adapters/storage"
	store "rosteriq/internal/adapters/storage/audit"
	domain "rosteriq/internal/domain/audit"
)

// Actor and tenant ids are UUIDs so the same cases run against both backends.
const (
	u1      = "c3f9d6b8-6666-4d2e-a1f0-000000000001"
	u2      = "c3f9d6b8-6666-4d2e-a1f0-000000000002"
	t1      = "c3f9d6b8-7777-4d2e-a1f0-000000000001"
	missing = "c3f9d6b8-8888-4d2e-a1f0-0000000000ff"
)

func mustSave(t *testing.T, s store.Store, e domain.Event) {
	t.Helper()
	if err := s.Save(context.Background(), e); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

// testStore runs the Store contract against open, which returns an empty store.
func testStore(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		s := open(t)
		e := domain.NewEvent("", domain.ActionCreate, domain.EntityTenant, t1).
			WithMetadata(map[string]any{"name": "Coppell FC", "seeded_by": "dev_seed"})
		mustSave(t, s, e)

		got, err := s.GetByID(ctx, e.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.ActorUserID != "" {
			t.Errorf("system events keep a NULL actor, got %q", got.ActorUserID)
		}
		if got.EntityType != domain.EntityTenant || got.EntityID != t1 {
			t.Errorf("unexpected entity: %s %s", got.EntityType, got.EntityID)
		}
		if got.MetadataMap()["seeded_by"] != "dev_seed" {
			t.Errorf("metadata lost: %s", got.Metadata)
		}

		if _, err := s.GetByID(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListFiltersAndOrder", func(t *testing.T) {
		s := open(t)
		base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		events := []domain.Event{
			domain.NewEvent(u1, domain.ActionCreate, domain.EntityTenant, t1),
			domain.NewEvent(u1, domain.ActionUpdate, domain.EntityTenant, t1).WithTenant(t1),
			domain.NewEvent(u2, domain.ActionCreate, domain.EntityAdminUser, u2).WithTenant(t1),
		}
		for i := range events {
			events[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
			mustSave(t, s, events[i])
		}

		all, err := s.List(ctx, store.Filter{}, 10, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(all) != 3 || all[0].ID != events[2].ID {
			t.Fatalf("expected 3 events newest first, got %+v", all)
		}

		create := domain.ActionCreate
		actor := u1
		tenant := t1
		from := storage.FormatTime(base.Add(90 * time.Second))
		to := storage.FormatTime(base.Add(30 * time.Second))
		filters := []struct {
			name   string
			filter store.Filter
			want   int
		}{
			{"action", store.Filter{Action: &create}, 2},
			{"actor and tenant", store.Filter{ActorUserID: &actor, TenantID: &tenant}, 1},
			{"from date", store.Filter{FromDate: &from}, 1},
			{"to date", store.Filter{ToDate: &to}, 1},
		}
		for _, f := range filters {
			got, err := s.List(ctx, f.filter, 10, 0)
			if err != nil {
				t.Fatalf("%s: %v", f.name, err)
			}
			if len(got) != f.want {
				t.Errorf("%s: want %d, got %d", f.name, f.want, len(got))
			}
		}

		page, err := s.List(ctx, store.Filter{}, 1, 1)
		if err != nil {
			t.Fatalf("List page: %v", err)
		}
		if len(page) != 1 || page[0].ID != events[1].ID {
			t.Errorf("unexpected page: %+v", page)
		}
	})
}
