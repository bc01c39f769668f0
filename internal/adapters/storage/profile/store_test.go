package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rosteriq/internal/adapters/storage"
	store "rosteriq/internal/adapters/storage/profile"
	domain "rosteriq/internal/domain/profile"
)

// User ids are UUIDs so the same cases run against both backends.
const (
	u1      = "a7e41f02-5555-4c1b-b2d3-000000000001"
	u2      = "a7e41f02-5555-4c1b-b2d3-000000000002"
	u3      = "a7e41f02-5555-4c1b-b2d3-000000000003"
	missing = "a7e41f02-5555-4c1b-b2d3-0000000000ff"
)

func mustUpsert(t *testing.T, s store.Store, p domain.Profile) {
	t.Helper()
	if err := s.Upsert(context.Background(), p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func mustTouch(t *testing.T, s store.Store, userID string, at time.Time) {
	t.Helper()
	if err := s.TouchLastLogin(context.Background(), userID, at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
}

func mustGet(t *testing.T, s store.Store, userID string) domain.Profile {
	t.Helper()
	p, err := s.GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	return p
}

// testStore runs the Store contract against open, which returns an empty store.
func testStore(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("UpsertPreservesLastLogin", func(t *testing.T) {
		s := open(t)
		login := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		mustTouch(t, s, u1, login)
		mustUpsert(t, s, domain.Profile{UserID: u1, FirstName: "Dana", LastName: "Reyes"})

		got := mustGet(t, s, u1)
		if got.FirstName != "Dana" || got.LastName != "Reyes" {
			t.Errorf("unexpected names: %+v", got)
		}
		if got.LastLoginAt == nil || !login.Equal(*got.LastLoginAt) {
			t.Errorf("last login not preserved: %v", got.LastLoginAt)
		}
	})

	t.Run("TouchLastLoginKeepsNames", func(t *testing.T) {
		s := open(t)
		mustUpsert(t, s, domain.Profile{UserID: u1, FirstName: "Dana"})
		if got := mustGet(t, s, u1); got.LastLoginAt != nil {
			t.Errorf("expected no last login yet, got %v", got.LastLoginAt)
		}

		// whole seconds survive both backends' timestamp precision
		at := time.Date(2026, 5, 2, 8, 30, 0, 0, time.UTC)
		mustTouch(t, s, u1, at)

		got := mustGet(t, s, u1)
		if got.FirstName != "Dana" {
			t.Errorf("first name lost: %+v", got)
		}
		if got.LastLoginAt == nil || !at.Equal(*got.LastLoginAt) {
			t.Errorf("expected last login %v, got %v", at, got.LastLoginAt)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := open(t)
		if _, err := s.GetByUserID(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListByUserIDs", func(t *testing.T) {
		s := open(t)
		mustUpsert(t, s, domain.Profile{UserID: u1, FirstName: "Dana"})
		mustUpsert(t, s, domain.Profile{UserID: u2, FirstName: "Sam"})

		got, err := s.ListByUserIDs(ctx, []string{u1, u2, u3})
		if err != nil {
			t.Fatalf("ListByUserIDs: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 profiles, got %d", len(got))
		}
		if got[u2].FirstName != "Sam" {
			t.Errorf("expected Sam, got %+v", got[u2])
		}
		if _, ok := got[u3]; ok {
			t.Error("a user without a profile must be absent")
		}

		empty, err := s.ListByUserIDs(ctx, nil)
		if err != nil {
			t.Fatalf("ListByUserIDs(nil): %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected an empty map, got %+v", empty)
		}
	})
}
