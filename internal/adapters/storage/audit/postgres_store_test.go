package audit_test

import (
	"testing"

	store "rosteriq/internal/adapters/storage/audit"
	"rosteriq/internal/adapters/storage/storagetest"
)

// Requires POSTGRES_CONNECTION_STRING; skipped otherwise.
func TestPostgresStore(t *testing.T) {
	testStore(t, func(t *testing.T) store.Store {
		return store.NewPostgresStore(storagetest.OpenPostgres(t))
	})
}
