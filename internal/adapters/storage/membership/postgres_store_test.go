package membership_test

import (
	"testing"

	store "rosteriq/internal/adapters/storage/membership"
	"rosteriq/internal/adapters/storage/storagetest"
	tenantstore "rosteriq/internal/adapters/storage/tenant"
)

// Exercises the COALESCE(tenant_id, ...) unique index; requires
// POSTGRES_CONNECTION_STRING and is skipped otherwise.
func TestPostgresStore(t *testing.T) {
	testStore(t, func(t *testing.T) (store.Store, tenantstore.Store) {
		pool := storagetest.OpenPostgres(t)
		return store.NewPostgresStore(pool), tenantstore.NewPostgresStore(pool)
	})
}
