// Package storagetest opens migrated databases for store tests: in-memory
// SQLite always, PostgreSQL when POSTGRES_CONNECTION_STRING is set.
package storagetest

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"

	"rosteriq/internal/adapters/storage"
	"rosteriq/internal/adapters/storage/postgres"
)

// PostgresEnv names the connection string that enables the postgres store tests.
const PostgresEnv = "POSTGRES_CONNECTION_STRING"

// OpenSQLite returns a migrated in-memory database closed at test cleanup.
// A single connection keeps every query on the same in-memory database.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := storage.InitDB(db); err != nil {
		t.Fatalf("init db: %v", err)
	}
	return db
}

// OpenPostgres returns a pool migrated into a fresh schema of its own, so
// packages testing in parallel never see each other's rows. The schema is
// dropped at cleanup. Skips the test when POSTGRES_CONNECTION_STRING is unset.
func OpenPostgres(t testing.TB) *pgxpool.Pool {
	t.Helper()
	connString := os.Getenv(PostgresEnv)
	if connString == "" {
		t.Skipf("%s not set", PostgresEnv)
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(admin.Close)

	schema := "rosteriq_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})

	pool, err := postgres.NewPool(ctx, &postgres.PoolConfig{
		ConnString: withSearchPath(connString, schema),
		MaxConns:   4,
	})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// withSearchPath adds a search_path runtime parameter to either
// connection string form pgx accepts.
func withSearchPath(connString, schema string) string {
	if strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://") {
		sep := "?"
		if strings.Contains(connString, "?") {
			sep = "&"
		}
		return connString + sep + "search_path=" + schema
	}
	return connString + " search_path=" + schema
}
