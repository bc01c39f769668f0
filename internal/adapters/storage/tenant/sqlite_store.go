package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rosteriq/internal/adapters/storage"
	domain "rosteriq/internal/domain/tenant"
)

const selectColumns = "id, name, timezone, address_text, logo_url, status, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new tenant store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a new tenant.
// PRE: t has been validated and has an ID
// POST: Tenant is persisted or storage.ErrConflict is returned
func (s *SQLiteStore) Create(ctx context.Context, t domain.Tenant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tenants (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Timezone, t.AddressText, t.LogoURL, string(t.Status), storage.FormatTime(t.CreatedAt))
	if storage.IsSQLiteUniqueViolation(err) {
		return fmt.Errorf("tenant %q: %w", t.Name, storage.ErrConflict)
	}
	return err
}

// GetByID retrieves a tenant by ID.
// PRE: id is non-empty
// POST: Returns the tenant or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM tenants WHERE id = ?", id)
	return scanOne(row.Scan)
}

// GetByName retrieves a tenant by exact name.
// PRE: name is non-empty
// POST: Returns the tenant or storage.ErrNotFound
func (s *SQLiteStore) GetByName(ctx context.Context, name string) (domain.Tenant, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM tenants WHERE name = ?", name)
	return scanOne(row.Scan)
}

// List returns tenants ordered by name.
// PRE: filter.Limit >= 0
// POST: Returns matching tenants
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Tenant, error) {
	where, args := sqliteWhere(filter)
	query := "SELECT " + selectColumns + " FROM tenants" + where + " ORDER BY name COLLATE NOCASE ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Count returns the number of tenants matching filter, ignoring Limit and Offset.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := sqliteWhere(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tenants"+where, args...).Scan(&n)
	return n, err
}

func sqliteWhere(filter ListFilter) (string, []any) {
	var b strings.Builder
	var args []any
	b.WriteString(" WHERE 1=1")
	if filter.Status != "" {
		b.WriteString(" AND status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Search != "" {
		b.WriteString(" AND name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+filter.Search+"%")
	}
	return b.String(), args
}

// UpdateStatus sets a tenant's status.
// PRE: status is valid
// POST: Status persisted or storage.ErrNotFound
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	res, err := s.db.ExecContext(ctx, "UPDATE tenants SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanOne(scan func(dest ...any) error) (domain.Tenant, error) {
	t, err := scanTenant(scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tenant{}, storage.ErrNotFound
	}
	return t, err
}

func scanTenant(scan func(dest ...any) error) (domain.Tenant, error) {
	var t domain.Tenant
	var status, createdAt string
	if err := scan(&t.ID, &t.Name, &t.Timezone, &t.AddressText, &t.LogoURL, &status, &createdAt); err != nil {
		return domain.Tenant{}, err
	}
	t.Status = domain.Status(status)
	t.CreatedAt, _ = storage.ParseTime(createdAt)
	return t, nil
}
