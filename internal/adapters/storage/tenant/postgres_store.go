package tenant

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rosteriq/internal/adapters/storage"
	"rosteriq/internal/adapters/storage/postgres"
	domain "rosteriq/internal/domain/tenant"
)

const pgSelectColumns = "id::text, name, timezone, address_text, logo_url, status, created_at"

// PostgresStore implements Store using a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a tenant store sharing pool with the other stores.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a new tenant.
func (s *PostgresStore) Create(ctx context.Context, t domain.Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, timezone, address_text, logo_url, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.Timezone, t.AddressText, t.LogoURL, string(t.Status), t.CreatedAt)
	return postgres.MapError(err)
}

// GetByID retrieves a tenant by ID.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+pgSelectColumns+" FROM tenants WHERE id = $1", id)
	t, err := scanPgTenant(row)
	return t, postgres.MapError(err)
}

// GetByName retrieves a tenant by exact name.
func (s *PostgresStore) GetByName(ctx context.Context, name string) (domain.Tenant, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+pgSelectColumns+" FROM tenants WHERE name = $1", name)
	t, err := scanPgTenant(row)
	return t, postgres.MapError(err)
}

// List returns tenants ordered by name.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]domain.Tenant, error) {
	where, args := pgWhere(filter)
	query := "SELECT " + pgSelectColumns + " FROM tenants" + where + " ORDER BY lower(name) ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		t, err := scanPgTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Count returns the number of tenants matching filter.
func (s *PostgresStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := pgWhere(filter)
	var n int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tenants"+where, args...).Scan(&n)
	return n, postgres.MapError(err)
}

func pgWhere(filter ListFilter) (string, []any) {
	var b strings.Builder
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	b.WriteString(" WHERE true")
	if filter.Status != "" {
		b.WriteString(" AND status = " + arg(string(filter.Status)))
	}
	if filter.Search != "" {
		b.WriteString(" AND name ILIKE " + arg("%"+filter.Search+"%"))
	}
	return b.String(), args
}

// UpdateStatus sets a tenant's status.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	tag, err := s.pool.Exec(ctx, "UPDATE tenants SET status = $1 WHERE id = $2", string(status), id)
	if err != nil {
		return postgres.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanPgTenant(row pgx.Row) (domain.Tenant, error) {
	var t domain.Tenant
	var status string
	if err := row.Scan(&t.ID, &t.Name, &t.Timezone, &t.AddressText, &t.LogoURL, &status, &t.CreatedAt); err != nil {
		return domain.Tenant{}, err
	}
	t.Status = domain.Status(status)
	return t, nil
}
