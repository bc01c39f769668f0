package membership

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rosteriq/internal/adapters/storage/postgres"
	domain "rosteriq/internal/domain/membership"
)

const pgSelect = "SELECT id::text, user_id::text, tenant_id::text, role, created_at FROM memberships"

// PostgresStore implements Store using a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a membership store sharing pool with the other stores.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Create inserts a grant; a duplicate grant maps to storage.ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, m domain.Membership) error {
	var tenantID *string
	if m.TenantID != "" {
		tenantID = &m.TenantID
	}
	_, err := s.pool.Exec(ctx,
		"INSERT INTO memberships (id, user_id, tenant_id, role, created_at) VALUES ($1, $2, $3, $4, $5)",
		m.ID, m.UserID, tenantID, string(m.Role), m.CreatedAt)
	return postgres.MapError(err)
}

// ListByUser returns every grant held by userID, oldest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	return s.query(ctx, pgSelect+" WHERE user_id = $1 ORDER BY created_at ASC", userID)
}

// ListByRoles returns grants for any of roles, newest first.
func (s *PostgresStore) ListByRoles(ctx context.Context, roles []domain.Role) ([]domain.Membership, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return s.query(ctx, pgSelect+" WHERE role = ANY($1) ORDER BY created_at DESC", names)
}

// Find returns the exact grant or storage.ErrNotFound.
func (s *PostgresStore) Find(ctx context.Context, userID, tenantID string, role domain.Role) (domain.Membership, error) {
	row := s.pool.QueryRow(ctx,
		pgSelect+" WHERE user_id = $1 AND COALESCE(tenant_id::text, '') = $2 AND role = $3",
		userID, tenantID, string(role))
	m, err := scanPgMembership(row)
	return m, postgres.MapError(err)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]domain.Membership, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		m, err := scanPgMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanPgMembership(row pgx.Row) (domain.Membership, error) {
	var m domain.Membership
	var tenantID *string
	var role string
	if err := row.Scan(&m.ID, &m.UserID, &tenantID, &role, &m.CreatedAt); err != nil {
		return domain.Membership{}, err
	}
	if tenantID != nil {
		m.TenantID = *tenantID
	}
	m.Role = domain.Role(role)
	return m, nil
}
