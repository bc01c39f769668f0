package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rosteriq/internal/adapters/storage"
	domain "rosteriq/internal/domain/membership"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new membership store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a grant.
// PRE: m has been validated and has an ID
// POST: Grant persisted, or storage.ErrConflict for a duplicate grant
func (s *SQLiteStore) Create(ctx context.Context, m domain.Membership) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO memberships (id, user_id, tenant_id, role, created_at) VALUES (?, ?, ?, ?, ?)",
		m.ID, m.UserID, storage.NullString(m.TenantID), string(m.Role), storage.FormatTime(m.CreatedAt))
	if storage.IsSQLiteUniqueViolation(err) {
		return fmt.Errorf("membership %s/%s: %w", m.UserID, m.Role, storage.ErrConflict)
	}
	return err
}

// ListByUser returns every grant held by userID, oldest first.
// PRE: userID is non-empty
// POST: Returns grants or an empty slice
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]domain.Membership, error) {
	return s.query(ctx,
		"SELECT id, user_id, tenant_id, role, created_at FROM memberships WHERE user_id = ? ORDER BY created_at ASC",
		userID)
}

// ListByRoles returns grants for any of roles, newest first.
// PRE: roles is non-empty
// POST: Returns grants or an empty slice
func (s *SQLiteStore) ListByRoles(ctx context.Context, roles []domain.Role) ([]domain.Membership, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(roles)), ", ")
	args := make([]any, len(roles))
	for i, r := range roles {
		args[i] = string(r)
	}
	return s.query(ctx,
		"SELECT id, user_id, tenant_id, role, created_at FROM memberships WHERE role IN ("+placeholders+") ORDER BY created_at DESC",
		args...)
}

// Find returns the exact grant or storage.ErrNotFound.
func (s *SQLiteStore) Find(ctx context.Context, userID, tenantID string, role domain.Role) (domain.Membership, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, tenant_id, role, created_at FROM memberships
		 WHERE user_id = ? AND IFNULL(tenant_id, '') = ? AND role = ?`,
		userID, tenantID, string(role))
	m, err := scanMembership(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Membership{}, storage.ErrNotFound
	}
	return m, err
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Membership, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMembership(scan func(dest ...any) error) (domain.Membership, error) {
	var m domain.Membership
	var tenantID sql.NullString
	var role, createdAt string
	if err := scan(&m.ID, &m.UserID, &tenantID, &role, &createdAt); err != nil {
		return domain.Membership{}, err
	}
	m.TenantID = tenantID.String
	m.Role = domain.Role(role)
	m.CreatedAt, _ = storage.ParseTime(createdAt)
	return m, nil
}
