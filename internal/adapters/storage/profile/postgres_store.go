package profile

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rosteriq/internal/adapters/storage/postgres"
	domain "rosteriq/internal/domain/profile"
)

const pgSelect = "SELECT user_id::text, first_name, last_name, avatar_url, last_login_at, created_at FROM profiles"

// PostgresStore implements Store using a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a profile store sharing pool with the other stores.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Upsert writes names and avatar for a user.
func (s *PostgresStore) Upsert(ctx context.Context, p domain.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, first_name, last_name, avatar_url)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			avatar_url = EXCLUDED.avatar_url`,
		p.UserID, p.FirstName, p.LastName, p.AvatarURL)
	return postgres.MapError(err)
}

// GetByUserID retrieves a profile or storage.ErrNotFound.
func (s *PostgresStore) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	p, err := scanPgProfile(s.pool.QueryRow(ctx, pgSelect+" WHERE user_id = $1", userID))
	return p, postgres.MapError(err)
}

// ListByUserIDs returns the profiles that exist for userIDs, keyed by user id.
func (s *PostgresStore) ListByUserIDs(ctx context.Context, userIDs []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, pgSelect+" WHERE user_id::text = ANY($1)", userIDs)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPgProfile(rows)
		if err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, rows.Err()
}

// TouchLastLogin records a sign-in time, creating a bare profile when missing.
func (s *PostgresStore) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, last_login_at) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET last_login_at = EXCLUDED.last_login_at`,
		userID, at)
	return postgres.MapError(err)
}

func scanPgProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(&p.UserID, &p.FirstName, &p.LastName, &p.AvatarURL, &p.LastLoginAt, &p.CreatedAt); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}
