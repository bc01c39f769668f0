package profile

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"rosteriq/internal/adapters/storage"
	domain "rosteriq/internal/domain/profile"
)

const selectColumns = "user_id, first_name, last_name, avatar_url, last_login_at, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new profile store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Upsert writes names and avatar for a user.
// PRE: p.UserID is non-empty
// POST: Profile exists with the given names; last_login_at is untouched
func (s *SQLiteStore) Upsert(ctx context.Context, p domain.Profile) error {
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, first_name, last_name, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			first_name=excluded.first_name,
			last_name=excluded.last_name,
			avatar_url=excluded.avatar_url`,
		p.UserID, p.FirstName, p.LastName, p.AvatarURL, storage.FormatTime(createdAt))
	return err
}

// GetByUserID retrieves a profile.
// PRE: userID is non-empty
// POST: Returns the profile or storage.ErrNotFound
func (s *SQLiteStore) GetByUserID(ctx context.Context, userID string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM profiles WHERE user_id = ?", userID)
	p, err := scanProfile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, storage.ErrNotFound
	}
	return p, err
}

// ListByUserIDs returns the profiles that exist for userIDs, keyed by user id.
// PRE: none
// POST: Missing users are absent from the map
func (s *SQLiteStore) ListByUserIDs(ctx context.Context, userIDs []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(userIDs)), ", ")
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM profiles WHERE user_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, rows.Err()
}

// TouchLastLogin records a sign-in time.
// PRE: userID is non-empty
// POST: profiles.last_login_at = at; a bare profile is created when missing
func (s *SQLiteStore) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	ts := storage.FormatTime(at)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, last_login_at, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET last_login_at=excluded.last_login_at`,
		userID, ts, ts)
	return err
}

func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var p domain.Profile
	var lastLogin sql.NullString
	var createdAt string
	if err := scan(&p.UserID, &p.FirstName, &p.LastName, &p.AvatarURL, &lastLogin, &createdAt); err != nil {
		return domain.Profile{}, err
	}
	if lastLogin.Valid && lastLogin.String != "" {
		if t, err := storage.ParseTime(lastLogin.String); err == nil {
			p.LastLoginAt = &t
		}
	}
	p.CreatedAt, _ = storage.ParseTime(createdAt)
	return p, nil
}
