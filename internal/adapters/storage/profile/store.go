package profile

import (
	"context"
	"time"

	domain "rosteriq/internal/domain/profile"
)

// Store persists Profile state keyed by identity-provider user id.
type Store interface {
	// Upsert writes names and avatar, creating the profile if missing.
	// LastLoginAt and CreatedAt of an existing row are preserved.
	Upsert(ctx context.Context, p domain.Profile) error
	// GetByUserID returns storage.ErrNotFound when no profile exists.
	GetByUserID(ctx context.Context, userID string) (domain.Profile, error)
	ListByUserIDs(ctx context.Context, userIDs []string) (map[string]domain.Profile, error)
	// TouchLastLogin records a sign-in, creating an empty profile if missing.
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
