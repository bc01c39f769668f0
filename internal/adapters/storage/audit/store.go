package audit

import (
	"context"

	domain "rosteriq/internal/domain/audit"
)

// Store defines the interface for audit event persistence. Events are append-only.
type Store interface {
	// Save persists an audit event.
	// PRE: event has an ID
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns audit events with optional filtering.
	// PRE: limit > 0
	// POST: Returns events ordered by created_at desc
	List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Event, error)

	// GetByID returns storage.ErrNotFound when no event matches.
	GetByID(ctx context.Context, id string) (domain.Event, error)
}

// Filter defines query parameters for listing audit events. Nil fields are ignored.
type Filter struct {
	Action      *domain.Action
	EntityType  *domain.EntityType
	ActorUserID *string
	TenantID    *string
	FromDate    *string
	ToDate      *string
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
