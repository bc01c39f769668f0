package audit

import (
	"context"
	"database/sql"
	"errors"

	"rosteriq/internal/adapters/storage"
	domain "rosteriq/internal/domain/audit"
)

const selectColumns = "id, actor_user_id, tenant_id, action, entity_type, entity_id, metadata, created_at"

// SQLiteStore implements the audit Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
// PRE: event has an ID
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	metadata := event.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, storage.NullString(event.ActorUserID), storage.NullString(event.TenantID),
		string(event.Action), string(event.EntityType), event.EntityID, metadata,
		storage.FormatTime(event.CreatedAt))
	return err
}

// List returns audit events with optional filtering.
// PRE: limit > 0, offset >= 0
// POST: Returns events ordered by created_at desc
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Event, error) {
	query := "SELECT " + selectColumns + " FROM audit_events WHERE 1=1"
	args := []any{}

	if filter.Action != nil {
		query += " AND action = ?"
		args = append(args, string(*filter.Action))
	}
	if filter.EntityType != nil {
		query += " AND entity_type = ?"
		args = append(args, string(*filter.EntityType))
	}
	if filter.ActorUserID != nil {
		query += " AND actor_user_id = ?"
		args = append(args, *filter.ActorUserID)
	}
	if filter.TenantID != nil {
		query += " AND tenant_id = ?"
		args = append(args, *filter.TenantID)
	}
	if filter.FromDate != nil {
		query += " AND created_at >= ?"
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		query += " AND created_at <= ?"
		args = append(args, *filter.ToDate)
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID retrieves a specific audit event.
// PRE: id is non-empty
// POST: Returns the event or storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM audit_events WHERE id = ?", id)
	e, err := scanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, storage.ErrNotFound
	}
	return e, err
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var actor, tenant sql.NullString
	var action, entityType, createdAt string
	if err := scan(&e.ID, &actor, &tenant, &action, &entityType, &e.EntityID, &e.Metadata, &createdAt); err != nil {
		return domain.Event{}, err
	}
	e.ActorUserID = actor.String
	e.TenantID = tenant.String
	e.Action = domain.Action(action)
	e.EntityType = domain.EntityType(entityType)
	e.CreatedAt, _ = storage.ParseTime(createdAt)
	return e, nil
}
