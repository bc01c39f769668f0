package audit

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rosteriq/internal/adapters/storage/postgres"
	domain "rosteriq/internal/domain/audit"
)

const pgSelect = `SELECT id::text, actor_user_id::text, tenant_id::text, action, entity_type, entity_id, metadata::text, created_at FROM audit_events`

// PostgresStore implements the audit Store interface using a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates an audit store sharing pool with the other stores.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Save persists an audit event.
func (s *PostgresStore) Save(ctx context.Context, event domain.Event) error {
	metadata := event.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_events (id, actor_user_id, tenant_id, action, entity_type, entity_id, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8)`,
		event.ID, nullable(event.ActorUserID), nullable(event.TenantID),
		string(event.Action), string(event.EntityType), event.EntityID, metadata, event.CreatedAt)
	return postgres.MapError(err)
}

// List returns audit events with optional filtering, newest first.
func (s *PostgresStore) List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Event, error) {
	query := pgSelect + " WHERE true"
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		query += " AND " + strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(args)))
	}

	if filter.Action != nil {
		add("action = ?", string(*filter.Action))
	}
	if filter.EntityType != nil {
		add("entity_type = ?", string(*filter.EntityType))
	}
	if filter.ActorUserID != nil {
		add("actor_user_id::text = ?", *filter.ActorUserID)
	}
	if filter.TenantID != nil {
		add("tenant_id::text = ?", *filter.TenantID)
	}
	if filter.FromDate != nil {
		add("created_at >= ?::text::timestamptz", *filter.FromDate)
	}
	if filter.ToDate != nil {
		add("created_at <= ?::text::timestamptz", *filter.ToDate)
	}

	args = append(args, limit, offset)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanPgEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID retrieves a specific audit event or storage.ErrNotFound.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	e, err := scanPgEvent(s.pool.QueryRow(ctx, pgSelect+" WHERE id = $1", id))
	return e, postgres.MapError(err)
}

func scanPgEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	var actor, tenant *string
	var action, entityType string
	if err := row.Scan(&e.ID, &actor, &tenant, &action, &entityType, &e.EntityID, &e.Metadata, &e.CreatedAt); err != nil {
		return domain.Event{}, err
	}
	if actor != nil {
		e.ActorUserID = *actor
	}
	if tenant != nil {
		e.TenantID = *tenant
	}
	e.Action = domain.Action(action)
	e.EntityType = domain.EntityType(entityType)
	return e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
