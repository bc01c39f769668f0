package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action represents the action that occurred.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionGrant  Action = "grant"
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
)

// EntityType names the kind of record an event refers to.
type EntityType string

const (
	EntityTenant     EntityType = "tenant"
	EntityAdminUser  EntityType = "admin_user"
	EntityMembership EntityType = "membership"
	EntitySession    EntityType = "session"
)

// Event represents a single audit log entry. Events are append-only.
type Event struct {
	ID          string     `json:"id"`
	ActorUserID string     `json:"actor_user_id"`
	TenantID    string     `json:"tenant_id"`
	Action      Action     `json:"action"`
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Metadata    string     `json:"metadata"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewEvent creates a new audit event with the current timestamp.
// PRE: action and entityType are non-empty; actorUserID may be empty for system actions
// POST: Returns an Event with a fresh ID and metadata "{}"
func NewEvent(actorUserID string, action Action, entityType EntityType, entityID string) Event {
	return Event{
		ID:          uuid.NewString(),
		ActorUserID: actorUserID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Metadata:    "{}",
		CreatedAt:   time.Now().UTC(),
	}
}

// WithTenant scopes the event to a tenant.
// PRE: none
// POST: Event tenant is set; empty means platform-wide
func (e Event) WithTenant(tenantID string) Event {
	e.TenantID = tenantID
	return e
}

// WithMetadata encodes fields as the event's JSON metadata.
// PRE: fields values are JSON-encodable
// POST: Event metadata is set; on encoding failure the previous metadata is kept
func (e Event) WithMetadata(fields map[string]any) Event {
	if len(fields) == 0 {
		return e
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return e
	}
	e.Metadata = string(b)
	return e
}

// MetadataMap decodes the JSON metadata. Invalid metadata yields an empty map.
func (e Event) MetadataMap() map[string]any {
	out := map[string]any{}
	if e.Metadata == "" {
		return out
	}
	_ = json.Unmarshal([]byte(e.Metadata), &out)
	return out
}

// IsSystem reports whether the event was recorded without a signed-in actor.
func (e Event) IsSystem() bool {
	return e.ActorUserID == ""
}
