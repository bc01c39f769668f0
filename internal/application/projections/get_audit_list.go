package projections

import (
	"context"
	"fmt"
	"time"

	"rosteriq/internal/adapters/storage/audit"
	"rosteriq/internal/application/listutil"
	domainAudit "rosteriq/internal/domain/audit"
)

// AuditListFilterKeys are the query parameters the audit trail accepts.
var AuditListFilterKeys = []string{"action", "entity_type", "tenant_id"}

// AuditRow is an audit event with its actor resolved to a display name.
type AuditRow struct {
	ID         string
	Actor      string
	Action     domainAudit.Action
	EntityType domainAudit.EntityType
	EntityID   string
	TenantID   string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// GetAuditListResult is the /platform/audit view model. The trail has no
// total count; HasNext is derived by reading one extra row.
type GetAuditListResult struct {
	Events  []AuditRow
	Params  listutil.Params
	HasNext bool
}

// GetAuditListDeps holds dependencies for GetAuditList.
type GetAuditListDeps struct {
	Audit    AuditStore
	Profiles ProfileStore
}

const systemActor = "System"

// QueryGetAuditList returns one page of the audit trail, newest first.
// PRE: params came from listutil.Parse with AuditListFilterKeys
// POST: events without an actor show "System"
func QueryGetAuditList(ctx context.Context, params listutil.Params, deps GetAuditListDeps) (GetAuditListResult, error) {
	var filter audit.Filter
	if v := params.Filter("action"); v != "" {
		a := domainAudit.Action(v)
		filter.Action = &a
	}
	if v := params.Filter("entity_type"); v != "" {
		e := domainAudit.EntityType(v)
		filter.EntityType = &e
	}
	if v := params.Filter("tenant_id"); v != "" {
		filter.TenantID = &v
	}

	perPage := max(params.PerPage, 1)
	offset := (max(params.Page, 1) - 1) * perPage
	events, err := deps.Audit.List(ctx, filter, perPage+1, offset)
	if err != nil {
		return GetAuditListResult{}, fmt.Errorf("list audit events: %w", err)
	}
	hasNext := len(events) > perPage
	if hasNext {
		events = events[:perPage]
	}

	var actorIDs []string
	for _, e := range events {
		if !e.IsSystem() {
			actorIDs = append(actorIDs, e.ActorUserID)
		}
	}
	profiles, err := deps.Profiles.ListByUserIDs(ctx, actorIDs)
	if err != nil {
		return GetAuditListResult{}, fmt.Errorf("load actor profiles: %w", err)
	}

	rows := make([]AuditRow, 0, len(events))
	for _, e := range events {
		actor := systemActor
		if !e.IsSystem() {
			actor = profiles[e.ActorUserID].DisplayName(e.ActorUserID)
		}
		rows = append(rows, AuditRow{
			ID:         e.ID,
			Actor:      actor,
			Action:     e.Action,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			TenantID:   e.TenantID,
			Metadata:   e.MetadataMap(),
			CreatedAt:  e.CreatedAt,
		})
	}
	return GetAuditListResult{Events: rows, Params: params, HasNext: hasNext}, nil
}
