package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"rosteriq/internal/adapters/storage"
	"rosteriq/internal/domain/audit"
	"rosteriq/internal/domain/tenant"
)

// TenantCreator is the store surface CreateTenant needs.
type TenantCreator interface {
	Create(ctx context.Context, t tenant.Tenant) error
}

// AuditSaver appends audit events.
type AuditSaver interface {
	Save(ctx context.Context, e audit.Event) error
}

// CreateTenantInput carries the create form.
type CreateTenantInput struct {
	ActorUserID string
	Name        string
	Timezone    string
	AddressText string
	LogoURL     string
}

// CreateTenantDeps holds dependencies for CreateTenant.
type CreateTenantDeps struct {
	Tenants TenantCreator
	Audit   AuditSaver
	Now     func() time.Time
}

// ErrTenantNameTaken is returned when another tenant already uses the name.
var ErrTenantNameTaken = errors.New("a tenant with this name already exists")

// ExecuteCreateTenant validates and inserts an active tenant, then records an audit event.
// PRE: caller is an authorized platform admin
// POST: tenant persisted with status active; audit failure is logged, not returned
// INVARIANT: tenant names are unique
func ExecuteCreateTenant(ctx context.Context, input CreateTenantInput, deps CreateTenantDeps) (tenant.Tenant, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	tz := strings.TrimSpace(input.Timezone)
	if tz == "" {
		tz = tenant.DefaultTimezone
	}

	t := tenant.Tenant{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		Timezone:    tz,
		AddressText: strings.TrimSpace(input.AddressText),
		LogoURL:     strings.TrimSpace(input.LogoURL),
		Status:      tenant.StatusActive,
		CreatedAt:   now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return tenant.Tenant{}, invalid(err)
	}

	if err := deps.Tenants.Create(ctx, t); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return tenant.Tenant{}, invalid(ErrTenantNameTaken)
		}
		return tenant.Tenant{}, fmt.Errorf("create tenant: %w", err)
	}

	ev := audit.NewEvent(input.ActorUserID, audit.ActionCreate, audit.EntityTenant, t.ID).
		WithTenant(t.ID).
		WithMetadata(map[string]any{"name": t.Name, "timezone": t.Timezone})
	saveAudit(ctx, deps.Audit, ev)

	slog.Info("tenant_event", "event", "tenant_created", "tenant_id", t.ID, "actor_user_id", input.ActorUserID)
	return t, nil
}

// saveAudit writes ev best effort; the audited operation has already succeeded.
func saveAudit(ctx context.Context, store AuditSaver, ev audit.Event) {
	if store == nil {
		return
	}
	if err := store.Save(ctx, ev); err != nil {
		slog.Error("audit_write_failed", "action", string(ev.Action), "entity_type", string(ev.EntityType), "entity_id", ev.EntityID, "error", err.Error())
	}
}
