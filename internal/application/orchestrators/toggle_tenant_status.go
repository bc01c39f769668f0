package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rosteriq/internal/adapters/storage"
	"rosteriq/internal/domain/audit"
	"rosteriq/internal/domain/tenant"
)

// TenantStatusStore is the store surface ToggleTenantStatus needs.
type TenantStatusStore interface {
	GetByID(ctx context.Context, id string) (tenant.Tenant, error)
	UpdateStatus(ctx context.Context, id string, status tenant.Status) error
}

// ToggleTenantStatusInput identifies the tenant to flip.
type ToggleTenantStatusInput struct {
	ActorUserID string
	TenantID    string
}

// ToggleTenantStatusDeps holds dependencies for ToggleTenantStatus.
type ToggleTenantStatusDeps struct {
	Tenants TenantStatusStore
	Audit   AuditSaver
}

// ExecuteToggleTenantStatus flips a tenant between active and inactive.
// PRE: caller is an authorized platform admin
// POST: returns the new status; suspended tenants are rejected with tenant.ErrNotToggleable
// INVARIANT: applying the toggle twice restores the original status
func ExecuteToggleTenantStatus(ctx context.Context, input ToggleTenantStatusInput, deps ToggleTenantStatusDeps) (tenant.Status, error) {
	if input.TenantID == "" {
		return "", invalid(tenant.ErrNotFound)
	}
	t, err := deps.Tenants.GetByID(ctx, input.TenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", invalid(tenant.ErrNotFound)
		}
		return "", fmt.Errorf("load tenant: %w", err)
	}

	next, err := t.Status.Toggled()
	if err != nil {
		return "", invalid(err)
	}
	if err := deps.Tenants.UpdateStatus(ctx, t.ID, next); err != nil {
		return "", fmt.Errorf("update tenant status: %w", err)
	}

	ev := audit.NewEvent(input.ActorUserID, audit.ActionUpdate, audit.EntityTenant, t.ID).
		WithTenant(t.ID).
		WithMetadata(map[string]any{"from": string(t.Status), "to": string(next)})
	saveAudit(ctx, deps.Audit, ev)

	slog.Info("tenant_event", "event", "tenant_status_changed", "tenant_id", t.ID, "from", string(t.Status), "to", string(next))
	return next, nil
}
