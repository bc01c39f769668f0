package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rosteriq/internal/adapters/identity"
	"rosteriq/internal/adapters/storage"
	"rosteriq/internal/domain/audit"
	"rosteriq/internal/domain/membership"
	"rosteriq/internal/domain/tenant"
)

// Seed fixtures.
const (
	SeedTenantName     = "Coppell FC"
	SeedTenantTimezone = "America/Chicago"
	seededBy           = "dev_seed"
)

// Seed step outcomes.
const (
	SeedCreated       = "created"
	SeedAlreadyExists = "already_exists"
	SeedSkipped       = "skipped"
)

// SeedStep reports what one seed step did.
type SeedStep struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// SeedResult is the response body of the dev seed endpoint.
type SeedResult struct {
	Tenant     SeedStep  `json:"tenant"`
	Membership *SeedStep `json:"membership,omitempty"`
}

// SeedTenantStore is the tenant surface SeedDev needs.
type SeedTenantStore interface {
	GetByName(ctx context.Context, name string) (tenant.Tenant, error)
	Create(ctx context.Context, t tenant.Tenant) error
}

// SeedMembershipStore is the membership surface SeedDev needs.
type SeedMembershipStore interface {
	Find(ctx context.Context, userID, tenantID string, role membership.Role) (membership.Membership, error)
	Create(ctx context.Context, m membership.Membership) error
}

// UserFinder looks up provider accounts by email.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (identity.User, error)
}

// SeedDevInput names the account to promote. An empty AdminEmail skips the grant.
type SeedDevInput struct {
	AdminEmail string
}

// SeedDevDeps holds dependencies for SeedDev.
type SeedDevDeps struct {
	Tenants     SeedTenantStore
	Memberships SeedMembershipStore
	Users       UserFinder
	Audit       AuditSaver
	Now         func() time.Time
}

// ExecuteSeedDev creates the demo tenant and a platform_admin grant for the
// configured admin account.
// PRE: caller passed the production and harness-secret checks
// POST: running it again reports already_exists and writes nothing
func ExecuteSeedDev(ctx context.Context, input SeedDevInput, deps SeedDevDeps) (SeedResult, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	var result SeedResult
	t, err := deps.Tenants.GetByName(ctx, SeedTenantName)
	switch {
	case err == nil:
		result.Tenant = SeedStep{Status: SeedAlreadyExists, ID: t.ID}
	case errors.Is(err, storage.ErrNotFound):
		t = tenant.Tenant{
			ID:        uuid.NewString(),
			Name:      SeedTenantName,
			Timezone:  SeedTenantTimezone,
			Status:    tenant.StatusActive,
			CreatedAt: now().UTC(),
		}
		if err := deps.Tenants.Create(ctx, t); err != nil {
			return result, fmt.Errorf("seed tenant: %w", err)
		}
		result.Tenant = SeedStep{Status: SeedCreated, ID: t.ID}
		saveAudit(ctx, deps.Audit, audit.NewEvent("", audit.ActionCreate, audit.EntityTenant, t.ID).
			WithTenant(t.ID).
			WithMetadata(map[string]any{"name": t.Name, "seeded_by": seededBy}))
	default:
		return result, fmt.Errorf("seed tenant: %w", err)
	}

	if input.AdminEmail == "" || deps.Users == nil {
		return result, nil
	}

	user, err := deps.Users.FindUserByEmail(ctx, input.AdminEmail)
	if errors.Is(err, identity.ErrUserNotFound) {
		result.Membership = &SeedStep{
			Status: SeedSkipped,
			Reason: fmt.Sprintf("User %s not found, sign up first", input.AdminEmail),
		}
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("seed admin lookup: %w", err)
	}

	existing, err := deps.Memberships.Find(ctx, user.ID, "", membership.RolePlatformAdmin)
	switch {
	case err == nil:
		result.Membership = &SeedStep{Status: SeedAlreadyExists, ID: existing.ID}
		return result, nil
	case !errors.Is(err, storage.ErrNotFound):
		return result, fmt.Errorf("seed admin grant: %w", err)
	}

	grant := membership.Membership{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Role:      membership.RolePlatformAdmin,
		CreatedAt: now().UTC(),
	}
	if err := deps.Memberships.Create(ctx, grant); err != nil {
		return result, fmt.Errorf("seed admin grant: %w", err)
	}
	result.Membership = &SeedStep{Status: SeedCreated, ID: grant.ID}
	saveAudit(ctx, deps.Audit, audit.NewEvent(user.ID, audit.ActionCreate, audit.EntityMembership, grant.ID).
		WithMetadata(map[string]any{"user_email": input.AdminEmail, "role": string(grant.Role), "seeded_by": seededBy}))

	slog.Info("tenant_event", "event", "dev_seed", "tenant", result.Tenant.Status, "membership", result.Membership.Status)
	return result, nil
}
