package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"rosteriq/internal/adapters/email"
	"rosteriq/internal/adapters/identity"
	"rosteriq/internal/adapters/storage"
	"rosteriq/internal/domain/audit"
	"rosteriq/internal/domain/membership"
	"rosteriq/internal/domain/profile"
	"rosteriq/internal/domain/tenant"
)

// AdminUserCreator creates confirmed accounts at the identity provider.
type AdminUserCreator interface {
	CreateUser(ctx context.Context, p identity.CreateUserParams) (identity.User, error)
}

// ProfileUpserter writes profile names.
type ProfileUpserter interface {
	Upsert(ctx context.Context, p profile.Profile) error
}

// MembershipCreator inserts grants.
type MembershipCreator interface {
	Create(ctx context.Context, m membership.Membership) error
}

// TenantGetter loads a tenant by id.
type TenantGetter interface {
	GetByID(ctx context.Context, id string) (tenant.Tenant, error)
}

// CreateAdminUserInput mirrors the admin-users request body.
type CreateAdminUserInput struct {
	ActorUserID string
	Email       string
	FirstName   string
	LastName    string
	Role        string
	// TenantID is "" for a platform-wide grant.
	TenantID string
}

// CreateAdminUserDeps holds dependencies for CreateAdminUser.
type CreateAdminUserDeps struct {
	Users       AdminUserCreator
	Profiles    ProfileUpserter
	Memberships MembershipCreator
	Tenants     TenantGetter
	Audit       AuditSaver
	// Mailer is optional; invitation failures never fail the operation.
	Mailer   email.Sender
	LoginURL string
	Now      func() time.Time
}

// CreateAdminUserResult identifies the created account.
type CreateAdminUserResult struct {
	UserID       string
	MembershipID string
}

var (
	ErrEmailRequired = errors.New("email and role are required")
	ErrInvalidEmail  = errors.New("email address is not valid")
	ErrNotAdminRole  = errors.New("only platform_admin and club_admin can be created here")
	ErrUnknownTenant = errors.New("tenant does not exist")
)

// Stages reported in ProvisioningError.
const (
	StageCreateUser       = "create_user"
	StageCreateMembership = "create_membership"
)

// ExecuteCreateAdminUser provisions an admin account: provider user, profile,
// membership grant, audit event and invitation email, in that order.
// PRE: caller is an authorized platform admin
// POST: on success the user exists with exactly one new membership;
// validation failures return *ValidationError before any provider call;
// provider and membership failures return *ProvisioningError
// INVARIANT: club_admin requires a tenant, platform_admin forbids one
func ExecuteCreateAdminUser(ctx context.Context, input CreateAdminUserInput, deps CreateAdminUserDeps) (CreateAdminUserResult, error) {
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}

	emailAddr := strings.TrimSpace(input.Email)
	roleName := strings.TrimSpace(input.Role)
	if emailAddr == "" || roleName == "" {
		return CreateAdminUserResult{}, invalid(ErrEmailRequired)
	}
	if addr, err := mail.ParseAddress(emailAddr); err != nil || addr.Address != emailAddr {
		return CreateAdminUserResult{}, invalid(ErrInvalidEmail)
	}
	role, err := membership.ParseRole(roleName)
	if err != nil {
		return CreateAdminUserResult{}, invalid(err)
	}
	if !membership.IsAdminRole(role) {
		return CreateAdminUserResult{}, invalid(ErrNotAdminRole)
	}

	grant := membership.Membership{
		ID:        uuid.NewString(),
		TenantID:  strings.TrimSpace(input.TenantID),
		Role:      role,
		CreatedAt: now().UTC(),
	}
	switch {
	case role == membership.RolePlatformAdmin && grant.TenantID != "":
		return CreateAdminUserResult{}, invalid(membership.ErrTenantNotAllowed)
	case role != membership.RolePlatformAdmin && grant.TenantID == "":
		return CreateAdminUserResult{}, invalid(membership.ErrTenantRequired)
	}

	var tenantName string
	if grant.TenantID != "" && deps.Tenants != nil {
		t, err := deps.Tenants.GetByID(ctx, grant.TenantID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return CreateAdminUserResult{}, invalid(ErrUnknownTenant)
			}
			return CreateAdminUserResult{}, fmt.Errorf("load tenant: %w", err)
		}
		tenantName = t.Name
	}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	user, err := deps.Users.CreateUser(ctx, identity.CreateUserParams{
		Email:        emailAddr,
		EmailConfirm: true,
		UserMetadata: map[string]any{"first_name": firstName, "last_name": lastName},
	})
	if err != nil {
		slog.Warn("auth_event", "event", "admin_user_create_failed", "stage", StageCreateUser, "error", err.Error())
		return CreateAdminUserResult{}, &ProvisioningError{Stage: StageCreateUser, Err: err}
	}

	// The account exists from here on; a profile failure only loses the names.
	if err := deps.Profiles.Upsert(ctx, profile.Profile{
		UserID:    user.ID,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now().UTC(),
	}); err != nil {
		slog.Error("profile_write_failed", "user_id", user.ID, "error", err.Error())
	}

	grant.UserID = user.ID
	if err := deps.Memberships.Create(ctx, grant); err != nil {
		slog.Error("auth_event", "event", "admin_user_create_failed", "stage", StageCreateMembership, "user_id", user.ID, "error", err.Error())
		return CreateAdminUserResult{UserID: user.ID}, &ProvisioningError{Stage: StageCreateMembership, Err: err}
	}

	ev := audit.NewEvent(input.ActorUserID, audit.ActionCreate, audit.EntityAdminUser, user.ID).
		WithTenant(grant.TenantID).
		WithMetadata(map[string]any{"email": emailAddr, "role": string(role), "tenant_id": nullable(grant.TenantID)})
	saveAudit(ctx, deps.Audit, ev)

	sendInvitation(ctx, deps, email.Invitation{
		To:         emailAddr,
		FirstName:  firstName,
		RoleLabel:  membership.Label(role),
		TenantName: tenantName,
		LoginURL:   deps.LoginURL,
	})

	slog.Info("auth_event", "event", "admin_user_created", "user_id", user.ID, "role", string(role), "actor_user_id", input.ActorUserID)
	return CreateAdminUserResult{UserID: user.ID, MembershipID: grant.ID}, nil
}

func sendInvitation(ctx context.Context, deps CreateAdminUserDeps, inv email.Invitation) {
	if deps.Mailer == nil || deps.LoginURL == "" {
		return
	}
	req, err := email.BuildInvitation(inv)
	if err != nil {
		slog.Error("invitation_failed", "error", err.Error())
		return
	}
	if _, err := deps.Mailer.Send(ctx, req); err != nil {
		slog.Error("invitation_failed", "error", err.Error())
	}
}

// nullable maps "" to nil so audit metadata records JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
