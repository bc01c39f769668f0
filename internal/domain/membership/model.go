package membership

import (
	"errors"
	"strings"
	"time"
)

// Role is a grant level held by a user, optionally scoped to a tenant.
type Role string

// Role constants
const (
	RolePlatformAdmin      Role = "platform_admin"
	RoleClubAdmin          Role = "club_admin"
	RoleClubDirector       Role = "club_director"
	RoleDirectorOfCoaching Role = "director_of_coaching"
	RoleSelectCoach        Role = "select_coach"
	RoleAcademyCoach       Role = "academy_coach"
	RoleSelectPlayer       Role = "select_player"
	RoleAcademyPlayer      Role = "academy_player"
)

// Domain errors
var (
	ErrEmptyUserID      = errors.New("user id cannot be empty")
	ErrInvalidRole      = errors.New("role is not recognised")
	ErrTenantRequired   = errors.New("a tenant is required for club-scoped roles")
	ErrTenantNotAllowed = errors.New("platform_admin memberships are platform-wide and cannot name a tenant")
)

// Membership grants Role to UserID. An empty TenantID is a platform-wide grant.
type Membership struct {
	ID        string
	UserID    string
	TenantID  string
	Role      Role
	CreatedAt time.Time
}

// IsGlobal reports whether the membership applies to every tenant.
// INVARIANT: Membership fields are not mutated
func (m Membership) IsGlobal() bool {
	return m.TenantID == ""
}

// Validate checks if the Membership has valid data.
// PRE: Membership struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Membership) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return ErrEmptyUserID
	}
	if !m.Role.Valid() {
		return ErrInvalidRole
	}
	if m.Role == RolePlatformAdmin && m.TenantID != "" {
		return ErrTenantNotAllowed
	}
	if m.Role != RolePlatformAdmin && m.TenantID == "" {
		return ErrTenantRequired
	}
	return nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, p := range Priority {
		if p == r {
			return true
		}
	}
	return false
}

// ParseRole converts a raw string into a Role.
// PRE: none
// POST: Returns ErrInvalidRole for unknown values
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}
