package membership

// Priority lists every role from most to least privileged.
var Priority = []Role{
	RolePlatformAdmin,
	RoleClubAdmin,
	RoleClubDirector,
	RoleDirectorOfCoaching,
	RoleSelectCoach,
	RoleAcademyCoach,
	RoleSelectPlayer,
	RoleAcademyPlayer,
}

// AdminRoles are the roles that can be granted through the admin user flow.
var AdminRoles = []Role{RolePlatformAdmin, RoleClubAdmin}

var labels = map[Role]string{
	RolePlatformAdmin:      "Platform Administrator",
	RoleClubAdmin:          "Club Administrator",
	RoleClubDirector:       "Club Director",
	RoleDirectorOfCoaching: "Director of Coaching",
	RoleSelectCoach:        "Select Coach",
	RoleAcademyCoach:       "Academy Coach",
	RoleSelectPlayer:       "Select Player",
	RoleAcademyPlayer:      "Academy Player",
}

// DefaultLabel is shown for users without any membership.
const DefaultLabel = "Member"

// Label returns the display name for a role, falling back to the raw value.
func Label(r Role) string {
	if l, ok := labels[r]; ok {
		return l
	}
	return string(r)
}

// HighestRole returns the most privileged role held across memberships.
// PRE: none
// POST: ok is false only when memberships is empty; roles outside Priority
// are returned only when no prioritised role is present
func HighestRole(memberships []Membership) (Role, bool) {
	if len(memberships) == 0 {
		return "", false
	}
	held := make(map[Role]bool, len(memberships))
	for _, m := range memberships {
		held[m.Role] = true
	}
	for _, r := range Priority {
		if held[r] {
			return r, true
		}
	}
	return memberships[0].Role, true
}

// HighestRoleLabel returns the label of the highest role, or DefaultLabel.
func HighestRoleLabel(memberships []Membership) string {
	r, ok := HighestRole(memberships)
	if !ok {
		return DefaultLabel
	}
	return Label(r)
}

// IsPlatformAdmin reports whether any membership grants platform_admin.
// The tenant of the grant is not considered.
func IsPlatformAdmin(memberships []Membership) bool {
	for _, m := range memberships {
		if m.Role == RolePlatformAdmin {
			return true
		}
	}
	return false
}

// ForTenant returns the memberships that apply to tenantID, including global grants.
func ForTenant(memberships []Membership, tenantID string) []Membership {
	var out []Membership
	for _, m := range memberships {
		if m.TenantID == tenantID || m.IsGlobal() {
			out = append(out, m)
		}
	}
	return out
}

// IsAdminRole reports whether r may be granted through the admin user flow.
func IsAdminRole(r Role) bool {
	for _, a := range AdminRoles {
		if a == r {
			return true
		}
	}
	return false
}
