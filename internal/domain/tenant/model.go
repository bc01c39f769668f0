package tenant

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Status is the lifecycle state of a tenant.
type Status string

// Status constants
const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

// Timezones offered when creating a tenant.
var Timezones = []string{
	"America/Chicago",
	"America/New_York",
	"America/Denver",
	"America/Los_Angeles",
	"America/Phoenix",
	"America/Anchorage",
	"Pacific/Honolulu",
	"Europe/London",
	"Europe/Paris",
	"Asia/Tokyo",
}

// DefaultTimezone is preselected on the create form.
const DefaultTimezone = "America/Chicago"

// Domain errors
var (
	ErrEmptyName       = errors.New("tenant name cannot be empty")
	ErrNameTooLong     = errors.New("tenant name cannot exceed 120 characters")
	ErrInvalidTimezone = errors.New("timezone is not supported")
	ErrInvalidStatus   = errors.New("tenant status is not recognised")
	ErrInvalidLogoURL  = errors.New("logo url must be an absolute http(s) url")
	ErrNotToggleable   = errors.New("suspended tenants cannot be toggled")
	ErrNotFound        = errors.New("tenant not found")
)

// MaxNameLength bounds tenant names.
const MaxNameLength = 120

// Tenant is a club. Tenants are never hard-deleted; Status carries the lifecycle.
type Tenant struct {
	ID          string
	Name        string
	Timezone    string
	AddressText string
	LogoURL     string
	Status      Status
	CreatedAt   time.Time
}

// Validate checks if the Tenant has valid data.
// PRE: Tenant struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Tenant) Validate() error {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !ValidTimezone(t.Timezone) {
		return ErrInvalidTimezone
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if t.LogoURL != "" {
		u, err := url.Parse(t.LogoURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidLogoURL
		}
	}
	return nil
}

// IsActive reports whether the tenant is currently active.
func (t Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Toggled returns the status a toggle moves s to.
// PRE: none
// POST: active maps to inactive and inactive to active; anything else is ErrNotToggleable
// INVARIANT: Toggled(Toggled(s)) == s for every toggleable s
func (s Status) Toggled() (Status, error) {
	switch s {
	case StatusActive:
		return StatusInactive, nil
	case StatusInactive:
		return StatusActive, nil
	}
	return s, ErrNotToggleable
}

// ValidTimezone reports whether tz is in the supported list.
func ValidTimezone(tz string) bool {
	for _, z := range Timezones {
		if z == tz {
			return true
		}
	}
	return false
}
