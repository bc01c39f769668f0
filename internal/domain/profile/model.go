package profile

import (
	"strings"
	"time"
)

// Profile holds display data for an identity-provider user.
type Profile struct {
	UserID      string
	FirstName   string
	LastName    string
	AvatarURL   string
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

// DisplayName returns "First Last", falling back to fallback when both are blank.
func (p Profile) DisplayName(fallback string) string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name == "" {
		return fallback
	}
	return name
}

// Greeting returns the dashboard welcome line.
func (p Profile) Greeting() string {
	first := strings.TrimSpace(p.FirstName)
	if first == "" {
		return "Welcome back"
	}
	return "Welcome back, " + first
}

// Initials returns up to two uppercase initials for the avatar badge.
func (p Profile) Initials() string {
	var b strings.Builder
	for _, part := range []string{p.FirstName, p.LastName} {
		part = strings.TrimSpace(part)
		if part != "" {
			b.WriteString(strings.ToUpper(part[:1]))
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}
