package projections

import (
	"context"
	"strings"

	"rosteriq/internal/adapters/storage"
	"rosteriq/internal/adapters/storage/audit"
	"rosteriq/internal/adapters/storage/tenant"
	domainAudit "rosteriq/internal/domain/audit"
	domainMembership "rosteriq/internal/domain/membership"
	domainProfile "rosteriq/internal/domain/profile"
	domainTenant "rosteriq/internal/domain/tenant"
)

type mockMembershipStore struct {
	grants []domainMembership.Membership
}

func (m *mockMembershipStore) ListByUser(_ context.Context, userID string) ([]domainMembership.Membership, error) {
	var out []domainMembership.Membership
	for _, g := range m.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockMembershipStore) ListByRoles(_ context.Context, roles []domainMembership.Role) ([]domainMembership.Membership, error) {
	var out []domainMembership.Membership
	for _, g := range m.grants {
		for _, r := range roles {
			if g.Role == r {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

type mockProfileStore struct {
	profiles map[string]domainProfile.Profile
	asked    [][]string
}

func (m *mockProfileStore) GetByUserID(_ context.Context, userID string) (domainProfile.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return domainProfile.Profile{}, storage.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileStore) ListByUserIDs(_ context.Context, userIDs []string) (map[string]domainProfile.Profile, error) {
	m.asked = append(m.asked, userIDs)
	out := map[string]domainProfile.Profile{}
	for _, id := range userIDs {
		if p, ok := m.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// mockTenantStore holds tenants already ordered by name.
type mockTenantStore struct {
	tenants []domainTenant.Tenant
	last    tenant.ListFilter
}

func (m *mockTenantStore) match(filter tenant.ListFilter) []domainTenant.Tenant {
	var out []domainTenant.Tenant
	for _, t := range m.tenants {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (m *mockTenantStore) List(_ context.Context, filter tenant.ListFilter) ([]domainTenant.Tenant, error) {
	m.last = filter
	out := m.match(filter)
	if filter.Limit > 0 {
		start := min(filter.Offset, len(out))
		end := min(start+filter.Limit, len(out))
		out = out[start:end]
	}
	return out, nil
}

func (m *mockTenantStore) Count(_ context.Context, filter tenant.ListFilter) (int, error) {
	return len(m.match(filter)), nil
}

type mockAuditStore struct {
	events     []domainAudit.Event
	lastFilter audit.Filter
	lastLimit  int
	lastOffset int
}

func (m *mockAuditStore) List(_ context.Context, filter audit.Filter, limit, offset int) ([]domainAudit.Event, error) {
	m.lastFilter, m.lastLimit, m.lastOffset = filter, limit, offset
	start := min(offset, len(m.events))
	end := min(start+limit, len(m.events))
	return m.events[start:end], nil
}

func clubTenants() *mockTenantStore {
	return &mockTenantStore{tenants: []domainTenant.Tenant{
		{ID: "t-andromeda", Name: "Andromeda FC", Status: domainTenant.StatusInactive},
		{ID: "t-coppell", Name: "Coppell FC", Status: domainTenant.StatusActive},
		{ID: "t-solar", Name: "Solar SC", Status: domainTenant.StatusActive},
	}}
}
