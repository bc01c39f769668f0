package orchestrators

import (
	"context"
	"errors"
	"strings"
	"time"

	"rosteriq/internal/adapters/email"
	"rosteriq/internal/adapters/identity"
	"rosteriq/internal/adapters/storage"
	"rosteriq/internal/domain/audit"
	"rosteriq/internal/domain/membership"
	"rosteriq/internal/domain/profile"
	"rosteriq/internal/domain/tenant"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

var errBoom = errors.New("boom")

// mockTenantStore keeps tenants in memory with name uniqueness.
type mockTenantStore struct {
	tenants   map[string]tenant.Tenant
	createErr error
	getErr    error
}

func newMockTenantStore(ts ...tenant.Tenant) *mockTenantStore {
	m := &mockTenantStore{tenants: make(map[string]tenant.Tenant)}
	for _, t := range ts {
		m.tenants[t.ID] = t
	}
	return m
}

func (m *mockTenantStore) Create(_ context.Context, t tenant.Tenant) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.tenants {
		if strings.EqualFold(existing.Name, t.Name) {
			return storage.ErrConflict
		}
	}
	m.tenants[t.ID] = t
	return nil
}

func (m *mockTenantStore) GetByID(_ context.Context, id string) (tenant.Tenant, error) {
	if m.getErr != nil {
		return tenant.Tenant{}, m.getErr
	}
	t, ok := m.tenants[id]
	if !ok {
		return tenant.Tenant{}, storage.ErrNotFound
	}
	return t, nil
}

func (m *mockTenantStore) GetByName(_ context.Context, name string) (tenant.Tenant, error) {
	if m.getErr != nil {
		return tenant.Tenant{}, m.getErr
	}
	for _, t := range m.tenants {
		if t.Name == name {
			return t, nil
		}
	}
	return tenant.Tenant{}, storage.ErrNotFound
}

func (m *mockTenantStore) UpdateStatus(_ context.Context, id string, status tenant.Status) error {
	t, ok := m.tenants[id]
	if !ok {
		return storage.ErrNotFound
	}
	t.Status = status
	m.tenants[id] = t
	return nil
}

// mockMembershipStore keeps grants in insertion order.
type mockMembershipStore struct {
	grants    []membership.Membership
	createErr error
	listErr   error
}

func (m *mockMembershipStore) Create(_ context.Context, g membership.Membership) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.grants = append(m.grants, g)
	return nil
}

func (m *mockMembershipStore) ListByUser(_ context.Context, userID string) ([]membership.Membership, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []membership.Membership
	for _, g := range m.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockMembershipStore) Find(_ context.Context, userID, tenantID string, role membership.Role) (membership.Membership, error) {
	for _, g := range m.grants {
		if g.UserID == userID && g.TenantID == tenantID && g.Role == role {
			return g, nil
		}
	}
	return membership.Membership{}, storage.ErrNotFound
}

// mockProfileStore records upserts and sign-in stamps.
type mockProfileStore struct {
	profiles  map[string]profile.Profile
	touched   map[string]time.Time
	upsertErr error
	touchErr  error
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: map[string]profile.Profile{}, touched: map[string]time.Time{}}
}

func (m *mockProfileStore) Upsert(_ context.Context, p profile.Profile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockProfileStore) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	if m.touchErr != nil {
		return m.touchErr
	}
	m.touched[userID] = at
	return nil
}

// mockAuditStore collects events.
type mockAuditStore struct {
	events []audit.Event
	err    error
}

func (m *mockAuditStore) Save(_ context.Context, e audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

// mockAdminUsers stands in for the provider admin API.
type mockAdminUsers struct {
	created   []identity.CreateUserParams
	createErr error
	byEmail   map[string]identity.User
	findErr   error
}

func (m *mockAdminUsers) CreateUser(_ context.Context, p identity.CreateUserParams) (identity.User, error) {
	if m.createErr != nil {
		return identity.User{}, m.createErr
	}
	m.created = append(m.created, p)
	return identity.User{ID: "user-new", Email: p.Email, UserMetadata: p.UserMetadata}, nil
}

func (m *mockAdminUsers) FindUserByEmail(_ context.Context, email string) (identity.User, error) {
	if m.findErr != nil {
		return identity.User{}, m.findErr
	}
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return identity.User{}, identity.ErrUserNotFound
	}
	return u, nil
}

// mockSessions stands in for the provider token endpoints.
type mockSessions struct {
	session    identity.Session
	err        error
	signOutErr error
	signedOut  []string
	verifier   string
	linkErr    error
	links      []identity.EmailLink
}

func (m *mockSessions) SendEmailLink(_ context.Context, link identity.EmailLink) error {
	m.links = append(m.links, link)
	return m.linkErr
}

func (m *mockSessions) SignInWithPassword(_ context.Context, _, _ string) (identity.Session, error) {
	return m.session, m.err
}

func (m *mockSessions) ExchangeCode(_ context.Context, _, verifier string) (identity.Session, error) {
	m.verifier = verifier
	return m.session, m.err
}

func (m *mockSessions) SignOut(_ context.Context, token string) error {
	m.signedOut = append(m.signedOut, token)
	return m.signOutErr
}

// failingSender always errors.
type failingSender struct{}

func (failingSender) Send(context.Context, email.SendRequest) (email.SendResult, error) {
	return email.SendResult{}, errBoom
}
