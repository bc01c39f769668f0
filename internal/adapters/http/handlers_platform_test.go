package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"rosteriq/internal/domain/audit"
	"rosteriq/internal/domain/tenant"
)

func TestPlatformPages_RedirectNonAdmins(t *testing.T) {
	env := newTestEnv(t).seed()

	for _, path := range []string{"/platform/tenants", "/platform/admins", "/platform/audit"} {
		t.Run(path, func(t *testing.T) {
			expectRedirect(t, env.get(path, clubAdmin.ID), "/app/home")
			expectRedirect(t, env.get(path, ""), "/login")
		})
	}
}

func TestPlatformRoot_RedirectsToTenants(t *testing.T) {
	env := newTestEnv(t).seed()
	expectRedirect(t, env.get("/platform", platformAdmin.ID), "/platform/tenants")
}

func TestTenantsPage(t *testing.T) {
	env := newTestEnv(t).seed()

	rec := env.get("/platform/tenants", platformAdmin.ID)
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, "Coppell FC", "Deactivate", `<option value="America/Chicago" selected>`)

	rec = env.get("/platform/tenants?q=zzz", platformAdmin.ID)
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, "No tenants found.")
}

func TestCreateTenant(t *testing.T) {
	env := newTestEnv(t).seed()

	rec := env.postForm("/platform/tenants", "/platform/tenants", platformAdmin.ID, url.Values{
		"name":     {"Solar SC"},
		"timezone": {"America/Chicago"},
	})
	expectRedirect(t, rec, "/platform/tenants?notice=Created+Solar+SC")

	created, err := env.stores.Tenants.GetByName(context.Background(), "Solar SC")
	must(t, err)
	if created.Status != tenant.StatusActive {
		t.Errorf("expected an active tenant, got %s", created.Status)
	}

	events := env.auditEvents()
	if len(events) == 0 {
		t.Fatal("expected an audit event")
	}
	if e := events[0]; e.Action != audit.ActionCreate || e.EntityType != audit.EntityTenant || e.ActorUserID != platformAdmin.ID {
		t.Errorf("unexpected audit event %+v", e)
	}
}

func TestCreateTenant_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		wantBody string
	}{
		{"duplicate name", url.Values{"name": {"Coppell FC"}}, "a tenant with this name already exists"},
		{"blank name", url.Values{"name": {"  "}}, tenant.ErrEmptyName.Error()},
		{"unknown timezone", url.Values{"name": {"Solar SC"}, "timezone": {"Mars/Olympus"}}, tenant.ErrInvalidTimezone.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t).seed()
			rec := env.postForm("/platform/tenants", "/platform/tenants", platformAdmin.ID, tt.form)
			expectStatus(t, rec, http.StatusBadRequest)
			expectBody(t, rec, tt.wantBody)
		})
	}
}

func TestCreateTenant_NonAdminIsSentHome(t *testing.T) {
	env := newTestEnv(t).seed()

	rec := env.postForm("/app/home", "/platform/tenants", clubAdmin.ID, url.Values{"name": {"Rogue FC"}})
	expectRedirect(t, rec, "/app/home")

	if _, err := env.stores.Tenants.GetByName(context.Background(), "Rogue FC"); err == nil {
		t.Error("a club admin must not create tenants")
	}
}

func TestToggleTenant(t *testing.T) {
	env := newTestEnv(t).seed()
	path := "/platform/tenants/" + env.coppell.ID + "/toggle"

	for _, want := range []tenant.Status{tenant.StatusInactive, tenant.StatusActive} {
		expectStatus(t, env.postForm("/platform/tenants", path, platformAdmin.ID, nil), http.StatusSeeOther)
		got, err := env.stores.Tenants.GetByID(context.Background(), env.coppell.ID)
		must(t, err)
		if got.Status != want {
			t.Errorf("expected %s, got %s", want, got.Status)
		}
	}

	expectStatus(t, env.postForm("/platform/tenants", "/platform/tenants/missing/toggle", platformAdmin.ID, nil), http.StatusNotFound)
}

// A JSON body does not bypass the CSRF check on platform routes.
func TestToggleTenant_JSONWithoutTokenIsForbidden(t *testing.T) {
	env := newTestEnv(t).seed()

	req := httptest.NewRequest(http.MethodPost, "/platform/tenants/"+env.coppell.ID+"/toggle", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	expectStatus(t, env.do(signedIn(req, platformAdmin.ID)), http.StatusForbidden)

	got, err := env.stores.Tenants.GetByID(context.Background(), env.coppell.ID)
	must(t, err)
	if got.Status != tenant.StatusActive {
		t.Errorf("tenant must be untouched, got %s", got.Status)
	}
}

func TestToggleTenant_SuspendedIsRejected(t *testing.T) {
	env := newTestEnv(t).seed()
	must(t, env.stores.Tenants.UpdateStatus(context.Background(), env.coppell.ID, tenant.StatusSuspended))

	rec := env.postForm("/platform/tenants", "/platform/tenants/"+env.coppell.ID+"/toggle", platformAdmin.ID, nil)
	expectStatus(t, rec, http.StatusSeeOther)
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "/platform/tenants?error=") {
		t.Errorf("expected an error redirect, got %s", loc)
	}

	got, err := env.stores.Tenants.GetByID(context.Background(), env.coppell.ID)
	must(t, err)
	if got.Status != tenant.StatusSuspended {
		t.Errorf("expected suspended, got %s", got.Status)
	}
}

func TestAdminsPage(t *testing.T) {
	env := newTestEnv(t).seed()

	rec := env.get("/platform/admins", platformAdmin.ID)
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, "Jordan Reyes", "Morgan Ops", "All tenants", `<option value="`+env.coppell.ID+`">Coppell FC</option>`)
}

func TestAuditPage(t *testing.T) {
	env := newTestEnv(t).seed()
	must(t, env.stores.Audit.Save(context.Background(),
		audit.NewEvent(clubAdmin.ID, audit.ActionCreate, audit.EntityTenant, env.coppell.ID).WithTenant(env.coppell.ID)))
	must(t, env.stores.Audit.Save(context.Background(),
		audit.NewEvent("", audit.ActionGrant, audit.EntityMembership, "m-1")))

	rec := env.get("/platform/audit", platformAdmin.ID)
	expectStatus(t, rec, http.StatusOK)
	expectBody(t, rec, "Jordan Reyes", "System")

	rec = env.get("/platform/audit?action=grant", platformAdmin.ID)
	expectStatus(t, rec, http.StatusOK)
	expectNoBody(t, rec, "Jordan Reyes")
}
