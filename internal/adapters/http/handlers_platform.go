package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"rosteriq/internal/application/listutil"
	"rosteriq/internal/application/orchestrators"
	"rosteriq/internal/application/projections"
	"rosteriq/internal/domain/tenant"
)

// platformShell loads the shell and sends anyone but a platform admin home.
// POST: ok is false when a response has already been written
func (s *Server) platformShell(w http.ResponseWriter, r *http.Request) (projections.AppShell, bool) {
	shell, err := s.shell(r)
	if err != nil {
		internalError(w, err)
		return shell, false
	}
	if !shell.IsPlatformAdmin {
		slog.Warn("auth_denied", "user_id", shell.UserID, "path", r.URL.Path, "required", "platform_admin")
		http.Redirect(w, r, "/app/home", http.StatusSeeOther)
		return shell, false
	}
	return shell, true
}

// authorizePlatformMutation re-validates the session with the provider and
// checks the platform_admin grant before a form post changes anything.
// POST: returns the actor's user ID, or "" when a response has been written
func (s *Server) authorizePlatformMutation(w http.ResponseWriter, r *http.Request) string {
	id, err := s.validate(w, r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return ""
	}
	_, err = orchestrators.ExecuteAuthorizePlatformAdmin(r.Context(), id.User.ID, orchestrators.AuthorizePlatformAdminDeps{
		Memberships: s.deps.Stores.Memberships,
	})
	switch {
	case err == nil:
		return id.User.ID
	case errors.Is(err, orchestrators.ErrUnauthenticated):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, orchestrators.ErrForbidden):
		http.Redirect(w, r, "/app/home", http.StatusSeeOther)
	default:
		internalError(w, err)
	}
	return ""
}

// GET /platform/tenants
func (s *Server) handleTenantsPage(w http.ResponseWriter, r *http.Request) {
	shell, ok := s.platformShell(w, r)
	if !ok {
		return
	}
	s.renderTenants(w, r, shell, http.StatusOK, r.URL.Query().Get("error"))
}

func (s *Server) renderTenants(w http.ResponseWriter, r *http.Request, shell projections.AppShell, status int, formErr string) {
	params := listutil.Parse(r.URL.Query(), projections.TenantListFilterKeys...)
	result, err := projections.QueryGetTenantList(r.Context(), params, projections.GetTenantListDeps{
		Tenants: s.deps.Stores.Tenants,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, status, "tenants.html", pageData{
		Title: "Tenants",
		Shell: &shell,
		Flash: r.URL.Query().Get("notice"),
		Error: formErr,
		Data:  result,
	})
}

// POST /platform/tenants
func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	actor := s.authorizePlatformMutation(w, r)
	if actor == "" {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	t, err := orchestrators.ExecuteCreateTenant(r.Context(), orchestrators.CreateTenantInput{
		ActorUserID: actor,
		Name:        r.PostFormValue("name"),
		Timezone:    r.PostFormValue("timezone"),
		AddressText: r.PostFormValue("address"),
		LogoURL:     r.PostFormValue("logo_url"),
	}, orchestrators.CreateTenantDeps{
		Tenants: s.deps.Stores.Tenants,
		Audit:   s.deps.Stores.Audit,
		Now:     s.now,
	})
	var ve *orchestrators.ValidationError
	switch {
	case errors.As(err, &ve):
		shell, ok := s.platformShell(w, r)
		if !ok {
			return
		}
		s.renderTenants(w, r, shell, http.StatusBadRequest, ve.Error())
		return
	case err != nil:
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/platform/tenants?notice="+url.QueryEscape("Created "+t.Name), http.StatusSeeOther)
}

// POST /platform/tenants/{id}/toggle
func (s *Server) handleToggleTenant(w http.ResponseWriter, r *http.Request) {
	actor := s.authorizePlatformMutation(w, r)
	if actor == "" {
		return
	}
	_, err := orchestrators.ExecuteToggleTenantStatus(r.Context(), orchestrators.ToggleTenantStatusInput{
		ActorUserID: actor,
		TenantID:    r.PathValue("id"),
	}, orchestrators.ToggleTenantStatusDeps{
		Tenants: s.deps.Stores.Tenants,
		Audit:   s.deps.Stores.Audit,
	})
	switch {
	case errors.Is(err, tenant.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, tenant.ErrNotToggleable):
		http.Redirect(w, r, "/platform/tenants?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
	case err != nil:
		internalError(w, err)
	default:
		http.Redirect(w, r, "/platform/tenants", http.StatusSeeOther)
	}
}

// GET /platform/admins
func (s *Server) handleAdminsPage(w http.ResponseWriter, r *http.Request) {
	shell, ok := s.platformShell(w, r)
	if !ok {
		return
	}
	result, err := projections.QueryGetAdminList(r.Context(), projections.GetAdminListDeps{
		Memberships: s.deps.Stores.Memberships,
		Profiles:    s.deps.Stores.Profiles,
		Tenants:     s.deps.Stores.Tenants,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "admins.html", pageData{
		Title: "Admins",
		Shell: &shell,
		Data:  result,
	})
}

// GET /platform/audit
func (s *Server) handleAuditPage(w http.ResponseWriter, r *http.Request) {
	shell, ok := s.platformShell(w, r)
	if !ok {
		return
	}
	params := listutil.Parse(r.URL.Query(), projections.AuditListFilterKeys...)
	result, err := projections.QueryGetAuditList(r.Context(), params, projections.GetAuditListDeps{
		Audit:    s.deps.Stores.Audit,
		Profiles: s.deps.Stores.Profiles,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "audit.html", pageData{
		Title: "Audit log",
		Shell: &shell,
		Data:  result,
	})
}
