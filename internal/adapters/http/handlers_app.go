package web

import (
	"errors"
	"net/http"

	"rosteriq/internal/adapters/http/middleware"
	"rosteriq/internal/application/orchestrators"
	"rosteriq/internal/application/projections"
)

// shell loads the authenticated layout for r and stamps the visit.
func (s *Server) shell(r *http.Request) (projections.AppShell, error) {
	id, _ := middleware.IdentityFromContext(r.Context())
	orchestrators.ExecuteRecordVisit(r.Context(), id.User.ID, orchestrators.RecordVisitDeps{
		Profiles: s.deps.Stores.Profiles,
		Now:      s.now,
	})
	return projections.QueryGetAppShell(r.Context(), projections.GetAppShellQuery{
		UserID:      id.User.ID,
		Email:       id.User.Email,
		CurrentPath: r.URL.Path,
	}, projections.GetAppShellDeps{
		Memberships: s.deps.Stores.Memberships,
		Profiles:    s.deps.Stores.Profiles,
		Tenants:     s.deps.Stores.Tenants,
	})
}

// GET /app/home
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	shell, err := s.shell(r)
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "home.html", pageData{
		Title: "Home",
		Shell: &shell,
		Data:  projections.QueryGetDashboard(shell),
	})
}

// GET /app/{section}
func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	section, err := projections.QueryGetSection(r.PathValue("section"))
	if errors.Is(err, projections.ErrUnknownSection) {
		http.NotFound(w, r)
		return
	}
	shell, err := s.shell(r)
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "section.html", pageData{
		Title: section.Title,
		Shell: &shell,
		Data:  section,
	})
}
