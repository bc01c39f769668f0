package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rosteriq/internal/application/orchestrators"
)

// HarnessSecretHeader authorizes the dev seed endpoint.
const HarnessSecretHeader = "X-Rosteriq-Harness-Secret"

type createAdminUserRequest struct {
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      string  `json:"role"`
	TenantID  *string `json:"tenantId"`
}

type createAdminUserResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

// requirePlatformAPI validates the session with the provider and checks the
// platform_admin grant, answering with JSON on failure.
// POST: returns "" when a response has been written
func (s *Server) requirePlatformAPI(w http.ResponseWriter, r *http.Request) string {
	id, err := s.validate(w, r)
	if errors.Is(err, errProviderNotConfigured) {
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return ""
	}
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return ""
	}
	_, err = orchestrators.ExecuteAuthorizePlatformAdmin(r.Context(), id.User.ID, orchestrators.AuthorizePlatformAdminDeps{
		Memberships: s.deps.Stores.Memberships,
	})
	switch {
	case err == nil:
		return id.User.ID
	case errors.Is(err, orchestrators.ErrUnauthenticated):
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, orchestrators.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "Forbidden")
	default:
		slog.Error("internal_error", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
	return ""
}

// POST /api/platform/admin-users
func (s *Server) handleCreateAdminUser(w http.ResponseWriter, r *http.Request) {
	actor := s.requirePlatformAPI(w, r)
	if actor == "" {
		return
	}
	if s.deps.Admin == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "user administration is not configured")
		return
	}

	var req createAdminUserRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var tenantID string
	if req.TenantID != nil {
		tenantID = *req.TenantID
	}

	res, err := orchestrators.ExecuteCreateAdminUser(r.Context(), orchestrators.CreateAdminUserInput{
		ActorUserID: actor,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        req.Role,
		TenantID:    tenantID,
	}, orchestrators.CreateAdminUserDeps{
		Users:       s.deps.Admin,
		Profiles:    s.deps.Stores.Profiles,
		Memberships: s.deps.Stores.Memberships,
		Tenants:     s.deps.Stores.Tenants,
		Audit:       s.deps.Stores.Audit,
		Mailer:      s.deps.Mailer,
		LoginURL:    loginURL(s.deps.Settings.PublicURL),
		Now:         s.now,
	})

	var ve *orchestrators.ValidationError
	var pe *orchestrators.ProvisioningError
	switch {
	case errors.As(err, &ve):
		writeJSONError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &pe):
		slog.Error("internal_error", "path", r.URL.Path, "stage", pe.Stage, "user_id", res.UserID, "error", pe.Error())
		writeJSONError(w, http.StatusUnprocessableEntity, pe.Error())
	case err != nil:
		slog.Error("internal_error", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusOK, createAdminUserResponse{Success: true, UserID: res.UserID})
	}
}

// loginURL points invited admins at the email-link form; they have no password.
func loginURL(publicURL string) string {
	if publicURL == "" {
		return ""
	}
	return strings.TrimRight(publicURL, "/") + "/login#email-link"
}

type seedResponse struct {
	Success bool                     `json:"success"`
	Results orchestrators.SeedResult `json:"results"`
}

// POST /api/dev/seed
func (s *Server) handleDevSeed(w http.ResponseWriter, r *http.Request) {
	if s.deps.Settings.Production {
		writeJSONError(w, http.StatusForbidden, "Forbidden in production")
		return
	}
	secret := r.Header.Get(HarnessSecretHeader)
	if secret == "" || len(s.deps.Settings.HarnessSecretHash) == 0 ||
		bcrypt.CompareHashAndPassword(s.deps.Settings.HarnessSecretHash, []byte(secret)) != nil {
		writeJSONError(w, http.StatusUnauthorized, "Invalid harness secret")
		return
	}

	deps := orchestrators.SeedDevDeps{
		Tenants:     s.deps.Stores.Tenants,
		Memberships: s.deps.Stores.Memberships,
		Audit:       s.deps.Stores.Audit,
		Now:         s.now,
	}
	if s.deps.Admin != nil {
		deps.Users = s.deps.Admin
	}
	res, err := orchestrators.ExecuteSeedDev(r.Context(), orchestrators.SeedDevInput{
		AdminEmail: s.deps.Settings.SeedAdminEmail,
	}, deps)
	if err != nil {
		slog.Error("internal_error", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, seedResponse{Success: true, Results: res})
}

// GET /api/platform/perf?minutes=15&top=10
func (s *Server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if s.requirePlatformAPI(w, r) == "" {
		return
	}
	minutes, err := strconv.Atoi(r.URL.Query().Get("minutes"))
	if err != nil || minutes <= 0 {
		minutes = 15
	}
	top, err := strconv.Atoi(r.URL.Query().Get("top"))
	if err != nil || top <= 0 {
		top = 10
	}
	since := s.now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, s.deps.Collector.Snapshot(since, top))
}
