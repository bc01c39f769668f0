package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"rosteriq/internal/adapters/http/middleware"
	"rosteriq/internal/adapters/identity"
	"rosteriq/internal/application/orchestrators"
)

var errSignInNotConfigured = errors.New("sign-in is not configured")

func (s *Server) loginDeps() orchestrators.LoginDeps {
	return orchestrators.LoginDeps{
		Provider: s.deps.Sessions,
		Profiles: s.deps.Stores.Profiles,
		Audit:    s.deps.Stores.Audit,
		Now:      s.now,
	}
}

func (s *Server) cookieName() string {
	if s.deps.Cookies.Name != "" {
		return s.deps.Cookies.Name
	}
	return identity.DefaultCookieName
}

// GET /login. The gate skips public paths, so a visitor holding an unexpired
// session cookie is sent home here. The decision is local: the gate
// validates the session on /app/home and clears it if the provider rejects it.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Resolver != nil && s.hasLiveSession(r) {
		http.Redirect(w, r, "/app/home", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", pageData{
		Title: "Sign in",
		Error: r.URL.Query().Get("error"),
		Flash: r.URL.Query().Get("notice"),
		Data:  map[string]string{"Email": r.URL.Query().Get("email")},
	})
}

// hasLiveSession reports whether r carries a decodable, unexpired session.
// POST: makes no provider call
func (s *Server) hasLiveSession(r *http.Request) bool {
	sess, ok, err := identity.DecodeSession(s.cookieName(), r.Cookies())
	return ok && err == nil && sess.AccessToken != "" && !sess.Expired(s.now())
}

// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		s.render(w, r, http.StatusServiceUnavailable, "login.html", pageData{Title: "Sign in", Error: errSignInNotConfigured.Error()})
		return
	}
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login.html", pageData{Title: "Sign in", Error: "invalid form"})
		return
	}

	sess, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}, s.loginDeps())
	if err != nil {
		status := http.StatusUnauthorized
		msg := orchestrators.ErrInvalidCredentials.Error()
		if errors.Is(err, orchestrators.ErrProviderUnavailable) {
			status = http.StatusServiceUnavailable
			msg = orchestrators.ErrProviderUnavailable.Error()
		}
		s.render(w, r, status, "login.html", pageData{
			Title: "Sign in",
			Error: msg,
			Data:  map[string]string{"Email": r.PostFormValue("email")},
		})
		return
	}

	if err := s.writeSession(w, r, sess); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/app/home", http.StatusSeeOther)
}

// POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	input := orchestrators.LogoutInput{UserID: middleware.UserIDFromContext(r.Context())}
	if sess, ok, err := identity.DecodeSession(s.cookieName(), r.Cookies()); err == nil && ok {
		input.AccessToken = sess.AccessToken
		if input.UserID == "" && sess.User != nil {
			input.UserID = sess.User.ID
		}
	}
	orchestrators.ExecuteLogout(r.Context(), input, orchestrators.LogoutDeps{
		Provider: s.deps.Sessions,
		Audit:    s.deps.Stores.Audit,
	})

	for _, c := range identity.ClearSession(s.deps.Cookies, r.Cookies()) {
		http.SetCookie(w, c)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// POST /login/email-link
func (s *Server) handleEmailLink(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		s.render(w, r, http.StatusServiceUnavailable, "login.html", pageData{Title: "Sign in", Error: errSignInNotConfigured.Error()})
		return
	}
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login.html", pageData{Title: "Sign in", Error: "invalid form"})
		return
	}

	addr := r.PostFormValue("email")
	verifier, err := orchestrators.ExecuteStartEmailLink(r.Context(), orchestrators.EmailLinkInput{
		Email:      addr,
		RedirectTo: s.publicURL(r) + "/auth/callback",
	}, s.loginDeps())

	data := map[string]string{"Email": addr}
	var ve *orchestrators.ValidationError
	switch {
	case errors.As(err, &ve):
		s.render(w, r, http.StatusBadRequest, "login.html", pageData{Title: "Sign in", Error: ve.Error(), Data: data})
		return
	case errors.Is(err, orchestrators.ErrProviderUnavailable):
		s.render(w, r, http.StatusServiceUnavailable, "login.html", pageData{Title: "Sign in", Error: orchestrators.ErrProviderUnavailable.Error(), Data: data})
		return
	case err != nil:
		internalError(w, err)
		return
	}

	http.SetCookie(w, identity.VerifierCookie(s.deps.Cookies, verifier))
	s.render(w, r, http.StatusOK, "login.html", pageData{
		Title: "Sign in",
		Flash: "Check your email for a sign-in link.",
		Data:  data,
	})
}

// publicURL is the configured external base URL, or the request's own origin.
func (s *Server) publicURL(r *http.Request) string {
	if u := strings.TrimRight(s.deps.Settings.PublicURL, "/"); u != "" {
		return u
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// GET /auth/callback?code=...
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if desc := q.Get("error_description"); desc != "" {
		redirectLoginError(w, r, desc)
		return
	}
	if s.deps.Sessions == nil {
		redirectLoginError(w, r, errSignInNotConfigured.Error())
		return
	}

	var verifier string
	if c, err := r.Cookie(identity.CodeVerifierCookie); err == nil {
		verifier = c.Value
	}
	sess, err := orchestrators.ExecuteExchangeCode(r.Context(), orchestrators.ExchangeCodeInput{
		Code:         q.Get("code"),
		CodeVerifier: verifier,
	}, s.loginDeps())
	if err != nil {
		redirectLoginError(w, r, callbackMessage(err))
		return
	}

	if err := s.writeSession(w, r, sess); err != nil {
		internalError(w, err)
		return
	}
	http.SetCookie(w, identity.ClearVerifierCookie(s.deps.Cookies))
	http.Redirect(w, r, "/app/home", http.StatusSeeOther)
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, sess identity.Session) error {
	cookies, err := identity.EncodeSession(sess, s.deps.Cookies, r.Cookies())
	if err != nil {
		return err
	}
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
	return nil
}

func callbackMessage(err error) string {
	var pe *identity.ProviderError
	switch {
	case errors.Is(err, orchestrators.ErrMissingAuthCode):
		return err.Error()
	case errors.As(err, &pe) && pe.IsClientError():
		return pe.Error()
	default:
		return orchestrators.ErrProviderUnavailable.Error()
	}
}

func redirectLoginError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
}
