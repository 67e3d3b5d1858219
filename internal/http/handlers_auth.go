package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func setSessionCookie(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	f, err := parseFields(w, r, "email", "password", "name")
	if err != nil {
		writeError(w, r, err, applog.OpCreate, msgInvalidRequest)
		return
	}
	sess, err := s.auth.SignUp(r.Context(), f["email"], f["password"], f["name"])
	if err != nil {
		writeError(w, r, err, applog.OpCreate, msgAuthFailed)
		return
	}
	setSessionCookie(w, r, sess)
	NewResponse().Status(http.StatusCreated).JSON(sess).Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	f, err := parseFields(w, r, "email", "password")
	if err != nil {
		writeError(w, r, err, applog.OpSignIn, msgInvalidRequest)
		return
	}
	sess, err := s.auth.SignIn(r.Context(), f["email"], f["password"])
	if err != nil {
		writeError(w, r, err, applog.OpSignIn, msgAuthFailed)
		return
	}
	setSessionCookie(w, r, sess)
	NewResponse().JSON(sess).Write(w)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		s.auth.SignOut(r.Context(), token)
	}
	clearSessionCookie(w, r)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, core.ErrUserNotResolved, applog.OpRead, msgUserNotResolved)
		return
	}
	NewResponse().JSON(sess).Write(w)
}

func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	url, err := s.auth.OAuthStart()
	if err != nil {
		writeError(w, r, err, applog.OpSignIn, msgAuthFailed)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleOAuthCallback finishes the provider flow and sends the browser back
// to the app with a session cookie set.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "OAuth provider returned an error",
			applog.FieldError, providerErr)
		ErrorResponse(http.StatusUnauthorized, msgAuthFailed).Write(w)
		return
	}
	sess, err := s.auth.OAuthComplete(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		writeError(w, r, err, applog.OpSignIn, msgAuthFailed)
		return
	}
	setSessionCookie(w, r, sess)
	http.Redirect(w, r, "/", http.StatusFound)
}
