package auth

import (
	"context"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

const SessionCookie = "fintrack_session"

type contextKey struct{}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware resolves the caller's session and stores it in the request
// context. Requests without a valid session pass through unauthenticated.
func Middleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := TokenFromRequest(r); token != "" {
				if sess, err := s.Resolve(r.Context(), token); err == nil {
					r = r.WithContext(WithSession(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}

// UserID returns the authenticated user's ID or core.ErrUserNotResolved.
func UserID(ctx context.Context) (string, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok || sess.UserID == "" {
		return "", core.ErrUserNotResolved
	}
	return sess.UserID, nil
}
