package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/danielgtaylor/huma/v2"

	"github.com/booksapp/books-server/internal/domain"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	userKey    ctxKey = "user"
	sessionKey ctxKey = "session"
)

// withSession stores the logged-in user and their session in ctx.
func withSession(ctx context.Context, user *domain.User, session *domain.Session) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, sessionKey, session)
}

// currentUser returns the logged-in user, or nil for anonymous requests.
func currentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

// currentSession returns the session of the logged-in user, or nil.
func currentSession(ctx context.Context) *domain.Session {
	session, _ := ctx.Value(sessionKey).(*domain.Session)
	return session
}

// RequireUser returns the logged-in user or a 401 error for the JSON API.
func RequireUser(ctx context.Context) (*domain.User, error) {
	user := currentUser(ctx)
	if user == nil {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return user, nil
}

// sessionMiddleware resolves the session cookie into the request context.
// Requests without a valid session continue anonymously, and a stale cookie
// is cleared.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.opts.CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, session, err := s.services.Auth.CurrentUser(r.Context(), cookie.Value)
		if err != nil {
			s.logger.Error("failed to resolve session", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if user == nil {
			s.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), user, session)))
	})
}

// requireLogin redirects anonymous browsers to the login page, returning them
// to the original page afterwards.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r.Context()) == nil {
			target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, session *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
