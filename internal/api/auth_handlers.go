package api

import (
	"net/http"
	"strings"

	domainerrors "github.com/booksapp/books-server/internal/errors"
	"github.com/booksapp/books-server/internal/service"
)

// handleSignupForm shows the signup form.
// GET /signup
func (s *Server) handleSignupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageSignup, &pageData{Title: "Sign Up"})
}

// handleSignup creates an account and sends the browser to the login page.
// Rejected input re-renders the form with the reason.
// POST /signup
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	req := service.SignupRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	if _, err := s.services.Auth.Signup(r.Context(), req); err != nil {
		if !domainerrors.IsUserFacing(err) {
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, pageSignup, &pageData{
			Title: "Sign Up",
			Error: domainerrors.Message(err),
			Form:  map[string]string{"username": req.Username},
		})
		return
	}

	s.setFlash(w, "Account created. Please log in.")
	http.Redirect(w, r, "/login", http.StatusFound)
}

// handleLoginForm shows the login form.
// GET /login
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageLogin, &pageData{
		Title: "Log In",
		Next:  safeRedirect(r.URL.Query().Get("next")),
	})
}

// handleLogin starts a session and sets the session cookie.
// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	next := safeRedirect(r.URL.Query().Get("next"))
	req := service.LoginRequest{
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
		IPAddress: getClientIP(r),
		UserAgent: r.UserAgent(),
	}

	resp, err := s.services.Auth.Login(r.Context(), req)
	if err != nil {
		if !domainerrors.IsUserFacing(err) {
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, pageLogin, &pageData{
			Title: "Log In",
			Error: domainerrors.Message(err),
			Form:  map[string]string{"username": req.Username},
			Next:  next,
		})
		return
	}

	s.setSessionCookie(w, resp.Token, resp.Session)
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// handleLogout ends the session, if any, and returns home.
// GET|POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if session := currentSession(r.Context()); session != nil {
		if err := s.services.Auth.Logout(r.Context(), cookieValue(r, s.opts.CookieName)); err != nil {
			s.serverError(w, r, err)
			return
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// safeRedirect accepts only local absolute paths, so next cannot send the
// browser to another site.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return ""
	}
	return target
}
