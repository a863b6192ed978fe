package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/booksapp/books-server/internal/domain"
	"github.com/booksapp/books-server/internal/search"
)

//go:embed templates/*.html
var templates embed.FS

// Page templates, each rendered inside layout.html.
const (
	pageHome         = "home"
	pageSignup       = "signup"
	pageLogin        = "login"
	pageBook         = "book"
	pageCreateAuthor = "create_author"
	pageCreateBook   = "create_book"
	pageSearch       = "search"
	pageStatus       = "status"
)

var pageNames = []string{
	pageHome, pageSignup, pageLogin, pageBook,
	pageCreateAuthor, pageCreateBook, pageSearch, pageStatus,
}

const flashCookie = "flash"

// pageData is the template context shared by every page.
type pageData struct {
	Title string
	User  *domain.User
	Flash string
	Error string

	// Form holds submitted values so a rejected form keeps its input.
	Form map[string]string
	Next string

	Book      *domain.BookWithAuthor
	Books     []*domain.BookWithAuthor
	Authors   []*domain.AuthorWithCount
	Audiences []domain.Audience

	Query  string
	Result *search.Result

	Status int
}

// messageEscaper escapes for element text only. Apostrophes stay literal so
// messages such as "Password doesn't match." read the same in the page source.
var messageEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&#34;",
)

// ErrorHTML returns Error escaped for use as element text.
func (d *pageData) ErrorHTML() template.HTML {
	return messageHTML(d.Error)
}

// FlashHTML returns Flash escaped for use as element text.
func (d *pageData) FlashHTML() template.HTML {
	return messageHTML(d.Flash)
}

func messageHTML(s string) template.HTML {
	return template.HTML(messageEscaper.Replace(s)) //nolint:gosec // markup characters are escaped by messageEscaper
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templates, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// render writes a full page. Output is buffered so a template error still
// produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) {
	tmpl, ok := s.pages.pages[name]
	if !ok {
		s.logger.Error("unknown template", "name", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.User = currentUser(r.Context())
	if data.Flash == "" {
		data.Flash = s.popFlash(w, r)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("failed to execute template", "name", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderStatus shows a plain message page for errors such as 404 and 429.
func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, pageStatus, &pageData{
		Title:  http.StatusText(status),
		Error:  message,
		Status: status,
	})
}

// serverError logs err and shows the generic failure page.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	s.renderStatus(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// setFlash stores a one-time message shown on the next rendered page.
func (s *Server) setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:   flashCookie,
		Path:   "/",
		MaxAge: -1,
	})
	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}
