package api

import (
	"net/http"

	"github.com/booksapp/books-server/internal/domain"
	domainerrors "github.com/booksapp/books-server/internal/errors"
	"github.com/booksapp/books-server/internal/service"
)

// handleCreateAuthorForm shows the new author form.
// GET /create_author
func (s *Server) handleCreateAuthorForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, pageCreateAuthor, &pageData{Title: "Create Author"})
}

// handleCreateAuthor adds an author and returns to the book form.
// POST /create_author
func (s *Server) handleCreateAuthor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	req := service.CreateAuthorRequest{Name: r.PostFormValue("name")}
	author, err := s.services.Catalog.CreateAuthor(r.Context(), req)
	if err != nil {
		if !domainerrors.IsUserFacing(err) {
			s.serverError(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, pageCreateAuthor, &pageData{
			Title: "Create Author",
			Error: domainerrors.Message(err),
			Form:  map[string]string{"name": req.Name},
		})
		return
	}

	s.setFlash(w, "Author "+author.Name+" created.")
	http.Redirect(w, r, "/create_book", http.StatusFound)
}

// handleCreateBookForm shows the new book form.
// GET /create_book
func (s *Server) handleCreateBookForm(w http.ResponseWriter, r *http.Request) {
	s.renderBookForm(w, r, "", nil)
}

// handleCreateBook adds a book and shows it.
// POST /create_book
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderStatus(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	req := service.CreateBookRequest{
		Title:       r.PostFormValue("title"),
		PublishDate: r.PostFormValue("publish_date"),
		AuthorID:    r.PostFormValue("author_id"),
		Audience:    r.PostFormValue("audience"),
	}

	book, err := s.services.Catalog.CreateBook(r.Context(), req)
	if err != nil {
		if !domainerrors.IsUserFacing(err) {
			s.serverError(w, r, err)
			return
		}
		s.renderBookForm(w, r, domainerrors.Message(err), map[string]string{
			"title":        req.Title,
			"publish_date": req.PublishDate,
			"author_id":    req.AuthorID,
			"audience":     req.Audience,
		})
		return
	}

	s.setFlash(w, "Book created.")
	http.Redirect(w, r, "/books/"+book.ID, http.StatusFound)
}

func (s *Server) renderBookForm(w http.ResponseWriter, r *http.Request, errMsg string, form map[string]string) {
	authors, err := s.services.Catalog.ListAuthors(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if form == nil {
		form = map[string]string{"audience": string(domain.DefaultAudience)}
	}
	s.render(w, r, http.StatusOK, pageCreateBook, &pageData{
		Title:     "Create Book",
		Error:     errMsg,
		Form:      form,
		Authors:   authors,
		Audiences: domain.Audiences(),
	})
}
