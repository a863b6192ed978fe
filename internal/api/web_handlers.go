package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/booksapp/books-server/internal/errors"
	"github.com/booksapp/books-server/internal/search"
)

// handleHome lists every book.
// GET /
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	books, err := s.services.Catalog.ListBooks(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, pageHome, &pageData{Books: books})
}

// handleBookDetail shows one book and the author's other books.
// GET /books/{id}
func (s *Server) handleBookDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	book, err := s.services.Catalog.GetBook(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			s.renderStatus(w, r, http.StatusNotFound, domainerrors.Message(err))
			return
		}
		s.serverError(w, r, err)
		return
	}

	byAuthor, err := s.services.Catalog.ListBooksByAuthor(ctx, book.AuthorID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	others := byAuthor[:0]
	for _, b := range byAuthor {
		if b.ID != book.ID {
			others = append(others, b)
		}
	}

	s.render(w, r, http.StatusOK, pageBook, &pageData{
		Title: book.Title,
		Book:  book,
		Books: others,
	})
}

// handleSearchPage searches titles and authors.
// GET /search?q=
func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := &pageData{Title: "Search", Query: query}

	if query != "" {
		result, err := s.services.Catalog.Search(r.Context(), search.Params{
			Query:    query,
			Audience: r.URL.Query().Get("audience"),
		})
		switch {
		case err == nil:
			data.Result = result
		case domainerrors.IsUserFacing(err):
			data.Error = domainerrors.Message(err)
		default:
			s.serverError(w, r, err)
			return
		}
	}

	s.render(w, r, http.StatusOK, pageSearch, data)
}
