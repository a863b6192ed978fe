package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/booksapp/books-server/internal/domain"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns every book ordered by title",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with its author's name",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAuthors",
		Method:      http.MethodGet,
		Path:        "/api/v1/authors",
		Summary:     "List authors",
		Description: "Returns every author with their book count",
		Tags:        []string{"Authors"},
	}, s.handleListAuthors)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAuthorBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/authors/{id}/books",
		Summary:     "List an author's books",
		Description: "Returns an author's books ordered by publish date",
		Tags:        []string{"Authors"},
	}, s.handleListAuthorBooks)
}

// === DTOs ===

// BookResponse is a book in API responses.
type BookResponse struct {
	ID          string    `json:"id" doc:"Book ID"`
	Title       string    `json:"title" doc:"Book title"`
	PublishDate string    `json:"publish_date,omitempty" doc:"Publish date (YYYY-MM-DD)"`
	AuthorID    string    `json:"author_id" doc:"Author ID"`
	AuthorName  string    `json:"author_name" doc:"Author name"`
	Audience    string    `json:"audience" enum:"CHILDREN,YOUNG_ADULT,ADULT,ALL" doc:"Intended audience"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
}

// AuthorResponse is an author in API responses.
type AuthorResponse struct {
	ID        string    `json:"id" doc:"Author ID"`
	Name      string    `json:"name" doc:"Author name"`
	BookCount int       `json:"book_count" doc:"Number of books"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// IDInput is a path parameter naming a record.
type IDInput struct {
	ID string `path:"id" maxLength:"64" doc:"Record ID"`
}

// ListBooksOutput wraps a list of books for Huma.
type ListBooksOutput struct {
	Body struct {
		Books []BookResponse `json:"books" doc:"Books"`
	}
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body BookResponse
}

// ListAuthorsOutput wraps a list of authors for Huma.
type ListAuthorsOutput struct {
	Body struct {
		Authors []AuthorResponse `json:"authors" doc:"Authors"`
	}
}

func toBookResponse(b *domain.BookWithAuthor) BookResponse {
	return BookResponse{
		ID:          b.ID,
		Title:       b.Title,
		PublishDate: b.PublishDateString(),
		AuthorID:    b.AuthorID,
		AuthorName:  b.AuthorName,
		Audience:    string(b.Audience),
		CreatedAt:   b.CreatedAt,
	}
}

func toBookResponses(books []*domain.BookWithAuthor) []BookResponse {
	out := make([]BookResponse, len(books))
	for i, b := range books {
		out[i] = toBookResponse(b)
	}
	return out
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Catalog.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	out := &ListBooksOutput{}
	out.Body.Books = toBookResponses(books)
	return out, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *IDInput) (*BookOutput, error) {
	book, err := s.services.Catalog.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleListAuthors(ctx context.Context, _ *struct{}) (*ListAuthorsOutput, error) {
	authors, err := s.services.Catalog.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}
	out := &ListAuthorsOutput{}
	out.Body.Authors = make([]AuthorResponse, len(authors))
	for i, a := range authors {
		out.Body.Authors[i] = AuthorResponse{
			ID:        a.ID,
			Name:      a.Name,
			BookCount: a.BookCount,
			CreatedAt: a.CreatedAt,
		}
	}
	return out, nil
}

func (s *Server) handleListAuthorBooks(ctx context.Context, input *IDInput) (*ListBooksOutput, error) {
	books, err := s.services.Catalog.ListBooksByAuthor(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	out := &ListBooksOutput{}
	out.Body.Books = toBookResponses(books)
	return out, nil
}
