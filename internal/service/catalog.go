package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/booksapp/books-server/internal/domain"
	domainerrors "github.com/booksapp/books-server/internal/errors"
	"github.com/booksapp/books-server/internal/id"
	"github.com/booksapp/books-server/internal/normalize"
	"github.com/booksapp/books-server/internal/search"
	"github.com/booksapp/books-server/internal/store"
)

// CatalogService manages authors and books and keeps the search index in
// step with the database.
type CatalogService struct {
	store  store.Store
	index  *search.Index
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store store.Store, index *search.Index, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CatalogService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// CreateAuthorRequest contains the data for a new author.
type CreateAuthorRequest struct {
	Name string `form:"name" json:"name" validate:"notblank,max=200"`
}

// CreateBookRequest contains the data for a new book.
// PublishDate is optional and uses the YYYY-MM-DD layout.
type CreateBookRequest struct {
	Title       string `form:"title" json:"title" validate:"notblank,max=300"`
	PublishDate string `form:"publish_date" json:"publish_date" validate:"omitempty,datetime=2006-01-02"`
	AuthorID    string `form:"author_id" json:"author_id" validate:"required"`
	Audience    string `form:"audience" json:"audience" validate:"omitempty,audience"`
}

// CreateAuthor adds an author to the catalog.
func (s *CatalogService) CreateAuthor(ctx context.Context, req CreateAuthorRequest) (*domain.Author, error) {
	req.Name = normalize.Text(req.Name)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	authorID, err := id.Generate(id.PrefixAuthor)
	if err != nil {
		return nil, fmt.Errorf("generate author ID: %w", err)
	}

	author := &domain.Author{Name: req.Name}
	author.ID = authorID
	author.InitTimestamps()

	if err := s.store.CreateAuthor(ctx, author); err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}

	if err := s.index.IndexDocument(search.AuthorDocument(author)); err != nil {
		s.logger.Warn("failed to index author", "author_id", author.ID, "error", err)
	}

	s.logger.Info("author created", "author_id", author.ID, "name", author.Name)
	return author, nil
}

// GetAuthor returns an author by ID.
func (s *CatalogService) GetAuthor(ctx context.Context, authorID string) (*domain.Author, error) {
	author, err := s.store.GetAuthor(ctx, authorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("Author not found.").WithCause(err)
		}
		return nil, fmt.Errorf("get author: %w", err)
	}
	return author, nil
}

// ListAuthors returns every author with their book count, ordered by name.
func (s *CatalogService) ListAuthors(ctx context.Context) ([]*domain.AuthorWithCount, error) {
	authors, err := s.store.ListAuthors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return authors, nil
}

// CreateBook adds a book by an existing author.
func (s *CatalogService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.BookWithAuthor, error) {
	req.Title = normalize.Text(req.Title)
	req.PublishDate = strings.TrimSpace(req.PublishDate)
	req.AuthorID = strings.TrimSpace(req.AuthorID)
	req.Audience = strings.ToUpper(strings.TrimSpace(req.Audience))
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetAuthor(ctx, req.AuthorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Validation("Author must be an existing author.").WithCause(err)
		}
		return nil, fmt.Errorf("get author: %w", err)
	}

	audience, _ := domain.ParseAudience(req.Audience)

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		Title:    req.Title,
		AuthorID: req.AuthorID,
		Audience: audience,
	}
	book.ID = bookID
	book.InitTimestamps()

	if req.PublishDate != "" {
		published, err := time.Parse(domain.DateLayout, req.PublishDate)
		if err != nil {
			return nil, domainerrors.Validation("Publish date must be a date like 1960-07-11.")
		}
		book.PublishDate = &published
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return nil, domainerrors.Validation("Author must be an existing author.").WithCause(err)
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	created, err := s.store.GetBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("reload book: %w", err)
	}

	if err := s.index.IndexDocument(search.BookDocument(created)); err != nil {
		s.logger.Warn("failed to index book", "book_id", created.ID, "error", err)
	}

	s.logger.Info("book created", "book_id", created.ID, "title", created.Title, "author_id", created.AuthorID)
	return created, nil
}

// GetBook returns a book with its author's name.
func (s *CatalogService) GetBook(ctx context.Context, bookID string) (*domain.BookWithAuthor, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("Book not found.").WithCause(err)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// ListBooks returns every book ordered by title.
func (s *CatalogService) ListBooks(ctx context.Context) ([]*domain.BookWithAuthor, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListBooksByAuthor returns an author's books, oldest first.
func (s *CatalogService) ListBooksByAuthor(ctx context.Context, authorID string) ([]*domain.BookWithAuthor, error) {
	if _, err := s.GetAuthor(ctx, authorID); err != nil {
		return nil, err
	}
	books, err := s.store.ListBooksByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list books by author: %w", err)
	}
	return books, nil
}

// Search runs a full-text query over titles and author names.
func (s *CatalogService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if params.Audience != "" {
		audience, ok := domain.ParseAudience(params.Audience)
		if !ok {
			return nil, domainerrors.Validationf("Audience must be one of: %s.", strings.Join(domain.AudienceValues(), ", "))
		}
		params.Audience = string(audience)
	}
	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return result, nil
}

// RebuildIndex reloads the search index from the database.
func (s *CatalogService) RebuildIndex(ctx context.Context) error {
	authors, err := s.store.ListAuthors(ctx)
	if err != nil {
		return fmt.Errorf("list authors: %w", err)
	}
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	docs := make([]*search.Document, 0, len(authors)+len(books))
	for _, a := range authors {
		docs = append(docs, search.AuthorDocument(&a.Author))
	}
	for _, b := range books {
		docs = append(docs, search.BookDocument(b))
	}

	if err := s.index.Rebuild(docs); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	return nil
}
