package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/booksapp/books-server/internal/domain"
	"github.com/booksapp/books-server/internal/normalize"
)

// bookColumns must match the scan order in scanBook.
const bookColumns = `b.id, b.title, b.publish_date, b.author_id, b.audience, b.created_at, b.updated_at, a.name`

const bookFrom = ` FROM books b JOIN authors a ON a.id = b.author_id`

func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.BookWithAuthor, error) {
	var (
		b           domain.BookWithAuthor
		publishDate sql.NullString
		audience    string
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(&b.ID, &b.Title, &publishDate, &b.AuthorID, &audience, &createdAt, &updatedAt, &b.AuthorName)
	if err != nil {
		return nil, err
	}

	b.Audience = domain.Audience(audience)
	if publishDate.Valid && publishDate.String != "" {
		d, err := time.Parse(domain.DateLayout, publishDate.String)
		if err != nil {
			return nil, err
		}
		b.PublishDate = &d
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]*domain.BookWithAuthor, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.BookWithAuthor
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// CreateBook inserts a book. A missing author yields store.ErrInvalidInput.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	var publishDate sql.NullString
	if book.PublishDate != nil {
		publishDate = sql.NullString{String: book.PublishDateString(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, sort_title, publish_date, author_id, audience, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		book.Title,
		normalize.SortKey(book.Title),
		publishDate,
		book.AuthorID,
		string(book.Audience),
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
	)
	return mapWriteError(err)
}

// GetBook retrieves a book and its author's name.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.BookWithAuthor, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+bookFrom+` WHERE b.id = ?`, id)
	b, err := scanBook(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return b, nil
}

// GetBookByTitle finds a book by one author with a matching title, ignoring
// case, accents, and a leading article.
func (s *Store) GetBookByTitle(ctx context.Context, authorID, title string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+bookColumns+bookFrom+`
		WHERE b.author_id = ? AND b.sort_title = ?
		ORDER BY b.created_at ASC
		LIMIT 1`, authorID, normalize.SortKey(title))
	b, err := scanBook(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return &b.Book, nil
}

// ListBooks returns every book ordered by title.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.BookWithAuthor, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+bookFrom+` ORDER BY b.sort_title ASC, b.created_at ASC`)
}

// ListBooksByAuthor returns one author's books ordered by publish date, undated last.
func (s *Store) ListBooksByAuthor(ctx context.Context, authorID string) ([]*domain.BookWithAuthor, error) {
	return s.queryBooks(ctx, `
		SELECT `+bookColumns+bookFrom+`
		WHERE b.author_id = ?
		ORDER BY b.publish_date IS NULL, b.publish_date ASC, b.sort_title ASC`, authorID)
}

// CountBooks returns the number of books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}
