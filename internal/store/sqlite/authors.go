package sqlite

import (
	"context"

	"github.com/booksapp/books-server/internal/domain"
	"github.com/booksapp/books-server/internal/normalize"
)

const authorColumns = `a.id, a.name, a.created_at, a.updated_at`

func scanAuthor(scanner interface{ Scan(dest ...any) error }, extra ...any) (*domain.Author, error) {
	var (
		a         domain.Author
		createdAt string
		updatedAt string
	)

	dest := append([]any{&a.ID, &a.Name, &createdAt, &updatedAt}, extra...)
	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAuthor inserts an author.
func (s *Store) CreateAuthor(ctx context.Context, author *domain.Author) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authors (id, name, sort_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		author.ID,
		author.Name,
		normalize.SortKey(author.Name),
		formatTime(author.CreatedAt),
		formatTime(author.UpdatedAt),
	)
	return mapWriteError(err)
}

// GetAuthor retrieves an author by ID.
func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors a WHERE a.id = ?`, id)
	a, err := scanAuthor(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return a, nil
}

// GetAuthorByName finds an author by name, ignoring case and accents. When
// several authors share a name the oldest wins.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+authorColumns+` FROM authors a
		WHERE a.sort_name = ?
		ORDER BY a.created_at ASC
		LIMIT 1`, normalize.SortKey(name))
	a, err := scanAuthor(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return a, nil
}

// ListAuthors returns every author ordered by name with their book counts.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.AuthorWithCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+authorColumns+`, COUNT(b.id)
		FROM authors a
		LEFT JOIN books b ON b.author_id = a.id
		GROUP BY a.id
		ORDER BY a.sort_name ASC, a.created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var authors []*domain.AuthorWithCount
	for rows.Next() {
		var count int
		a, err := scanAuthor(rows, &count)
		if err != nil {
			return nil, err
		}
		authors = append(authors, &domain.AuthorWithCount{Author: *a, BookCount: count})
	}
	return authors, rows.Err()
}
