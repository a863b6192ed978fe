// Package store defines the persistence interface for the books server.
package store

import (
	"context"
	"time"

	"github.com/booksapp/books-server/internal/domain"
)

// Store defines every persistence operation used by the services.
//
// Lookups return ErrNotFound for missing rows; inserts that collide with a
// unique key return ErrAlreadyExists.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	CountUsers(ctx context.Context) (int, error)

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	TouchSession(ctx context.Context, id string, seenAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Authors
	CreateAuthor(ctx context.Context, author *domain.Author) error
	GetAuthor(ctx context.Context, id string) (*domain.Author, error)
	GetAuthorByName(ctx context.Context, name string) (*domain.Author, error)
	ListAuthors(ctx context.Context) ([]*domain.AuthorWithCount, error)

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.BookWithAuthor, error)
	GetBookByTitle(ctx context.Context, authorID, title string) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.BookWithAuthor, error)
	ListBooksByAuthor(ctx context.Context, authorID string) ([]*domain.BookWithAuthor, error)
	CountBooks(ctx context.Context) (int, error)
}
