package sqlite

import (
	"context"
	"database/sql"

	"github.com/booksapp/books-server/internal/domain"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, username, password_hash, created_at, updated_at, last_login_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u           domain.User
		createdAt   string
		updatedAt   string
		lastLoginAt sql.NullString
	)

	if err := scanner.Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt, &updatedAt, &lastLoginAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if u.LastLoginAt, err = parseNullableTime(lastLoginAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. A taken username yields store.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at, updated_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		nullTimeString(user.LastLoginAt),
	)
	return mapWriteError(err)
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by exact username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return u, nil
}

// UpdateUser rewrites the mutable columns of an existing user.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = ?, password_hash = ?, updated_at = ?, last_login_at = ?
		WHERE id = ?`,
		user.Username,
		user.PasswordHash,
		formatTime(user.UpdatedAt),
		nullTimeString(user.LastLoginAt),
		user.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	return requireAffected(result)
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
