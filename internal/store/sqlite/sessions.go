package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/booksapp/books-server/internal/domain"
)

// sessionColumns must match the scan order in scanSession.
const sessionColumns = `id, user_id, expires_at, created_at, last_seen_at, ip_address, user_agent`

func scanSession(scanner interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	var (
		sess       domain.Session
		expiresAt  string
		createdAt  string
		lastSeenAt string
		ipAddress  sql.NullString
		userAgent  sql.NullString
	)

	err := scanner.Scan(&sess.ID, &sess.UserID, &expiresAt, &createdAt, &lastSeenAt, &ipAddress, &userAgent)
	if err != nil {
		return nil, err
	}

	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sess.LastSeenAt, err = parseTime(lastSeenAt); err != nil {
		return nil, err
	}
	sess.IPAddress = ipAddress.String
	sess.UserAgent = userAgent.String

	return &sess, nil
}

// CreateSession inserts a session. The user must exist.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at, last_seen_at, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.LastSeenAt),
		nullString(session.IPAddress),
		nullString(session.UserAgent),
	)
	return mapWriteError(err)
}

// GetSession retrieves a session by ID, expired or not.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, mapReadError(err)
	}
	return sess, nil
}

// TouchSession records activity on a session.
func (s *Store) TouchSession(ctx context.Context, id string, seenAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`, formatTime(seenAt), id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteUserSessions removes every session belonging to userID.
func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredSessions removes sessions whose expiry is at or before now and
// returns how many were deleted.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
