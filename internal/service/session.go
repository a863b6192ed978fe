package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/booksapp/books-server/internal/auth"
	"github.com/booksapp/books-server/internal/domain"
	domainerrors "github.com/booksapp/books-server/internal/errors"
	"github.com/booksapp/books-server/internal/id"
	"github.com/booksapp/books-server/internal/store"
)

// touchInterval limits how often a session's last seen time is written.
const touchInterval = time.Minute

// SessionService handles browser session lifecycle.
// The cookie token names a session row; the row decides whether it is valid.
type SessionService struct {
	store        store.Store
	tokenService *auth.TokenService
	ttl          time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewSessionService creates a new session management service.
func NewSessionService(
	store store.Store,
	tokenService *auth.TokenService,
	ttl time.Duration,
	logger *slog.Logger,
) *SessionService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionService{
		store:        store,
		tokenService: tokenService,
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

// Create starts a session for user and returns it with its cookie token.
func (s *SessionService) Create(ctx context.Context, user *domain.User, ipAddress, userAgent string) (*domain.Session, string, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, "", fmt.Errorf("generate session ID: %w", err)
	}

	session := domain.NewSession(sessionID, user.ID, s.ttl)
	session.IPAddress = ipAddress
	session.UserAgent = userAgent

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}

	token, err := s.tokenService.IssueSessionToken(session)
	if err != nil {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}

	s.logger.Info("session created", "session_id", session.ID, "user_id", user.ID)
	return session, token, nil
}

// Verify resolves a cookie token to its session and user. Any invalid,
// expired, or revoked token yields an Unauthorized error.
func (s *SessionService) Verify(ctx context.Context, token string) (*domain.Session, *domain.User, error) {
	if token == "" {
		return nil, nil, domainerrors.Unauthorized("not logged in")
	}

	claims, err := s.tokenService.VerifySessionToken(token)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid session").WithCause(err)
	}

	session, err := s.store.GetSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("session has ended").WithCause(err)
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != claims.UserID {
		return nil, nil, domainerrors.Unauthorized("invalid session")
	}

	now := s.now()
	if session.IsExpired(now) {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil {
			s.logger.Warn("failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, nil, domainerrors.Unauthorized("session has expired")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.store.DeleteSession(ctx, session.ID)
			return nil, nil, domainerrors.Unauthorized("user no longer exists").WithCause(err)
		}
		return nil, nil, fmt.Errorf("get session user: %w", err)
	}

	if now.Sub(session.LastSeenAt) >= touchInterval {
		if err := s.store.TouchSession(ctx, session.ID, now.UTC()); err != nil {
			s.logger.Warn("failed to touch session", "session_id", session.ID, "error", err)
		} else {
			session.LastSeenAt = now.UTC()
		}
	}

	return session, user, nil
}

// Delete ends a session. Ending an unknown session is not an error.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

// DeleteExpired removes all expired sessions.
// This should be run periodically as a cleanup job.
func (s *SessionService) DeleteExpired(ctx context.Context) (int, error) {
	count, err := s.store.DeleteExpiredSessions(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if count > 0 {
		s.logger.Info("deleted expired sessions", "count", count)
	}
	return count, nil
}
