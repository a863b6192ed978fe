// Package service implements the account and catalog operations behind the
// HTML and JSON handlers.
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
	"github.com/booksapp/books-server/internal/normalize"
	"github.com/booksapp/books-server/internal/store"
	"github.com/booksapp/books-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// Messages shown on the signup and login forms.
const (
	MsgUsernameTaken   = "That username is taken. Please choose a different one."
	MsgUnknownUsername = "No user with that username. Please try again."
	MsgWrongPassword   = "Password doesn't match. Please try again."
)

// AuthService handles signup, login and logout.
// Session management is delegated to SessionService.
type AuthService struct {
	store          store.Store
	sessionService *SessionService
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.Store, sessionService *SessionService, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		store:          store,
		sessionService: sessionService,
		logger:         logger,
	}
}

// SignupRequest contains the new account's credentials.
type SignupRequest struct {
	Username string `form:"username" json:"username" validate:"notblank,trimmed,max=80"`
	Password string `form:"password" json:"password" validate:"required,max=1024"`
}

// LoginRequest contains user credentials and client details.
type LoginRequest struct {
	Username  string `form:"username" json:"username" validate:"notblank,max=80"`
	Password  string `form:"password" json:"password" validate:"required,max=1024"`
	IPAddress string `json:"-"` // Extracted from request by handler
	UserAgent string `json:"-"`
}

// LoginResponse is a successful login.
type LoginResponse struct {
	User    *domain.User
	Session *domain.Session
	Token   string
}

// Signup creates a user. A username already in use yields an AlreadyExists
// error carrying MsgUsernameTaken.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	req.Username = normalize.Username(req.Username)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, domainerrors.AlreadyExists(MsgUsernameTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
	}
	user.ID = userID
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same name.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists(MsgUsernameTaken).WithCause(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login checks credentials and starts a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Username = normalize.Username(req.Username)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(MsgUnknownUsername)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.logger.Info("login failed", "user_id", user.ID, "ip", req.IPAddress)
		return nil, domainerrors.InvalidCredentials(MsgWrongPassword)
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(req.Password); err != nil {
			s.logger.Warn("failed to rehash password", "user_id", user.ID, "error", err)
		} else {
			user.PasswordHash = hash
		}
	}

	user.RecordLogin(time.Now())
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("failed to record login", "user_id", user.ID, "error", err)
	}

	session, token, err := s.sessionService.Create(ctx, user, req.IPAddress, req.UserAgent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "session_id", session.ID)
	return &LoginResponse{User: user, Session: session, Token: token}, nil
}

// Logout ends the session named by token. Logging out without a valid
// session is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	session, _, err := s.sessionService.Verify(ctx, token)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrUnauthorized) {
			return nil
		}
		return err
	}
	return s.sessionService.Delete(ctx, session.ID)
}

// CurrentUser returns the user logged in with token, or nil when the token is
// missing or no longer valid.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	if token == "" {
		return nil, nil, nil
	}
	session, user, err := s.sessionService.Verify(ctx, token)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrUnauthorized) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return user, session, nil
}
