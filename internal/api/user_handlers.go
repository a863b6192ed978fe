package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get current user",
		Description: "Returns the user logged in with the session cookie",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleGetCurrentUser)
}

// UserResponse is the logged-in user in API responses.
type UserResponse struct {
	ID          string     `json:"id" doc:"User ID"`
	Username    string     `json:"username" doc:"Username"`
	CreatedAt   time.Time  `json:"created_at" doc:"Account creation time"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" doc:"Most recent login"`
	SessionEnds *time.Time `json:"session_expires_at,omitempty" doc:"When the current session expires"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserResponse
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	resp := UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
	if session := currentSession(ctx); session != nil {
		resp.SessionEnds = &session.ExpiresAt
	}
	return &UserOutput{Body: resp}, nil
}
