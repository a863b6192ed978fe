package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/booksapp/books-server/internal/auth"
	"github.com/booksapp/books-server/internal/domain"
	domainerrors "github.com/booksapp/books-server/internal/errors"
	"github.com/booksapp/books-server/internal/id"
)

func TestAuthService_Signup_Success(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	user, err := svc.auth.Signup(ctx, SignupRequest{Username: "me1", Password: "password"})
	require.NoError(t, err)

	assert.Equal(t, "me1", user.Username)
	assert.True(t, id.HasPrefix(user.ID, id.PrefixUser))
	assert.NotEqual(t, "password", user.PasswordHash)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "password"))

	count, err := svc.store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := svc.store.GetUserByUsername(ctx, "me1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestAuthService_Signup_DuplicateUsername(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	_, err := svc.auth.Signup(ctx, SignupRequest{Username: "me1", Password: "password"})
	require.NoError(t, err)

	_, err = svc.auth.Signup(ctx, SignupRequest{Username: "me1", Password: "another"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))
	assert.Equal(t, MsgUsernameTaken, domainerrors.Message(err))

	count, err := svc.store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuthService_Signup_NormalizesUnicode(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	_, err := svc.auth.Signup(ctx, SignupRequest{Username: "Renée", Password: "password"})
	require.NoError(t, err)

	_, err = svc.auth.Signup(ctx, SignupRequest{Username: "Renée", Password: "password"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))

	// Usernames are case-sensitive.
	_, err = svc.auth.Signup(ctx, SignupRequest{Username: "RENÉE", Password: "password"})
	assert.NoError(t, err)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     SignupRequest
		wantMsg string
	}{
		{"blank username", SignupRequest{Username: "  ", Password: "password"}, "Username is required."},
		{"missing password", SignupRequest{Username: "me1"}, "Password is required."},
		{"leading space", SignupRequest{Username: " me1", Password: "password"}, "Username must not start or end with spaces."},
		{"trailing space", SignupRequest{Username: "me1\t", Password: "password"}, "Username must not start or end with spaces."},
		{"long username", SignupRequest{Username: strings.Repeat("a", 81), Password: "p"}, "Username must not exceed 80 characters."},
		{"long password", SignupRequest{Username: "me1", Password: strings.Repeat("p", 1025)}, "Password must not exceed 1024 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.auth.Signup(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
			assert.Equal(t, tt.wantMsg, domainerrors.Message(err))
		})
	}

	count, err := svc.store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAuthService_Login_Success(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	user, err := svc.auth.Signup(ctx, SignupRequest{Username: "me1", Password: "password"})
	require.NoError(t, err)

	resp, err := svc.auth.Login(ctx, LoginRequest{
		Username:  "me1",
		Password:  "password",
		IPAddress: "192.0.2.1",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "192.0.2.1", resp.Session.IPAddress)

	stored, err := svc.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)

	current, session, err := svc.auth.CurrentUser(ctx, resp.Token)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
	assert.Equal(t, resp.Session.ID, session.ID)
}

func TestAuthService_Login_UnknownUsername(t *testing.T) {
	svc := setupServices(t)

	resp, err := svc.auth.Login(context.Background(), LoginRequest{Username: "nobody", Password: "password"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	assert.Equal(t, MsgUnknownUsername, domainerrors.Message(err))
}

func TestAuthService_PaddedUsernameIsDistinct(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	_, err := svc.auth.Signup(ctx, SignupRequest{Username: "me1", Password: "password"})
	require.NoError(t, err)

	// " me1" is not the existing account, so it is neither found nor taken.
	resp, err := svc.auth.Login(ctx, LoginRequest{Username: " me1", Password: "password"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	assert.Equal(t, MsgUnknownUsername, domainerrors.Message(err))

	_, err = svc.auth.Signup(ctx, SignupRequest{Username: " me1", Password: "password"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.NotEqual(t, MsgUsernameTaken, domainerrors.Message(err))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	user, err := svc.auth.Signup(ctx, SignupRequest{Username: "me1", Password: "password"})
	require.NoError(t, err)

	resp, err := svc.auth.Login(ctx, LoginRequest{Username: "me1", Password: "wrong"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials))
	assert.Equal(t, MsgWrongPassword, domainerrors.Message(err))

	stored, err := svc.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastLoginAt)
}

func TestAuthService_Login_UpgradesLegacyHash(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{Username: "legacy", PasswordHash: string(legacy)}
	user.ID = id.MustGenerate(id.PrefixUser)
	user.InitTimestamps()
	require.NoError(t, svc.store.CreateUser(ctx, user))

	_, err = svc.auth.Login(ctx, LoginRequest{Username: "legacy", Password: "password"})
	require.NoError(t, err)

	stored, err := svc.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, auth.NeedsRehash(stored.PasswordHash))
	assert.True(t, auth.VerifyPassword(stored.PasswordHash, "password"))
}

func TestAuthService_Logout(t *testing.T) {
	svc := setupServices(t)
	ctx := context.Background()

	_, err := svc.auth.Signup(ctx, SignupRequest{Username: "me1", Password: "password"})
	require.NoError(t, err)
	resp, err := svc.auth.Login(ctx, LoginRequest{Username: "me1", Password: "password"})
	require.NoError(t, err)

	require.NoError(t, svc.auth.Logout(ctx, resp.Token))

	_, err = svc.store.GetSession(ctx, resp.Session.ID)
	assert.Error(t, err)

	current, _, err := svc.auth.CurrentUser(ctx, resp.Token)
	require.NoError(t, err)
	assert.Nil(t, current)

	// Logging out again, or anonymously, is a no-op.
	assert.NoError(t, svc.auth.Logout(ctx, resp.Token))
	assert.NoError(t, svc.auth.Logout(ctx, ""))
	assert.NoError(t, svc.auth.Logout(ctx, "garbage"))
}

func TestAuthService_CurrentUser_Anonymous(t *testing.T) {
	svc := setupServices(t)

	user, session, err := svc.auth.CurrentUser(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Nil(t, session)
}
