package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/booksapp/books-server/internal/auth"
	"github.com/booksapp/books-server/internal/search"
	"github.com/booksapp/books-server/internal/store/sqlite"
)

type testServices struct {
	store    *sqlite.Store
	tokens   *auth.TokenService
	sessions *SessionService
	auth     *AuthService
	catalog  *CatalogService
}

// setupServices wires every service against a fresh in-memory database.
func setupServices(t *testing.T) *testServices {
	t.Helper()

	s, err := sqlite.Open(sqlite.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key, err := auth.GenerateKey()
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key)
	require.NoError(t, err)

	index, err := search.NewIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	sessions := NewSessionService(s, tokens, 24*time.Hour, nil)
	return &testServices{
		store:    s,
		tokens:   tokens,
		sessions: sessions,
		auth:     NewAuthService(s, sessions, nil),
		catalog:  NewCatalogService(s, index, nil),
	}
}
