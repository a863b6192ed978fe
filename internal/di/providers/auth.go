package providers

import (
	"github.com/samber/do/v2"

	"github.com/booksapp/books-server/internal/auth"
	"github.com/booksapp/books-server/internal/config"
	"github.com/booksapp/books-server/internal/logger"
)

// SessionKey wraps the symmetric key that encrypts session cookies.
type SessionKey []byte

// ProvideSessionKey loads or generates the session key. An in-memory
// database gets a throwaway key since its sessions die with the process.
func ProvideSessionKey(i do.Injector) (SessionKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		key []byte
		err error
	)
	if cfg.InMemory() {
		key, err = auth.GenerateKey()
	} else {
		key, err = auth.LoadOrGenerateKey(cfg.App.DataPath)
	}
	if err != nil {
		return nil, err
	}

	cfg.Session.Key = key

	log.Info("Session key loaded",
		"session_duration", cfg.Session.Duration,
		"ephemeral", cfg.InMemory(),
	)

	return SessionKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	key := do.MustInvoke[SessionKey](i)
	return auth.NewTokenService(key)
}
