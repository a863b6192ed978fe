// Package di provides dependency injection configuration for the books server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/booksapp/books-server/internal/auth"
	"github.com/booksapp/books-server/internal/config"
	"github.com/booksapp/books-server/internal/di/providers"
	"github.com/booksapp/books-server/internal/logger"
	"github.com/booksapp/books-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSessionKey)

	// Storage
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCatalogService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// Any provider failure is returned instead of panicking.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}

	// Business services
	if _, err := do.Invoke[*service.AuthService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.CatalogService](injector); err != nil {
		return err
	}

	// Workers
	if _, err := do.Invoke[*providers.SessionCleanupJob](injector); err != nil {
		return err
	}

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
