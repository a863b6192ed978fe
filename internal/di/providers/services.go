package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/booksapp/books-server/internal/auth"
	"github.com/booksapp/books-server/internal/config"
	"github.com/booksapp/books-server/internal/logger"
	"github.com/booksapp/books-server/internal/service"
)

// ProvideSessionService provides the session service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, cfg.Session.Duration, log.Component("sessions")), nil
}

// ProvideAuthService provides the signup and login service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, sessionService, log.Component("auth")), nil
}

// ProvideCatalogService provides the catalog service, seeding the demo
// catalog when configured and loading every record into the search index.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	catalog := service.NewCatalogService(storeHandle.Store, indexHandle.Index, log.Component("catalog"))
	ctx := context.Background()

	if cfg.Catalog.SeedOnStartup {
		result, err := catalog.Seed(ctx)
		if err != nil {
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		log.Info("Demo catalog seeded", "authors", result.Authors, "books", result.Books)
	}

	if err := catalog.RebuildIndex(ctx); err != nil {
		return nil, fmt.Errorf("build search index: %w", err)
	}

	return catalog, nil
}
