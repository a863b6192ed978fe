// Package providers contains dependency injection providers for the books server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/booksapp/books-server/internal/config"
	"github.com/booksapp/books-server/internal/logger"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting books server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.App.DataPath,
		"database_path", cfg.Database.Path,
	)

	return log, nil
}
