// Package main provides the entry point for the books server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/booksapp/books-server/internal/config"
	"github.com/booksapp/books-server/internal/di"
	"github.com/booksapp/books-server/internal/logger"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	// Create DI container
	injector := di.NewContainer(cfg)

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Services are shut down in reverse dependency order: the HTTP server
	// drains first, the database closes last.
	if report := injector.Shutdown(); report != nil && !report.Succeed {
		log.Error("Shutdown error", "error", report)
	}

	log.Info("Server stopped")
}
