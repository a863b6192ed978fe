// Package main seeds the configured database with the demo catalog and,
// optionally, a user account.
//
// Usage:
//
//	DATABASE_PATH=~/BooksServer/books.db go run ./cmd/seed
//	go run ./cmd/seed -username alice -password secret -- -data-path ./data
//
// Arguments after "--" are passed to the server's config loader.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/booksapp/books-server/internal/config"
	"github.com/booksapp/books-server/internal/di"
	domainerrors "github.com/booksapp/books-server/internal/errors"
	"github.com/booksapp/books-server/internal/service"
)

func main() {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	username := fs.String("username", "", "Also create a user with this username")
	password := fs.String("password", "", "Password for -username")
	_ = fs.Parse(os.Args[1:])

	if (*username == "") != (*password == "") {
		fmt.Fprintln(os.Stderr, "-username and -password must be given together")
		os.Exit(2)
	}

	cfg, err := config.Load(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}
	if cfg.InMemory() {
		fmt.Fprintln(os.Stderr, "Refusing to seed an in-memory database")
		os.Exit(2)
	}
	cfg.Catalog.SeedOnStartup = false

	injector := di.NewContainer(cfg)
	defer injector.Shutdown()

	if err := run(context.Background(), injector, *username, *password); err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		injector.Shutdown()
		os.Exit(1)
	}
}

func run(ctx context.Context, injector do.Injector, username, password string) error {
	catalog, err := do.Invoke[*service.CatalogService](injector)
	if err != nil {
		return err
	}

	fmt.Printf("Seeding database at: %s\n", do.MustInvoke[*config.Config](injector).Database.Path)

	result, err := catalog.Seed(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Created %d authors and %d books\n", result.Authors, result.Books)

	if username == "" {
		return nil
	}

	auth, err := do.Invoke[*service.AuthService](injector)
	if err != nil {
		return err
	}

	user, err := auth.Signup(ctx, service.SignupRequest{Username: username, Password: password})
	switch {
	case domainerrors.CodeOf(err) == domainerrors.CodeAlreadyExists:
		fmt.Printf("User %q already exists\n", username)
	case err != nil:
		return fmt.Errorf("create user: %w", err)
	default:
		fmt.Printf("Created user %q (%s)\n", user.Username, user.ID)
	}
	return nil
}
