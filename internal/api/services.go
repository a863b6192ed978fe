package api

import (
	"github.com/booksapp/books-server/internal/search"
	"github.com/booksapp/books-server/internal/service"
	"github.com/booksapp/books-server/internal/store"
)

// Services groups the dependencies used by the HTTP handlers.
type Services struct {
	Auth    *service.AuthService
	Catalog *service.CatalogService
	Store   store.Store   // health checks
	Index   *search.Index // health checks
}
