package providers

import (
	"github.com/samber/do/v2"

	"github.com/booksapp/books-server/internal/logger"
	"github.com/booksapp/books-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory full-text index. It starts empty;
// ProvideCatalogService fills it from the database.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewIndex(log.Component("search"))
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{Index: index}, nil
}
