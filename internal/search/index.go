package search

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

const batchSize = 500

// Index wraps an in-memory Bleve index. The database is the source of truth;
// the index is rebuilt from it at startup and kept current on writes.
//
// All methods are safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	logger *slog.Logger
}

// NewIndex creates an empty in-memory index.
func NewIndex(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: idx, logger: logger}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument adds or replaces a single document.
func (s *Index) IndexDocument(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.toMap())
}

// DocumentCount returns the number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild replaces the index contents with docs. Searches running during the
// rebuild see the old contents.
func (s *Index) Rebuild(docs []*Document) error {
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := indexBatches(fresh, docs); err != nil {
		fresh.Close()
		return err
	}

	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("close previous search index", "error", err)
	}
	s.logger.Info("search index rebuilt", "documents", len(docs))
	return nil
}

func indexBatches(idx bleve.Index, docs []*Document) error {
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))

		batch := idx.NewBatch()
		for _, doc := range docs[start:end] {
			if err := batch.Index(doc.ID, doc.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("apply batch: %w", err)
		}
	}
	return nil
}
