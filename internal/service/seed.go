package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/booksapp/books-server/internal/domain"
	"github.com/booksapp/books-server/internal/store"
)

type seedBook struct {
	Title       string
	PublishDate string
	Audience    domain.Audience
}

type seedAuthor struct {
	Name  string
	Books []seedBook
}

// demoCatalog is the catalog installed by Seed.
var demoCatalog = []seedAuthor{
	{
		Name: "Harper Lee",
		Books: []seedBook{
			{Title: "To Kill a Mockingbird", PublishDate: "1960-07-11", Audience: domain.AudienceAll},
		},
	},
	{
		Name: "Sylvia Plath",
		Books: []seedBook{
			{Title: "The Bell Jar", Audience: domain.AudienceAdult},
		},
	},
}

// SeedResult counts the records Seed inserted.
type SeedResult struct {
	Authors int
	Books   int
}

// Seed installs the demo catalog. Authors and books that already exist are
// left alone, so running it twice inserts nothing the second time.
func (s *CatalogService) Seed(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}

	for _, sa := range demoCatalog {
		author, err := s.store.GetAuthorByName(ctx, sa.Name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			author, err = s.CreateAuthor(ctx, CreateAuthorRequest{Name: sa.Name})
			if err != nil {
				return nil, fmt.Errorf("seed author %q: %w", sa.Name, err)
			}
			result.Authors++
		case err != nil:
			return nil, fmt.Errorf("look up author %q: %w", sa.Name, err)
		}

		for _, sb := range sa.Books {
			_, err := s.store.GetBookByTitle(ctx, author.ID, sb.Title)
			if err == nil {
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("look up book %q: %w", sb.Title, err)
			}

			_, err = s.CreateBook(ctx, CreateBookRequest{
				Title:       sb.Title,
				PublishDate: sb.PublishDate,
				AuthorID:    author.ID,
				Audience:    string(sb.Audience),
			})
			if err != nil {
				return nil, fmt.Errorf("seed book %q: %w", sb.Title, err)
			}
			result.Books++
		}
	}

	if result.Authors > 0 || result.Books > 0 {
		s.logger.Info("demo catalog seeded", "authors", result.Authors, "books", result.Books)
	}
	return result, nil
}
