package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/booksapp/books-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search catalog",
		Description: "Full-text search across book titles and author names",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains parameters for searching the catalog.
type SearchInput struct {
	Query    string `query:"q" maxLength:"200" doc:"Search query. Omit to list everything by name."`
	Types    string `query:"types" maxLength:"50" doc:"Comma-separated types to search (book,author). Omit for all."`
	Audience string `query:"audience" maxLength:"20" doc:"Only books for this audience"`
	Limit    int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset   int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.Params{
		Query:    input.Query,
		Audience: input.Audience,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}
	for t := range strings.SplitSeq(input.Types, ",") {
		switch search.DocType(strings.TrimSpace(t)) {
		case search.DocTypeBook:
			params.Types = append(params.Types, search.DocTypeBook)
		case search.DocTypeAuthor:
			params.Types = append(params.Types, search.DocTypeAuthor)
		}
	}

	result, err := s.services.Catalog.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: result}, nil
}
