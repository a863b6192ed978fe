package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search.
type Params struct {
	Query    string
	Types    []DocType // empty means all
	Audience string    // books only; empty means any
	Limit    int
	Offset   int
}

// Result is one page of search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
	// Audiences counts matching books per audience.
	Audiences map[string]int `json:"audiences,omitempty"`
}

// Hit is a single matching book or author.
type Hit struct {
	ID       string  `json:"id"`
	Type     DocType `json:"type"`
	Score    float64 `json:"score"`
	Name     string  `json:"name"`
	Author   string  `json:"author,omitempty"`
	AuthorID string  `json:"author_id,omitempty"`
	Audience string  `json:"audience,omitempty"`
	Year     int     `json:"year,omitempty"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Search runs params against the index. Results are ordered by relevance, or
// by name when the query is empty.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Limit <= 0 {
		params.Limit = defaultLimit
	}
	params.Limit = min(params.Limit, maxLimit)
	params.Offset = max(params.Offset, 0)
	params.Query = strings.TrimSpace(params.Query)

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	if params.Query == "" {
		req.SortBy([]string{"sort_name", "_id"})
	} else {
		req.SortBy([]string{"-_score", "sort_name"})
	}
	req.Fields = []string{"type", "name", "author", "author_id", "audience", "year"}
	req.AddFacet("audience", bleve.NewFacetRequest("audience", 4))

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["type"].(string); ok {
			hit.Type = DocType(v)
		}
		if v, ok := h.Fields["name"].(string); ok {
			hit.Name = v
		}
		if v, ok := h.Fields["author"].(string); ok {
			hit.Author = v
		}
		if v, ok := h.Fields["author_id"].(string); ok {
			hit.AuthorID = v
		}
		if v, ok := h.Fields["audience"].(string); ok {
			hit.Audience = v
		}
		if v, ok := h.Fields["year"].(float64); ok {
			hit.Year = int(v)
		}
		out.Hits = append(out.Hits, hit)
	}

	if facet, ok := res.Facets["audience"]; ok && facet.Terms != nil {
		out.Audiences = make(map[string]int)
		for _, term := range facet.Terms.Terms() {
			out.Audiences[term.Term] = term.Count
		}
	}
	return out, nil
}

func buildQuery(params Params) query.Query {
	var must []query.Query

	if params.Query != "" {
		title := bleve.NewMatchQuery(params.Query)
		title.SetField("name")
		title.SetBoost(3.0)

		author := bleve.NewMatchQuery(params.Query)
		author.SetField("author")
		author.SetBoost(1.5)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(params.Query))
		fuzzy.SetField("name")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		text := []query.Query{title, author, fuzzy}
		if len(params.Query) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		must = append(must, bleve.NewDisjunctionQuery(text...))
	}

	if len(params.Types) > 0 {
		types := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("type")
			types[i] = tq
		}
		must = append(must, bleve.NewDisjunctionQuery(types...))
	}

	if params.Audience != "" {
		aq := bleve.NewTermQuery(params.Audience)
		aq.SetField("audience")
		must = append(must, aq)
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}
