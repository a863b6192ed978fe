package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping: English analysed text for
// titles and names, keyword fields for filters, and a numeric year.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = en.AnalyzerName
	name.Store = true
	name.IncludeTermVectors = true
	doc.AddFieldMappingsAt("name", name)

	author := bleve.NewTextFieldMapping()
	author.Analyzer = en.AnalyzerName
	author.Store = true
	author.IncludeTermVectors = true
	doc.AddFieldMappingsAt("author", author)

	for _, field := range []string{"type", "audience", "author_id", "sort_name"} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		kw.Store = true
		doc.AddFieldMappingsAt(field, kw)
	}

	year := bleve.NewNumericFieldMapping()
	year.Store = true
	doc.AddFieldMappingsAt("year", year)

	indexMapping.DefaultMapping = doc
	return indexMapping
}
