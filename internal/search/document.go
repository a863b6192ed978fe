// Package search provides full-text search over the catalog using Bleve.
// Books and authors share one in-memory index and are told apart by type.
package search

import (
	"github.com/booksapp/books-server/internal/domain"
	"github.com/booksapp/books-server/internal/normalize"
)

// DocType represents the type of document in the index.
type DocType string

// Document types for the search index.
const (
	DocTypeBook   DocType = "book"
	DocTypeAuthor DocType = "author"
)

// Document is the indexed form of a book or author.
//
// Book documents carry their author's name so a single query matches on
// either title or author.
type Document struct {
	ID       string
	Type     DocType
	Name     string // book title or author name
	SortName string
	Author   string // books only
	AuthorID string // books only
	Audience string // books only
	Year     int    // books only, 0 when unknown
}

// toMap converts the document to the lowercase field names used by the mapping.
func (d *Document) toMap() map[string]any {
	m := map[string]any{
		"id":        d.ID,
		"type":      string(d.Type),
		"name":      d.Name,
		"sort_name": d.SortName,
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.AuthorID != "" {
		m["author_id"] = d.AuthorID
	}
	if d.Audience != "" {
		m["audience"] = d.Audience
	}
	if d.Year > 0 {
		m["year"] = d.Year
	}
	return m
}

// BookDocument builds the document for a book.
func BookDocument(b *domain.BookWithAuthor) *Document {
	doc := &Document{
		ID:       b.ID,
		Type:     DocTypeBook,
		Name:     b.Title,
		SortName: normalize.SortKey(b.Title),
		Author:   b.AuthorName,
		AuthorID: b.AuthorID,
		Audience: string(b.Audience),
	}
	if b.PublishDate != nil {
		doc.Year = b.PublishDate.Year()
	}
	return doc
}

// AuthorDocument builds the document for an author.
func AuthorDocument(a *domain.Author) *Document {
	return &Document{
		ID:       a.ID,
		Type:     DocTypeAuthor,
		Name:     a.Name,
		SortName: normalize.SortKey(a.Name),
	}
}
