package domain

import "time"

// DateLayout is the form and storage layout of a book's publish date.
const DateLayout = "2006-01-02"

// Book is a catalog entry written by a single author.
type Book struct {
	Entity
	Title       string     `json:"title"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	AuthorID    string     `json:"author_id"`
	Audience    Audience   `json:"audience"`
}

// PublishDateString formats the publish date as YYYY-MM-DD, or "" when unknown.
func (b *Book) PublishDateString() string {
	if b.PublishDate == nil {
		return ""
	}
	return b.PublishDate.Format(DateLayout)
}

// BookWithAuthor is a book joined with its author's name for listings.
type BookWithAuthor struct {
	Book
	AuthorName string `json:"author_name"`
}
