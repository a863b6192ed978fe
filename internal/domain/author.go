package domain

// Author wrote one or more books in the catalog.
type Author struct {
	Entity
	Name string `json:"name"`
}

// AuthorWithCount pairs an author with the number of their books.
type AuthorWithCount struct {
	Author
	BookCount int `json:"book_count"`
}
