// Package id generates prefixed identifiers for catalog and account records.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used for each record type.
const (
	PrefixAuthor  = "author"
	PrefixBook    = "book"
	PrefixUser    = "user"
	PrefixSession = "session"
)

// Generate returns prefix-<nanoid>, e.g. "book-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + n, nil
}

// MustGenerate is like Generate but panics when the system has no entropy.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// HasPrefix reports whether v looks like an ID generated with prefix.
func HasPrefix(v, prefix string) bool {
	rest, ok := strings.CutPrefix(v, prefix+"-")
	return ok && rest != ""
}
