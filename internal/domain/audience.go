package domain

import "strings"

// Audience is the intended readership of a book.
type Audience string

const (
	AudienceChildren   Audience = "CHILDREN"
	AudienceYoungAdult Audience = "YOUNG_ADULT"
	AudienceAdult      Audience = "ADULT"
	AudienceAll        Audience = "ALL"
)

// DefaultAudience is used when a book is created without one.
const DefaultAudience = AudienceAll

// Audiences lists every audience in display order.
func Audiences() []Audience {
	return []Audience{AudienceChildren, AudienceYoungAdult, AudienceAdult, AudienceAll}
}

// AudienceValues returns the stored string of every audience in display order.
func AudienceValues() []string {
	all := Audiences()
	out := make([]string, len(all))
	for i, a := range all {
		out[i] = string(a)
	}
	return out
}

// IsValid reports whether a is one of the known audiences.
func (a Audience) IsValid() bool {
	switch a {
	case AudienceChildren, AudienceYoungAdult, AudienceAdult, AudienceAll:
		return true
	default:
		return false
	}
}

// Label is the human-readable name shown in templates.
func (a Audience) Label() string {
	switch a {
	case AudienceChildren:
		return "Children"
	case AudienceYoungAdult:
		return "Young Adult"
	case AudienceAdult:
		return "Adult"
	case AudienceAll:
		return "All"
	default:
		return string(a)
	}
}

// ParseAudience accepts a stored value in any case. An empty string yields
// DefaultAudience.
func ParseAudience(s string) (Audience, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultAudience, true
	}
	a := Audience(strings.ToUpper(s))
	return a, a.IsValid()
}
