// Package notefilter narrows an already fetched note list. Both predicates are
// optional and combine with AND.
package notefilter

import (
	"strings"

	"notely/notely/sources/psql/models"

	"golang.org/x/text/cases"
)

type Criteria struct {
	Query         string
	FavoritesOnly bool
}

func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Query) == "" && !c.FavoritesOnly
}

// Apply returns the notes matching c, preserving order. A blank query
// matches every note.
func Apply(notes []models.Note, c Criteria) []models.Note {
	out := make([]models.Note, 0, len(notes))
	if c.IsZero() {
		return append(out, notes...)
	}
	fold := cases.Fold()
	query := fold.String(strings.TrimSpace(c.Query))
	for _, n := range notes {
		if c.FavoritesOnly && !n.IsFavorite {
			continue
		}
		if query != "" && !matches(fold, n, query) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func matches(fold cases.Caser, n models.Note, query string) bool {
	return strings.Contains(fold.String(n.Title), query) ||
		strings.Contains(fold.String(n.Content), query)
}
