// Package render turns display records into terminal cards, markdown notes
// and machine readable documents.
package render

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/storefront/internal/view"
)

// Format is an output format for store records.
type Format string

const (
	FormatTerminal Format = "terminal"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatSQLite   Format = "sqlite"
)

// Formats lists every supported export format.
var Formats = []Format{FormatTerminal, FormatMarkdown, FormatJSON, FormatYAML, FormatSQLite}

// ParseFormat maps a user supplied name onto a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatTerminal, FormatMarkdown, FormatJSON, FormatYAML, FormatSQLite:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	case "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unknown output format %q", name)
	}
}

const (
	starFull  = "★"
	starEmpty = "☆"
)

// Stars renders a rating on the five star scale.
func Stars(rating int) string {
	rating = max(0, min(rating, view.MaxRating))
	return strings.Repeat(starFull, rating) + strings.Repeat(starEmpty, view.MaxRating-rating)
}

// Footer is the "date - website" line at the bottom of a card.
func Footer(rec view.DisplayRecord) string {
	if rec.Website == "" {
		return rec.Established
	}
	return rec.Established + " - " + rec.Website
}
