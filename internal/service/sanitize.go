package service

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/dom/tekky-backend/internal/domain"
	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText strips all markup from user supplied text and trims it.
// bluemonday escapes the text it keeps, so entities are decoded again to
// store plain text.
func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func sanitizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := sanitizeText(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// requireText sanitizes s and checks it is non-empty and at most max runes.
func requireText(s string, max int, field string) (string, error) {
	clean := sanitizeText(s)
	if clean == "" {
		return "", domain.NewValidationError(field + " is required")
	}
	if utf8.RuneCountInString(clean) > max {
		return "", domain.NewValidationError(field + " is too long")
	}
	return clean, nil
}
