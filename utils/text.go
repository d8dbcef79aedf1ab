// utils/text.go
package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// NormalizeKey folds a place name into a comparison key: transliterated to ASCII,
// lowercased, inner whitespace collapsed. "Île-de-France " and "ile-de-france" collide.
func NormalizeKey(s string) string {
	s = unidecode.Unidecode(strings.TrimSpace(s))
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// DisplayLabel turns an enum-ish value ("direct_activity", "e-sport") into a human label.
func DisplayLabel(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(s))
	return titleCaser.String(s)
}

// Slugify builds a URL-safe slug; the id suffix keeps slugs unique across identical titles.
func Slugify(title, id string) string {
	base := slug.Make(title)
	if id == "" {
		return base
	}
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	if base == "" {
		return short
	}
	return base + "-" + short
}
