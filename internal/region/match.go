package region

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, NFD-decomposes, strips combining diacritical marks
// and trims whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// Match resolves a free-text neighborhood against the catalog.
//
// Precedence, first hit wins:
//  1. exact match against a normalized canonical key
//  2. exact match against a normalized alias
//  3. substring match against a canonical key (either containment direction)
//  4. substring match against an alias
//
// Exact matches must never be shadowed by looser substring matches; the
// substring fallback exists for truncated or embellished user input and
// runs last.
func (c *Catalog) Match(input string) (*Record, bool) {
	norm := Normalize(input)
	if norm == "" {
		return nil, false
	}

	if r, ok := c.byCanonical[norm]; ok {
		return r, true
	}
	if r, ok := c.byAlias[norm]; ok {
		return r, true
	}

	for i := range c.records {
		r := &c.records[i]
		key := Normalize(r.Key)
		if strings.Contains(key, norm) || strings.Contains(norm, key) {
			return r, true
		}
	}
	for i := range c.records {
		r := &c.records[i]
		for _, alias := range r.Aliases {
			a := Normalize(alias)
			if strings.Contains(a, norm) || strings.Contains(norm, a) {
				return r, true
			}
		}
	}

	return nil, false
}
