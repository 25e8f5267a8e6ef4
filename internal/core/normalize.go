package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical field names produced by Normalize.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldAddress  = "address"
	FieldCompany  = "company"
	FieldPosition = "position"
)

// fieldBucket maps a canonical field to the compacted header fragments that
// select it.
type fieldBucket struct {
	field   string
	needles []string
}

// canonicalBuckets is tested in order; the first containing match wins.
var canonicalBuckets = []fieldBucket{
	{FieldName, []string{"name", "fullname"}},
	{FieldEmail, []string{"email"}},
	{FieldPhone, []string{"phone", "mobile", "tel"}},
	{FieldAddress, []string{"address", "location"}},
	{FieldCompany, []string{"company", "organization"}},
	{FieldPosition, []string{"position", "title", "job"}},
}

// Normalize maps a raw column header to a canonical field name.
//
// The header is lower-cased and stripped of everything outside [a-z0-9],
// then matched by substring against the canonical buckets. Headers that
// match nothing come back verbatim. A header with nothing left after
// stripping yields "", which callers treat as an unusable column.
//
// Matching is by containment, so "Hotel" resolves to phone.
func Normalize(header string) string {
	key := compact(header)
	if key == "" {
		return ""
	}
	for _, b := range canonicalBuckets {
		for _, n := range b.needles {
			if strings.Contains(key, n) {
				return b.field
			}
		}
	}
	return header
}

// IsCanonical reports whether field is one of the canonical field names.
func IsCanonical(field string) bool {
	return canonicalRank(field) >= 0
}

// CanonicalFields returns the canonical field names in matching order.
func CanonicalFields() []string {
	out := make([]string, len(canonicalBuckets))
	for i, b := range canonicalBuckets {
		out[i] = b.field
	}
	return out
}

func canonicalRank(field string) int {
	for i, b := range canonicalBuckets {
		if b.field == field {
			return i
		}
	}
	return -1
}

// compact lower-cases s and drops every byte outside [a-z0-9].
func compact(s string) string {
	// A Caser keeps state, so each call gets its own.
	lower := cases.Lower(language.Und).String(s)

	var b strings.Builder
	b.Grow(len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
