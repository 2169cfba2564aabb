// Package links turns raw chat messages into canonical URL keys: extraction
// from rich-text entities or plain text, and normalization into the form the
// link store uses for duplicate comparison.
package links

import "strings"

// Normalize reduces a raw URL to its canonical comparison key: the query
// string and fragment are dropped, a single trailing slash is stripped and the
// result is lowercased. Idempotent by construction.
func Normalize(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSuffix(raw, "/")
	return strings.ToLower(raw)
}
