package links

import (
	"regexp"
	"strings"

	"github.com/linkpatrol/linkpatrol/internal/transport"
)

// urlPattern is the plain-text fallback matcher: http/https scheme, a host and
// optional path/query/fragment characters.
var urlPattern = regexp.MustCompile(`https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+[/\w.\-?=%&#@!$+]*`)

// Extract returns the normalized URLs of a message in first-appearance order,
// duplicates removed.
//
// Entity spans are authoritative: "url" entities slice the text, "text_link"
// entities carry their own target. The regex fallback runs only when the
// entity pass yields zero URLs. A message with neither text nor caption
// extracts nothing.
func Extract(msg *transport.Message) []string {
	if msg == nil {
		return nil
	}

	text := msg.Text
	entities := msg.Entities
	if text == "" {
		text = msg.Caption
		entities = msg.CaptionEntities
	}
	if text == "" {
		return nil
	}

	var raw []string
	for _, e := range entities {
		switch e.Type {
		case transport.EntityURL:
			raw = append(raw, sliceUTF16(text, e.Offset, e.Length))
		case transport.EntityTextLink:
			raw = append(raw, e.URL)
		}
	}
	if len(raw) == 0 {
		raw = urlPattern.FindAllString(text, -1)
	}

	var out []string
	seen := make(map[string]struct{}, len(raw))
	for _, u := range raw {
		n := Normalize(u)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// sliceUTF16 cuts a substring by UTF-16 code unit offsets, the unit entity
// spans are measured in.
func sliceUTF16(s string, offset, length int) string {
	var b strings.Builder
	pos := 0
	for _, r := range s {
		units := 1
		if r > 0xFFFF {
			units = 2
		}
		if pos >= offset+length {
			break
		}
		if pos >= offset {
			b.WriteRune(r)
		}
		pos += units
	}
	return b.String()
}
