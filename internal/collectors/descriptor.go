package collectors

import "strings"

// NormalizeTitle appends a period when the title does not already end in
// terminal punctuation. Empty titles stay empty.
func NormalizeTitle(title string) string {
	if title == "" {
		return title
	}
	switch title[len(title)-1] {
	case '.', '?', '!':
		return title
	}
	return title + "."
}

// BuildDescriptor joins the normalized title and body parts with single spaces.
// Parts are not trimmed, so empty rule text still contributes its separator.
func BuildDescriptor(title string, parts ...string) string {
	var b strings.Builder
	b.WriteString(NormalizeTitle(title))
	for _, p := range parts {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	return b.String()
}
