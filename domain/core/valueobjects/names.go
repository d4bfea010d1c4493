package valueobjects

import "strings"

// ParseTagNames splits a comma separated tag string into canonical names.
// Names are trimmed and kept case-sensitive; empties and repeats are dropped
// and first-seen order is kept.
func ParseTagNames(raw string) []string {
	parts := strings.Split(raw, ",")
	return NormalizeTagNames(parts)
}

// NormalizeTagNames applies the same rules as ParseTagNames to names that
// were already split by the caller.
func NormalizeTagNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// NormalizeCategoryName trims the name; an empty result means no category.
func NormalizeCategoryName(raw string) string {
	return strings.TrimSpace(raw)
}
