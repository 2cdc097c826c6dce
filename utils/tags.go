package utils

import "strings"

// NormalizeTags trims whitespace and drops blank entries from a tag list
func NormalizeTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}

// TagOverlapCount returns how many of the user's tags appear in the
// aggregate tag set, case-insensitively
func TagOverlapCount(userTags, aggregateTags []string) int {
	seen := make(map[string]struct{}, len(aggregateTags))
	for _, tag := range aggregateTags {
		seen[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}

	counted := make(map[string]struct{})
	overlap := 0
	for _, tag := range userTags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, dup := counted[normalized]; dup {
			continue
		}
		if _, ok := seen[normalized]; ok {
			overlap++
			counted[normalized] = struct{}{}
		}
	}
	return overlap
}

// FirstTag returns the first non-blank tag across the given lists
func FirstTag(tagLists ...[]string) string {
	for _, tags := range tagLists {
		for _, tag := range tags {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
