package utils

import "strings"

// CleanText replaces non-breaking spaces, collapses whitespace runs and trims.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// SplitTags splits every value on middle-dot separators and returns the
// cleaned, non-empty, distinct tags in first-seen order.
func SplitTags(values []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, v := range values {
		for _, part := range strings.FieldsFunc(v, isTagSeparator) {
			part = CleanText(part)
			if part == "" {
				continue
			}
			if _, dup := seen[part]; dup {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func isTagSeparator(r rune) bool {
	return r == '·' || r == '•'
}
