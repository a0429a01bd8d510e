package dialogue

import "strings"

// IsPrompt reports whether line's trailing non-whitespace character is
// ">" — any trailing NULs or spaces some remotes append are stripped
// first (spec.md §9's third possibly-buggy-source note: the original
// compared raw suffixes against "> " and ">" and missed stations that
// padded further; stripping trailing whitespace first fixes that).
func IsPrompt(line string) bool {
	trimmed := strings.TrimRight(line, " \t\x00")
	return strings.HasSuffix(trimmed, ">")
}
