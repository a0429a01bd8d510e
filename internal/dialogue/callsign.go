package dialogue

import (
	"regexp"
	"strings"

	"github.com/n0call/baw/internal/recfmt"
)

// callsignToken matches one candidate callsign token: an optional leading
// alias "*", a 3-8 character alphanumeric base, and an optional -SSID.
var callsignToken = regexp.MustCompile(`\*?\b[A-Za-z0-9]{3,8}(-[0-9]{1,2})?\b`)

// ExtractCallsigns scans line for callsign-looking tokens, normalizing
// each to its canonical uppercase form. A token immediately adjacent to a
// "/" in the original line is rejected (it is almost certainly part of a
// date like 2024/11/12, not a callsign) — this is the concrete form of
// spec.md §4.7's "full matched text contains / is rejected" rule, applied
// against the token's surrounding context since the token itself can
// never contain a "/" by construction. A token that fails the stricter
// SSID-range/lexical check in recfmt.NormalizeCallsign (the regex alone
// allows a wider range than the lexical rule) is silently dropped rather
// than treated as a parse error — a non-conforming token on an otherwise
// well-formed line should not abort the whole line.
func ExtractCallsigns(line string) []string {
	var out []string
	for _, loc := range callsignToken.FindAllStringIndex(line, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && line[start-1] == '/' {
			continue
		}
		if end < len(line) && line[end] == '/' {
			continue
		}

		token := line[start:end]
		norm, err := recfmt.NormalizeCallsign(token)
		if err != nil {
			continue
		}
		out = append(out, norm)
	}
	return out
}

// looksLikeVia reports whether token, case-insensitively, is the literal
// "VIA" keyword that introduces a route line.
func looksLikeVia(token string) bool {
	return strings.EqualFold(strings.TrimSpace(token), "VIA")
}
