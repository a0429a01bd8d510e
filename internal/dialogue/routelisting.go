package dialogue

import (
	"fmt"
	"strings"
)

// RouteEntry is one parsed "J L" listing entry: a destination node, its
// optional forward (next-hop) node, and the via-route if the entry had
// one, destination included as the route's last element.
type RouteEntry struct {
	Dest    string
	Forward string
	Route   []string
}

// ParseRouteListing reads lines from r until a prompt or end-of-stream,
// and parses them against the grammar:
//
//	route_listing := entry* prompt
//	entry         := header_line via_line?
//	header_line   := callsign [callsign]
//	via_line      := "VIA" callsign+
//
// Each entry's Forward is a fresh local field on a freshly built
// RouteEntry per loop iteration — unlike one historical revision of the
// original parser, there is no single forward_node variable carried
// across entries for this to leak between them.
//
// The returned sawPrompt reports whether the listing was actually
// terminated by a prompt line, rather than by the connection going
// silent before one ever arrived — the caller uses this, together with
// whether the BBS-mode prompt was seen, to decide whether the dialogue
// was genuinely successful (spec.md §4.7, §8 scenario S1) before marking
// the target visited.
func ParseRouteListing(r *LineReader) (entries []RouteEntry, sawPrompt bool, err error) {
	lines, sawPrompt := collectUntilPrompt(r)
	if err := r.Err(); err != nil {
		return nil, false, err
	}

	for i := 0; i < len(lines); i++ {
		calls := ExtractCallsigns(lines[i])
		if len(calls) == 0 {
			continue
		}
		if len(calls) > 2 {
			return nil, sawPrompt, fmt.Errorf("non-conforming route listing: %d callsigns in header position: %q", len(calls), lines[i])
		}

		entry := RouteEntry{Dest: calls[0]}
		if len(calls) == 2 {
			entry.Forward = calls[1]
		}

		if i+1 < len(lines) {
			fields := strings.Fields(lines[i+1])
			if len(fields) > 0 && looksLikeVia(fields[0]) {
				hops := ExtractCallsigns(lines[i+1])
				if len(hops) > 0 {
					hops = hops[1:] // leading token is the "VIA" keyword, not a hop
				}
				entry.Route = append(hops, entry.Dest)
				i++
			}
		}

		entries = append(entries, entry)
	}
	return entries, sawPrompt, nil
}

// collectUntilPrompt reads lines until a prompt line (excluded from the
// result) or stream end, reporting which one actually happened.
func collectUntilPrompt(r *LineReader) (lines []string, sawPrompt bool) {
	for {
		line, ok := r.ReadLine()
		if !ok {
			return lines, false
		}
		if IsPrompt(line) {
			return lines, true
		}
		lines = append(lines, line)
	}
}
