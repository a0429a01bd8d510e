package recfmt

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/n0call/baw/internal/bawerr"
)

// CallsignFieldSize is the fixed, null-terminated on-disk width of a
// callsign field (spec: max visible length 15, one byte reserved for the
// terminator).
const CallsignFieldSize = 16

var callsignPattern = regexp.MustCompile(`^[A-Z0-9]{3,8}(-([0-9]|1[0-5]))?$`)

// NormalizeCallsign strips a leading alias "*" prefix, upper-cases, and
// validates against the lexical rule (length 3-8 plus an optional -SSID in
// [0,15]). The returned string is what gets persisted and indexed.
func NormalizeCallsign(raw string) (string, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "*")
	s = strings.ToUpper(s)
	if !callsignPattern.MatchString(s) {
		return "", bawerr.Wrap(bawerr.InvalidCallsign, nil, fmt.Sprintf("malformed callsign %q", raw))
	}
	return s, nil
}

func putCallsign(field []byte, callsign string) error {
	if len(callsign) > len(field)-1 {
		return bawerr.Wrap(bawerr.InvalidCallsign, nil, fmt.Sprintf("callsign %q does not fit in a %d-byte field", callsign, len(field)))
	}
	for i := range field {
		field[i] = 0
	}
	copy(field, callsign)
	return nil
}

func getCallsign(field []byte) (string, error) {
	idx := bytes.IndexByte(field, 0)
	if idx == -1 {
		return "", bawerr.Wrap(bawerr.Corrupt, nil, "callsign field is not null-terminated")
	}
	return string(field[:idx]), nil
}
