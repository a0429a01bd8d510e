// Package bawerr defines the error kinds shared across the crawler and the
// nested, innermost-first trace printer used at the top level.
package bawerr

import "github.com/pkg/errors"

// Kind sentinels. Compare with errors.Is, never with ==: an error built
// with Wrap is never the sentinel value itself.
var (
	InvalidConfig   = errors.New("invalid config")
	InvalidCallsign = errors.New("invalid callsign")
	Corrupt         = errors.New("corrupt state file")
	Io              = errors.New("io error")
	Timeout         = errors.New("timeout")
)

// kindErr pairs a message with a kind sentinel and an optional cause, so
// that errors.Is(Wrap(Corrupt, cause, "..."), Corrupt) holds all the way up
// a chain of Wrap calls.
type kindErr struct {
	kind    error
	message string
	cause   error
}

// Wrap attaches message context to cause while preserving errors.Is(_, kind)
// for every kind in the resulting chain, including kind itself.
func Wrap(kind error, cause error, message string) error {
	return &kindErr{kind: kind, message: message, cause: cause}
}

func (e *kindErr) Error() string {
	if e.cause == nil {
		return e.message
	}
	return e.message + ": " + e.cause.Error()
}

func (e *kindErr) Unwrap() error { return e.cause }

func (e *kindErr) Is(target error) bool { return target == e.kind }
