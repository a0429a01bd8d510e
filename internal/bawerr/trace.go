package bawerr

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// PrintTrace writes err's cause chain to w, innermost cause first, which is
// the order a reader wants: "here is the root problem, and here is
// everything that wrapped it on the way up". Each line strips the
// concatenated text of the cause it wraps, so a chain of five Wrap calls
// produces five short lines rather than five times the same long one.
func PrintTrace(w io.Writer, err error) {
	var chain []error
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, e)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		msg := chain[i].Error()
		if i+1 < len(chain) {
			suffix := ": " + chain[i+1].Error()
			msg = strings.TrimSuffix(msg, suffix)
		}
		fmt.Fprintln(w, msg)
	}
}
