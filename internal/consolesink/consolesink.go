// Package consolesink provides the single serialized writer every worker
// and the crawler coordinator log through. A worker composes one full
// line, then hands it to the sink in one call; logrus's own mutex gives
// the interleaving guarantee, so nothing here does its own locking.
package consolesink

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Sink is a serialized console writer split into an Out stream (progress,
// discoveries) and an Err stream (nested error traces, innermost first).
type Sink struct {
	out *logrus.Logger
	err *logrus.Logger
}

// New builds a Sink writing Out lines to out and Err lines to errOut,
// both with a plain text formatter and no timestamp (the crawler's own
// messages already carry the context worth logging).
func New(out, errOut io.Writer) *Sink {
	return &Sink{
		out: newLogger(out),
		err: newLogger(errOut),
	}
}

// NewStdio is New(os.Stdout, os.Stderr), matching spec.md §6's standard
// output/standard error split.
func NewStdio() *Sink {
	return New(os.Stdout, os.Stderr)
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	return l
}

// Out returns the progress-log side as a logrus.FieldLogger, so callers
// can attach structured fields (callsign, worker id) the way the pack's
// components do.
func (s *Sink) Out() logrus.FieldLogger { return s.out }

// Err returns the error-trace side as a logrus.FieldLogger.
func (s *Sink) Err() logrus.FieldLogger { return s.err }

// Info composes and writes one progress-log line.
func (s *Sink) Info(msg string) { s.out.Info(msg) }

// Infof is Info with fmt-style formatting.
func (s *Sink) Infof(format string, args ...interface{}) { s.out.Infof(format, args...) }

// Error composes and writes one error-trace line.
func (s *Sink) Error(msg string) { s.err.Error(msg) }
