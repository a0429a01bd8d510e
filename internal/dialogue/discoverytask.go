package dialogue

import (
	"time"

	"github.com/n0call/baw/internal/consolesink"
	"github.com/n0call/baw/internal/radio"
	"github.com/n0call/baw/internal/statefile"
)

// DefaultResponseTimeout is the per-read socket timeout spec.md §4.7
// defaults to when none is configured.
const DefaultResponseTimeout = 15 * time.Second

// Dialer opens a connection to a target station. Exists as a seam so
// tests can substitute an in-memory radio.Conn instead of a real AX.25
// socket.
type Dialer func(opts radio.DialOptions) (radio.Conn, error)

// Task is one DiscoveryTask (spec.md §4.7): visit Target, learn its
// neighbour table, and record it all in the state file.
type Task struct {
	StateFile *statefile.StateFile
	Sink      *consolesink.Sink
	Local     string
	Target    string
	Timeout   time.Duration
	Dial      Dialer
}

// Run implements workerpool.Task. It never returns a non-nil error: every
// failure inside a DiscoveryTask is logged and absorbed here, per spec.md
// §7's propagation policy, leaving the target unvisited so a future run
// retries it.
func (t *Task) Run() error {
	timeout := t.Timeout
	if timeout == 0 {
		timeout = DefaultResponseTimeout
	}

	conn, err := t.Dial(radio.DialOptions{Local: t.Local, Remote: t.Target})
	if err != nil {
		t.logErr(err, "connecting to "+t.Target)
		return nil
	}
	defer conn.Close()

	reader := NewLineReader(conn, timeout)
	reader.DrainWelcome()
	if err := reader.Err(); err != nil {
		t.logErr(err, "reading welcome banner from "+t.Target)
		return nil
	}

	bbsOK, err := t.enterBBSMode(conn, reader)
	if err != nil {
		t.logErr(err, "entering BBS mode on "+t.Target)
		return nil
	}
	if !bbsOK {
		t.Sink.Infof("%s: no BBS prompt observed, proceeding optimistically", t.Target)
	}

	if err := conn.Send([]byte("J L\r\n")); err != nil {
		t.logErr(err, "sending J L to "+t.Target)
		return nil
	}
	entries, sawPrompt, err := ParseRouteListing(reader)
	if err != nil {
		t.logErr(err, "parsing route listing from "+t.Target)
		return nil
	}

	visited, err := t.recordEntries(entries)
	if err != nil {
		t.logErr(err, "recording route listing from "+t.Target)
		return nil
	}

	// A dialogue that never produced a BBS prompt or a prompt-terminated
	// listing is indistinguishable from a remote that closed immediately
	// (spec.md §8 S1): leave the target unvisited so a future run retries
	// it, instead of recording an empty reply as a completed visit.
	if !bbsOK && !sawPrompt {
		t.Sink.Infof("%s: no reply observed, leaving unvisited for retry", t.Target)
		return nil
	}

	if err := t.StateFile.MarkVisited(t.Target); err != nil {
		t.logErr(err, "marking "+t.Target+" visited")
		return nil
	}
	for _, cs := range visited {
		if err := t.StateFile.MarkVisited(cs); err != nil {
			t.logErr(err, "marking "+cs+" visited")
		}
	}

	t.Sink.Infof("%s: visited, %d route entries", t.Target, len(entries))
	return nil
}

// enterBBSMode sends "BBS\r\n" and reads lines until a prompt (success)
// or stream end. Stream end from a plain timeout is non-fatal per
// spec.md §4.7 step 4 (ok=false, err=nil); stream end from any other
// Receive failure is reported via err so the caller abandons the task
// instead of proceeding on a dropped connection.
func (t *Task) enterBBSMode(conn radio.Conn, reader *LineReader) (bool, error) {
	if err := conn.Send([]byte("BBS\r\n")); err != nil {
		return false, err
	}
	for {
		line, ok := reader.ReadLine()
		if !ok {
			return false, reader.Err()
		}
		if IsPrompt(line) {
			return true, nil
		}
	}
}

// recordEntries appends every distinct callsign seen (destination,
// forward, via-hop) and links the edges spec.md §4.7 names: destination
// to forward, and each adjacent pair along a via-route. It returns the
// newly-discovered callsigns that were fully processed, so the caller can
// mark them visited alongside the target.
func (t *Task) recordEntries(entries []RouteEntry) ([]string, error) {
	var processed []string

	for _, e := range entries {
		_, known, _ := t.StateFile.Find(e.Dest)
		if _, err := t.StateFile.AppendNode(e.Dest); err != nil {
			return processed, err
		}
		if !known {
			processed = append(processed, e.Dest)
		}

		if e.Forward != "" {
			_, known, _ := t.StateFile.Find(e.Forward)
			if _, err := t.StateFile.AppendNode(e.Forward); err != nil {
				return processed, err
			}
			if err := t.StateFile.LinkEdge(e.Dest, e.Forward); err != nil {
				return processed, err
			}
			if !known {
				processed = append(processed, e.Forward)
			}
		}

		for i, hop := range e.Route {
			_, known, _ := t.StateFile.Find(hop)
			if _, err := t.StateFile.AppendNode(hop); err != nil {
				return processed, err
			}
			if !known {
				processed = append(processed, hop)
			}
			if i > 0 {
				if err := t.StateFile.LinkEdge(e.Route[i-1], hop); err != nil {
					return processed, err
				}
			}
		}
	}
	return processed, nil
}

func (t *Task) logErr(err error, while string) {
	t.Sink.Error(while + ": " + err.Error())
}
