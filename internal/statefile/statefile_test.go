package statefile_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/n0call/baw/internal/bawerr"
	"github.com/n0call/baw/internal/recfmt"
	"github.com/n0call/baw/internal/statefile"
)

func TestOpenEmptyFileCreatesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")

	sf, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if sf.Len() != 0 {
		t.Fatalf("expected 0 nodes in a fresh file, got %d", sf.Len())
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() != recfmt.HeaderSize {
		t.Fatalf("expected file size %d, got %d", recfmt.HeaderSize, info.Size())
	}
}

func TestAppendNodeIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")
	sf, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sf.Close()

	for i := 0; i < 3; i++ {
		if _, err := sf.AppendNode("N0CALL-1"); err != nil {
			t.Fatalf("AppendNode failed: %v", err)
		}
	}

	if sf.Len() != 1 {
		t.Fatalf("expected exactly one node, got %d", sf.Len())
	}
}

func TestAppendNodeFindLenProperty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")
	sf, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sf.Close()

	before := sf.Len()
	if _, err := sf.AppendNode("W1ABC"); err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	if _, present, err := sf.Find("W1ABC"); err != nil || !present {
		t.Fatalf("expected Find to report W1ABC present, err=%v", err)
	}
	if sf.Len() != before+1 {
		t.Fatalf("expected len to increase by 1, got %d -> %d", before, sf.Len())
	}

	if _, err := sf.AppendNode("W1ABC"); err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	if sf.Len() != before+1 {
		t.Fatalf("expected len unchanged on repeat append, got %d", sf.Len())
	}
}

func TestRoundTripReverseInsertionOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")
	sf, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	callsigns := []string{"N0CALL-1", "N1ABC", "W2DEF", "K9XYZ"}
	for _, c := range callsigns {
		if _, err := sf.AppendNode(c); err != nil {
			t.Fatalf("AppendNode(%s) failed: %v", c, err)
		}
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	sf2, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer sf2.Close()

	var got []string
	if err := sf2.Iter(func(callsign string, node recfmt.Node) error {
		got = append(got, callsign)
		return nil
	}); err != nil {
		t.Fatalf("Iter failed: %v", err)
	}

	want := []string{"K9XYZ", "W2DEF", "N1ABC", "N0CALL-1"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	seen := make(map[string]bool)
	for _, c := range got {
		seen[c] = true
	}
	for _, c := range callsigns {
		if !seen[c] {
			t.Fatalf("expected %s to survive a close/reopen round trip", c)
		}
	}
}

func TestOpenCloseWithNoWritesPreservesBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")
	sf, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := sf.AppendNode("N0CALL-1"); err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	sf2, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := sf2.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if len(before) != len(after) {
		t.Fatalf("expected file bytes unchanged by a read-only open/close cycle, lengths %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("expected identical bytes at offset %d", i)
		}
	}
}

func TestLinkEdgeAndMarkVisited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")
	sf, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sf.Close()

	if _, err := sf.AppendNode("K9XYZ"); err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	if _, err := sf.AppendNode("W1ABC"); err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	if err := sf.LinkEdge("K9XYZ", "W1ABC"); err != nil {
		t.Fatalf("LinkEdge failed: %v", err)
	}
	// Idempotent: linking the same edge twice must not duplicate it.
	if err := sf.LinkEdge("K9XYZ", "W1ABC"); err != nil {
		t.Fatalf("LinkEdge (repeat) failed: %v", err)
	}

	if _, present, err := sf.Find("K9XYZ"); err != nil || !present {
		t.Fatalf("expected K9XYZ present, err=%v", err)
	}

	pending, err := sf.PendingCallsigns()
	if err != nil {
		t.Fatalf("PendingCallsigns failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending nodes before any visit, got %d", len(pending))
	}

	if err := sf.MarkVisited("K9XYZ"); err != nil {
		t.Fatalf("MarkVisited failed: %v", err)
	}

	pending, err = sf.PendingCallsigns()
	if err != nil {
		t.Fatalf("PendingCallsigns failed: %v", err)
	}
	if len(pending) != 1 || pending[0] != "W1ABC" {
		t.Fatalf("expected only W1ABC pending after visiting K9XYZ, got %v", pending)
	}
}

func TestCorruptionDetectionLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")
	sf, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := sf.AppendNode("N0CALL-1"); err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	raw[1] = 'X' // corrupt the header's magic bytes
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if _, err := statefile.Open(path); err == nil {
		t.Fatal("expected Open to reject a corrupted header")
	} else if !isCorrupt(err) {
		t.Fatalf("expected a Corrupt error, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("expected file untouched by a failed open, lengths %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("expected file byte-identical after a failed open, differs at %d", i)
		}
	}
}

func isCorrupt(err error) bool {
	type isser interface{ Is(error) bool }
	for err != nil {
		if is, ok := err.(isser); ok && is.Is(bawerr.Corrupt) {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func TestAppendGrowsFilePastHeaderOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")
	sf, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := sf.AppendNode("N0CALL-1"); err != nil {
		t.Fatalf("AppendNode failed: %v", err)
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	grown, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if grown.Size() <= recfmt.HeaderSize {
		t.Fatalf("expected file grown past header size, got %d", grown.Size())
	}
}

func TestConcurrentAppendEveryCallsignOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.bin")
	sf, err := statefile.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sf.Close()

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			callsign := callsignFor(i)
			if _, err := sf.AppendNode(callsign); err != nil {
				t.Errorf("AppendNode(%s) failed: %v", callsign, err)
			}
		}(i)
	}
	wg.Wait()

	if sf.Len() != n {
		t.Fatalf("expected %d distinct nodes, got %d", n, sf.Len())
	}

	seen := make(map[string]bool)
	if err := sf.Iter(func(callsign string, node recfmt.Node) error {
		if seen[callsign] {
			t.Errorf("callsign %s appeared twice in all_nodes", callsign)
		}
		seen[callsign] = true
		return nil
	}); err != nil {
		t.Fatalf("Iter failed: %v", err)
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct callsigns in all_nodes, got %d", n, len(seen))
	}
}

func callsignFor(i int) string {
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	return "N" + string(letters[i%26]) + string(letters[(i/26)%26]) + "-" + itoa(i%16)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
