package recfmt_test

import (
	"testing"

	"github.com/n0call/baw/internal/recfmt"
)

func TestNormalizeCallsign(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"n0call-1", "N0CALL-1", false},
		{"*N1ABC", "N1ABC", false},
		{"AB", "", true},         // length 2, below minimum
		{"ABCDEFGHJ", "", true},  // length 9, above maximum
		{"ABC-16", "", true},     // SSID 16 out of range
		{"ABC-15", "ABC-15", false},
		{"ABC-0", "ABC-0", false},
		{"2024/11/12", "", true},
	}
	for _, c := range cases {
		got, err := recfmt.NormalizeCallsign(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("NormalizeCallsign(%q): expected error, got %q", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeCallsign(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeCallsign(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHeaderInitAndVerify(t *testing.T) {
	data := make([]byte, recfmt.HeaderSize)
	h := recfmt.InitHeader(data, 0, 1)

	if err := h.Verify(); err != nil {
		t.Fatalf("Verify failed on freshly initialised header: %v", err)
	}
	if h.VisitSerial() != 1 {
		t.Fatalf("expected visit serial 1, got %d", h.VisitSerial())
	}

	if _, isNull := h.AllNodesHead().NextOffset(); !isNull {
		t.Fatal("expected empty all_nodes list on init")
	}
}

func TestHeaderVerifyRejectsBadMagic(t *testing.T) {
	data := make([]byte, recfmt.HeaderSize)
	h := recfmt.InitHeader(data, 0, 1)
	data[1] = 'X' // corrupt the magic in place

	if err := h.Verify(); err == nil {
		t.Fatal("expected Verify to reject a corrupted magic")
	}
}

func TestNodeInitAndCallsignRoundTrip(t *testing.T) {
	data := make([]byte, recfmt.NodeSize)
	n, err := recfmt.InitNode(data, 100, "N0CALL-1")
	if err != nil {
		t.Fatalf("InitNode failed: %v", err)
	}

	if err := n.Verify(); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	got, err := n.Callsign()
	if err != nil {
		t.Fatalf("Callsign failed: %v", err)
	}
	if got != "N0CALL-1" {
		t.Fatalf("expected N0CALL-1, got %q", got)
	}
	if n.QueryCount() != 0 {
		t.Fatalf("expected query_count 0, got %d", n.QueryCount())
	}
}

func TestNodeRejectsOversizedCallsign(t *testing.T) {
	data := make([]byte, recfmt.NodeSize)
	if _, err := recfmt.InitNode(data, 0, "ABCDEFGHIJKLMNOP"); err == nil {
		t.Fatal("expected error constructing a node with a too-long callsign")
	}
}

func TestLinkSelfReferenceIsNull(t *testing.T) {
	data := make([]byte, recfmt.LinkSize)
	link := recfmt.WrapLink(data, 500)
	link.SetNull()

	if _, isNull := link.ValueOffset(); !isNull {
		t.Fatal("expected a freshly zeroed link to report a null value pointer")
	}
	if _, isNull := link.NextOffset(); !isNull {
		t.Fatal("expected a freshly zeroed link to report a null next pointer")
	}

	link.SetNextOffset(580)
	target, isNull := link.NextOffset()
	if isNull {
		t.Fatal("expected non-null after SetNextOffset")
	}
	if target != 580 {
		t.Fatalf("expected 580, got %d", target)
	}
}
