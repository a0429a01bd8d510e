package recfmt

import (
	"encoding/binary"

	"github.com/n0call/baw/internal/bawerr"
)

const (
	nodeOffFramingStart = 0
	nodeOffCallsign     = nodeOffFramingStart + 1
	nodeOffLinks        = nodeOffCallsign + CallsignFieldSize
	nodeOffQueryCount   = nodeOffLinks + LinkSize
	nodeOffFramingEnd   = nodeOffQueryCount + 4

	// NodeSize is the exact on-disk size of a Node record.
	NodeSize = nodeOffFramingEnd + 1
)

// Node views one Node record: an immutable callsign, a head-reference to
// an IntrusiveList of neighbour Nodes, and a query_count.
type Node struct {
	data []byte
	self int64
}

// WrapNode views an existing NodeSize-byte window at image offset self.
func WrapNode(data []byte, self int64) Node { return Node{data: data, self: self} }

// InitNode stamps a freshly allocated NodeSize-byte window as a new Node
// for callsign, with an empty links list and query_count 0.
func InitNode(data []byte, self int64, callsign string) (Node, error) {
	n := Node{data: data, self: self}
	n.data[nodeOffFramingStart] = FramingStart
	if err := putCallsign(n.data[nodeOffCallsign:nodeOffCallsign+CallsignFieldSize], callsign); err != nil {
		return Node{}, err
	}
	n.LinksHead().SetNull()
	binary.LittleEndian.PutUint32(n.data[nodeOffQueryCount:nodeOffQueryCount+4], 0)
	n.data[nodeOffFramingEnd] = FramingEnd
	return n, nil
}

// Self returns this Node's own absolute byte offset in the image.
func (n Node) Self() int64 { return n.self }

// FramingStart returns the leading framing byte as stored.
func (n Node) FramingStart() byte { return n.data[nodeOffFramingStart] }

// FramingEnd returns the trailing framing byte as stored.
func (n Node) FramingEnd() byte { return n.data[nodeOffFramingEnd] }

// Callsign decodes the node's callsign field.
func (n Node) Callsign() (string, error) {
	return getCallsign(n.data[nodeOffCallsign : nodeOffCallsign+CallsignFieldSize])
}

// LinksHead returns the IntrusiveList head of this Node's discovered
// neighbours.
func (n Node) LinksHead() Link {
	return WrapLink(n.data[nodeOffLinks:nodeOffLinks+LinkSize], n.self+nodeOffLinks)
}

// QueryCount returns the number of completed successful visits.
func (n Node) QueryCount() uint32 {
	return binary.LittleEndian.Uint32(n.data[nodeOffQueryCount : nodeOffQueryCount+4])
}

// SetQueryCount overwrites the query count.
func (n Node) SetQueryCount(v uint32) {
	binary.LittleEndian.PutUint32(n.data[nodeOffQueryCount:nodeOffQueryCount+4], v)
}

// Verify checks framing (invariant I1) and that the callsign field is
// null-terminated (invariant I3).
func (n Node) Verify() error {
	if n.FramingStart() != FramingStart || n.FramingEnd() != FramingEnd {
		return bawerr.Wrap(bawerr.Corrupt, nil, "node framing bytes mismatch")
	}
	if _, err := n.Callsign(); err != nil {
		return err
	}
	return nil
}
