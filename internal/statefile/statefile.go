// Package statefile layers the node/header/list schema described by
// spec.md §3-4.4 on top of a binimage.Image: a persistent callsign graph
// with an in-memory index and a pending-work list, built by walking the
// image once on open.
package statefile

import (
	"fmt"

	"github.com/n0call/baw/internal/bawerr"
	"github.com/n0call/baw/internal/binimage"
	"github.com/n0call/baw/internal/recfmt"
)

// defaultVisitSerial is the value a freshly created Header starts at. Any
// Node has query_count 0 < 1, so every node is pending until visited once.
const defaultVisitSerial uint32 = 1

// defaultReserve hints the image's initial growth capacity; workloads
// append a handful of small records per discovered node.
const defaultReserve = 64 * 1024

// StateFile presents a binimage.Image as a graph of Nodes reachable from
// Header.all_nodes, with an in-memory callsign index and pending list that
// exist only between Open and Close.
type StateFile struct {
	img     *binimage.Image
	index   map[string]binimage.OffsetPtr[recfmt.Node]
	pending []binimage.OffsetPtr[recfmt.Node]
}

// Open opens or creates path. An empty file gets a freshly constructed
// Header; a non-empty file is verified (header framing/magic/endian/
// version, then every Node's framing and callsign, rejecting duplicate
// callsigns) before being accepted.
func Open(path string) (*StateFile, error) {
	img, err := binimage.Open(path, defaultReserve)
	if err != nil {
		return nil, err
	}

	sf := &StateFile{
		img:   img,
		index: make(map[string]binimage.OffsetPtr[recfmt.Node]),
	}

	if err := sf.openLocked(); err != nil {
		img.Close()
		return nil, err
	}
	return sf, nil
}

func (sf *StateFile) openLocked() error {
	sf.img.Lock()
	defer sf.img.Unlock()

	if sf.img.SizeLocked() == 0 {
		_, err := sf.initHeaderLocked()
		return err
	}

	header, err := sf.headerLocked()
	if err != nil {
		return err
	}
	if err := header.Verify(); err != nil {
		return err
	}
	return sf.loadIndexLocked(header)
}

func (sf *StateFile) initHeaderLocked() (recfmt.Header, error) {
	off, err := sf.img.AllocateLocked(recfmt.HeaderSize, 8)
	if err != nil {
		return recfmt.Header{}, err
	}
	data, err := sf.img.BytesLocked(off, recfmt.HeaderSize)
	if err != nil {
		return recfmt.Header{}, err
	}
	return recfmt.InitHeader(data, off, defaultVisitSerial), nil
}

func (sf *StateFile) headerLocked() (recfmt.Header, error) {
	data, err := sf.img.BytesLocked(0, recfmt.HeaderSize)
	if err != nil {
		return recfmt.Header{}, bawerr.Wrap(bawerr.Corrupt, err, "fetching header")
	}
	return recfmt.WrapHeader(data, 0), nil
}

// loadIndexLocked walks header.all_nodes once, verifying each node and
// populating the in-memory index and pending list. A duplicate callsign,
// a dangling value pointer, or a malformed node fails the whole open with
// Corrupt (invariant I4, I5).
func (sf *StateFile) loadIndexLocked(header recfmt.Header) error {
	link := header.AllNodesHead()
	for {
		next, isNull, err := nextLinkLocked(sf.img, link)
		if err != nil {
			return err
		}
		if isNull {
			return nil
		}

		valOff, valIsNull := next.ValueOffset()
		if valIsNull {
			return bawerr.Wrap(bawerr.Corrupt, nil, "all_nodes entry has a null value pointer")
		}

		node, err := nodeAtLocked(sf.img, valOff)
		if err != nil {
			return err
		}
		if err := node.Verify(); err != nil {
			return err
		}
		callsign, err := node.Callsign()
		if err != nil {
			return err
		}
		if _, exists := sf.index[callsign]; exists {
			return bawerr.Wrap(bawerr.Corrupt, nil, "duplicate callsign "+callsign+" in all_nodes")
		}

		ptr := binimage.NewOffsetPtr[recfmt.Node](sf.img, valOff)
		sf.index[callsign] = ptr
		if node.QueryCount() < header.VisitSerial() {
			sf.pending = append(sf.pending, ptr)
		}

		link = next
	}
}

// Len returns the number of indexed nodes.
func (sf *StateFile) Len() int {
	sf.img.Lock()
	defer sf.img.Unlock()
	return len(sf.index)
}

// Find returns the Node for callsign and true, or a zero Node and false if
// it is not present. The returned Node's accessors are only safe to call
// before any further call into sf mutates the image.
func (sf *StateFile) Find(callsign string) (recfmt.Node, bool, error) {
	norm, err := recfmt.NormalizeCallsign(callsign)
	if err != nil {
		return recfmt.Node{}, false, err
	}

	sf.img.Lock()
	defer sf.img.Unlock()

	ptr, ok := sf.index[norm]
	if !ok {
		return recfmt.Node{}, false, nil
	}
	node, err := nodeAtLocked(sf.img, ptr.Offset())
	return node, true, err
}

// Iter walks all_nodes under the state file's lock, most-recently-appended
// first, calling fn for each. The lock is held for fn's whole duration, so
// fn's Node arguments may safely mutate the image (there is no separate
// read-only iterator in this port: every Node accessor already assumes
// its caller holds the lock).
func (sf *StateFile) Iter(fn func(callsign string, node recfmt.Node) error) error {
	sf.img.Lock()
	defer sf.img.Unlock()

	header, err := sf.headerLocked()
	if err != nil {
		return err
	}

	link := header.AllNodesHead()
	for {
		next, isNull, err := nextLinkLocked(sf.img, link)
		if err != nil {
			return err
		}
		if isNull {
			return nil
		}

		valOff, valIsNull := next.ValueOffset()
		if valIsNull {
			return bawerr.Wrap(bawerr.Corrupt, nil, "all_nodes entry has a null value pointer")
		}
		node, err := nodeAtLocked(sf.img, valOff)
		if err != nil {
			return err
		}
		callsign, err := node.Callsign()
		if err != nil {
			return err
		}
		if err := fn(callsign, node); err != nil {
			return err
		}

		link = next
	}
}

// AppendNode inserts callsign if unseen and returns its Node either way
// (idempotent). The append is guarded: the node allocation and its splice
// into all_nodes roll back together if anything after them fails.
func (sf *StateFile) AppendNode(callsign string) (recfmt.Node, error) {
	return sf.appendNode(callsign, false)
}

// AppendRootNode is AppendNode plus, for a newly created node, a splice
// into root_nodes.
func (sf *StateFile) AppendRootNode(callsign string) (recfmt.Node, error) {
	return sf.appendNode(callsign, true)
}

func (sf *StateFile) appendNode(callsign string, asRoot bool) (recfmt.Node, error) {
	norm, err := recfmt.NormalizeCallsign(callsign)
	if err != nil {
		return recfmt.Node{}, err
	}

	sf.img.Lock()
	defer sf.img.Unlock()

	if ptr, ok := sf.index[norm]; ok {
		return nodeAtLocked(sf.img, ptr.Offset())
	}

	guard := binimage.NewAppendGuardLocked(sf.img)
	defer guard.Release()

	header, err := sf.headerLocked()
	if err != nil {
		return recfmt.Node{}, err
	}
	allNodesHead := header.AllNodesHead().Self()
	rootNodesHead := header.RootNodesHead().Self()

	nodeOff, err := sf.img.AllocateLocked(recfmt.NodeSize, 8)
	if err != nil {
		return recfmt.Node{}, err
	}
	nodeData, err := sf.img.BytesLocked(nodeOff, recfmt.NodeSize)
	if err != nil {
		return recfmt.Node{}, err
	}
	node, err := recfmt.InitNode(nodeData, nodeOff, norm)
	if err != nil {
		return recfmt.Node{}, err
	}

	if _, err := prependToListLocked(sf.img, allNodesHead, nodeOff); err != nil {
		return recfmt.Node{}, err
	}
	if asRoot {
		if _, err := prependToListLocked(sf.img, rootNodesHead, nodeOff); err != nil {
			return recfmt.Node{}, err
		}
	}

	ptr := binimage.NewOffsetPtr[recfmt.Node](sf.img, nodeOff)
	sf.index[norm] = ptr
	header, err = sf.headerLocked()
	if err != nil {
		return recfmt.Node{}, err
	}
	if node.QueryCount() < header.VisitSerial() {
		sf.pending = append(sf.pending, ptr)
	}

	guard.Commit()

	return nodeAtLocked(sf.img, nodeOff)
}

// LinkEdge appends to to from's links if it is not already present. Both
// callsigns must already have been appended (via AppendNode or
// AppendRootNode); a caller that has not done so is a programming error,
// not a file corruption.
func (sf *StateFile) LinkEdge(from, to string) error {
	fromNorm, err := recfmt.NormalizeCallsign(from)
	if err != nil {
		return err
	}
	toNorm, err := recfmt.NormalizeCallsign(to)
	if err != nil {
		return err
	}

	sf.img.Lock()
	defer sf.img.Unlock()

	fromPtr, ok := sf.index[fromNorm]
	if !ok {
		return fmt.Errorf("link_edge: unknown node %s, append_node must run first", fromNorm)
	}
	toPtr, ok := sf.index[toNorm]
	if !ok {
		return fmt.Errorf("link_edge: unknown node %s, append_node must run first", toNorm)
	}

	fromNode, err := nodeAtLocked(sf.img, fromPtr.Offset())
	if err != nil {
		return err
	}
	linksHead := fromNode.LinksHead().Self()

	present, err := listContainsValueLocked(sf.img, linksHead, toPtr.Offset())
	if err != nil {
		return err
	}
	if present {
		return nil
	}

	guard := binimage.NewAppendGuardLocked(sf.img)
	defer guard.Release()

	if _, err := prependToListLocked(sf.img, linksHead, toPtr.Offset()); err != nil {
		return err
	}
	guard.Commit()
	return nil
}

// MarkVisited sets node's query_count to the current visit_serial and
// drops it from the pending list.
func (sf *StateFile) MarkVisited(callsign string) error {
	norm, err := recfmt.NormalizeCallsign(callsign)
	if err != nil {
		return err
	}

	sf.img.Lock()
	defer sf.img.Unlock()

	ptr, ok := sf.index[norm]
	if !ok {
		return fmt.Errorf("mark_visited: unknown node %s", norm)
	}

	header, err := sf.headerLocked()
	if err != nil {
		return err
	}
	node, err := nodeAtLocked(sf.img, ptr.Offset())
	if err != nil {
		return err
	}
	node.SetQueryCount(header.VisitSerial())

	filtered := sf.pending[:0]
	for _, p := range sf.pending {
		if p.Offset() != ptr.Offset() {
			filtered = append(filtered, p)
		}
	}
	sf.pending = filtered
	return nil
}

// PendingCallsigns returns the callsigns still needing a visit, in the
// order they were queued.
func (sf *StateFile) PendingCallsigns() ([]string, error) {
	sf.img.Lock()
	defer sf.img.Unlock()

	out := make([]string, 0, len(sf.pending))
	for _, p := range sf.pending {
		node, err := nodeAtLocked(sf.img, p.Offset())
		if err != nil {
			return nil, err
		}
		cs, err := node.Callsign()
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

// Close flushes the image and closes the underlying file, truncating it
// if the image is now shorter than what was last on disk.
func (sf *StateFile) Close() error {
	return sf.img.Close()
}
