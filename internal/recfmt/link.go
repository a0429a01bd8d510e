// Package recfmt wraps raw byte windows taken from a binimage.Image with
// typed getters and setters for the record layouts that make up a state
// file: the Header, Node records, and the IntrusiveList links that chain
// them together. Every wrapper is a thin view over someone else's []byte,
// in the same spirit as 7thCode-BPTree's bnode package.
package recfmt

import (
	"encoding/binary"

	"github.com/n0call/baw/internal/binimage"
)

// LinkSize is the on-disk size of an IntrusiveList link: two RelPtr
// fields, value and next.
const LinkSize = 16

// Link is a view over one IntrusiveList link: a RelPtr to its payload and
// a RelPtr to the next link. A link whose value pointer is null is a list
// head; its next pointer, if also null, denotes an empty list.
type Link struct {
	data []byte
	self int64
}

// WrapLink views an existing LinkSize-byte window at image offset self.
func WrapLink(data []byte, self int64) Link { return Link{data: data, self: self} }

// Self returns the link's own absolute byte offset in the image.
func (l Link) Self() int64 { return l.self }

// SetNull zeroes both pointers, making this link an empty head.
func (l Link) SetNull() {
	binary.LittleEndian.PutUint64(l.data[0:8], uint64(binimage.RelPtrNull))
	binary.LittleEndian.PutUint64(l.data[8:16], uint64(binimage.RelPtrNull))
}

// ValueOffset resolves the value RelPtr to an absolute offset.
func (l Link) ValueOffset() (target int64, isNull bool) {
	raw := int64(binary.LittleEndian.Uint64(l.data[0:8]))
	return binimage.ResolveRelPtr(l.self, raw)
}

// SetValueOffset points the value RelPtr at target.
func (l Link) SetValueOffset(target int64) {
	binary.LittleEndian.PutUint64(l.data[0:8], uint64(binimage.EncodeRelPtr(l.self, target)))
}

// NextOffset resolves the next RelPtr to an absolute offset.
func (l Link) NextOffset() (target int64, isNull bool) {
	raw := int64(binary.LittleEndian.Uint64(l.data[8:16]))
	return binimage.ResolveRelPtr(l.self, raw)
}

// SetNextOffset points the next RelPtr at target.
func (l Link) SetNextOffset(target int64) {
	binary.LittleEndian.PutUint64(l.data[8:16], uint64(binimage.EncodeRelPtr(l.self, target)))
}

// NextInBounds reports whether the next pointer resolves inside an image
// of the given size (invariant I6), used by on-load verification.
func (l Link) NextInBounds(size int64) bool {
	raw := int64(binary.LittleEndian.Uint64(l.data[8:16]))
	return binimage.RelPtrInBounds(l.self, raw, size)
}

// ValueInBounds is NextInBounds for the value pointer.
func (l Link) ValueInBounds(size int64) bool {
	raw := int64(binary.LittleEndian.Uint64(l.data[0:8]))
	return binimage.RelPtrInBounds(l.self, raw, size)
}
