package binimage

// OffsetPtr[T] is a reference usable outside the image: an absolute byte
// offset plus the Image to recover the current base address from on
// dereference. Go's slice append can move the backing array on growth, so
// an OffsetPtr keeps only the offset and the Image, never a *T or a byte
// slice; each use fetches a fresh window through the Image — the same role
// the original design gives a base-recovery functor.
//
// A RelPtr decoded while iterating the image MUST be converted to an
// OffsetPtr before it is kept anywhere outside the image's lock (the
// in-memory callsign index, the pending list); it is a bug to smuggle a
// bare offset out and reinterpret it as self-relative later.
type OffsetPtr[T any] struct {
	img    *Image
	offset int64
	valid  bool
}

// NewOffsetPtr wraps an absolute offset into img.
func NewOffsetPtr[T any](img *Image, offset int64) OffsetPtr[T] {
	return OffsetPtr[T]{img: img, offset: offset, valid: true}
}

// IsZero reports whether this OffsetPtr was never assigned.
func (p OffsetPtr[T]) IsZero() bool { return !p.valid }

// Offset returns the wrapped absolute byte offset.
func (p OffsetPtr[T]) Offset() int64 { return p.offset }

// Image returns the image the offset is relative to, so the caller can
// recover a byte window with BytesLocked under its own lock scope.
func (p OffsetPtr[T]) Image() *Image { return p.img }
