package binimage

import "github.com/n0call/baw/internal/bawerr"

// Bytes returns a slice of the image's buffer covering [offset, offset+n).
// The returned slice aliases the image's backing array and is only valid
// until the next Allocate/Resize/PopBack call, unless the caller holds the
// image's lock for the whole time it uses the slice.
func (img *Image) Bytes(offset, n int64) ([]byte, error) {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.BytesLocked(offset, n)
}

// BytesLocked is Bytes for a caller already holding the lock.
func (img *Image) BytesLocked(offset, n int64) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > int64(len(img.data)) {
		return nil, bawerr.Wrap(bawerr.Corrupt, nil, "byte range out of bounds")
	}
	return img.data[offset : offset+n], nil
}
