// Package binimage mirrors a disk file as one growable in-memory byte
// buffer: the whole file is read in on open, every mutation happens on the
// in-memory copy, and the buffer is written back once on close. Growth is
// append-only; there is no free list and no page table.
package binimage

import (
	"io"
	"os"
	"sync"

	"github.com/n0call/baw/internal/bawerr"
)

// Image owns a contiguous byte buffer that mirrors a file's contents.
//
// The lock is exported rather than hidden behind method-local locking
// because callers above this package (statefile) implement compound
// operations — allocate, then construct, then splice a list link — that
// must all run under a single critical section. Exported Lock/Unlock plus
// the *Locked method family is the Go answer to the reentrant mutex the
// original design calls for: a caller takes the lock once via Lock, then
// calls only the Locked variants for the duration.
type Image struct {
	mu sync.Mutex

	path       string
	file       *os.File
	data       []byte
	sizeOnDisk int64
}

// Open opens path for read+write, creating it if absent, and reads its
// entire contents into memory. reserve is additional growth capacity hinted
// to the initial allocation; it never changes the logical size.
func Open(path string, reserve int64) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, bawerr.Wrap(bawerr.Io, err, "opening image file "+path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, bawerr.Wrap(bawerr.Io, err, "stat image file "+path)
	}

	size := info.Size()
	buf := make([]byte, size, size+reserve)
	if _, err := io.ReadFull(f, buf); err != nil {
		f.Close()
		return nil, bawerr.Wrap(bawerr.Corrupt, err, "reading image file "+path)
	}

	return &Image{
		path:       path,
		file:       f,
		data:       buf,
		sizeOnDisk: size,
	}, nil
}

// Lock takes the image's lock for a compound operation spanning multiple
// *Locked calls.
func (img *Image) Lock() { img.mu.Lock() }

// Unlock releases a lock taken with Lock.
func (img *Image) Unlock() { img.mu.Unlock() }

// Size returns the current logical byte length of the image.
func (img *Image) Size() int64 {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.SizeLocked()
}

// SizeLocked is Size for a caller already holding the lock.
func (img *Image) SizeLocked() int64 { return int64(len(img.data)) }

// SizeOnDisk returns the length last observed on disk, updated by Open and
// Flush.
func (img *Image) SizeOnDisk() int64 {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.sizeOnDisk
}

func padding(offset, alignment int64) int64 {
	rem := offset % alignment
	if rem == 0 {
		return 0
	}
	return alignment - rem
}

// Allocate appends pad+n bytes, where pad brings the new region up to
// alignment, and returns the offset of the aligned start. alignment must be
// a power of two.
func (img *Image) Allocate(n, alignment int64) (int64, error) {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.AllocateLocked(n, alignment)
}

// AllocateLocked is Allocate for a caller already holding the lock.
func (img *Image) AllocateLocked(n, alignment int64) (int64, error) {
	if alignment <= 0 || alignment&(alignment-1) != 0 {
		return 0, bawerr.Wrap(bawerr.Io, nil, "alignment must be a power of two")
	}
	cur := int64(len(img.data))
	pad := padding(cur, alignment)
	img.data = append(img.data, make([]byte, pad+n)...)
	return cur + pad, nil
}

// Resize shrinks or grows the logical image to exactly n bytes.
func (img *Image) Resize(n int64) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.ResizeLocked(n)
}

// ResizeLocked is Resize for a caller already holding the lock.
func (img *Image) ResizeLocked(n int64) {
	if n <= int64(len(img.data)) {
		img.data = img.data[:n]
		return
	}
	img.data = append(img.data, make([]byte, n-int64(len(img.data)))...)
}

// PopBack shrinks the image by n bytes.
func (img *Image) PopBack(n int64) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.PopBackLocked(n)
}

// PopBackLocked is PopBack for a caller already holding the lock.
func (img *Image) PopBackLocked(n int64) {
	img.ResizeLocked(int64(len(img.data)) - n)
}

// Flush writes the image from offset 0 up to Size() and fsyncs, then
// truncates the file if the image is now shorter than what was last on
// disk.
func (img *Image) Flush() error {
	img.mu.Lock()
	defer img.mu.Unlock()
	return img.FlushLocked()
}

// FlushLocked is Flush for a caller already holding the lock.
func (img *Image) FlushLocked() error {
	if _, err := img.file.WriteAt(img.data, 0); err != nil {
		return bawerr.Wrap(bawerr.Io, err, "writing image file "+img.path)
	}
	if err := img.file.Sync(); err != nil {
		return bawerr.Wrap(bawerr.Io, err, "fsyncing image file "+img.path)
	}
	size := int64(len(img.data))
	if size < img.sizeOnDisk {
		if err := img.file.Truncate(size); err != nil {
			return bawerr.Wrap(bawerr.Io, err, "truncating image file "+img.path)
		}
	}
	img.sizeOnDisk = size
	return nil
}

// Close flushes the image and closes the underlying file.
func (img *Image) Close() error {
	img.mu.Lock()
	defer img.mu.Unlock()
	if err := img.FlushLocked(); err != nil {
		img.file.Close()
		return err
	}
	if err := img.file.Close(); err != nil {
		return bawerr.Wrap(bawerr.Io, err, "closing image file "+img.path)
	}
	return nil
}
