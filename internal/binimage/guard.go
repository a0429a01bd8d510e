package binimage

// AppendGuard records the image's size at the moment it was taken. If
// Release runs without a prior Commit, every allocation performed since
// the guard was taken is rolled back. Guards are not reentrant: take at
// most one per compound operation, and call Release via defer immediately
// after NewAppendGuardLocked returns.
type AppendGuard struct {
	img       *Image
	baseline  int64
	committed bool
}

// NewAppendGuardLocked takes a guard for a caller already holding the
// image's lock. The lock must stay held until Release.
func NewAppendGuardLocked(img *Image) *AppendGuard {
	return &AppendGuard{img: img, baseline: img.SizeLocked()}
}

// Commit marks the guard's allocations as permanent.
func (g *AppendGuard) Commit() { g.committed = true }

// Release rolls back to the guard's baseline unless Commit was called.
// Safe to call multiple times.
func (g *AppendGuard) Release() {
	if g.committed {
		return
	}
	g.img.ResizeLocked(g.baseline)
	g.committed = true // idempotent: a second Release is a no-op
}
