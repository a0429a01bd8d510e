package binimage

// RelPtrNull is the encoded value of a null, or self-referencing, RelPtr.
// A freshly zeroed region of the image therefore decodes as an empty chain
// of null pointers without any initialisation pass.
const RelPtrNull int64 = 0

// EncodeRelPtr returns the signed byte offset to store at selfOffset so
// that, read back and added to selfOffset, it designates targetOffset.
// Passing targetOffset == selfOffset yields RelPtrNull, matching the
// "offset 0 means self, means null" convention.
func EncodeRelPtr(selfOffset, targetOffset int64) int64 {
	if targetOffset == selfOffset {
		return RelPtrNull
	}
	return targetOffset - selfOffset
}

// ResolveRelPtr decodes a RelPtr stored at selfOffset back to an absolute
// byte offset. isNull is true when encoded is RelPtrNull; target is
// meaningless in that case.
func ResolveRelPtr(selfOffset, encoded int64) (target int64, isNull bool) {
	if encoded == RelPtrNull {
		return 0, true
	}
	return selfOffset + encoded, false
}

// RelPtrInBounds reports whether a non-null RelPtr encoded at selfOffset
// resolves to an address inside [0, size). Used by on-load verification
// (invariant I6); it is never consulted on the hot append path.
func RelPtrInBounds(selfOffset, encoded, size int64) bool {
	target, isNull := ResolveRelPtr(selfOffset, encoded)
	if isNull {
		return true
	}
	return target >= 0 && target < size
}
