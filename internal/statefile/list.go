package statefile

import (
	"github.com/n0call/baw/internal/bawerr"
	"github.com/n0call/baw/internal/binimage"
	"github.com/n0call/baw/internal/recfmt"
)

func nodeAtLocked(img *binimage.Image, offset int64) (recfmt.Node, error) {
	data, err := img.BytesLocked(offset, recfmt.NodeSize)
	if err != nil {
		return recfmt.Node{}, bawerr.Wrap(bawerr.Corrupt, err, "fetching node record")
	}
	return recfmt.WrapNode(data, offset), nil
}

// nextLinkLocked follows l.next one hop, returning the link found there and
// whether the chain ended.
func nextLinkLocked(img *binimage.Image, l recfmt.Link) (recfmt.Link, bool, error) {
	off, isNull := l.NextOffset()
	if isNull {
		return recfmt.Link{}, true, nil
	}
	data, err := img.BytesLocked(off, recfmt.LinkSize)
	if err != nil {
		return recfmt.Link{}, false, bawerr.Wrap(bawerr.Corrupt, err, "walking intrusive list")
	}
	return recfmt.WrapLink(data, off), false, nil
}

// prependToListLocked splices a new link, pointing at valueOff, in front of
// the list whose head lives at headOffset. It reads the head's current
// next pointer first, then allocates (which may move the image's backing
// array), then re-fetches both the new link's window and the head's window
// before writing either — any byte window obtained before an allocate call
// must never be written to after it.
func prependToListLocked(img *binimage.Image, headOffset, valueOff int64) (int64, error) {
	headData, err := img.BytesLocked(headOffset, recfmt.LinkSize)
	if err != nil {
		return 0, err
	}
	head := recfmt.WrapLink(headData, headOffset)
	oldNext, oldIsNull := head.NextOffset()

	linkOff, err := img.AllocateLocked(recfmt.LinkSize, 8)
	if err != nil {
		return 0, err
	}

	linkData, err := img.BytesLocked(linkOff, recfmt.LinkSize)
	if err != nil {
		return 0, err
	}
	link := recfmt.WrapLink(linkData, linkOff)
	link.SetValueOffset(valueOff)
	if oldIsNull {
		link.SetNextOffset(link.Self())
	} else {
		link.SetNextOffset(oldNext)
	}

	headData, err = img.BytesLocked(headOffset, recfmt.LinkSize)
	if err != nil {
		return 0, err
	}
	head = recfmt.WrapLink(headData, headOffset)
	head.SetNextOffset(linkOff)

	return linkOff, nil
}

// listContainsValueLocked walks the list at headOffset looking for an
// entry whose value pointer resolves to valueOff.
func listContainsValueLocked(img *binimage.Image, headOffset, valueOff int64) (bool, error) {
	headData, err := img.BytesLocked(headOffset, recfmt.LinkSize)
	if err != nil {
		return false, err
	}
	link := recfmt.WrapLink(headData, headOffset)
	for {
		next, isNull, err := nextLinkLocked(img, link)
		if err != nil {
			return false, err
		}
		if isNull {
			return false, nil
		}
		if v, vIsNull := next.ValueOffset(); !vIsNull && v == valueOff {
			return true, nil
		}
		link = next
	}
}
