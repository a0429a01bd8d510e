package recfmt

import (
	"bytes"
	"encoding/binary"

	"github.com/n0call/baw/internal/bawerr"
)

// FramingStart and FramingEnd bracket every persisted record, giving a
// cheap, locally-checkable corruption signal.
const (
	FramingStart byte = '['
	FramingEnd   byte = ']'
)

// Magic identifies a baw state file. EndianStamp and FileVersion are
// checked verbatim; a mismatch on either rejects the file rather than
// attempting an upgrade or byte-swap.
var Magic = [4]byte{'W', '0', '0', 'T'}

const (
	EndianStamp uint32 = 1
	FileVersion uint32 = 1
)

const (
	headerOffFramingStart = 0
	headerOffMagic        = headerOffFramingStart + 1
	headerOffEndian       = headerOffMagic + 4
	headerOffVersion      = headerOffEndian + 4
	headerOffVisitSerial  = headerOffVersion + 4
	headerOffAllNodes     = headerOffVisitSerial + 4
	headerOffRootNodes    = headerOffAllNodes + LinkSize
	headerOffFramingEnd   = headerOffRootNodes + LinkSize

	// HeaderSize is the exact on-disk size of the Header record.
	HeaderSize = headerOffFramingEnd + 1
)

// Header views the single Header record that always sits at image offset
// 0.
type Header struct {
	data []byte
	self int64
}

// WrapHeader views an existing HeaderSize-byte window at image offset
// self (always 0 in practice, since there is exactly one Header).
func WrapHeader(data []byte, self int64) Header { return Header{data: data, self: self} }

// InitHeader stamps a freshly allocated HeaderSize-byte window as a new,
// empty Header with the given starting visit_serial.
func InitHeader(data []byte, self int64, visitSerial uint32) Header {
	h := Header{data: data, self: self}
	h.data[headerOffFramingStart] = FramingStart
	copy(h.data[headerOffMagic:headerOffMagic+4], Magic[:])
	binary.LittleEndian.PutUint32(h.data[headerOffEndian:headerOffEndian+4], EndianStamp)
	binary.LittleEndian.PutUint32(h.data[headerOffVersion:headerOffVersion+4], FileVersion)
	binary.LittleEndian.PutUint32(h.data[headerOffVisitSerial:headerOffVisitSerial+4], visitSerial)
	h.AllNodesHead().SetNull()
	h.RootNodesHead().SetNull()
	h.data[headerOffFramingEnd] = FramingEnd
	return h
}

// FramingStart returns the leading framing byte as stored.
func (h Header) FramingStart() byte { return h.data[headerOffFramingStart] }

// FramingEnd returns the trailing framing byte as stored.
func (h Header) FramingEnd() byte { return h.data[headerOffFramingEnd] }

func (h Header) magicOK() bool {
	return bytes.Equal(h.data[headerOffMagic:headerOffMagic+4], Magic[:])
}

// EndianStamp returns the stored endian stamp.
func (h Header) EndianStamp() uint32 {
	return binary.LittleEndian.Uint32(h.data[headerOffEndian : headerOffEndian+4])
}

// FileVersion returns the stored file format version.
func (h Header) FileVersion() uint32 {
	return binary.LittleEndian.Uint32(h.data[headerOffVersion : headerOffVersion+4])
}

// VisitSerial returns the current visit serial.
func (h Header) VisitSerial() uint32 {
	return binary.LittleEndian.Uint32(h.data[headerOffVisitSerial : headerOffVisitSerial+4])
}

// SetVisitSerial overwrites the visit serial.
func (h Header) SetVisitSerial(v uint32) {
	binary.LittleEndian.PutUint32(h.data[headerOffVisitSerial:headerOffVisitSerial+4], v)
}

// AllNodesHead returns the IntrusiveList head of every Node.
func (h Header) AllNodesHead() Link {
	return WrapLink(h.data[headerOffAllNodes:headerOffAllNodes+LinkSize], h.self+headerOffAllNodes)
}

// RootNodesHead returns the IntrusiveList head of the Nodes supplied as
// seeds in any run.
func (h Header) RootNodesHead() Link {
	return WrapLink(h.data[headerOffRootNodes:headerOffRootNodes+LinkSize], h.self+headerOffRootNodes)
}

// Verify checks framing and the three constant-valued fields (invariant
// I2), returning a Corrupt error describing the first mismatch found.
func (h Header) Verify() error {
	if h.FramingStart() != FramingStart || h.FramingEnd() != FramingEnd {
		return bawerr.Wrap(bawerr.Corrupt, nil, "header framing bytes mismatch")
	}
	if !h.magicOK() {
		return bawerr.Wrap(bawerr.Corrupt, nil, "header magic mismatch")
	}
	if h.EndianStamp() != EndianStamp {
		return bawerr.Wrap(bawerr.Corrupt, nil, "header endian stamp mismatch, file written on a different byte order")
	}
	if h.FileVersion() != FileVersion {
		return bawerr.Wrap(bawerr.Corrupt, nil, "unsupported header file_version")
	}
	return nil
}
