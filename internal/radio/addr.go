package radio

import (
	"strconv"
	"strings"

	"github.com/n0call/baw/internal/bawerr"
	"github.com/n0call/baw/internal/recfmt"
)

// ax25AddrLen is sizeof(ax25_address): 6 shifted ASCII characters plus one
// SSID/flag byte, per netax25/ax25.h.
const ax25AddrLen = 7

// maxDigipeaters bounds fsa_digipeater, the in-kernel AX.25 header's
// routing path.
const maxDigipeaters = 8

// encodeAX25Address packs callsign (already NormalizeCallsign'd, so
// BASE or BASE-SSID with SSID 0-15) into the kernel's AX.25 address
// wire form: each of up to 6 call letters space-padded and shifted left
// one bit, then a final byte holding the SSID shifted left one bit with
// the reserved bits set per convention and bit 0 marking end-of-address.
func encodeAX25Address(callsign string, last bool) ([ax25AddrLen]byte, error) {
	var out [ax25AddrLen]byte

	base := callsign
	ssid := 0
	if i := strings.IndexByte(callsign, '-'); i >= 0 {
		base = callsign[:i]
		n, err := strconv.Atoi(callsign[i+1:])
		if err != nil {
			return out, bawerr.Wrap(bawerr.InvalidCallsign, err, "parsing SSID of "+callsign)
		}
		ssid = n
	}
	if len(base) == 0 || len(base) > 6 {
		return out, bawerr.Wrap(bawerr.InvalidCallsign, nil, "callsign base must be 1-6 characters: "+callsign)
	}

	padded := base + strings.Repeat(" ", 6-len(base))
	for i := 0; i < 6; i++ {
		out[i] = padded[i] << 1
	}

	ssidByte := byte(ssid<<1) | 0x60
	if last {
		ssidByte |= 0x01
	}
	out[6] = ssidByte
	return out, nil
}

// encodeFullSockaddr builds the wire form of struct full_sockaddr_ax25:
// family, destination address, digipeater count, then each digipeater
// address. route lists digipeaters nearest-to-furthest, as a caller would
// read off a NET/ROM route listing.
func encodeFullSockaddr(family uint16, dest string, route []string) ([]byte, error) {
	if len(route) > maxDigipeaters {
		return nil, bawerr.Wrap(bawerr.InvalidConfig, nil,
			"route length exceeds the hard system limit of "+strconv.Itoa(maxDigipeaters)+" digipeaters")
	}

	normDest, err := recfmt.NormalizeCallsign(dest)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 2+ax25AddrLen+1+maxDigipeaters*ax25AddrLen)
	buf[0] = byte(family)
	buf[1] = byte(family >> 8)

	destAddr, err := encodeAX25Address(normDest, len(route) == 0)
	if err != nil {
		return nil, err
	}
	copy(buf[2:2+ax25AddrLen], destAddr[:])

	buf[2+ax25AddrLen] = byte(len(route))

	digiOff := 2 + ax25AddrLen + 1
	for i, hop := range route {
		normHop, err := recfmt.NormalizeCallsign(hop)
		if err != nil {
			return nil, err
		}
		addr, err := encodeAX25Address(normHop, i == len(route)-1)
		if err != nil {
			return nil, err
		}
		copy(buf[digiOff+i*ax25AddrLen:digiOff+(i+1)*ax25AddrLen], addr[:])
	}

	return buf, nil
}
