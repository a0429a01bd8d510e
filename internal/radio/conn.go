// Package radio opens raw AX.25 SOCK_SEQPACKET connections to remote
// packet-radio stations, the same "wrap the raw syscalls behind typed Go
// methods" idiom the teacher applies to mmap in its pager layer. There is
// no AX.25 sockaddr type in golang.org/x/sys/unix, and unix.Sockaddr's
// interface cannot be implemented outside that package, so bind/connect
// go through unix.Syscall directly against a hand-packed byte buffer —
// see addr.go for the wire encoding.
package radio

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/n0call/baw/internal/bawerr"
)

const (
	afAX25        = 0x3
	afNetrom      = 0x6
	sockSeqpacket = 0x5
)

// Conn is a single AX.25 connection to a remote station. Send/Receive
// carry whole packets, matching SOCK_SEQPACKET's message boundaries.
type Conn interface {
	Send(payload []byte) error
	Receive(timeout time.Duration) ([]byte, error)
	Close() error
}

type conn struct {
	fd int
}

// DialOptions configures Dial.
type DialOptions struct {
	// Local is the callsign (optionally -SSID) to bind the socket to,
	// spec.md §6's positional <local-callsign>.
	Local string
	// Remote is the destination station's callsign.
	Remote string
	// Route lists digipeaters nearest-to-furthest, as parsed from a "J L"
	// route listing (spec.md §4.7).
	Route []string
	// NetRom selects AF_NETROM instead of AF_AX25.
	NetRom bool
}

// Dial opens, binds, and connects a SOCK_SEQPACKET AX.25 (or NET/ROM)
// socket. The caller owns the returned Conn and must Close it.
func Dial(opts DialOptions) (Conn, error) {
	family := afAX25
	if opts.NetRom {
		family = afNetrom
	}

	fd, err := unix.Socket(family, sockSeqpacket, 0)
	if err != nil {
		return nil, bawerr.Wrap(bawerr.Io, err, "opening AX.25 socket")
	}
	c := &conn{fd: fd}

	localAddr, err := encodeFullSockaddr(uint16(family), opts.Local, nil)
	if err != nil {
		c.Close()
		return nil, err
	}
	if err := rawBind(fd, localAddr); err != nil {
		c.Close()
		return nil, bawerr.Wrap(bawerr.Io, err, "binding AX.25 socket to "+opts.Local)
	}

	remoteAddr, err := encodeFullSockaddr(uint16(family), opts.Remote, opts.Route)
	if err != nil {
		c.Close()
		return nil, err
	}
	if err := rawConnect(fd, remoteAddr); err != nil {
		c.Close()
		return nil, bawerr.Wrap(bawerr.Io, err, "connecting AX.25 socket to "+opts.Remote)
	}

	return c, nil
}

func rawBind(fd int, addr []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_BIND, uintptr(fd), uintptr(unsafe.Pointer(&addr[0])), uintptr(len(addr)))
	if errno != 0 {
		return errno
	}
	return nil
}

func rawConnect(fd int, addr []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_CONNECT, uintptr(fd), uintptr(unsafe.Pointer(&addr[0])), uintptr(len(addr)))
	if errno != 0 {
		return errno
	}
	return nil
}

// Send writes one SOCK_SEQPACKET message.
func (c *conn) Send(payload []byte) error {
	if err := unix.Send(c.fd, payload, 0); err != nil {
		return bawerr.Wrap(bawerr.Io, err, "sending AX.25 payload")
	}
	return nil
}

// Receive reads one message, applying timeout as the socket's receive
// deadline. A timed-out read is reported as a bawerr.Timeout error; per
// spec.md §5 it is internal/dialogue's line reader that translates this
// into end-of-stream, not Receive itself.
func (c *conn) Receive(timeout time.Duration) ([]byte, error) {
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(c.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return nil, bawerr.Wrap(bawerr.Io, err, "setting AX.25 receive timeout")
	}

	buf := make([]byte, 4096)
	n, _, err := unix.Recvfrom(c.fd, buf, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, bawerr.Wrap(bawerr.Timeout, err, "AX.25 receive timed out")
		}
		return nil, bawerr.Wrap(bawerr.Io, err, "receiving AX.25 payload")
	}
	return buf[:n], nil
}

// Close closes the underlying socket.
func (c *conn) Close() error {
	return unix.Close(c.fd)
}
