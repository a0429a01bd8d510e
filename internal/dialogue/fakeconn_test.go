package dialogue_test

import (
	"errors"
	"time"

	"github.com/n0call/baw/internal/bawerr"
)

// fakeConn replays a fixed sequence of receive chunks and records every
// sent payload, standing in for a radio.Conn in tests that cannot open a
// real AX.25 socket. An empty chunk ("") stands in for a single timed-out
// Receive call — the way a real remote goes briefly silent between one
// phase of the exchange and the next — without exhausting the sequence.
type fakeConn struct {
	chunks [][]byte
	pos    int
	sent   [][]byte
	closed bool
}

func newFakeConn(chunks ...string) *fakeConn {
	c := &fakeConn{}
	for _, s := range chunks {
		c.chunks = append(c.chunks, []byte(s))
	}
	return c
}

func (c *fakeConn) Send(payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.sent = append(c.sent, cp)
	return nil
}

func (c *fakeConn) Receive(timeout time.Duration) ([]byte, error) {
	if c.pos >= len(c.chunks) {
		return nil, bawerr.Wrap(bawerr.Timeout, errors.New("no more chunks"), "fakeConn exhausted")
	}
	chunk := c.chunks[c.pos]
	c.pos++
	if len(chunk) == 0 {
		return nil, bawerr.Wrap(bawerr.Timeout, errors.New("simulated timeout"), "fakeConn timeout")
	}
	return chunk, nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}
