package transport

import "sync"

const loopbackQueueSize = 256

// LoopbackConn is an in-process connection half. Frames sent on one half
// arrive on the other half's Recv channel. It backs the direct (peer-to-peer)
// deployment mode and every test that does not need a real socket.
type LoopbackConn struct {
	mu     sync.Mutex
	closed bool
	peer   *LoopbackConn
	inbox  chan []byte
}

// Pipe returns two connected loopback halves.
func Pipe() (*LoopbackConn, *LoopbackConn) {
	a := &LoopbackConn{inbox: make(chan []byte, loopbackQueueSize)}
	b := &LoopbackConn{inbox: make(chan []byte, loopbackQueueSize)}
	a.peer = b
	b.peer = a
	return a, b
}

// Send delivers a frame to the remote half. Delivery is fire-and-forget: if
// the remote inbox is full the frame is dropped, matching the snapshot
// contract where the newest tick supersedes anything still queued.
func (c *LoopbackConn) Send(data []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrPeerUnavailable
	}
	peer := c.peer
	c.mu.Unlock()

	peer.mu.Lock()
	defer peer.mu.Unlock()
	if peer.closed {
		return ErrPeerUnavailable
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	select {
	case peer.inbox <- frame:
	default:
	}
	return nil
}

// Recv exposes the receive side of this half. The channel closes when the
// half closes.
func (c *LoopbackConn) Recv() <-chan []byte {
	return c.inbox
}

// Close tears down this half. Closing twice is a no-op.
func (c *LoopbackConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.inbox)
	return nil
}
