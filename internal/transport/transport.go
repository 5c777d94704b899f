// Package transport defines the connection primitive the session layer runs
// on. The relay deployment backs it with websockets; direct deployments and
// tests use the in-process loopback. The room never sees the difference.
package transport

import "errors"

var (
	// ErrPeerUnavailable reports a send to a peer whose connection is gone.
	// It is logged and the peer cleaned up; it never aborts the session.
	ErrPeerUnavailable = errors.New("peer unavailable")
	// ErrConnectionTimeout reports a handshake that did not complete within
	// its window. Callers may retry.
	ErrConnectionTimeout = errors.New("connection timeout")
)

// Conn is the send side of one peer connection. Send must never block on the
// peer: implementations queue and drop rather than stall the host tick loop.
// Both methods must be safe to call after Close; Send returns
// ErrPeerUnavailable once closed.
type Conn interface {
	Send(data []byte) error
	Close() error
}
