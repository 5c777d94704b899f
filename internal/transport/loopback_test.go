package transport

import (
	"errors"
	"testing"
	"time"
)

func TestPipeDeliversFrames(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	if err := a.Send([]byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case frame := <-b.Recv():
		if string(frame) != "hello" {
			t.Fatalf("frame = %q, want %q", frame, "hello")
		}
	case <-time.After(time.Second):
		t.Fatalf("frame never arrived")
	}
}

func TestSendAfterCloseReturnsPeerUnavailable(t *testing.T) {
	a, b := Pipe()
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.Send([]byte("x")); !errors.Is(err, ErrPeerUnavailable) {
		t.Fatalf("send on closed half = %v, want ErrPeerUnavailable", err)
	}
	if err := b.Send([]byte("x")); !errors.Is(err, ErrPeerUnavailable) {
		t.Fatalf("send to closed remote = %v, want ErrPeerUnavailable", err)
	}
}

func TestCloseIsIdempotentAndClosesRecv(t *testing.T) {
	a, b := Pipe()
	_ = b
	if err := a.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, ok := <-a.Recv(); ok {
		t.Fatalf("recv channel still open after close")
	}
}

func TestSendDropsWhenRemoteInboxFull(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	for i := 0; i < loopbackQueueSize+10; i++ {
		if err := a.Send([]byte{byte(i)}); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	// The queue holds exactly its capacity; overflow was dropped silently.
	if got := len(b.inbox); got != loopbackQueueSize {
		t.Fatalf("queued frames = %d, want %d", got, loopbackQueueSize)
	}
}
