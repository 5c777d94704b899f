package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"skydash/server/internal/transport"
)

const (
	sendQueueSize = 64
	writeTimeout  = 5 * time.Second
)

// Session wraps a websocket connection behind a buffered send queue so the
// room goroutine never blocks on a slow client. It satisfies transport.Conn.
type Session struct {
	ws      *websocket.Conn
	send    chan []byte
	quit    chan struct{}
	once    sync.Once
	msgType int
}

// NewSession starts the write pump for the given connection. Binary framing
// is used for binary codecs, text framing otherwise.
func NewSession(conn *websocket.Conn, binary bool) *Session {
	msgType := websocket.TextMessage
	if binary {
		msgType = websocket.BinaryMessage
	}
	s := &Session{
		ws:      conn,
		send:    make(chan []byte, sendQueueSize),
		quit:    make(chan struct{}),
		msgType: msgType,
	}
	go s.writePump()
	return s
}

// Send enqueues one frame without blocking. A full queue drops the frame;
// every snapshot supersedes the previous one, so skipping is harmless.
func (s *Session) Send(data []byte) error {
	select {
	case <-s.quit:
		return transport.ErrPeerUnavailable
	default:
	}
	select {
	case s.send <- data:
	default:
	}
	return nil
}

// Close stops the write pump and tears down the socket. Idempotent.
func (s *Session) Close() error {
	s.once.Do(func() { close(s.quit) })
	return nil
}

func (s *Session) writePump() {
	defer s.ws.Close()
	for {
		select {
		case msg := <-s.send:
			s.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.ws.WriteMessage(s.msgType, msg); err != nil {
				return
			}
		case <-s.quit:
			s.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			s.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
