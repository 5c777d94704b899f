package ws

import (
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"skydash/server/internal/net/proto"
	"skydash/server/internal/room"
)

const (
	maxFrameSize = 64 << 10
	readTimeout  = 60 * time.Second
)

// HandlerConfig configures the websocket entry point.
type HandlerConfig struct {
	Logger *zap.SugaredLogger
	Codec  proto.Codec
}

// Handler upgrades HTTP requests into room sessions.
type Handler struct {
	rooms    *room.Manager
	logger   *zap.SugaredLogger
	binary   bool
	upgrader websocket.Upgrader
}

// NewHandler constructs the websocket handler for the given room registry.
// The codec must match the one the registry's rooms encode with.
func NewHandler(rooms *room.Manager, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	codec := cfg.Codec
	if codec == nil {
		codec = proto.JSONCodec{}
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		rooms:    rooms,
		logger:   logger,
		binary:   codec.Name() == "msgpack",
		upgrader: upgrader,
	}
}

// Handle serves one client: ws://host/ws?room=CODE&name=NAME. The connection
// joins the named room and every subsequent frame is dispatched to it.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	code := r.URL.Query().Get("room")
	if code == "" {
		nethttp.Error(w, "missing room", nethttp.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")

	rm, err := h.rooms.Lookup(code)
	if err != nil {
		nethttp.Error(w, "room not found", nethttp.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Infof("upgrade failed for room %s: %v", code, err)
		return
	}

	session := NewSession(conn, h.binary)
	res := rm.Join(session, name)
	if res.Err != nil {
		h.rejectJoin(conn, res.Err)
		session.Close()
		return
	}
	h.logger.Infof("room %s: websocket session for %s", code, res.ID)

	conn.SetReadLimit(maxFrameSize)
	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			rm.ConnectionClosed(res.ID)
			session.Close()
			return
		}
		rm.HandleFrame(res.ID, payload)
	}
}

func (h *Handler) rejectJoin(conn *websocket.Conn, err error) {
	reason := "join rejected"
	switch {
	case errors.Is(err, room.ErrRoomFull):
		reason = "room full"
	case errors.Is(err, room.ErrRoomClosed):
		reason = "room closed"
	}
	message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	conn.WriteMessage(websocket.CloseMessage, message)
}
