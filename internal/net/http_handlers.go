package net

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"go.uber.org/zap"

	"skydash/server/internal/net/ws"
	"skydash/server/internal/room"
	"skydash/server/internal/telemetry"
)

type HTTPHandlerConfig struct {
	ClientDir string
	Logger    *zap.SugaredLogger
	Counters  *telemetry.Counters
}

// NewHTTPHandler assembles the full HTTP surface: room management, the
// websocket entry point, diagnostics, and the optional static client.
func NewHTTPHandler(rooms *room.Manager, wsHandler *ws.Handler, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/rooms", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.Method {
		case nethttp.MethodPost:
			rm := rooms.Create()
			logger.Infof("room %s created", rm.Code())
			response := struct {
				Code string `json:"code"`
			}{Code: rm.Code()}
			writeJSON(w, response)
		case nethttp.MethodGet:
			writeJSON(w, struct {
				Rooms []room.Info `json:"rooms"`
			}{Rooms: rooms.List()})
		default:
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		code := r.URL.Query().Get("room")
		if code == "" {
			httpError(w, "missing room", nethttp.StatusBadRequest)
			return
		}
		rm, err := rooms.Lookup(code)
		if err != nil {
			httpError(w, "room not found", nethttp.StatusNotFound)
			return
		}

		payload := struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Code       string `json:"code"`
			TickRate   int    `json:"tickRate"`
			Peers      any    `json:"peers"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Code:       rm.Code(),
			TickRate:   rm.Config().TickRate,
			Peers:      rm.Diagnostics(),
		}
		writeJSON(w, payload)
	})

	mux.HandleFunc("/metrics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, cfg.Counters.Snapshot())
	})

	mux.HandleFunc("/ws", wsHandler.Handle)

	if cfg.ClientDir != "" {
		fs := nethttp.FileServer(nethttp.Dir(cfg.ClientDir))
		mux.Handle("/", fs)
	}

	return mux
}

func writeJSON(w nethttp.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
