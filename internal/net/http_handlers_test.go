package net

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"skydash/server/internal/net/proto"
	"skydash/server/internal/net/ws"
	"skydash/server/internal/room"
	"skydash/server/internal/sim"
	"skydash/server/internal/telemetry"
)

func newTestServer(t *testing.T) (*httptest.Server, *room.Manager) {
	t.Helper()
	counters := telemetry.NewCounters()
	rooms := room.NewManager(room.Options{
		Config:   sim.DefaultConfig(),
		Codec:    proto.JSONCodec{},
		Counters: counters,
	})
	t.Cleanup(rooms.Shutdown)

	handler := NewHTTPHandler(rooms, ws.NewHandler(rooms, ws.HandlerConfig{}), HTTPHandlerConfig{
		Counters: counters,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, rooms
}

func createRoom(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(server.URL+"/rooms", "application/json", nil)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create room status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if body.Code == "" {
		t.Fatalf("create room returned an empty code")
	}
	return body.Code
}

func dial(t *testing.T, server *httptest.Server, code, name string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?room=" + code + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", code, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn, want string) proto.Envelope {
	t.Helper()
	codec := proto.JSONCodec{}
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read while waiting for %q: %v", want, err)
		}
		env, err := codec.Decode(data)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if env.T == want {
			return env
		}
	}
}

func TestCreateJoinOverWebSocket(t *testing.T) {
	server, _ := newTestServer(t)
	code := createRoom(t, server)

	host := dial(t, server, code, "Host")
	env := readEnvelope(t, host, proto.TypeInit)
	init, err := proto.DecodePayload[proto.InitPayload](proto.JSONCodec{}, env)
	if err != nil {
		t.Fatalf("decode init: %v", err)
	}
	if len(init.Entities) != 1 {
		t.Fatalf("host init entities = %d, want 1", len(init.Entities))
	}

	guest := dial(t, server, code, "Guest")
	env = readEnvelope(t, guest, proto.TypeInit)
	guestInit, err := proto.DecodePayload[proto.InitPayload](proto.JSONCodec{}, env)
	if err != nil {
		t.Fatalf("decode guest init: %v", err)
	}
	if len(guestInit.Entities) != 2 {
		t.Fatalf("guest init entities = %d, want 2", len(guestInit.Entities))
	}

	readEnvelope(t, host, proto.TypePlayerJoined)
}

func TestInputRoundTripOverWebSocket(t *testing.T) {
	server, _ := newTestServer(t)
	code := createRoom(t, server)

	conn := dial(t, server, code, "Runner")
	env := readEnvelope(t, conn, proto.TypeInit)
	init, err := proto.DecodePayload[proto.InitPayload](proto.JSONCodec{}, env)
	if err != nil {
		t.Fatalf("decode init: %v", err)
	}
	startZ := init.Entities[0].Z

	codec := proto.JSONCodec{}
	frame, err := codec.Encode(proto.TypeInput, proto.InputPayload{Forward: true})
	if err != nil {
		t.Fatalf("encode input: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write input: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		env := readEnvelope(t, conn, proto.TypeGameState)
		state, err := proto.DecodePayload[proto.GameStatePayload](codec, env)
		if err != nil {
			t.Fatalf("decode gameState: %v", err)
		}
		if state.Entities[0].Z < startZ-0.1 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("entity never moved: z = %v", state.Entities[0].Z)
		default:
		}
	}
}

func TestDialUnknownRoom(t *testing.T) {
	server, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?room=NOSUCH"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("dial unknown room succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("dial unknown room status = %v, want 404", resp)
	}
}

func TestListRooms(t *testing.T) {
	server, _ := newTestServer(t)
	code := createRoom(t, server)

	resp, err := http.Get(server.URL + "/rooms")
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Rooms []room.Info `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(body.Rooms) != 1 || body.Rooms[0].Code != code {
		t.Fatalf("list = %+v, want one room %s", body.Rooms, code)
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	code := createRoom(t, server)

	conn := dial(t, server, code, "Probe")
	readEnvelope(t, conn, proto.TypeInit)

	resp, err := http.Get(server.URL + "/diagnostics?room=" + code)
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Status   string `json:"status"`
		Code     string `json:"code"`
		TickRate int    `json:"tickRate"`
		Peers    []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"peers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	if body.Status != "ok" || body.Code != code {
		t.Fatalf("diagnostics = %+v", body)
	}
	if len(body.Peers) != 1 || body.Peers[0].Name != "Probe" {
		t.Fatalf("diagnostics peers = %+v, want one named Probe", body.Peers)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	server, _ := newTestServer(t)
	createRoom(t, server)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	var snap telemetry.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if snap.RoomsCreated != 1 {
		t.Fatalf("roomsCreated = %d, want 1", snap.RoomsCreated)
	}
}
