package proto

import "skydash/server/internal/sim"

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1
)

// Type identifiers for every message on the session protocol. Host-to-client
// and client-to-host types share one namespace; direction is enforced by the
// dispatch switches, which must stay exhaustive over this table.
const (
	TypeInit         = "init"
	TypePlayerJoined = "playerJoined"
	TypePlayerLeft   = "playerLeft"
	TypeGameState    = "gameState"
	TypeRoomClosed   = "roomClosed"
	TypeInput        = "input"
	TypePlayerInfo   = "playerInfo"
	TypeChat         = "chat"
	TypePing         = "ping"
	TypePong         = "pong"
)

// InitPayload is sent once to a newly accepted participant: its own id, the
// authoritative world tunables, and the complete current entity list.
type InitPayload struct {
	Ver      int               `json:"ver"`
	LocalID  string            `json:"localId"`
	Config   sim.Config        `json:"config"`
	Entities []sim.EntityState `json:"entities"`
}

// PlayerJoinedPayload announces a new entity to everyone already in the room.
type PlayerJoinedPayload struct {
	Entity sim.EntityState `json:"entity"`
}

// PlayerLeftPayload announces an entity removal. It broadcasts before the
// host drops any other per-peer state, so clients can release render state
// without racing the membership change.
type PlayerLeftPayload struct {
	ID string `json:"id"`
}

// GameStatePayload is the per-tick snapshot: the complete entity list, never
// a delta. ServerTime is milliseconds since the Unix epoch.
type GameStatePayload struct {
	Tick       uint64            `json:"t"`
	ServerTime int64             `json:"serverTime"`
	Entities   []sim.EntityState `json:"entities"`
}

// RoomClosedPayload tells remaining members the session is over. Host
// departure is the only producer; it is a lifecycle event, not an error.
type RoomClosedPayload struct {
	Reason string `json:"reason"`
}

// InputPayload is the client's current input record. Latest wins: the host
// overwrites the stored record wholesale on every receipt.
type InputPayload struct {
	Forward   bool    `json:"forward"`
	Backward  bool    `json:"backward"`
	Left      bool    `json:"left"`
	Right     bool    `json:"right"`
	Jump      bool    `json:"jump"`
	Dash      bool    `json:"dash"`
	CameraYaw float64 `json:"cameraYaw"`
}

// Input converts the wire record into the simulation's input type.
func (p InputPayload) Input() sim.Input {
	return sim.Input{
		Forward:   p.Forward,
		Backward:  p.Backward,
		Left:      p.Left,
		Right:     p.Right,
		Jump:      p.Jump,
		Dash:      p.Dash,
		CameraYaw: p.CameraYaw,
	}
}

// PlayerInfoPayload updates the sender's display name.
type PlayerInfoPayload struct {
	Name string `json:"name"`
}

// ChatPayload relays a chat line through the host. Clients send only Text;
// the host stamps SenderID and Timestamp before broadcasting.
type ChatPayload struct {
	SenderID  string `json:"senderId,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// PingPayload and PongPayload carry the liveness sub-protocol. SentAt echoes
// back in the pong so the host can derive a round-trip time.
type PingPayload struct {
	SentAt int64 `json:"sentAt"`
}

type PongPayload struct {
	SentAt int64 `json:"sentAt"`
}

// Messages enumerates every payload on the protocol. It exists for schema
// generation and for exhaustiveness checks in tests; it never crosses the
// wire itself.
type Messages struct {
	Init         InitPayload         `json:"init"`
	PlayerJoined PlayerJoinedPayload `json:"playerJoined"`
	PlayerLeft   PlayerLeftPayload   `json:"playerLeft"`
	GameState    GameStatePayload    `json:"gameState"`
	RoomClosed   RoomClosedPayload   `json:"roomClosed"`
	Input        InputPayload        `json:"input"`
	PlayerInfo   PlayerInfoPayload   `json:"playerInfo"`
	Chat         ChatPayload         `json:"chat"`
	Ping         PingPayload         `json:"ping"`
	Pong         PongPayload         `json:"pong"`
}

// Types lists every message type identifier in table order.
func Types() []string {
	return []string{
		TypeInit,
		TypePlayerJoined,
		TypePlayerLeft,
		TypeGameState,
		TypeRoomClosed,
		TypeInput,
		TypePlayerInfo,
		TypeChat,
		TypePing,
		TypePong,
	}
}
