package room

import (
	"time"

	"skydash/server/internal/net/proto"
	"skydash/server/internal/transport"
)

// Commands flow into the room's inbox and are consumed by the single
// dispatch goroutine, so membership changes, input writes, and simulation
// ticks never interleave.

type joinRequest struct {
	Conn  transport.Conn
	Name  string
	Reply chan JoinResult
}

// JoinResult acknowledges a join: the minted session-scoped id, or the
// reason the room refused.
type JoinResult struct {
	ID  string
	Err error
}

type leaveRequest struct {
	ID string
}

// closeEvent reports a transport-level disconnect. It takes the same cleanup
// path as an explicit leave and is idempotent: a peer already removed is not
// removed or announced twice.
type closeEvent struct {
	ID string
}

type inputCommand struct {
	ID      string
	Payload proto.InputPayload
}

type chatCommand struct {
	ID   string
	Text string
}

type infoCommand struct {
	ID   string
	Name string
}

type pingEvent struct {
	ID     string
	SentAt int64
}

type pongEvent struct {
	ID     string
	SentAt int64
}

type diagnosticsRequest struct {
	Reply chan []PeerDiagnostics
}

// PeerDiagnostics exposes per-peer liveness data for the diagnostics
// endpoint.
type PeerDiagnostics struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	LastSeen  int64  `json:"lastSeen"`
	RTTMillis int64  `json:"rttMillis"`
}

// LivenessConfig tunes the heartbeat sub-protocol. It runs independently of
// game traffic: the host pings on a fixed interval, any received message
// refreshes a peer's last-seen time, and a periodic sweep disconnects peers
// silent past the timeout.
type LivenessConfig struct {
	PingInterval  time.Duration
	SweepInterval time.Duration
	PeerTimeout   time.Duration
}

// DefaultLiveness returns the production heartbeat cadence.
func DefaultLiveness() LivenessConfig {
	return LivenessConfig{
		PingInterval:  3 * time.Second,
		SweepInterval: 5 * time.Second,
		PeerTimeout:   10 * time.Second,
	}
}

func (lc LivenessConfig) normalized() LivenessConfig {
	def := DefaultLiveness()
	if lc.PingInterval <= 0 {
		lc.PingInterval = def.PingInterval
	}
	if lc.SweepInterval <= 0 {
		lc.SweepInterval = def.SweepInterval
	}
	if lc.PeerTimeout <= 0 {
		lc.PeerTimeout = def.PeerTimeout
	}
	return lc
}
