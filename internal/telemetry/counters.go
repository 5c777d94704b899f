// Package telemetry collects process-wide counters for the metrics endpoint.
package telemetry

import (
	"sync/atomic"
	"time"
)

// Counters accumulates runtime metrics across every room. All methods are
// safe for concurrent use.
type Counters struct {
	ticksTotal         atomic.Uint64
	tickDurationMillis atomic.Int64
	broadcastsTotal    atomic.Uint64
	bytesSent          atomic.Uint64
	entitiesSent       atomic.Uint64
	inputsApplied      atomic.Uint64
	chatsRelayed       atomic.Uint64
	joinsTotal         atomic.Uint64
	leavesTotal        atomic.Uint64
	heartbeatTimeouts  atomic.Uint64
	roomsCreated       atomic.Uint64
	roomsClosed        atomic.Uint64
}

// Snapshot is the JSON shape served by the metrics endpoint.
type Snapshot struct {
	TicksTotal         uint64 `json:"ticksTotal"`
	TickDurationMillis int64  `json:"tickDurationMillis"`
	BroadcastsTotal    uint64 `json:"broadcastsTotal"`
	BytesSent          uint64 `json:"bytesSent"`
	EntitiesSent       uint64 `json:"entitiesSent"`
	InputsApplied      uint64 `json:"inputsApplied"`
	ChatsRelayed       uint64 `json:"chatsRelayed"`
	JoinsTotal         uint64 `json:"joinsTotal"`
	LeavesTotal        uint64 `json:"leavesTotal"`
	HeartbeatTimeouts  uint64 `json:"heartbeatTimeouts"`
	RoomsCreated       uint64 `json:"roomsCreated"`
	RoomsClosed        uint64 `json:"roomsClosed"`
}

func NewCounters() *Counters {
	return &Counters{}
}

// RecordTick stores the duration of the most recent simulation step.
func (c *Counters) RecordTick(duration time.Duration) {
	if c == nil {
		return
	}
	millis := duration.Milliseconds()
	if millis < 0 {
		millis = 0
	}
	c.ticksTotal.Add(1)
	c.tickDurationMillis.Store(millis)
}

// RecordBroadcast accounts one snapshot broadcast.
func (c *Counters) RecordBroadcast(bytes, entities int) {
	if c == nil {
		return
	}
	if bytes < 0 {
		bytes = 0
	}
	if entities < 0 {
		entities = 0
	}
	c.broadcastsTotal.Add(1)
	c.bytesSent.Add(uint64(bytes))
	c.entitiesSent.Add(uint64(entities))
}

func (c *Counters) IncInputs() {
	if c != nil {
		c.inputsApplied.Add(1)
	}
}

func (c *Counters) IncChats() {
	if c != nil {
		c.chatsRelayed.Add(1)
	}
}

func (c *Counters) IncJoins() {
	if c != nil {
		c.joinsTotal.Add(1)
	}
}

func (c *Counters) IncLeaves() {
	if c != nil {
		c.leavesTotal.Add(1)
	}
}

func (c *Counters) IncHeartbeatTimeouts() {
	if c != nil {
		c.heartbeatTimeouts.Add(1)
	}
}

func (c *Counters) IncRoomsCreated() {
	if c != nil {
		c.roomsCreated.Add(1)
	}
}

func (c *Counters) IncRoomsClosed() {
	if c != nil {
		c.roomsClosed.Add(1)
	}
}

// Snapshot returns a point-in-time copy for serving.
func (c *Counters) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		TicksTotal:         c.ticksTotal.Load(),
		TickDurationMillis: c.tickDurationMillis.Load(),
		BroadcastsTotal:    c.broadcastsTotal.Load(),
		BytesSent:          c.bytesSent.Load(),
		EntitiesSent:       c.entitiesSent.Load(),
		InputsApplied:      c.inputsApplied.Load(),
		ChatsRelayed:       c.chatsRelayed.Load(),
		JoinsTotal:         c.joinsTotal.Load(),
		LeavesTotal:        c.leavesTotal.Load(),
		HeartbeatTimeouts:  c.heartbeatTimeouts.Load(),
		RoomsCreated:       c.roomsCreated.Load(),
		RoomsClosed:        c.roomsClosed.Load(),
	}
}
