package room

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skydash/server/internal/net/proto"
	"skydash/server/internal/sim"
	"skydash/server/internal/telemetry"
	"skydash/server/internal/transport"
)

const (
	inboxSize     = 256
	maxChatLength = 256
	// catchupMaxTicks bounds the wall-clock delta fed into one step when the
	// scheduler stalls, so a long pause cannot teleport entities.
	catchupMaxTicks = 4
)

// Options configures a room at creation time.
type Options struct {
	Config   sim.Config
	Codec    proto.Codec
	Logger   *zap.SugaredLogger
	Counters *telemetry.Counters
	Liveness LivenessConfig
}

type peer struct {
	id       string
	conn     transport.Conn
	lastSeen time.Time
	lastRTT  time.Duration
}

// Room is one session: an authoritative world, its connected peers, and the
// liveness bookkeeping that keeps membership consistent under churn. A single
// goroutine (Run) owns all of it; everything else talks through the inbox.
type Room struct {
	code     string
	codec    proto.Codec
	log      *zap.SugaredLogger
	counters *telemetry.Counters
	liveness LivenessConfig

	world  *sim.World
	peers  map[string]*peer
	hostID string

	inbox      chan any
	quit       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	population atomic.Int64

	// created and everJoined drive the idle timeout: a room nobody has ever
	// joined closes after the peer timeout instead of ticking forever.
	created    time.Time
	everJoined bool

	// closed flips once closeRoom runs. Removal can cascade from deep
	// inside a broadcast (a failed send drops a peer, dropping the host
	// closes the room), so the loop re-checks it after every branch.
	closed bool

	// onClosed notifies the manager after teardown so the code can be
	// released. Called at most once, from the room goroutine.
	onClosed func(code string)
}

// New builds a room. The caller starts it with go Run().
func New(code string, opts Options) *Room {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	codec := opts.Codec
	if codec == nil {
		codec = proto.JSONCodec{}
	}
	return &Room{
		code:     code,
		codec:    codec,
		log:      logger,
		counters: opts.Counters,
		liveness: opts.Liveness.normalized(),
		world:    sim.NewWorld(opts.Config),
		peers:    make(map[string]*peer),
		inbox:    make(chan any, inboxSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		created:  time.Now(),
	}
}

// Code returns the shareable room code.
func (r *Room) Code() string { return r.code }

// Config returns the world tunables broadcast to joiners.
func (r *Room) Config() sim.Config { return r.world.Config() }

// NumPeers reports the current membership size.
func (r *Room) NumPeers() int { return int(r.population.Load()) }

// Done closes when the room has fully torn down.
func (r *Room) Done() <-chan struct{} { return r.done }

// Stop requests teardown from outside the room goroutine. Idempotent.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Join registers a connection and blocks until the room acknowledges. The
// returned id identifies the participant for the rest of the session.
func (r *Room) Join(conn transport.Conn, name string) JoinResult {
	reply := make(chan JoinResult, 1)
	select {
	case r.inbox <- joinRequest{Conn: conn, Name: name, Reply: reply}:
	case <-r.done:
		return JoinResult{Err: ErrRoomClosed}
	}
	select {
	case res := <-reply:
		return res
	case <-r.done:
		return JoinResult{Err: ErrRoomClosed}
	}
}

// Leave removes a participant explicitly. Safe to call for ids that already
// left; the cleanup path is idempotent.
func (r *Room) Leave(id string) {
	r.post(leaveRequest{ID: id})
}

// ConnectionClosed reports a transport-level disconnect for a participant.
func (r *Room) ConnectionClosed(id string) {
	r.post(closeEvent{ID: id})
}

// HandleFrame decodes one wire frame from a participant and dispatches it.
// Decoding happens on the reader's goroutine; only the typed command crosses
// into the room loop.
func (r *Room) HandleFrame(id string, data []byte) {
	env, err := r.codec.Decode(data)
	if err != nil {
		r.log.Debugf("room %s: discarding malformed frame from %s: %v", r.code, id, err)
		return
	}
	switch env.T {
	case proto.TypeInput:
		payload, err := proto.DecodePayload[proto.InputPayload](r.codec, env)
		if err != nil {
			r.log.Debugf("room %s: bad input payload from %s: %v", r.code, id, err)
			return
		}
		r.post(inputCommand{ID: id, Payload: payload})
	case proto.TypePlayerInfo:
		payload, err := proto.DecodePayload[proto.PlayerInfoPayload](r.codec, env)
		if err != nil {
			return
		}
		r.post(infoCommand{ID: id, Name: payload.Name})
	case proto.TypeChat:
		payload, err := proto.DecodePayload[proto.ChatPayload](r.codec, env)
		if err != nil {
			return
		}
		r.post(chatCommand{ID: id, Text: payload.Text})
	case proto.TypePing:
		payload, _ := proto.DecodePayload[proto.PingPayload](r.codec, env)
		r.post(pingEvent{ID: id, SentAt: payload.SentAt})
	case proto.TypePong:
		payload, _ := proto.DecodePayload[proto.PongPayload](r.codec, env)
		r.post(pongEvent{ID: id, SentAt: payload.SentAt})
	case proto.TypeInit, proto.TypePlayerJoined, proto.TypePlayerLeft,
		proto.TypeGameState, proto.TypeRoomClosed:
		// Host-to-client types have no business arriving here.
		r.log.Debugf("room %s: ignoring host-bound type %q from %s", r.code, env.T, id)
	default:
		r.log.Debugf("room %s: unknown message type %q from %s", r.code, env.T, id)
	}
}

// Diagnostics returns per-peer liveness data, or nil if the room is gone.
func (r *Room) Diagnostics() []PeerDiagnostics {
	reply := make(chan []PeerDiagnostics, 1)
	select {
	case r.inbox <- diagnosticsRequest{Reply: reply}:
	case <-r.done:
		return nil
	}
	select {
	case res := <-reply:
		return res
	case <-r.done:
		return nil
	}
}

// post enqueues without blocking the reader. Dropping under pressure is
// acceptable for game traffic: input records are latest-wins and liveness
// refreshes again on the next message.
func (r *Room) post(cmd any) {
	select {
	case r.inbox <- cmd:
	default:
	}
}

// Run drives the session: inbox commands, the fixed simulation tick, the
// heartbeat ping, and the liveness sweep, all on one goroutine.
func (r *Room) Run() {
	defer close(r.done)

	cfg := r.world.Config()
	interval := time.Second / time.Duration(cfg.TickRate)
	ticker := time.NewTicker(interval)
	ping := time.NewTicker(r.liveness.PingInterval)
	sweep := time.NewTicker(r.liveness.SweepInterval)
	defer ticker.Stop()
	defer ping.Stop()
	defer sweep.Stop()

	intervalSeconds := interval.Seconds()
	maxDt := intervalSeconds * catchupMaxTicks
	last := time.Now()

	for {
		select {
		case <-r.quit:
			r.closeRoom("server shutdown")
			return
		case cmd := <-r.inbox:
			r.handle(cmd)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = intervalSeconds
			} else if dt > maxDt {
				dt = maxDt
			}
			last = now

			start := time.Now()
			r.world.Advance(dt)
			r.broadcastState(now)
			r.counters.RecordTick(time.Since(start))
		case now := <-ping.C:
			r.broadcast(proto.TypePing, proto.PingPayload{SentAt: now.UnixMilli()})
		case now := <-sweep.C:
			r.sweepSilent(now)
		}
		if r.closed {
			return
		}
	}
}

// handle applies one command from the inbox.
func (r *Room) handle(cmd any) {
	switch c := cmd.(type) {
	case joinRequest:
		r.handleJoin(c)
	case leaveRequest:
		r.removePeer(c.ID, "left")
	case closeEvent:
		r.removePeer(c.ID, "connection closed")
	case inputCommand:
		r.touch(c.ID)
		r.world.SetInput(c.ID, c.Payload.Input())
		r.counters.IncInputs()
	case infoCommand:
		r.touch(c.ID)
		r.world.Rename(c.ID, strings.TrimSpace(c.Name))
	case chatCommand:
		r.touch(c.ID)
		r.relayChat(c.ID, c.Text)
	case pingEvent:
		r.touch(c.ID)
		r.sendTo(c.ID, proto.TypePong, proto.PongPayload{SentAt: c.SentAt})
	case pongEvent:
		r.handlePong(c)
	case diagnosticsRequest:
		c.Reply <- r.diagnostics()
	}
}

func (r *Room) handleJoin(req joinRequest) {
	cfg := r.world.Config()
	if cfg.MaxPlayers > 0 && len(r.peers) >= cfg.MaxPlayers {
		req.Reply <- JoinResult{Err: ErrRoomFull}
		return
	}

	id := uuid.NewString()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Player " + id[:8]
	}

	entity := r.world.Add(id, name)
	r.everJoined = true
	r.peers[id] = &peer{id: id, conn: req.Conn, lastSeen: time.Now()}
	r.population.Store(int64(len(r.peers)))
	if r.hostID == "" {
		r.hostID = id
	}
	r.counters.IncJoins()

	init := proto.InitPayload{
		Ver:      proto.Version,
		LocalID:  id,
		Config:   cfg,
		Entities: r.world.Snapshot(),
	}
	if data, err := r.codec.Encode(proto.TypeInit, init); err != nil {
		r.log.Warnf("room %s: encode init for %s: %v", r.code, id, err)
	} else if err := req.Conn.Send(data); err != nil {
		r.log.Infof("room %s: init send to %s failed: %v", r.code, id, err)
	}

	r.broadcastExcept(id, proto.TypePlayerJoined, proto.PlayerJoinedPayload{Entity: entity.Snapshot()})
	r.log.Infof("room %s: %s joined as %s (%d members)", r.code, name, id, len(r.peers))

	req.Reply <- JoinResult{ID: id}
}

// removePeer is the single cleanup path for leaves, transport closes, send
// failures, and heartbeat timeouts. A second call for the same id is a
// no-op, so duplicate close events produce exactly one playerLeft.
func (r *Room) removePeer(id, reason string) {
	p, ok := r.peers[id]
	if !ok {
		return
	}
	delete(r.peers, id)
	r.population.Store(int64(len(r.peers)))
	r.world.Remove(id)
	r.counters.IncLeaves()

	// Announce before dropping anything else, so every remaining client can
	// release its render state for this entity.
	r.broadcast(proto.TypePlayerLeft, proto.PlayerLeftPayload{ID: id})
	_ = p.conn.Close()
	r.log.Infof("room %s: %s removed (%s), %d members remain", r.code, id, reason, len(r.peers))

	if id == r.hostID {
		// No host migration: the authoritative simulation leaves with the
		// host, and the session ends as a normal closure event.
		r.closeRoom("host left")
		return
	}
	if len(r.peers) == 0 {
		r.closeRoom("room empty")
	}
}

func (r *Room) closeRoom(reason string) {
	if r.closed {
		return
	}
	r.closed = true
	if data, err := r.codec.Encode(proto.TypeRoomClosed, proto.RoomClosedPayload{Reason: reason}); err == nil {
		for _, p := range r.peers {
			_ = p.conn.Send(data)
		}
	}
	for id, p := range r.peers {
		_ = p.conn.Close()
		delete(r.peers, id)
	}
	r.population.Store(0)
	r.counters.IncRoomsClosed()
	r.log.Infof("room %s: closed (%s)", r.code, reason)
	if r.onClosed != nil {
		r.onClosed(r.code)
	}
}

func (r *Room) relayChat(id, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if len(text) > maxChatLength {
		// Back off to a rune boundary so the cut never emits invalid UTF-8.
		cut := maxChatLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	if _, ok := r.peers[id]; !ok {
		return
	}
	r.counters.IncChats()
	r.broadcast(proto.TypeChat, proto.ChatPayload{
		SenderID:  id,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (r *Room) handlePong(evt pongEvent) {
	p, ok := r.peers[evt.ID]
	if !ok {
		return
	}
	now := time.Now()
	p.lastSeen = now
	if evt.SentAt > 0 {
		sent := time.UnixMilli(evt.SentAt)
		if rtt := now.Sub(sent); rtt >= 0 && rtt < 30*time.Second {
			p.lastRTT = rtt
		}
	}
}

// touch refreshes a peer's last-seen time. Every message counts as life,
// not just pongs.
func (r *Room) touch(id string) {
	if p, ok := r.peers[id]; ok {
		p.lastSeen = time.Now()
	}
}

// sweepSilent disconnects peers that have been quiet past the timeout. It
// funnels into the same cleanup path as an explicit close. The same sweep
// retires rooms that were created but never joined.
func (r *Room) sweepSilent(now time.Time) {
	if !r.everJoined && now.Sub(r.created) > r.liveness.PeerTimeout {
		r.closeRoom("never joined")
		return
	}
	var stale []string
	for id, p := range r.peers {
		if now.Sub(p.lastSeen) > r.liveness.PeerTimeout {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		if r.closed {
			return
		}
		r.log.Infof("room %s: %s silent past %s, disconnecting", r.code, id, r.liveness.PeerTimeout)
		r.counters.IncHeartbeatTimeouts()
		r.removePeer(id, "heartbeat timeout")
	}
}

func (r *Room) broadcastState(now time.Time) {
	if len(r.peers) == 0 {
		return
	}
	entities := r.world.Snapshot()
	payload := proto.GameStatePayload{
		Tick:       r.world.Tick(),
		ServerTime: now.UnixMilli(),
		Entities:   entities,
	}
	data, err := r.codec.Encode(proto.TypeGameState, payload)
	if err != nil {
		r.log.Warnf("room %s: encode snapshot: %v", r.code, err)
		return
	}
	r.sendAll(data)
	r.counters.RecordBroadcast(len(data), len(entities))
}

func (r *Room) broadcast(msgType string, payload any) {
	if len(r.peers) == 0 {
		return
	}
	data, err := r.codec.Encode(msgType, payload)
	if err != nil {
		r.log.Warnf("room %s: encode %s: %v", r.code, msgType, err)
		return
	}
	r.sendAll(data)
}

func (r *Room) broadcastExcept(skip string, msgType string, payload any) {
	data, err := r.codec.Encode(msgType, payload)
	if err != nil {
		r.log.Warnf("room %s: encode %s: %v", r.code, msgType, err)
		return
	}
	var failed []string
	for id, p := range r.peers {
		if id == skip {
			continue
		}
		if err := p.conn.Send(data); err != nil {
			failed = append(failed, id)
		}
	}
	r.dropFailed(failed)
}

// sendAll delivers one encoded frame to every peer, fire-and-forget. Peers
// whose connection errors are cleaned up through the normal removal path.
func (r *Room) sendAll(data []byte) {
	var failed []string
	for id, p := range r.peers {
		if err := p.conn.Send(data); err != nil {
			failed = append(failed, id)
		}
	}
	r.dropFailed(failed)
}

func (r *Room) dropFailed(failed []string) {
	for _, id := range failed {
		r.removePeer(id, "send failed")
	}
}

func (r *Room) sendTo(id string, msgType string, payload any) {
	p, ok := r.peers[id]
	if !ok {
		return
	}
	data, err := r.codec.Encode(msgType, payload)
	if err != nil {
		return
	}
	if err := p.conn.Send(data); err != nil {
		r.removePeer(id, "send failed")
	}
}

func (r *Room) diagnostics() []PeerDiagnostics {
	out := make([]PeerDiagnostics, 0, len(r.peers))
	for id, p := range r.peers {
		name := ""
		if e, ok := r.world.Entity(id); ok {
			name = e.Name
		}
		out = append(out, PeerDiagnostics{
			ID:        id,
			Name:      name,
			LastSeen:  p.lastSeen.UnixMilli(),
			RTTMillis: p.lastRTT.Milliseconds(),
		})
	}
	return out
}
