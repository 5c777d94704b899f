package room

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
)

// Code alphabet omits ambiguous glyphs (0/O, 1/I) so codes survive being
// read aloud.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// Info is the public listing shape for one room.
type Info struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
}

// Manager owns the code-to-room table. Rooms are created explicitly and
// release their code when they close; nothing persists across restarts.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Room
	opts  Options
}

// NewManager builds a registry whose rooms share the given options.
func NewManager(opts Options) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		opts:  opts,
	}
}

// Create allocates a room under a fresh collision-checked code and starts
// its session goroutine. Capacity is enforced at join, never here.
func (m *Manager) Create() *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code, err := generateCode(codeLength)
		if err != nil {
			// crypto/rand failing means the process is in real trouble;
			// surface it loudly instead of spinning.
			panic(fmt.Sprintf("room code generation: %v", err))
		}
		if _, exists := m.rooms[code]; exists {
			continue
		}
		return m.startLocked(code)
	}
}

// Adopt registers a room under a caller-supplied code. Direct (peer-to-peer)
// deployments use it with the host's transport identity as the code, so no
// separate allocation step exists there.
func (m *Manager) Adopt(code string) (*Room, error) {
	if code == "" {
		return nil, fmt.Errorf("adopt: %w", ErrRoomNotFound)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[code]; exists {
		return nil, fmt.Errorf("adopt %q: %w", code, ErrRoomExists)
	}
	return m.startLocked(code), nil
}

func (m *Manager) startLocked(code string) *Room {
	r := New(code, m.opts)
	r.onClosed = func(c string) {
		m.mu.Lock()
		delete(m.rooms, c)
		m.mu.Unlock()
	}
	m.rooms[code] = r
	m.opts.Counters.IncRoomsCreated()
	go r.Run()
	return r
}

// Lookup resolves a code to its live room.
func (m *Manager) Lookup(code string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", code, ErrRoomNotFound)
	}
	return r, nil
}

// List reports every active room with its population.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, Info{Code: code, Players: r.NumPeers()})
	}
	return out
}

// Shutdown stops every room and waits for their teardown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
	}
	for _, r := range rooms {
		<-r.Done()
	}
}

func generateCode(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
