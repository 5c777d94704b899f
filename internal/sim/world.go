package sim

// World owns the entity arena and input records for one session. It is not
// safe for concurrent use: the room's dispatch goroutine is the only caller,
// so ticks and input writes never interleave.
type World struct {
	cfg      Config
	entities map[string]*Entity
	inputs   map[string]Input
	order    []string
	joined   int
	tick     uint64
}

// NewWorld builds an empty world with normalized tunables.
func NewWorld(cfg Config) *World {
	return &World{
		cfg:      cfg.Normalized(),
		entities: make(map[string]*Entity),
		inputs:   make(map[string]Input),
	}
}

// Config returns the normalized tunables for this world.
func (w *World) Config() Config {
	return w.cfg
}

// Tick reports how many simulation steps have run.
func (w *World) Tick() uint64 {
	return w.tick
}

// Len reports the number of live entities.
func (w *World) Len() int {
	return len(w.entities)
}

// Add spawns an entity for a newly connected participant and returns it.
// Spawn position and color derive from the join count, not the current
// population, so rejoins do not collide with existing placements.
func (w *World) Add(id, name string) *Entity {
	e := newEntity(id, name, w.joined, w.cfg)
	w.joined++
	w.entities[id] = e
	w.inputs[id] = Input{}
	w.order = append(w.order, id)
	return e
}

// Remove drops an entity and its input record. It reports whether the
// entity existed, so callers can keep disconnect cleanup idempotent.
func (w *World) Remove(id string) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	delete(w.entities, id)
	delete(w.inputs, id)
	for i, other := range w.order {
		if other == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// Entity looks up a live entity by id.
func (w *World) Entity(id string) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// SetInput overwrites the participant's input record wholesale. Unknown ids
// are ignored; the entity may already be gone when a late message lands.
func (w *World) SetInput(id string, in Input) {
	if _, ok := w.entities[id]; !ok {
		return
	}
	w.inputs[id] = in
}

// Rename updates the display name shown in snapshots.
func (w *World) Rename(id, name string) {
	if e, ok := w.entities[id]; ok && name != "" {
		e.Name = name
	}
}

// Advance runs one simulation step for every entity using its most recent
// input. dt is the wall-clock seconds since the previous tick.
func (w *World) Advance(dt float64) {
	w.tick++
	for _, id := range w.order {
		e := w.entities[id]
		StepEntity(e, w.inputs[id], w.cfg, dt)
	}
}

// Snapshot renders the complete entity list in join order. Each snapshot is
// self-contained; there is no delta encoding to fall behind on.
func (w *World) Snapshot() []EntityState {
	states := make([]EntityState, 0, len(w.order))
	for _, id := range w.order {
		states = append(states, w.entities[id].Snapshot())
	}
	return states
}
