package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Entity is the authoritative per-participant state advanced by the host
// integrator. Clients hold read-only mirrors built from snapshots; only the
// owning world mutates an Entity.
type Entity struct {
	ID    string
	Name  string
	Color string

	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Yaw      float64
	Grounded bool

	// JumpChain is 0 on the ground, 1 after the first jump, 2 after the
	// double jump. It resets only on ground contact.
	JumpChain int

	Dashing      bool
	DashTimer    float64
	DashCooldown float64
	DashStacks   int
	DashDir      mgl64.Vec3

	// jumpHeld latches the jump flag so holding the button does not
	// re-trigger a jump on every tick.
	jumpHeld bool
}

// EntityState is the wire form of an entity inside a snapshot: identity,
// kinematics, and the ability state clients show in their UI.
type EntityState struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Color        string  `json:"color"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	Yaw          float64 `json:"yaw"`
	Grounded     bool    `json:"grounded"`
	Dashing      bool    `json:"dashing"`
	DashStacks   int     `json:"dashStacks"`
	DashCooldown float64 `json:"dashCooldown"`
}

// Snapshot copies the broadcast-relevant fields of the entity.
func (e *Entity) Snapshot() EntityState {
	return EntityState{
		ID:           e.ID,
		Name:         e.Name,
		Color:        e.Color,
		X:            e.Position[0],
		Y:            e.Position[1],
		Z:            e.Position[2],
		Yaw:          e.Yaw,
		Grounded:     e.Grounded,
		Dashing:      e.Dashing,
		DashStacks:   e.DashStacks,
		DashCooldown: e.DashCooldown,
	}
}

// Vec returns the state's position as a vector.
func (s EntityState) Vec() mgl64.Vec3 {
	return mgl64.Vec3{s.X, s.Y, s.Z}
}

// palette supplies display colors, assigned round-robin by join order.
var palette = []string{
	"#e74c3c",
	"#3498db",
	"#2ecc71",
	"#f1c40f",
	"#9b59b6",
	"#e67e22",
	"#1abc9c",
	"#fd79a8",
}

// newEntity places a fresh entity at the world origin, or on a ring around
// it when a spawn radius is configured so consecutive joiners do not spawn
// inside each other.
func newEntity(id, name string, joinIndex int, cfg Config) *Entity {
	var position mgl64.Vec3
	position[1] = cfg.GroundLevel
	if cfg.SpawnRadius > 0 {
		angle := float64(joinIndex) * (2 * math.Pi / float64(len(palette)))
		position[0] = math.Sin(angle) * cfg.SpawnRadius
		position[2] = math.Cos(angle) * cfg.SpawnRadius
	}
	return &Entity{
		ID:         id,
		Name:       name,
		Color:      palette[joinIndex%len(palette)],
		Position:   position,
		Yaw:        0,
		Grounded:   true,
		DashStacks: cfg.MaxDashStacks,
	}
}
