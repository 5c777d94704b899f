package sim

// Config carries the world tunables for one session. The host broadcasts it
// in the init message and clients must simulate with the received values;
// local copies are for display only.
type Config struct {
	MoveSpeed     float64 `json:"moveSpeed"`
	JumpPower     float64 `json:"jumpPower"`
	Gravity       float64 `json:"gravity"`
	GroundLevel   float64 `json:"groundLevel"`
	WorldSize     float64 `json:"worldSize"`
	DashSpeed     float64 `json:"dashSpeed"`
	DashDuration  float64 `json:"dashDuration"`
	DashCooldown  float64 `json:"dashCooldown"`
	MaxDashStacks int     `json:"maxDashStacks"`
	TickRate      int     `json:"tickRate"`
	MaxPlayers    int     `json:"maxPlayers"` // 0 means unbounded
	// SpawnRadius places joiners on a ring of this radius around the world
	// origin. 0 spawns everyone at the origin.
	SpawnRadius float64 `json:"spawnRadius,omitempty"`
}

const (
	DefaultMoveSpeed     = 8.0
	DefaultJumpPower     = 10.0
	DefaultGravity       = 25.0
	DefaultGroundLevel   = 0.5
	DefaultWorldSize     = 50.0
	DefaultDashSpeed     = 28.0
	DefaultDashDuration  = 0.18
	DefaultDashCooldown  = 2.0
	DefaultMaxDashStacks = 2
	DefaultTickRate      = 20
)

// DefaultConfig returns the tunables used when a room is created without
// explicit overrides.
func DefaultConfig() Config {
	return Config{
		MoveSpeed:     DefaultMoveSpeed,
		JumpPower:     DefaultJumpPower,
		Gravity:       DefaultGravity,
		GroundLevel:   DefaultGroundLevel,
		WorldSize:     DefaultWorldSize,
		DashSpeed:     DefaultDashSpeed,
		DashDuration:  DefaultDashDuration,
		DashCooldown:  DefaultDashCooldown,
		MaxDashStacks: DefaultMaxDashStacks,
		TickRate:      DefaultTickRate,
	}
}

// Normalized returns a config with defaults applied to any zero or invalid
// field. MaxPlayers is left alone: zero is a valid "unbounded" setting.
func (cfg Config) Normalized() Config {
	normalized := cfg
	if normalized.MoveSpeed <= 0 {
		normalized.MoveSpeed = DefaultMoveSpeed
	}
	if normalized.JumpPower <= 0 {
		normalized.JumpPower = DefaultJumpPower
	}
	if normalized.Gravity <= 0 {
		normalized.Gravity = DefaultGravity
	}
	if normalized.GroundLevel < 0 {
		normalized.GroundLevel = DefaultGroundLevel
	}
	if normalized.WorldSize <= 0 {
		normalized.WorldSize = DefaultWorldSize
	}
	if normalized.DashSpeed <= 0 {
		normalized.DashSpeed = DefaultDashSpeed
	}
	if normalized.DashDuration <= 0 {
		normalized.DashDuration = DefaultDashDuration
	}
	if normalized.DashCooldown <= 0 {
		normalized.DashCooldown = DefaultDashCooldown
	}
	if normalized.MaxDashStacks <= 0 {
		normalized.MaxDashStacks = DefaultMaxDashStacks
	}
	if normalized.TickRate <= 0 {
		normalized.TickRate = DefaultTickRate
	}
	if normalized.MaxPlayers < 0 {
		normalized.MaxPlayers = 0
	}
	if normalized.SpawnRadius < 0 {
		normalized.SpawnRadius = 0
	}
	return normalized
}
