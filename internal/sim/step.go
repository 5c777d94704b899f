package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MoveDirection resolves the directional flags into a camera-relative unit
// vector on the XZ plane. Forward is -Z in camera space; the raw vector is
// normalized before rotation so diagonal input is no faster than cardinal.
func MoveDirection(in Input) mgl64.Vec3 {
	var x, z float64
	if in.Left {
		x--
	}
	if in.Right {
		x++
	}
	if in.Forward {
		z--
	}
	if in.Backward {
		z++
	}
	if x == 0 && z == 0 {
		return mgl64.Vec3{}
	}
	v := mgl64.Vec3{x, 0, z}.Normalize()
	sin, cos := math.Sincos(in.CameraYaw)
	return mgl64.Vec3{v[0]*cos + v[2]*sin, 0, -v[0]*sin + v[2]*cos}
}

// StepEntity advances one entity by dt seconds of simulation. The order is
// load-bearing: ability timers first, then input resolution and the dash
// trigger, then velocity, jump, gravity, integration, and finally ground and
// world-bound resolution.
func StepEntity(e *Entity, in Input, cfg Config, dt float64) {
	// Dash cooldown regenerates stacks one at a time: each completed cycle
	// restores a single stack and restarts the timer while below the cap.
	if e.DashCooldown > 0 {
		e.DashCooldown -= dt
		if e.DashCooldown <= 0 {
			e.DashCooldown = 0
			if e.DashStacks < cfg.MaxDashStacks {
				e.DashStacks++
			}
			if e.DashStacks < cfg.MaxDashStacks {
				e.DashCooldown = cfg.DashCooldown
			}
		}
	}

	if e.Dashing {
		e.DashTimer -= dt
		if e.DashTimer <= 0 {
			e.DashTimer = 0
			e.Dashing = false
		}
	}

	dir := MoveDirection(in)
	moving := dir[0] != 0 || dir[2] != 0

	// A dash needs a stack and a direction to latch; dashing in place is
	// not a thing.
	if in.Dash && !e.Dashing && e.DashStacks > 0 && moving {
		e.DashStacks--
		e.Dashing = true
		e.DashTimer = cfg.DashDuration
		e.DashDir = dir
		if e.DashCooldown <= 0 {
			e.DashCooldown = cfg.DashCooldown
		}
	}

	if e.Dashing {
		e.Velocity[0] = e.DashDir[0] * cfg.DashSpeed
		e.Velocity[2] = e.DashDir[2] * cfg.DashSpeed
	} else {
		e.Velocity[0] = dir[0] * cfg.MoveSpeed
		e.Velocity[2] = dir[2] * cfg.MoveSpeed
	}

	// Edge-triggered jump: only a rising edge of the flag counts, and the
	// latch clears when the button releases. A grounded press starts the
	// chain; one more press while airborne grants the double jump.
	if in.Jump && !e.jumpHeld {
		if e.Grounded {
			e.Velocity[1] = cfg.JumpPower
			e.Grounded = false
			e.JumpChain = 1
		} else if e.JumpChain == 1 {
			e.Velocity[1] = cfg.JumpPower
			e.JumpChain = 2
		}
	}
	e.jumpHeld = in.Jump

	if !e.Grounded {
		e.Velocity[1] -= cfg.Gravity * dt
	}

	e.Position = e.Position.Add(e.Velocity.Mul(dt))

	if e.Position[1] <= cfg.GroundLevel {
		e.Position[1] = cfg.GroundLevel
		e.Velocity[1] = 0
		e.Grounded = true
		e.JumpChain = 0
	}

	half := cfg.WorldSize / 2
	e.Position[0] = clamp(e.Position[0], -half, half)
	e.Position[2] = clamp(e.Position[2], -half, half)

	// Face the movement direction; facing persists while idle.
	if moving {
		e.Yaw = math.Atan2(dir[0], dir[2])
	}
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
