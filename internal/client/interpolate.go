// Package client holds the session-side counterparts of the authoritative
// simulation: local prediction against the shared integrator, reconciliation
// against host snapshots, and display smoothing for remote entities.
package client

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"skydash/server/internal/sim"
)

// WrapAngle normalizes an angle difference into (-pi, pi], so interpolation
// always takes the shortest way around the circle.
func WrapAngle(d float64) float64 {
	d = math.Mod(d+math.Pi, 2*math.Pi)
	if d <= 0 {
		d += 2 * math.Pi
	}
	return d - math.Pi
}

// DefaultSmoothingRate is the exponential approach rate for remote entities.
// Higher values track snapshots more tightly at the cost of visible jitter.
const DefaultSmoothingRate = 12.0

// RemoteView smooths a remote entity's snapshot stream into continuous
// motion. Snapshots arrive at tick rate; rendering runs faster, so the view
// approaches the latest snapshot exponentially instead of teleporting.
type RemoteView struct {
	state    sim.EntityState
	position mgl64.Vec3
	yaw      float64
	rate     float64
	seeded   bool
}

// NewRemoteView builds a view with the given approach rate. Zero or negative
// rates fall back to the default.
func NewRemoteView(rate float64) *RemoteView {
	if rate <= 0 {
		rate = DefaultSmoothingRate
	}
	return &RemoteView{rate: rate}
}

// Observe records the latest authoritative state for this entity. The first
// observation snaps; later ones become the smoothing target.
func (v *RemoteView) Observe(state sim.EntityState) {
	v.state = state
	if !v.seeded {
		v.position = state.Vec()
		v.yaw = state.Yaw
		v.seeded = true
	}
}

// Advance moves the displayed position and yaw toward the last observed
// state. Yaw takes the shortest angular path, so an entity crossing the
// +pi/-pi seam turns a few degrees instead of spinning the long way round.
func (v *RemoteView) Advance(dt float64) {
	if !v.seeded || dt <= 0 {
		return
	}
	alpha := 1 - math.Exp(-v.rate*dt)
	target := v.state.Vec()
	v.position = v.position.Add(target.Sub(v.position).Mul(alpha))
	v.yaw += WrapAngle(v.state.Yaw-v.yaw) * alpha
	v.yaw = WrapAngle(v.yaw)
}

// Position returns the smoothed render position.
func (v *RemoteView) Position() mgl64.Vec3 { return v.position }

// Yaw returns the smoothed facing angle.
func (v *RemoteView) Yaw() float64 { return v.yaw }

// State returns the last observed snapshot, unsmoothed. Ability indicators
// (dash stacks, cooldown) render from here; only motion is smoothed.
func (v *RemoteView) State() sim.EntityState { return v.state }
