package client

import (
	"github.com/go-gl/mathgl/mgl64"

	"skydash/server/internal/sim"
)

// Policy selects how the local entity is reconciled against host snapshots.
type Policy int

const (
	// PolicySoftCorrection blends the predicted position toward the
	// authoritative one by a small fraction per snapshot. Divergence decays
	// smoothly, at the cost of the local entity never being exactly where
	// the host says under sustained packet loss.
	PolicySoftCorrection Policy = iota
	// PolicyIndependent trusts the local integrator entirely and ignores
	// snapshot positions for the local entity. Movement feels perfectly
	// crisp, but a client whose tunables drift from the host's will render
	// itself somewhere other players do not see it.
	PolicyIndependent
)

// DefaultCorrection is the per-snapshot blend fraction for soft correction.
const DefaultCorrection = 0.1

// Predictor runs the local player through the same integrator the host runs,
// so rendered movement never waits on the network round trip.
type Predictor struct {
	cfg        sim.Config
	policy     Policy
	correction float64
	entity     sim.Entity
	input      sim.Input
}

// NewPredictor seeds local prediction from the entity state delivered in the
// init message.
func NewPredictor(state sim.EntityState, cfg sim.Config, policy Policy) *Predictor {
	return &Predictor{
		cfg:        cfg.Normalized(),
		policy:     policy,
		correction: DefaultCorrection,
		entity: sim.Entity{
			ID:           state.ID,
			Name:         state.Name,
			Color:        state.Color,
			Position:     state.Vec(),
			Yaw:          state.Yaw,
			Grounded:     state.Grounded,
			DashStacks:   state.DashStacks,
			DashCooldown: state.DashCooldown,
		},
	}
}

// SetInput records the controls applied on every following step. The same
// record should be sent to the host, so both integrators see identical input.
func (p *Predictor) SetInput(in sim.Input) {
	p.input = in
}

// Step advances the local entity one frame.
func (p *Predictor) Step(dt float64) {
	sim.StepEntity(&p.entity, p.input, p.cfg, dt)
}

// Reconcile folds one authoritative snapshot of the local entity into the
// prediction according to the policy.
func (p *Predictor) Reconcile(state sim.EntityState) {
	// Ability state is authoritative either way: stacks and cooldowns are
	// discrete UI facts, and disagreeing with the host about them reads as
	// a bug, not as latency.
	p.entity.DashStacks = state.DashStacks
	p.entity.DashCooldown = state.DashCooldown
	p.entity.Color = state.Color
	p.entity.Name = state.Name

	if p.policy == PolicyIndependent {
		return
	}
	target := state.Vec()
	p.entity.Position = p.entity.Position.Add(target.Sub(p.entity.Position).Mul(p.correction))
}

// Position returns the predicted position.
func (p *Predictor) Position() mgl64.Vec3 { return p.entity.Position }

// State returns the predicted entity as a snapshot for rendering.
func (p *Predictor) State() sim.EntityState { return p.entity.Snapshot() }
