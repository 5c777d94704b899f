package client

import (
	"math"
	"testing"

	"skydash/server/internal/sim"
)

func spawnState(cfg sim.Config) sim.EntityState {
	return sim.EntityState{
		ID:         "local",
		Y:          cfg.GroundLevel,
		Grounded:   true,
		DashStacks: cfg.MaxDashStacks,
	}
}

func TestPredictorRunsSharedIntegrator(t *testing.T) {
	cfg := sim.DefaultConfig()
	p := NewPredictor(spawnState(cfg), cfg, PolicyIndependent)

	p.SetInput(sim.Input{Forward: true})
	dt := 1.0 / float64(cfg.TickRate)
	for i := 0; i < cfg.TickRate; i++ {
		p.Step(dt)
	}

	pos := p.Position()
	if math.Abs(pos[2]-(-cfg.MoveSpeed)) > 1e-9 {
		t.Fatalf("z after one second = %v, want %v", pos[2], -cfg.MoveSpeed)
	}
	if pos[0] != 0 {
		t.Fatalf("x drifted to %v, want 0", pos[0])
	}
	if pos[1] != cfg.GroundLevel {
		t.Fatalf("y = %v, want ground level %v", pos[1], cfg.GroundLevel)
	}
}

func TestPredictorSoftCorrectionBlendsTowardSnapshot(t *testing.T) {
	cfg := sim.DefaultConfig()
	p := NewPredictor(spawnState(cfg), cfg, PolicySoftCorrection)

	authoritative := spawnState(cfg)
	authoritative.X = 10

	p.Reconcile(authoritative)
	if got := p.Position()[0]; math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("x after one reconcile = %v, want 1.0", got)
	}

	for i := 0; i < 200; i++ {
		p.Reconcile(authoritative)
	}
	if got := p.Position()[0]; math.Abs(got-10) > 0.01 {
		t.Fatalf("x = %v after repeated reconciles, want ~10", got)
	}
}

func TestPredictorIndependentIgnoresSnapshotPosition(t *testing.T) {
	cfg := sim.DefaultConfig()
	p := NewPredictor(spawnState(cfg), cfg, PolicyIndependent)

	authoritative := spawnState(cfg)
	authoritative.X = 10
	authoritative.DashStacks = 0
	authoritative.DashCooldown = 1.5

	p.Reconcile(authoritative)

	if got := p.Position()[0]; got != 0 {
		t.Fatalf("x = %v, want 0 (position ignored)", got)
	}
	state := p.State()
	if state.DashStacks != 0 || state.DashCooldown != 1.5 {
		t.Fatalf("ability state = %d stacks, %v cooldown; want host values adopted", state.DashStacks, state.DashCooldown)
	}
}

func TestPredictorDashMatchesHostRules(t *testing.T) {
	cfg := sim.DefaultConfig()
	p := NewPredictor(spawnState(cfg), cfg, PolicyIndependent)

	p.SetInput(sim.Input{Forward: true, Dash: true})
	p.Step(1.0 / float64(cfg.TickRate))

	state := p.State()
	if !state.Dashing {
		t.Fatalf("dash did not trigger locally")
	}
	if state.DashStacks != cfg.MaxDashStacks-1 {
		t.Fatalf("stacks = %d, want %d", state.DashStacks, cfg.MaxDashStacks-1)
	}
}
