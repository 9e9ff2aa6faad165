package sim

import (
	"math"
	"testing"
)

func testChaseRig() (*ChaseGuidance, *Interceptor) {
	p := DefaultParams()
	world := NewWorld(Arena{HalfExtent: p.Arena.HalfExtent}, nil)
	ic := NewInterceptor(p.Interceptor, nil)
	ic.Position = Vec3{Y: 3}
	return NewChaseGuidance(p.Flight, world), ic
}

func TestChaseNoTarget(t *testing.T) {
	cg, ic := testChaseRig()
	if _, ok := cg.Update(ic, Snapshot{TargetAlive: false}, 1.0/60.0); ok {
		t.Fatalf("no live target must yield no solution")
	}
	if cg.HasPrediction {
		t.Fatalf("prediction state must be cleared")
	}
}

func TestChasePredictsAheadOfMovingTarget(t *testing.T) {
	cg, ic := testChaseRig()
	dt := 1.0 / 60.0

	// Two observations of a target moving +X at 2 m/s.
	pos := Vec3{X: 1}
	cg.Update(ic, Snapshot{TargetAlive: true, TargetPos: pos}, dt)
	pos.X += 2 * dt
	sol, ok := cg.Update(ic, Snapshot{TargetAlive: true, TargetPos: pos}, dt)
	if !ok {
		t.Fatalf("expected solution")
	}

	wantX := pos.X + 2*cg.params.PredictionHorizon
	if math.Abs(sol.Point.X-wantX) > 1e-6 {
		t.Fatalf("intercept X %v, want %v", sol.Point.X, wantX)
	}
	if sol.Point.Y != cg.params.ChaseAltitude {
		t.Fatalf("intercept must sit at chase altitude, got %v", sol.Point.Y)
	}
}

func TestChaseFirstObservationNoVelocity(t *testing.T) {
	cg, ic := testChaseRig()
	sol, ok := cg.Update(ic, Snapshot{TargetAlive: true, TargetPos: Vec3{X: 4}}, 1.0/60.0)
	if !ok {
		t.Fatalf("expected solution")
	}
	// No history yet: the intercept is the target itself.
	if sol.Point.X != 4 || sol.Point.Z != 0 {
		t.Fatalf("first-tick intercept should be the observed position, got %+v", sol.Point)
	}
}

func TestChaseInterceptStaysInArena(t *testing.T) {
	cg, ic := testChaseRig()
	dt := 1.0 / 60.0
	// Fast target heading straight for the boundary.
	cg.Update(ic, Snapshot{TargetAlive: true, TargetPos: Vec3{X: 9.0}}, dt)
	sol, _ := cg.Update(ic, Snapshot{TargetAlive: true, TargetPos: Vec3{X: 9.9}}, dt)
	limit := 10.0 - 0.5
	if math.Abs(sol.Point.X) > limit+1e-9 {
		t.Fatalf("intercept escaped the arena: %+v", sol.Point)
	}
}

func TestChaseStandoffHold(t *testing.T) {
	cg, ic := testChaseRig()
	ic.Position = Vec3{X: 4, Y: cg.params.ChaseAltitude}
	sol, ok := cg.Update(ic, Snapshot{TargetAlive: true, TargetPos: Vec3{X: 4.5}}, 1.0/60.0)
	if !ok || !sol.Hold {
		t.Fatalf("inside standoff must hold, got %+v ok=%v", sol, ok)
	}
	if sol.Strength != 0 {
		t.Fatalf("hold must not command closure, strength %v", sol.Strength)
	}
}

func TestChaseStrengthGrowsWithDistance(t *testing.T) {
	cg, ic := testChaseRig()
	near, _ := cg.Update(ic, Snapshot{TargetAlive: true, TargetPos: Vec3{X: 3}}, 1.0/60.0)
	cg.Reset()
	far, _ := cg.Update(ic, Snapshot{TargetAlive: true, TargetPos: Vec3{X: 8}}, 1.0/60.0)
	if far.Strength <= near.Strength {
		t.Fatalf("strength must grow with distance: near %v far %v", near.Strength, far.Strength)
	}
	if far.Strength > cg.params.ChaseMaxStrength {
		t.Fatalf("strength exceeded cap: %v", far.Strength)
	}
}

func TestChaseYawTowardBearing(t *testing.T) {
	cg, ic := testChaseRig()
	// Facing +Z (yaw 0), target off to the +X side: positive yaw input.
	sol, _ := cg.Update(ic, Snapshot{TargetAlive: true, TargetPos: Vec3{X: 6}}, 1.0/60.0)
	if sol.YawInput <= 0 {
		t.Fatalf("expected positive yaw toward +X target, got %v", sol.YawInput)
	}
	if sol.YawInput > 1 {
		t.Fatalf("yaw input must stay clamped, got %v", sol.YawInput)
	}
}
