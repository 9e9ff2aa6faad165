package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
)

func testSimulator(obstacles []Obstacle, seed int64) *Simulator {
	return NewSimulator(DefaultParams(), obstacles, zerolog.Nop(), rand.New(rand.NewSource(seed)))
}

func TestNewSimulatorInitialState(t *testing.T) {
	s := testSimulator(nil, 1)
	st := s.Status()
	if st.Tick != 0 {
		t.Fatalf("fresh simulator at tick %d", st.Tick)
	}
	if st.FlightMode != "STABILIZE" {
		t.Fatalf("expected STABILIZE start, got %q", st.FlightMode)
	}
	if st.Position != s.params.Safety.SafePose {
		t.Fatalf("expected spawn at safe pose, got %+v", st.Position)
	}
	if !st.TargetAlive || st.TargetHealth != s.params.Evader.Health {
		t.Fatalf("target not initialized: %+v", st)
	}
}

func TestStepAdvancesTick(t *testing.T) {
	s := testSimulator(nil, 1)
	for i := 0; i < 10; i++ {
		s.Step(1.0 / 60.0)
	}
	if s.Tick() != 10 {
		t.Fatalf("expected tick 10, got %d", s.Tick())
	}
}

func TestRunHeadlessStepCount(t *testing.T) {
	s := testSimulator(nil, 1)
	if n := s.RunHeadless(120, 60, 0); n != 120 {
		t.Fatalf("expected 120 steps, got %d", n)
	}
}

func TestLongRunStaysFinite(t *testing.T) {
	obstacles := []Obstacle{
		{Position: Vec3{X: 3, Z: 2}, Radius: 0.8, Height: 2.5},
		{Position: Vec3{X: -4, Z: -3}, Radius: 1.0, Height: 3.0},
	}
	s := testSimulator(obstacles, 42)
	s.SetFlightMode(FlightModeAutoChase)

	dt := 1.0 / 60.0
	for i := 0; i < 3600; i++ {
		s.Step(dt)
		st := s.Status()
		for _, v := range []float64{st.Position.X, st.Position.Y, st.Position.Z, st.Velocity.X, st.Velocity.Y, st.Velocity.Z} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("non-finite state at tick %d: %+v", i, st)
			}
		}
		if st.Position.Y < 0 {
			t.Fatalf("below ground at tick %d: %v", i, st.Position.Y)
		}
	}
}

func TestResetPositionIdempotent(t *testing.T) {
	s := testSimulator(nil, 1)
	s.SetFlightMode(FlightModeAutoChase)
	for i := 0; i < 120; i++ {
		s.Step(1.0 / 60.0)
	}

	p := Vec3{X: 1, Y: 2, Z: 1}
	s.ResetPosition(p)
	first := s.Status()
	s.ResetPosition(p)
	second := s.Status()

	if first.Position != p || second.Position != p {
		t.Fatalf("reset position wrong: %+v / %+v", first.Position, second.Position)
	}
	if first.FlightMode != "STABILIZE" || second.FlightMode != first.FlightMode {
		t.Fatalf("reset must land in STABILIZE")
	}
	if first.Velocity != (Vec3{}) || first.RotorSpeeds != [4]float64{} {
		t.Fatalf("reset left motion behind: %+v", first)
	}
	if first.AimState != "idle" {
		t.Fatalf("weapon not reset: %q", first.AimState)
	}
}

func TestEmergencyShutdownSpinsDown(t *testing.T) {
	s := testSimulator(nil, 1)
	for i := 0; i < 60; i++ { // spool up in a hover near the center
		s.Step(1.0 / 60.0)
	}

	s.EmergencyShutdown()
	if s.Flight.Mode() != FlightModeManual {
		t.Fatalf("shutdown must drop to MANUAL, got %v", s.Flight.Mode())
	}
	for i := 0; i < 120; i++ { // 2 s, many response constants
		s.Step(1.0 / 60.0)
	}
	for r, sp := range s.Status().RotorSpeeds {
		if sp > 1 {
			t.Fatalf("rotor %d still spinning after shutdown: %v", r, sp)
		}
	}
}

func TestEngagementNeutralizesCloseTarget(t *testing.T) {
	s := testSimulator(nil, 5)
	// Park the interceptor on top of the target: inside optimal range, hit
	// chance 1.0, neutralization is deterministic.
	s.ResetPosition(s.Evader.Position.Add(Vec3{Y: 2}))
	s.SetFlightMode(FlightModeAutoChase)

	dt := 1.0 / 60.0
	deadline := int(30.0 / dt)
	for i := 0; i < deadline; i++ {
		s.Step(dt)
		if !s.Status().TargetAlive {
			return
		}
	}
	t.Fatalf("target still alive after %d ticks, health %d", deadline, s.Status().TargetHealth)
}

func TestStatusDistanceTracksWeapon(t *testing.T) {
	s := testSimulator(nil, 1)
	s.Step(1.0 / 60.0)
	st := s.Status()
	want := s.Evader.Position.Sub(s.Interceptor.Position).Length()
	if math.Abs(st.DistanceToTarget-want) > 0.5 {
		t.Fatalf("status distance %v far from actual %v", st.DistanceToTarget, want)
	}
}
