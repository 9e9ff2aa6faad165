package sim

import (
	"testing"
)

func testSafetyRig() (*SafetySupervisor, *FlightController, *Interceptor, *Bus) {
	p := DefaultParams()
	world := NewWorld(Arena{HalfExtent: p.Arena.HalfExtent}, nil)
	bus := NewBus()
	ic := NewInterceptor(p.Interceptor, nil)
	ic.Position = Vec3{Y: 3}
	fc := NewFlightController(p.Flight, p.Interceptor, world, bus)
	ss := NewSafetySupervisor(p.Safety, world, bus)
	return ss, fc, ic, bus
}

func countEvents(bus *Bus, match func(Event) bool) *int {
	n := new(int)
	bus.Subscribe(func(e Event) {
		if match(e) {
			*n++
		}
	})
	return n
}

func TestInstabilityActivatesEmergency(t *testing.T) {
	ss, fc, ic, bus := testSafetyRig()
	emergencies := countEvents(bus, func(e Event) bool { _, ok := e.(EmergencyActivated); return ok })

	ic.Rotation.X = 80 // past the hard tilt limit
	ss.Check(ic, fc, 1.0/60.0)

	if !ic.EmergencyActive {
		t.Fatalf("emergency not activated at 80 degrees")
	}
	if *emergencies != 1 {
		t.Fatalf("expected one activation event, got %d", *emergencies)
	}
	if fc.Mode() != FlightModeStabilize {
		t.Fatalf("emergency must force STABILIZE, got %v", fc.Mode())
	}

	// Still tilted next tick: no second activation event.
	ss.Check(ic, fc, 1.0/60.0)
	if *emergencies != 1 {
		t.Fatalf("re-activation while already in emergency")
	}
}

func TestEmergencySelfClearsOnRecovery(t *testing.T) {
	ss, fc, ic, _ := testSafetyRig()
	ic.Rotation.X = 80
	ss.Check(ic, fc, 1.0/60.0)

	// Attitude back well inside the envelope.
	ic.Rotation.X = 10
	ss.Check(ic, fc, 1.0/60.0)
	if ic.EmergencyActive {
		t.Fatalf("emergency should clear once level again")
	}
	if ic.EmergencyTimer != 0 {
		t.Fatalf("timer not cleared: %v", ic.EmergencyTimer)
	}
}

func TestEmergencyTimeoutResetsToSafePose(t *testing.T) {
	ss, fc, ic, _ := testSafetyRig()
	ic.Rotation.X = 80
	ic.Position = Vec3{X: 4, Y: 1, Z: 4}

	dt := 0.5
	for i := 0; i < 8; i++ { // 4 simulated seconds stuck past the limit
		ss.Check(ic, fc, dt)
		if !ic.EmergencyActive {
			break
		}
	}
	if ic.Position != ss.params.SafePose {
		t.Fatalf("expected reset to safe pose, got %+v", ic.Position)
	}
	if ic.EmergencyActive || ic.Rotation != (Vec3{}) {
		t.Fatalf("reset must clear emergency and attitude")
	}
}

func TestBoundaryEmergencyForcesRTL(t *testing.T) {
	ss, fc, ic, _ := testSafetyRig()
	ic.Position = Vec3{X: 9.5, Y: 2} // 0.5 m from the edge

	ss.Check(ic, fc, 1.0/60.0)
	if fc.Mode() != FlightModeRTL {
		t.Fatalf("expected RTL inside the emergency band, got %v", fc.Mode())
	}
}

func TestBoundaryWarningRateLimited(t *testing.T) {
	ss, fc, ic, bus := testSafetyRig()
	warnings := countEvents(bus, func(e Event) bool { _, ok := e.(BoundaryWarning); return ok })

	ic.Position = Vec3{X: 8, Y: 2} // warning band, outside the emergency band
	dt := 1.0 / 60.0
	for i := 0; i < 30; i++ { // half a second, cooldown is 1 s
		ss.Check(ic, fc, dt)
	}
	if !ss.BoundaryWarningActive {
		t.Fatalf("warning flag not set")
	}
	if *warnings != 1 {
		t.Fatalf("expected a single rate-limited warning, got %d", *warnings)
	}

	// After the cooldown a second event goes out.
	for i := 0; i < 45; i++ {
		ss.Check(ic, fc, dt)
	}
	if *warnings != 2 {
		t.Fatalf("expected a second warning after cooldown, got %d", *warnings)
	}

	// Leaving the band clears the flag.
	ic.Position = Vec3{Y: 2}
	ss.Check(ic, fc, dt)
	if ss.BoundaryWarningActive {
		t.Fatalf("warning flag must clear away from the edge")
	}
}

func TestInstabilityWinsOverBoundary(t *testing.T) {
	ss, fc, ic, _ := testSafetyRig()
	ic.Position = Vec3{X: 9.5, Y: 2}
	ic.Rotation.Z = 80

	ss.Check(ic, fc, 1.0/60.0)
	// Both conditions fired; the instability mode override runs last.
	if fc.Mode() != FlightModeStabilize {
		t.Fatalf("instability must win the mode conflict, got %v", fc.Mode())
	}
	if !ic.EmergencyActive {
		t.Fatalf("emergency not active")
	}
}

func TestOverridePinsRecoveryThrottle(t *testing.T) {
	ss, _, ic, _ := testSafetyRig()
	ic.Control = ControlInput{Pitch: 0.3, Roll: -0.2, Yaw: 0.8, Throttle: 0.1}

	// No emergency: untouched.
	ss.Override(ic)
	if ic.Control.Yaw != 0.8 {
		t.Fatalf("override must be inert without emergency")
	}

	ic.EmergencyActive = true
	ss.Override(ic)
	if ic.Control.Yaw != 0 {
		t.Fatalf("yaw not zeroed: %v", ic.Control.Yaw)
	}
	if ic.Control.Throttle != ss.params.RecoveryThrottle {
		t.Fatalf("throttle not pinned: %v", ic.Control.Throttle)
	}
	// Leveling corrections survive.
	if ic.Control.Pitch != 0.3 || ic.Control.Roll != -0.2 {
		t.Fatalf("pitch/roll corrections lost: %+v", ic.Control)
	}
}
