package sim

import (
	"math"
	"testing"
)

func testInterceptor() *Interceptor {
	return NewInterceptor(DefaultParams().Interceptor, nil)
}

func TestControlInputClamp(t *testing.T) {
	c := ControlInput{Pitch: 2, Roll: -3, Yaw: 1.5, Throttle: 4}.clamped()
	if c.Pitch != 1 || c.Roll != -1 || c.Yaw != 1 || c.Throttle != 1 {
		t.Fatalf("unexpected clamp %+v", c)
	}
	c = ControlInput{Throttle: -1}.clamped()
	if c.Throttle != 0 {
		t.Fatalf("throttle must clamp at 0, got %v", c.Throttle)
	}
}

func TestMixerChannelSigns(t *testing.T) {
	ic := testInterceptor()
	max := ic.Params.MaxRotorSpeed

	// Pure pitch: front pair up, rear pair down, symmetric.
	ic.mix(ControlInput{Throttle: 0.5, Pitch: 0.2})
	fl, fr, rl, rr := ic.TargetRotorSpeeds[0], ic.TargetRotorSpeeds[1], ic.TargetRotorSpeeds[2], ic.TargetRotorSpeeds[3]
	if fl != 0.7*max || fr != 0.7*max || rl != 0.3*max || rr != 0.3*max {
		t.Fatalf("pitch mix wrong: %v %v %v %v", fl, fr, rl, rr)
	}

	// Pure roll: left pair up, right pair down.
	ic.mix(ControlInput{Throttle: 0.5, Roll: 0.2})
	if ic.TargetRotorSpeeds[0] != 0.7*max || ic.TargetRotorSpeeds[1] != 0.3*max {
		t.Fatalf("roll mix wrong: %v", ic.TargetRotorSpeeds)
	}

	// Each isolated channel leaves mean target unchanged (torque only).
	mean := 0.0
	for _, s := range ic.TargetRotorSpeeds {
		mean += s
	}
	if math.Abs(mean/4-0.5*max) > 1e-9 {
		t.Fatalf("pure roll changed net thrust: mean %v", mean/4)
	}
}

func TestRotorSpeedsStayInRange(t *testing.T) {
	ic := testInterceptor()
	dt := 1.0 / 60.0
	inputs := []ControlInput{
		{Pitch: 1, Roll: 1, Yaw: 1, Throttle: 1},
		{Pitch: -1, Roll: -1, Yaw: -1, Throttle: 0},
		{Pitch: 1, Roll: -1, Yaw: 1, Throttle: 0.5},
	}
	for _, in := range inputs {
		ic.SetControl(in)
		for i := 0; i < 120; i++ {
			ic.Update(dt)
			for r, s := range ic.RotorSpeeds {
				if s < 0 || s > ic.Params.MaxRotorSpeed {
					t.Fatalf("rotor %d out of range: %v", r, s)
				}
			}
		}
	}
}

func TestRotorRampFirstOrder(t *testing.T) {
	ic := testInterceptor()
	ic.SetControl(ControlInput{Throttle: 1})
	ic.Update(1.0 / 60.0)
	// One tick cannot reach the target through the response constant.
	if ic.RotorSpeeds[0] >= ic.TargetRotorSpeeds[0] {
		t.Fatalf("rotor jumped to target instantly: %v >= %v", ic.RotorSpeeds[0], ic.TargetRotorSpeeds[0])
	}
	if ic.RotorSpeeds[0] <= 0 {
		t.Fatalf("rotor did not move toward target")
	}
}

func TestHoverEquilibrium(t *testing.T) {
	ic := testInterceptor()
	ic.Position = Vec3{Y: 3}
	hover := 0.5 * ic.Params.MaxRotorSpeed
	ic.RotorSpeeds = [4]float64{hover, hover, hover, hover}
	ic.SetControl(ControlInput{Throttle: 0.5})

	dt := 1.0 / 60.0
	for i := 0; i < 600; i++ {
		ic.Update(dt)
	}
	if math.Abs(ic.Position.Y-3) > 0.05 {
		t.Fatalf("hover drifted: altitude %v", ic.Position.Y)
	}
	if math.Abs(ic.Velocity.Y) > 0.01 {
		t.Fatalf("hover has residual climb rate %v", ic.Velocity.Y)
	}
}

func TestGroundClamp(t *testing.T) {
	ic := testInterceptor()
	ic.Position = Vec3{Y: 0.1}
	ic.SetControl(ControlInput{}) // zero throttle, floored thrust < weight
	dt := 1.0 / 60.0
	for i := 0; i < 300; i++ {
		ic.Update(dt)
	}
	if ic.Position.Y < 0 {
		t.Fatalf("sank below ground: %v", ic.Position.Y)
	}
	if ic.Velocity.Y < 0 && ic.Position.Y == 0 {
		t.Fatalf("downward velocity persisted on the ground: %v", ic.Velocity.Y)
	}
}

func TestResetIdempotent(t *testing.T) {
	ic := testInterceptor()
	ic.Velocity = Vec3{X: 5}
	ic.Rotation = Vec3{X: 45, Z: -30}
	ic.RotorSpeeds = [4]float64{900, 900, 900, 900}
	ic.EmergencyActive = true
	ic.EmergencyTimer = 2

	ic.Reset(Vec3{Y: 3})
	first := *ic
	ic.Reset(Vec3{Y: 3})
	if *ic != first {
		t.Fatalf("second reset changed state")
	}
	if ic.Velocity != (Vec3{}) || ic.Rotation != (Vec3{}) || ic.EmergencyActive {
		t.Fatalf("reset incomplete: %+v", ic)
	}
	if ic.RotorSpeeds != [4]float64{} {
		t.Fatalf("rotors still spinning after reset")
	}
}

func TestBodyUpLevel(t *testing.T) {
	ic := testInterceptor()
	up := ic.bodyUp()
	if math.Abs(up.X) > 1e-12 || math.Abs(up.Y-1) > 1e-12 || math.Abs(up.Z) > 1e-12 {
		t.Fatalf("level body up should be +Y, got %+v", up)
	}
	// Positive pitch tips the thrust vector forward (+Z at yaw 0).
	ic.Rotation.X = 10
	if up := ic.bodyUp(); up.Z <= 0 {
		t.Fatalf("positive pitch must push forward, up=%+v", up)
	}
	// Positive roll tips it to port (-X at yaw 0 with Right=+X).
	ic.Rotation = Vec3{Z: 10}
	if up := ic.bodyUp(); up.X >= 0 {
		t.Fatalf("positive roll must push to port, up=%+v", up)
	}
}

func TestForwardRight(t *testing.T) {
	ic := testInterceptor()
	f, r := ic.Forward(), ic.Right()
	if math.Abs(f.Z-1) > 1e-12 || math.Abs(r.X-1) > 1e-12 {
		t.Fatalf("yaw 0 must face +Z with starboard +X: f=%+v r=%+v", f, r)
	}
	ic.Rotation.Y = 90
	f = ic.Forward()
	if math.Abs(f.X-1) > 1e-9 || math.Abs(f.Z) > 1e-9 {
		t.Fatalf("yaw 90 must face +X: %+v", f)
	}
	if math.Abs(f.Dot(ic.Right())) > 1e-9 {
		t.Fatalf("forward and right must stay orthogonal")
	}
}
