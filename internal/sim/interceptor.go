package sim

import (
	"math"
)

const gravity = 9.81

// rotorEventThreshold is the minimum per-rotor speed change that is worth
// surfacing as an event.
const rotorEventThreshold = 10.0

// ControlInput is the four-channel command consumed once per tick by the
// mixer. Pitch/Roll/Yaw in [-1,1], Throttle in [0,1].
type ControlInput struct {
	Pitch    float64
	Roll     float64
	Yaw      float64
	Throttle float64
}

func (c ControlInput) clamped() ControlInput {
	return ControlInput{
		Pitch:    clamp(c.Pitch, -1, 1),
		Roll:     clamp(c.Roll, -1, 1),
		Yaw:      clamp(c.Yaw, -1, 1),
		Throttle: clamp(c.Throttle, 0, 1),
	}
}

// Interceptor is the pursuing quadrotor: a rigid body plus the rotor
// actuator state. Attitude is stored as pitch (X), yaw (Y), roll (Z) in
// degrees. Whoever owns the tick writes Control before calling Update.
type Interceptor struct {
	Params InterceptorParams

	Position   Vec3
	Velocity   Vec3
	Rotation   Vec3 // deg
	AngularVel Vec3 // deg/s

	RotorSpeeds       [4]float64
	TargetRotorSpeeds [4]float64

	Control ControlInput

	EmergencyActive bool
	EmergencyTimer  float64

	bus         *Bus
	lastEmitted [4]float64
}

func NewInterceptor(p InterceptorParams, bus *Bus) *Interceptor {
	return &Interceptor{Params: p, bus: bus}
}

// Entity handle for the world registry.
func (ic *Interceptor) Alive() bool { return true }
func (ic *Interceptor) Pos() Vec3   { return ic.Position }
func (ic *Interceptor) Vel() Vec3   { return ic.Velocity }

// Altitude above the ground plane.
func (ic *Interceptor) Altitude() float64 { return ic.Position.Y }

// Hovering reports near-zero translational motion.
func (ic *Interceptor) Hovering() bool {
	return ic.Velocity.Length() < 0.25
}

// SetControl clamps and stores the control command for the next Update.
func (ic *Interceptor) SetControl(c ControlInput) {
	ic.Control = c.clamped()
}

// Reset teleports to pos with zeroed velocities, level attitude and stopped
// rotors, and clears emergency state. Calling it twice is a no-op the second
// time.
func (ic *Interceptor) Reset(pos Vec3) {
	ic.Position = pos
	ic.Velocity = Vec3{}
	ic.Rotation = Vec3{}
	ic.AngularVel = Vec3{}
	ic.RotorSpeeds = [4]float64{}
	ic.TargetRotorSpeeds = [4]float64{}
	ic.lastEmitted = [4]float64{}
	ic.Control = ControlInput{}
	ic.EmergencyActive = false
	ic.EmergencyTimer = 0
}

// mix converts the four control channels into per-rotor speed targets for an
// X layout. Signs alternate per arm so each channel in isolation produces a
// pure torque with no net thrust change:
//
//	front-left  = t + p + r - y
//	front-right = t + p - r + y
//	rear-left   = t - p + r + y
//	rear-right  = t - p - r - y
func (ic *Interceptor) mix(c ControlInput) {
	m := [4]float64{
		c.Throttle + c.Pitch + c.Roll - c.Yaw,
		c.Throttle + c.Pitch - c.Roll + c.Yaw,
		c.Throttle - c.Pitch + c.Roll + c.Yaw,
		c.Throttle - c.Pitch - c.Roll - c.Yaw,
	}
	for i := range m {
		ic.TargetRotorSpeeds[i] = clamp(m[i], 0, 1) * ic.Params.MaxRotorSpeed
	}
}

// updateRotors ramps actual speeds toward targets with the first-order
// response constant, and publishes a RotorSpeedChanged event when the motion
// is large enough to be observable.
func (ic *Interceptor) updateRotors(dt float64) {
	alpha := 1.0
	if ic.Params.RotorResponseTime > 0 {
		alpha = clamp(dt/ic.Params.RotorResponseTime, 0, 1)
	}
	changed := false
	for i := range ic.RotorSpeeds {
		ic.RotorSpeeds[i] += (ic.TargetRotorSpeeds[i] - ic.RotorSpeeds[i]) * alpha
		ic.RotorSpeeds[i] = clamp(ic.RotorSpeeds[i], 0, ic.Params.MaxRotorSpeed)
		if math.Abs(ic.RotorSpeeds[i]-ic.lastEmitted[i]) >= rotorEventThreshold {
			changed = true
		}
	}
	if changed && ic.bus != nil {
		ic.lastEmitted = ic.RotorSpeeds
		ic.bus.Publish(RotorSpeedChanged{Speeds: ic.RotorSpeeds})
	}
}

// normalizedThrust is the mean of the four rotor speeds on a 0..1 scale.
func (ic *Interceptor) normalizedThrust() float64 {
	if ic.Params.MaxRotorSpeed <= 0 {
		return 0
	}
	sum := 0.0
	for _, s := range ic.RotorSpeeds {
		sum += s
	}
	return sum / (4.0 * ic.Params.MaxRotorSpeed)
}

// bodyUp is the body +Y axis in world space for the current attitude
// (yaw about Y, then pitch about X, then roll about Z).
func (ic *Interceptor) bodyUp() Vec3 {
	pitch := DegToRad(ic.Rotation.X)
	yaw := DegToRad(ic.Rotation.Y)
	roll := DegToRad(ic.Rotation.Z)

	sp, cp := math.Sin(pitch), math.Cos(pitch)
	sy, cy := math.Sin(yaw), math.Cos(yaw)
	sr, cr := math.Sin(roll), math.Cos(roll)

	return Vec3{
		X: -sr*cy + cr*sp*sy,
		Y: cr * cp,
		Z: sr*sy + cr*sp*cy,
	}
}

// Forward is the horizontal heading unit vector (yaw 0 faces +Z).
func (ic *Interceptor) Forward() Vec3 {
	yaw := DegToRad(ic.Rotation.Y)
	return Vec3{X: math.Sin(yaw), Z: math.Cos(yaw)}
}

// Right is the horizontal starboard unit vector.
func (ic *Interceptor) Right() Vec3 {
	yaw := DegToRad(ic.Rotation.Y)
	return Vec3{X: math.Cos(yaw), Z: -math.Sin(yaw)}
}

// Update runs one physics tick: mixer, rotor dynamics, thrust/torque,
// drag, and Euler integration.
func (ic *Interceptor) Update(dt float64) {
	c := ic.Control.clamped()
	ic.mix(c)
	ic.updateRotors(dt)

	// Thrust along body up. The multiplier is floored so the body sinks
	// instead of free-falling at zero throttle.
	mult := ic.Params.ThrustHoverFactor + ic.normalizedThrust()*ic.Params.ThrustGain
	if mult < ic.Params.ThrustFloor {
		mult = ic.Params.ThrustFloor
	}
	thrust := ic.bodyUp().Mul(ic.Params.Mass * gravity * mult)

	accel := thrust.Mul(1.0 / ic.Params.Mass)
	accel.Y -= gravity
	// Velocity-proportional drag keeps the integration well behaved.
	accel = accel.Sub(ic.Velocity.Mul(ic.Params.LinearDrag))

	ic.Velocity = ic.Velocity.Add(accel.Mul(dt))
	ic.Position = ic.Position.Add(ic.Velocity.Mul(dt))
	if ic.Position.Y < 0 {
		ic.Position.Y = 0
		if ic.Velocity.Y < 0 {
			ic.Velocity.Y = 0
		}
	}

	// Attitude torques, independent of thrust.
	angAccel := Vec3{
		X: c.Pitch * ic.Params.AttitudeAccel,
		Y: c.Yaw * ic.Params.YawAccel,
		Z: c.Roll * ic.Params.AttitudeAccel,
	}
	ic.AngularVel = ic.AngularVel.Add(angAccel.Mul(dt))
	damping := math.Exp(-ic.Params.AngularDamping * dt)
	ic.AngularVel = ic.AngularVel.Mul(damping)

	ic.Rotation = ic.Rotation.Add(ic.AngularVel.Mul(dt))
	ic.Rotation.X = wrapAngleDeg(ic.Rotation.X)
	ic.Rotation.Y = wrapAngleDeg(ic.Rotation.Y)
	ic.Rotation.Z = wrapAngleDeg(ic.Rotation.Z)

	ic.Position.X = sanitizeFinite(ic.Position.X)
	ic.Position.Y = sanitizeFinite(ic.Position.Y)
	ic.Position.Z = sanitizeFinite(ic.Position.Z)
	ic.Velocity.X = sanitizeFinite(ic.Velocity.X)
	ic.Velocity.Y = sanitizeFinite(ic.Velocity.Y)
	ic.Velocity.Z = sanitizeFinite(ic.Velocity.Z)
}
