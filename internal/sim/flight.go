package sim

import (
	"math"
)

type FlightMode int

const (
	FlightModeManual FlightMode = iota
	FlightModeStabilize
	FlightModeAltitudeHold
	FlightModeLoiter
	FlightModeRTL
	FlightModeAutoChase
)

func (m FlightMode) String() string {
	switch m {
	case FlightModeManual:
		return "MANUAL"
	case FlightModeStabilize:
		return "STABILIZE"
	case FlightModeAltitudeHold:
		return "ALTITUDE_HOLD"
	case FlightModeLoiter:
		return "LOITER"
	case FlightModeRTL:
		return "RTL"
	case FlightModeAutoChase:
		return "AUTO_CHASE"
	}
	return "UNKNOWN"
}

const stickDeadzone = 0.02

// FlightController selects which logic produces the interceptor's control
// input each tick and runs the stabilization loop on top of it. Exactly one
// mode is active at a time; every transition goes through SetMode so it is
// published as an event.
type FlightController struct {
	params FlightParams
	icp    InterceptorParams
	bus    *Bus

	mode     FlightMode
	external ControlInput // bridge-supplied stick input

	pitchPID    PIDController
	rollPID     PIDController
	yawRatePID  PIDController
	altitudePID PIDController

	// Self-leveling decay state for centered sticks.
	desiredPitch float64
	desiredRoll  float64

	// Held position for LOITER / target altitude for ALTITUDE_HOLD.
	TargetPosition Vec3

	chase *ChaseGuidance
}

func NewFlightController(p FlightParams, icp InterceptorParams, world *World, bus *Bus) *FlightController {
	return &FlightController{
		params:      p,
		icp:         icp,
		bus:         bus,
		mode:        FlightModeStabilize,
		pitchPID:    p.PitchPID,
		rollPID:     p.RollPID,
		yawRatePID:  p.YawRatePID,
		altitudePID: p.AltitudePID,
		chase:       NewChaseGuidance(p, world),
	}
}

func (fc *FlightController) Mode() FlightMode { return fc.mode }

// Chase exposes guidance state for telemetry.
func (fc *FlightController) Chase() *ChaseGuidance { return fc.chase }

// SetExternalInput stores bridge stick input; consumed next tick.
func (fc *FlightController) SetExternalInput(c ControlInput) {
	fc.external = c.clamped()
}

// SetTargetPosition updates the loiter/altitude-hold setpoint.
func (fc *FlightController) SetTargetPosition(p Vec3) {
	fc.TargetPosition = p
}

// SetMode switches the active flight mode. Guidance state from the previous
// mode is discarded; entering a holding mode captures the current pose as
// its setpoint.
func (fc *FlightController) SetMode(mode FlightMode, ic *Interceptor) {
	if mode == fc.mode {
		return
	}
	prev := fc.mode
	fc.mode = mode
	fc.chase.Reset()

	switch mode {
	case FlightModeAltitudeHold:
		fc.TargetPosition = ic.Position
	case FlightModeLoiter:
		fc.TargetPosition = ic.Position
	case FlightModeRTL:
		fc.TargetPosition = Vec3{Y: fc.params.RTLAltitude}
	}

	if fc.bus != nil {
		fc.bus.Publish(FlightModeChanged{From: prev, To: mode})
	}
}

// ResetPIDs clears all accumulator state (interceptor reset path).
func (fc *FlightController) ResetPIDs() {
	fc.pitchPID.Reset()
	fc.rollPID.Reset()
	fc.yawRatePID.Reset()
	fc.altitudePID.Reset()
	fc.desiredPitch = 0
	fc.desiredRoll = 0
}

// Update computes and installs the interceptor's control input for this
// tick. The safety supervisor runs before this and may have already forced a
// mode; its input overrides are applied after (see Simulator.Step).
func (fc *FlightController) Update(ic *Interceptor, snap Snapshot, dt float64) {
	if fc.mode == FlightModeManual {
		s := fc.icp.ManualScale
		ic.SetControl(ControlInput{
			Pitch:    fc.external.Pitch * s,
			Roll:     fc.external.Roll * s,
			Yaw:      fc.external.Yaw * s,
			Throttle: fc.external.Throttle,
		})
		return
	}

	pitchIn := fc.external.Pitch
	rollIn := fc.external.Roll
	yawIn := fc.external.Yaw
	if ic.EmergencyActive {
		// Supervisor owns the vehicle: ignore external sticks, let the
		// self-leveling loop bring the attitude back.
		pitchIn, rollIn, yawIn = 0, 0, 0
	}
	throttle := fc.params.HoverThrottle
	altTarget := math.NaN() // NaN: no altitude hold this tick

	switch fc.mode {
	case FlightModeAltitudeHold:
		altTarget = fc.TargetPosition.Y
	case FlightModeLoiter:
		pitchIn, rollIn = fc.positionInputs(ic, fc.TargetPosition, 1.0)
		altTarget = fc.TargetPosition.Y
	case FlightModeRTL:
		fc.TargetPosition = Vec3{Y: fc.params.RTLAltitude}
		pitchIn, rollIn = fc.positionInputs(ic, fc.TargetPosition, 1.0)
		altTarget = fc.params.RTLAltitude
	case FlightModeAutoChase:
		sol, ok := fc.chase.Update(ic, snap, dt)
		if !ok {
			// Target lost: degrade to a stabilize-equivalent hover.
			pitchIn, rollIn, yawIn = 0, 0, 0
			break
		}
		altTarget = sol.Point.Y
		yawIn = sol.YawInput
		if sol.Hold {
			pitchIn, rollIn = fc.positionInputs(ic, ic.Position, 1.0)
		} else {
			pitchIn, rollIn = fc.positionInputs(ic, sol.Point, sol.Strength)
		}
	}

	ic.SetControl(fc.stabilize(ic, pitchIn, rollIn, yawIn, throttle, altTarget, dt))
}

// positionInputs converts horizontal position error toward target into
// pitch/roll stick equivalents, with velocity damping so the loiter does not
// orbit its setpoint. strength scales the commanded tilt.
func (fc *FlightController) positionInputs(ic *Interceptor, target Vec3, strength float64) (pitch, roll float64) {
	err := target.Sub(ic.Position).Horizontal()
	fwd := ic.Forward()
	right := ic.Right()

	kd := fc.params.LoiterGain * 0.6
	alongFwd := err.Dot(fwd)*fc.params.LoiterGain - ic.Velocity.Dot(fwd)*kd
	alongRight := err.Dot(right)*fc.params.LoiterGain - ic.Velocity.Dot(right)*kd

	limit := fc.params.LoiterMaxInput
	pitch = clamp(alongFwd*strength, -limit, limit)
	// Positive roll tilts to port, so starboard error commands negative roll.
	roll = clamp(-alongRight*strength, -limit, limit)
	return pitch, roll
}

// stabilize runs the four PID loops. Desired pitch/roll come from stick
// input scaled to the tilt limit; with sticks centered the desired angle
// decays toward the negative of the current tilt so the body levels without
// oscillating through zero.
func (fc *FlightController) stabilize(ic *Interceptor, pitchIn, rollIn, yawIn, throttle float64, altTarget, dt float64) ControlInput {
	// Violent upsets invalidate accumulated state; drop it before it winds
	// the output the wrong way during recovery.
	if math.Abs(ic.Rotation.X) > fc.params.TiltResetAngle {
		fc.pitchPID.Reset()
	}
	if math.Abs(ic.Rotation.Z) > fc.params.TiltResetAngle {
		fc.rollPID.Reset()
	}

	maxTilt := fc.icp.MaxTiltAngle
	if math.Abs(pitchIn) > stickDeadzone {
		fc.desiredPitch = pitchIn * maxTilt
	} else {
		fc.desiredPitch = decayToward(fc.desiredPitch, -ic.Rotation.X*fc.params.LevelGain, dt, fc.params.LevelTau)
	}
	if math.Abs(rollIn) > stickDeadzone {
		fc.desiredRoll = rollIn * maxTilt
	} else {
		fc.desiredRoll = decayToward(fc.desiredRoll, -ic.Rotation.Z*fc.params.LevelGain, dt, fc.params.LevelTau)
	}

	pitchCmd := fc.pitchPID.Update(fc.desiredPitch, ic.Rotation.X, dt)
	rollCmd := fc.rollPID.Update(fc.desiredRoll, ic.Rotation.Z, dt)

	yawRateTarget := yawIn * fc.icp.MaxYawRate
	yawCmd := fc.yawRatePID.Update(yawRateTarget, ic.AngularVel.Y, dt)

	if !math.IsNaN(altTarget) {
		throttle += fc.altitudePID.Update(altTarget, ic.Position.Y, dt)
	}

	return ControlInput{Pitch: pitchCmd, Roll: rollCmd, Yaw: yawCmd, Throttle: throttle}
}

func decayToward(current, target, dt, tau float64) float64 {
	if tau <= 0 {
		return target
	}
	return current + (target-current)*clamp(dt/tau, 0, 1)
}
