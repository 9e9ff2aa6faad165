package sim

import (
	"math"
)

// SafetySupervisor watches for attitude extremes and arena-edge proximity.
// It runs before the flight controller each tick and may force a mode; its
// control-input override is applied after the flight controller and before
// the mixer consumes the input.
type SafetySupervisor struct {
	params SafetyParams
	world  *World
	bus    *Bus

	BoundaryWarningActive bool
	warningCooldown       float64
}

func NewSafetySupervisor(p SafetyParams, world *World, bus *Bus) *SafetySupervisor {
	return &SafetySupervisor{params: p, world: world, bus: bus}
}

// Check runs the boundary and instability checks. Boundary runs first so
// that when both fire in one tick the instability mode override wins.
func (ss *SafetySupervisor) Check(ic *Interceptor, fc *FlightController, dt float64) {
	ss.checkBoundary(ic, fc, dt)
	ss.checkInstability(ic, fc, dt)
}

func (ss *SafetySupervisor) checkBoundary(ic *Interceptor, fc *FlightController, dt float64) {
	if ss.warningCooldown > 0 {
		ss.warningCooldown -= dt
		if ss.warningCooldown < 0 {
			ss.warningCooldown = 0
		}
	}

	dist := ss.world.Arena.DistanceToEdge(ic.Position)
	switch {
	case dist < ss.params.EmergencyDistance:
		// Deep in the danger band: drag the vehicle back to the center.
		fc.SetMode(FlightModeRTL, ic)
	case dist < ss.params.WarningDistance:
		ss.BoundaryWarningActive = true
		if ss.warningCooldown <= 0 {
			ss.warningCooldown = ss.params.WarningCooldown
			if ss.bus != nil {
				ss.bus.Publish(BoundaryWarning{Distance: dist, Position: ic.Position})
			}
		}
	default:
		ss.BoundaryWarningActive = false
	}
}

func (ss *SafetySupervisor) checkInstability(ic *Interceptor, fc *FlightController, dt float64) {
	pitch := math.Abs(ic.Rotation.X)
	roll := math.Abs(ic.Rotation.Z)
	unstable := pitch > ss.params.HardTiltAngle || roll > ss.params.HardTiltAngle

	if unstable && !ic.EmergencyActive {
		ic.EmergencyActive = true
		ic.EmergencyTimer = 0
		if ss.bus != nil {
			ss.bus.Publish(EmergencyActivated{Pitch: ic.Rotation.X, Roll: ic.Rotation.Z})
		}
	}

	if !ic.EmergencyActive {
		return
	}

	fc.SetMode(FlightModeStabilize, ic)
	ic.EmergencyTimer += dt

	if ic.EmergencyTimer >= ss.params.EmergencyTimeout {
		// Recovery failed inside the allowed window: hard reset to a known
		// safe pose and start over.
		ic.Reset(ss.params.SafePose)
		fc.ResetPIDs()
		return
	}

	// Recovered on its own: attitude back inside the envelope.
	if !unstable && pitch < ss.params.HardTiltAngle*0.5 && roll < ss.params.HardTiltAngle*0.5 {
		ic.EmergencyActive = false
		ic.EmergencyTimer = 0
	}
}

// Override adjusts the flight controller's output while an emergency is in
// progress: throttle pinned to the recovery level, yaw zeroed. The PID
// leveling corrections in pitch/roll are kept, they are what rights the
// vehicle; the external sticks were already suppressed upstream.
func (ss *SafetySupervisor) Override(ic *Interceptor) {
	if !ic.EmergencyActive {
		return
	}
	c := ic.Control
	c.Yaw = 0
	c.Throttle = ss.params.RecoveryThrottle
	ic.SetControl(c)
}
