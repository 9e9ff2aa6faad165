package sim

import (
	"math"
)

// ChaseSolution is one tick of guidance output for AUTO_CHASE.
type ChaseSolution struct {
	Point    Vec3    // intercept point fed to the loiter-style controller
	Strength float64 // movement strength, grows with distance up to a cap
	YawInput float64 // yaw stick toward the intercept bearing
	Hold     bool    // inside standoff: hold position, do not close further
}

// ChaseGuidance predicts where the target is going and steers the loiter
// controller at that point instead of the target itself. All state is
// recomputed every tick and discarded on mode change.
type ChaseGuidance struct {
	params FlightParams
	world  *World

	LastKnownTargetPos Vec3
	hasLast            bool

	PredictedIntercept Vec3
	HasPrediction      bool
}

func NewChaseGuidance(p FlightParams, world *World) *ChaseGuidance {
	return &ChaseGuidance{params: p, world: world}
}

// Reset discards prediction state (mode change or target loss).
func (cg *ChaseGuidance) Reset() {
	cg.hasLast = false
	cg.HasPrediction = false
	cg.LastKnownTargetPos = Vec3{}
	cg.PredictedIntercept = Vec3{}
}

// Update produces the guidance solution for this tick. ok is false when no
// live target is registered, in which case the caller falls back to a
// stabilize hover.
func (cg *ChaseGuidance) Update(ic *Interceptor, snap Snapshot, dt float64) (ChaseSolution, bool) {
	if !snap.TargetAlive {
		cg.Reset()
		return ChaseSolution{}, false
	}

	targetPos := snap.TargetPos

	// Velocity from observed motion, not the target's own state: the
	// guidance only gets to see positions.
	var targetVel Vec3
	if cg.hasLast && dt > 0 {
		targetVel = targetPos.Sub(cg.LastKnownTargetPos).Mul(1.0 / dt)
	}
	cg.LastKnownTargetPos = targetPos
	cg.hasLast = true

	intercept := targetPos.Add(targetVel.Mul(cg.params.PredictionHorizon))
	intercept.Y = cg.params.ChaseAltitude
	intercept = cg.world.Arena.Clamp(intercept, 0.5)
	cg.PredictedIntercept = intercept
	cg.HasPrediction = true

	toPoint := intercept.Sub(ic.Position)
	dist := toPoint.HorizontalLength()

	bearing := RadToDeg(math.Atan2(toPoint.X, toPoint.Z))
	yawErr := angleDiffDeg(bearing, ic.Rotation.Y)
	yawIn := clamp(yawErr*cg.params.ChaseYawGain, -1, 1)

	if dist < cg.params.MinStandoff {
		return ChaseSolution{Point: intercept, Hold: true, YawInput: yawIn}, true
	}

	strength := clamp(dist*cg.params.ChaseStrengthGain, 0, cg.params.ChaseMaxStrength)
	return ChaseSolution{Point: intercept, Strength: strength, YawInput: yawIn}, true
}
