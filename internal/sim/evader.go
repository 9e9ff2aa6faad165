package sim

import (
	"math"
	"math/rand"
)

// Evader is the autonomous ground target: a character-style body that
// wanders, panics away from the interceptor, steers around obstacles with a
// forward ray cast, escapes edges and corners, and recovers from being
// stuck. It owns its own position and velocity; everyone else only reads.
type Evader struct {
	params EvaderParams
	world  *World
	bus    *Bus
	rng    *rand.Rand

	Position          Vec3
	Velocity          Vec3
	MovementDirection Vec3 // horizontal unit vector

	Health      int
	neutralized bool

	PanicActive bool
	panicTimer  float64
	evasionDir  Vec3
	hasEvasion  bool

	dirChangeTimer   float64
	cornerGraceTimer float64

	stuckTimer   float64
	lastPosition Vec3

	failedRedirects int
	spawn           Vec3
}

func NewEvader(p EvaderParams, world *World, bus *Bus, rng *rand.Rand) *Evader {
	e := &Evader{params: p, world: world, bus: bus, rng: rng}
	e.spawn = world.RandomClearPosition(rng, p.Radius)
	e.Position = e.spawn
	e.lastPosition = e.spawn
	e.Health = p.Health
	e.MovementDirection = e.randomDirection()
	e.dirChangeTimer = e.rollInterval()
	return e
}

// Entity handle for the world registry. A neutralized evader reads as dead,
// which makes every weak reference to it go stale at once.
func (e *Evader) Alive() bool { return !e.neutralized }
func (e *Evader) Pos() Vec3   { return e.Position }
func (e *Evader) Vel() Vec3   { return e.Velocity }

// ApplyHit decrements health. Exactly one neutralization event is emitted;
// hits after neutralization are ignored.
func (e *Evader) ApplyHit(damage int) {
	if e.neutralized {
		return
	}
	e.Health -= damage
	if e.Health <= 0 {
		e.Health = 0
		e.neutralized = true
		if e.bus != nil {
			e.bus.Publish(TargetHit{RemainingHealth: 0})
			e.bus.Publish(TargetNeutralized{Position: e.Position})
		}
		return
	}
	if e.bus != nil {
		e.bus.Publish(TargetHit{RemainingHealth: e.Health})
	}
}

// Reset restores spawn position, full health and calm state.
func (e *Evader) Reset() {
	e.Position = e.spawn
	e.lastPosition = e.spawn
	e.Velocity = Vec3{}
	e.Health = e.params.Health
	e.neutralized = false
	e.PanicActive = false
	e.panicTimer = 0
	e.hasEvasion = false
	e.stuckTimer = 0
	e.cornerGraceTimer = 0
	e.failedRedirects = 0
	e.MovementDirection = e.randomDirection()
	e.dirChangeTimer = e.rollInterval()
}

func (e *Evader) rollInterval() float64 {
	span := e.params.DirChangeMax - e.params.DirChangeMin
	return e.params.DirChangeMin + e.rng.Float64()*span
}

// randomDirection picks a fresh horizontal unit vector, biased toward the
// arena center when the agent is close to an edge.
func (e *Evader) randomDirection() Vec3 {
	angle := e.rng.Float64() * 2 * math.Pi
	dir := Vec3{X: math.Cos(angle), Z: math.Sin(angle)}

	edge := e.world.Arena.DistanceToEdge(e.Position)
	margin := e.params.EdgeMargin * 2
	if edge < margin {
		toCenter := e.Position.Mul(-1).Horizontal().NormalizeSafe(1e-6)
		weight := clamp(1.0-edge/margin, 0, 1)
		dir = dir.Add(toCenter.Mul(weight * 1.5))
	}
	return dir.NormalizeSafe(1e-6)
}

func (e *Evader) jitter(dir Vec3, amount float64) Vec3 {
	j := Vec3{
		X: (e.rng.Float64()*2 - 1) * amount,
		Z: (e.rng.Float64()*2 - 1) * amount,
	}
	return dir.Add(j).NormalizeSafe(1e-6)
}

// TriggerEvasion supplies an explicit escape vector; it wins over the
// baseline wander while panic lasts.
func (e *Evader) TriggerEvasion(away Vec3) {
	e.PanicActive = true
	e.panicTimer = e.params.PanicDuration
	e.evasionDir = e.jitter(away.Horizontal().NormalizeSafe(1e-6), 0.35)
	e.hasEvasion = true
}

// redirectOptions are the candidate escape directions relative to a surface
// normal: its two horizontal perpendiculars, then straight back out.
func redirectOptions(normal Vec3) [3]Vec3 {
	perp := Vec3{X: -normal.Z, Z: normal.X}
	return [3]Vec3{perp, perp.Mul(-1), normal}
}

// pickSafeDirection returns the first candidate that keeps the agent inside
// the arena, falling back to the last one.
func (e *Evader) pickSafeDirection(options [3]Vec3) Vec3 {
	for _, opt := range options {
		probe := e.Position.Add(opt.Mul(e.params.RayLength))
		if e.world.Arena.DistanceToEdge(probe) > e.params.Radius {
			return opt
		}
	}
	return options[2]
}

// shortenRedirect pulls the next wander re-roll closer so the agent does not
// oscillate against the same obstacle.
func (e *Evader) shortenRedirect() {
	limit := e.params.DirChangeMin * (0.3 + e.rng.Float64()*0.3)
	if e.dirChangeTimer > limit {
		e.dirChangeTimer = limit
	}
}

// Update advances the evader one tick. snap carries the interceptor position
// from the start of the tick (panic trigger input).
func (e *Evader) Update(snap Snapshot, dt float64) {
	if e.neutralized {
		e.Velocity = Vec3{}
		return
	}

	e.tickTimers(dt)
	e.updatePanic(snap)
	e.updateWander(dt)
	e.handleBoundary()
	e.avoidObstacles()

	speed := e.params.MaxSpeed * e.params.BaseMultiplier
	if e.PanicActive {
		speed *= e.params.PanicBoost
	}
	e.Velocity = e.MovementDirection.Mul(speed)
	next := e.Position.Add(e.Velocity.Mul(dt))
	next = e.resolveCollisions(next)
	next = e.world.Arena.Clamp(next, e.params.Radius)

	e.detectStuck(next, dt)
	e.lastPosition = e.Position
	e.Position = next
}

func (e *Evader) tickTimers(dt float64) {
	if e.panicTimer > 0 {
		e.panicTimer -= dt
		if e.panicTimer <= 0 {
			e.panicTimer = 0
			e.PanicActive = false
			e.hasEvasion = false
		}
	}
	if e.cornerGraceTimer > 0 {
		e.cornerGraceTimer -= dt
		if e.cornerGraceTimer < 0 {
			e.cornerGraceTimer = 0
		}
	}
}

func (e *Evader) updatePanic(snap Snapshot) {
	toThreat := snap.InterceptorPos.Sub(e.Position).Horizontal()
	if toThreat.Length() < e.params.PanicDistance {
		e.TriggerEvasion(toThreat.Mul(-1))
	}
	if e.PanicActive && e.hasEvasion {
		e.MovementDirection = e.evasionDir
	}
}

func (e *Evader) updateWander(dt float64) {
	e.dirChangeTimer -= dt
	// Nearly stationary agents re-roll faster: being parked against
	// something is the usual cause.
	if e.Velocity.HorizontalLength() < e.params.SlowSpeedFactor*e.params.MaxSpeed {
		e.dirChangeTimer -= dt
	}
	if e.dirChangeTimer > 0 || e.cornerGraceTimer > 0 || e.PanicActive {
		return
	}
	e.MovementDirection = e.randomDirection()
	e.dirChangeTimer = e.rollInterval()
}

// handleBoundary reflects off single edges and escapes corners toward the
// arena center.
func (e *Evader) handleBoundary() {
	half := e.world.Arena.HalfExtent
	margin := e.params.EdgeMargin
	nearX := half-math.Abs(e.Position.X) < margin
	nearZ := half-math.Abs(e.Position.Z) < margin

	switch {
	case nearX && nearZ:
		// Corner: head straight for the center and hold that course for a
		// grace period so the wander timer cannot immediately undo it.
		e.MovementDirection = e.jitter(e.Position.Mul(-1).Horizontal().NormalizeSafe(1e-6), 0.1)
		e.cornerGraceTimer = e.params.CornerGrace
		if e.dirChangeTimer < e.params.CornerGrace {
			e.dirChangeTimer = e.params.CornerGrace
		}
	case nearX:
		if e.MovementDirection.X*e.Position.X > 0 { // still heading outward
			d := e.MovementDirection
			d.X = -d.X - math.Copysign(e.params.CornerBias, e.Position.X)
			e.MovementDirection = e.jitter(d, 0.2)
		}
	case nearZ:
		if e.MovementDirection.Z*e.Position.Z > 0 {
			d := e.MovementDirection
			d.Z = -d.Z - math.Copysign(e.params.CornerBias, e.Position.Z)
			e.MovementDirection = e.jitter(d, 0.2)
		}
	}
}

// avoidObstacles casts a ray along the intended heading and swaps to a
// perpendicular or reverse course before walking into anything.
func (e *Evader) avoidObstacles() {
	hit, ok := e.world.RayCast(e.Position, e.MovementDirection, e.params.RayLength)
	if !ok {
		return
	}
	dir := e.pickSafeDirection(redirectOptions(hit.Normal))
	e.MovementDirection = e.jitter(dir, 0.15)
	e.shortenRedirect()
}

// resolveCollisions pushes the body out of any obstacle it penetrated and
// redirects along the first safe escape course. Repeated failures fall back
// to a teleport so forward progress is guaranteed.
func (e *Evader) resolveCollisions(next Vec3) Vec3 {
	collided := false
	for i := range e.world.Obstacles {
		ob := &e.world.Obstacles[i]
		sep := next.Sub(ob.Position).Horizontal()
		minDist := ob.Radius + e.params.Radius
		if sep.Length() >= minDist {
			continue
		}
		collided = true
		normal := sep.NormalizeSafe(1e-9)
		if normal.Length() == 0 {
			normal = Vec3{X: 1}
		}
		next = ob.Position.Add(normal.Mul(minDist))
		next.Y = 0

		if e.bus != nil {
			e.bus.Publish(CollisionDetected{Position: next})
		}

		e.MovementDirection = e.jitter(e.pickSafeDirection(redirectOptions(normal)), 0.2)
		e.shortenRedirect()
	}

	if !collided {
		e.failedRedirects = 0
		return next
	}

	e.failedRedirects++
	if e.failedRedirects >= e.params.TeleportAfter {
		// Redirects keep failing against the same geometry; guarantee
		// progress with a validated safe position.
		next = e.world.RandomClearPosition(e.rng, e.params.Radius)
		e.failedRedirects = 0
	}
	return next
}

// detectStuck forces a brand-new direction when net displacement stays below
// epsilon for longer than the timeout.
func (e *Evader) detectStuck(next Vec3, dt float64) {
	if next.Sub(e.Position).Length() < e.params.StuckEpsilon {
		e.stuckTimer += dt
		if e.stuckTimer >= e.params.StuckTimeout {
			e.MovementDirection = e.randomDirection()
			e.dirChangeTimer = e.rollInterval()
			speed := e.params.MaxSpeed * e.params.BaseMultiplier
			e.Velocity = e.MovementDirection.Mul(speed)
			e.stuckTimer = 0
		}
		return
	}
	e.stuckTimer = 0
}
