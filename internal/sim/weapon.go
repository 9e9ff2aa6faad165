package sim

import (
	"math/rand"
)

// Damageable is an entity that can take weapon damage. The weapon never owns
// its target; it re-resolves the handle every tick through the registry.
type Damageable interface {
	Entity
	ApplyHit(damage int)
}

// Weapon is the engagement state machine: range gate, aim timer, fire with
// probabilistic hit resolution, cooldown. Independent of flight mode.
type Weapon struct {
	params WeaponParams
	world  *World
	bus    *Bus
	rng    *rand.Rand

	Aiming       bool
	AimTimer     float64
	ShotCooldown float64

	// DistanceToTarget is refreshed each tick for telemetry; negative when
	// no live target exists.
	DistanceToTarget float64
}

func NewWeapon(p WeaponParams, world *World, bus *Bus, rng *rand.Rand) *Weapon {
	return &Weapon{params: p, world: world, bus: bus, rng: rng, DistanceToTarget: -1}
}

// State reports the engagement phase for the status snapshot.
func (w *Weapon) State() string {
	switch {
	case w.Aiming:
		return "acquiring"
	case w.ShotCooldown > 0:
		return "cooldown"
	default:
		return "idle"
	}
}

// Reset clears aim and cooldown state (interceptor reset path).
func (w *Weapon) Reset() {
	w.Aiming = false
	w.AimTimer = 0
	w.ShotCooldown = 0
	w.DistanceToTarget = -1
}

func (w *Weapon) cancelAim() {
	w.Aiming = false
	w.AimTimer = 0
}

// Update advances the state machine one tick.
func (w *Weapon) Update(ic *Interceptor, dt float64) {
	if w.ShotCooldown > 0 {
		w.ShotCooldown -= dt
		if w.ShotCooldown < 0 {
			w.ShotCooldown = 0
		}
	}

	entity, ok := w.world.Lookup(TagTarget)
	if !ok {
		// Target gone or neutralized: not an error, drop back to idle.
		w.cancelAim()
		w.DistanceToTarget = -1
		return
	}
	target, ok := entity.(Damageable)
	if !ok {
		w.cancelAim()
		w.DistanceToTarget = -1
		return
	}

	dist := target.Pos().Sub(ic.Position).Length()
	w.DistanceToTarget = dist

	if dist > w.params.MaxRange {
		// Out of range while aiming cancels the acquisition outright.
		w.cancelAim()
		return
	}

	if !w.Aiming {
		w.Aiming = true
		w.AimTimer = w.params.AimTime
	}
	w.AimTimer -= dt
	if w.AimTimer < 0 {
		w.AimTimer = 0
	}

	if w.AimTimer <= 0 && w.ShotCooldown <= 0 {
		w.fire(ic, target, dist)
	}
}

// HitChance is 1.0 inside the optimal range and falls linearly to
// 1-Falloff at max range.
func (w *Weapon) HitChance(dist float64) float64 {
	if dist <= w.params.OptimalRange {
		return 1.0
	}
	span := w.params.MaxRange - w.params.OptimalRange
	if span <= 0 {
		return 1.0
	}
	return clamp(1.0-w.params.Falloff*(dist-w.params.OptimalRange)/span, 0, 1)
}

func (w *Weapon) fire(ic *Interceptor, target Damageable, dist float64) {
	hit := w.rng.Float64() < w.HitChance(dist)

	if w.bus != nil {
		w.bus.Publish(ShotFired{From: ic.Position, To: target.Pos(), Hit: hit})
	}
	if hit {
		target.ApplyHit(w.params.Damage)
	}

	// Firing always resets, hit or miss.
	w.cancelAim()
	w.ShotCooldown = w.params.Cooldown
}
