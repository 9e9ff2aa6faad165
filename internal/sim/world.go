package sim

import (
	"math"
	"math/rand"
)

// Arena is the square playable region, centered on the origin in the XZ
// ground plane. Y is up.
type Arena struct {
	HalfExtent float64
}

// DistanceToEdge returns the horizontal distance from p to the nearest arena
// edge. Negative when p is outside.
func (a Arena) DistanceToEdge(p Vec3) float64 {
	dx := a.HalfExtent - math.Abs(p.X)
	dz := a.HalfExtent - math.Abs(p.Z)
	return math.Min(dx, dz)
}

func (a Arena) Contains(p Vec3) bool { return a.DistanceToEdge(p) >= 0 }

// Clamp pulls p back inside the arena, keeping a margin from the edges.
func (a Arena) Clamp(p Vec3, margin float64) Vec3 {
	limit := a.HalfExtent - margin
	p.X = clamp(p.X, -limit, limit)
	p.Z = clamp(p.Z, -limit, limit)
	return p
}

// Obstacle is a static vertical cylinder placed by the scene loader. Both
// controllers only ever observe its horizontal footprint.
type Obstacle struct {
	Position Vec3
	Radius   float64
	Height   float64
}

// Entity is a non-owning handle registered in the world by tag. Callers must
// check Alive before trusting Position/Velocity; handles go stale when the
// underlying entity is neutralized or removed.
type Entity interface {
	Alive() bool
	Pos() Vec3
	Vel() Vec3
}

// Tags used by guidance, weapon and panic lookups.
const (
	TagInterceptor = "interceptor"
	TagTarget      = "target"
)

// RayHit reports the nearest obstacle intersection of a ray cast.
type RayHit struct {
	Point    Vec3
	Normal   Vec3
	Obstacle *Obstacle
	Distance float64
}

// World owns the arena geometry, the static obstacle set and the entity
// registry. It offers the ray-cast and overlap queries the controllers need;
// it never mutates entities.
type World struct {
	Arena     Arena
	Obstacles []Obstacle

	entities map[string]Entity
}

func NewWorld(arena Arena, obstacles []Obstacle) *World {
	return &World{
		Arena:     arena,
		Obstacles: obstacles,
		entities:  make(map[string]Entity),
	}
}

// Register binds tag to handle, replacing any previous binding.
func (w *World) Register(tag string, e Entity) {
	w.entities[tag] = e
}

// Lookup returns a live entity for tag. Stale or dead handles resolve to
// (nil, false) so callers degrade instead of dereferencing a corpse.
func (w *World) Lookup(tag string) (Entity, bool) {
	e, ok := w.entities[tag]
	if !ok || e == nil || !e.Alive() {
		return nil, false
	}
	return e, true
}

// RayCast walks the obstacle set for the nearest intersection with a
// horizontal ray from origin along dir, out to maxDist. dir need not be
// normalized; its vertical component is ignored.
func (w *World) RayCast(origin, dir Vec3, maxDist float64) (RayHit, bool) {
	d := dir.Horizontal().NormalizeSafe(1e-9)
	if d.Length() == 0 || maxDist <= 0 {
		return RayHit{}, false
	}

	best := RayHit{Distance: math.MaxFloat64}
	found := false
	for i := range w.Obstacles {
		ob := &w.Obstacles[i]
		if origin.Y > ob.Position.Y+ob.Height {
			continue
		}
		t, ok := rayCircle(origin, d, ob.Position, ob.Radius)
		if !ok || t > maxDist || t >= best.Distance {
			continue
		}
		point := origin.Add(d.Mul(t))
		normal := point.Sub(ob.Position).Horizontal().NormalizeSafe(1e-9)
		if normal.Length() == 0 {
			normal = d.Mul(-1)
		}
		best = RayHit{Point: point, Normal: normal, Obstacle: ob, Distance: t}
		found = true
	}
	return best, found
}

// rayCircle intersects a 2D ray (origin o, unit direction d, in XZ) with a
// circle, returning the nearest non-negative hit distance.
func rayCircle(o, d Vec3, center Vec3, radius float64) (float64, bool) {
	mx := o.X - center.X
	mz := o.Z - center.Z
	b := mx*d.X + mz*d.Z
	c := mx*mx + mz*mz - radius*radius
	if c > 0 && b > 0 {
		return 0, false // pointing away, outside
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		t = 0 // started inside
	}
	return t, true
}

// PositionClear is the shape-overlap query used for spawn safety: true when a
// disc of the given radius at p overlaps no obstacle and stays in bounds.
func (w *World) PositionClear(p Vec3, radius float64) bool {
	if w.Arena.DistanceToEdge(p) < radius {
		return false
	}
	for i := range w.Obstacles {
		ob := &w.Obstacles[i]
		if p.Sub(ob.Position).HorizontalLength() < ob.Radius+radius {
			return false
		}
	}
	return true
}

// RandomClearPosition samples a validated spawn point. Falls back to the
// arena center, which scene layout keeps clear.
func (w *World) RandomClearPosition(rng *rand.Rand, radius float64) Vec3 {
	limit := w.Arena.HalfExtent - radius - 0.5
	for attempt := 0; attempt < 64; attempt++ {
		p := Vec3{
			X: (rng.Float64()*2 - 1) * limit,
			Z: (rng.Float64()*2 - 1) * limit,
		}
		if w.PositionClear(p, radius) {
			return p
		}
	}
	return Vec3{}
}

// Snapshot is the read-only per-tick view shared by all controllers. Both the
// chase/weapon logic and the evader read from it, so neither observes the
// other's same-tick writes.
type Snapshot struct {
	InterceptorPos Vec3
	InterceptorVel Vec3
	TargetPos      Vec3
	TargetVel      Vec3
	TargetAlive    bool
}

// Snapshot captures current registry state.
func (w *World) Snapshot() Snapshot {
	var s Snapshot
	if e, ok := w.Lookup(TagInterceptor); ok {
		s.InterceptorPos = e.Pos()
		s.InterceptorVel = e.Vel()
	}
	if e, ok := w.Lookup(TagTarget); ok {
		s.TargetPos = e.Pos()
		s.TargetVel = e.Vel()
		s.TargetAlive = true
	}
	return s
}
