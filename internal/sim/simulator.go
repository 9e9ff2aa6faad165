package sim

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Simulator owns the world and both controllers and drives them at a fixed
// timestep. All mutation happens on the caller's goroutine, one tick at a
// time; cross-entity reads go through the per-tick snapshot.
type Simulator struct {
	params Params
	world  *World
	bus    *Bus
	log    zerolog.Logger

	Interceptor *Interceptor
	Flight      *FlightController
	Safety      *SafetySupervisor
	Weapon      *Weapon
	Evader      *Evader

	tick uint64
}

// Status is the snapshot read back by the command/telemetry bridge.
type Status struct {
	Tick             uint64
	FlightMode       string
	Position         Vec3
	Velocity         Vec3
	Altitude         float64
	Hovering         bool
	RotorSpeeds      [4]float64
	AimState         string
	DistanceToTarget float64
	EmergencyActive  bool
	TargetHealth     int
	TargetAlive      bool
}

func NewSimulator(params Params, obstacles []Obstacle, logger zerolog.Logger, rng *rand.Rand) *Simulator {
	world := NewWorld(Arena{HalfExtent: params.Arena.HalfExtent}, obstacles)
	bus := NewBus()

	s := &Simulator{
		params: params,
		world:  world,
		bus:    bus,
		log:    logger,
	}
	bus.Subscribe(s.logEvent)

	s.Interceptor = NewInterceptor(params.Interceptor, bus)
	s.Interceptor.Position = params.Safety.SafePose
	s.Flight = NewFlightController(params.Flight, params.Interceptor, world, bus)
	s.Safety = NewSafetySupervisor(params.Safety, world, bus)
	s.Weapon = NewWeapon(params.Weapon, world, bus, rng)
	s.Evader = NewEvader(params.Evader, world, bus, rng)

	world.Register(TagInterceptor, s.Interceptor)
	world.Register(TagTarget, s.Evader)
	return s
}

func (s *Simulator) World() *World { return s.world }
func (s *Simulator) Bus() *Bus     { return s.bus }
func (s *Simulator) Tick() uint64  { return s.tick }

// Step advances the whole scenario by one fixed timestep. Ordering: the
// safety supervisor may force a mode before the flight controller writes the
// control input, and overrides it before the mixer consumes it.
func (s *Simulator) Step(dt float64) {
	snap := s.world.Snapshot()

	s.Safety.Check(s.Interceptor, s.Flight, dt)
	s.Flight.Update(s.Interceptor, snap, dt)
	s.Safety.Override(s.Interceptor)
	s.Interceptor.Update(dt)

	s.Weapon.Update(s.Interceptor, dt)
	s.Evader.Update(snap, dt)

	s.tick++
}

// RunHeadless executes fixed-step updates without any frontend. Returns the
// number of simulation steps performed.
func (s *Simulator) RunHeadless(steps int, ups int, dur time.Duration) int {
	if ups <= 0 {
		ups = 60
	}
	fixed := time.Second / time.Duration(ups)
	performed := 0
	start := time.Now()
	useSteps := steps > 0
	useDur := dur > 0

	for {
		if useSteps && performed >= steps {
			break
		}
		if useDur && time.Since(start) >= dur {
			break
		}
		s.Step(fixed.Seconds())
		performed++
	}
	return performed
}

// Bridge command surface. Everything below is safe to call between ticks.

// SetControlInput stores bridge stick input (consumed next tick).
func (s *Simulator) SetControlInput(pitch, roll, yaw, throttle float64) {
	s.Flight.SetExternalInput(ControlInput{Pitch: pitch, Roll: roll, Yaw: yaw, Throttle: throttle})
}

func (s *Simulator) SetFlightMode(mode FlightMode) {
	s.Flight.SetMode(mode, s.Interceptor)
}

func (s *Simulator) SetTargetPosition(p Vec3) {
	s.Flight.SetTargetPosition(p)
}

// ResetPosition teleports the interceptor to p with cleared velocity,
// emergency, PID and aim state. Idempotent.
func (s *Simulator) ResetPosition(p Vec3) {
	s.Interceptor.Reset(p)
	s.Flight.ResetPIDs()
	s.Weapon.Reset()
	s.Flight.SetMode(FlightModeStabilize, s.Interceptor)
}

// EmergencyShutdown cuts the motors: manual mode with zeroed input, rotors
// spin down through the normal actuator dynamics.
func (s *Simulator) EmergencyShutdown() {
	s.Flight.SetMode(FlightModeManual, s.Interceptor)
	s.Flight.SetExternalInput(ControlInput{})
	s.Interceptor.SetControl(ControlInput{})
}

func (s *Simulator) Status() Status {
	ic := s.Interceptor
	return Status{
		Tick:             s.tick,
		FlightMode:       s.Flight.Mode().String(),
		Position:         ic.Position,
		Velocity:         ic.Velocity,
		Altitude:         ic.Altitude(),
		Hovering:         ic.Hovering(),
		RotorSpeeds:      ic.RotorSpeeds,
		AimState:         s.Weapon.State(),
		DistanceToTarget: s.Weapon.DistanceToTarget,
		EmergencyActive:  ic.EmergencyActive,
		TargetHealth:     s.Evader.Health,
		TargetAlive:      s.Evader.Alive(),
	}
}

// logEvent publishes every bus event through the structured logger.
func (s *Simulator) logEvent(e Event) {
	switch ev := e.(type) {
	case FlightModeChanged:
		s.log.Info().Str("from", ev.From.String()).Str("to", ev.To.String()).Msg("flight mode changed")
	case EmergencyActivated:
		s.log.Warn().Float64("pitch", ev.Pitch).Float64("roll", ev.Roll).Msg("emergency activated")
	case BoundaryWarning:
		s.log.Warn().Float64("distance", ev.Distance).Msg("boundary warning")
	case ShotFired:
		s.log.Info().Bool("hit", ev.Hit).Msg("shot fired")
	case TargetHit:
		s.log.Info().Int("remaining_health", ev.RemainingHealth).Msg("target hit")
	case TargetNeutralized:
		s.log.Info().Msg("target neutralized")
	case CollisionDetected:
		s.log.Debug().Float64("x", ev.Position.X).Float64("z", ev.Position.Z).Msg("collision detected")
	case RotorSpeedChanged:
		s.log.Trace().Floats64("speeds", ev.Speeds[:]).Msg("rotor speeds changed")
	}
}
