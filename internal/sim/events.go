package sim

// Event is a discrete notification published by the controllers. Listeners
// (telemetry bridge, blackbox recorder, log sink) register on the Bus;
// controllers never talk to those layers directly.
type Event interface {
	EventName() string
}

type CollisionDetected struct {
	Position Vec3
}

type ShotFired struct {
	From Vec3
	To   Vec3
	Hit  bool
}

type TargetHit struct {
	RemainingHealth int
}

type TargetNeutralized struct {
	Position Vec3
}

type FlightModeChanged struct {
	From FlightMode
	To   FlightMode
}

type BoundaryWarning struct {
	Distance float64
	Position Vec3
}

type EmergencyActivated struct {
	Pitch float64
	Roll  float64
}

type RotorSpeedChanged struct {
	Speeds [4]float64
}

func (CollisionDetected) EventName() string  { return "collision_detected" }
func (ShotFired) EventName() string          { return "shot_fired" }
func (TargetHit) EventName() string          { return "target_hit" }
func (TargetNeutralized) EventName() string  { return "target_neutralized" }
func (FlightModeChanged) EventName() string  { return "flight_mode_changed" }
func (BoundaryWarning) EventName() string    { return "boundary_warning" }
func (EmergencyActivated) EventName() string { return "emergency_activated" }
func (RotorSpeedChanged) EventName() string  { return "rotor_speed_changed" }

// Bus fan-outs events to registered listeners synchronously, in registration
// order, on the simulation goroutine.
type Bus struct {
	listeners []func(Event)
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe(fn func(Event)) {
	b.listeners = append(b.listeners, fn)
}

func (b *Bus) Publish(e Event) {
	for _, fn := range b.listeners {
		fn(e)
	}
}
