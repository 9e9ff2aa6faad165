package sim

// Params collects every tunable of the scenario. Defaults reproduce the
// stock arena; the config package overlays file/env overrides on top.
type Params struct {
	Arena       ArenaParams
	Interceptor InterceptorParams
	Flight      FlightParams
	Safety      SafetyParams
	Weapon      WeaponParams
	Evader      EvaderParams
}

type ArenaParams struct {
	HalfExtent float64
}

type InterceptorParams struct {
	Mass              float64
	MaxRotorSpeed     float64
	RotorResponseTime float64
	// Vertical thrust model: F = m*g * max(ThrustFloor, ThrustHoverFactor +
	// meanNormalizedRotor*ThrustGain). Hover balances at rotor norm 0.5.
	ThrustHoverFactor float64
	ThrustGain        float64
	ThrustFloor       float64
	// Attitude authority: control input of 1.0 commands this angular
	// acceleration (deg/s^2).
	AttitudeAccel  float64
	YawAccel       float64
	LinearDrag     float64 // 1/s velocity-proportional
	AngularDamping float64 // 1/s
	MaxTiltAngle   float64 // deg, full stick in stabilized modes
	MaxYawRate     float64 // deg/s, full stick
	ManualScale    float64 // input attenuation in MANUAL
}

type FlightParams struct {
	HoverThrottle float64 // mixer base command in stabilized modes
	// Self-leveling: with sticks centered the desired angle decays toward
	// -tilt*LevelGain with time constant LevelTau.
	LevelGain      float64
	LevelTau       float64
	TiltResetAngle float64 // deg, PID state reset beyond this excursion

	PitchPID    PIDController
	RollPID     PIDController
	YawRatePID  PIDController
	AltitudePID PIDController

	// Loiter position control
	LoiterGain     float64 // tilt command per meter of horizontal error
	LoiterMaxInput float64
	RTLAltitude    float64

	// Chase guidance
	PredictionHorizon float64
	ChaseAltitude     float64
	MinStandoff       float64
	ChaseStrengthGain float64 // movement strength per meter of distance
	ChaseMaxStrength  float64
	ChaseYawGain      float64 // yaw input per degree of bearing error
}

type SafetyParams struct {
	HardTiltAngle     float64 // deg
	RecoveryThrottle  float64
	EmergencyTimeout  float64 // s before hard reset
	SafePose          Vec3
	EmergencyDistance float64 // m from edge: force RTL
	WarningDistance   float64 // m from edge: rate-limited warning
	WarningCooldown   float64 // s
}

type WeaponParams struct {
	MaxRange     float64
	OptimalRange float64
	AimTime      float64
	Cooldown     float64
	Damage       int
	// Hit chance falls linearly from 1.0 at OptimalRange to 1.0-Falloff at
	// MaxRange.
	Falloff float64
}

type EvaderParams struct {
	Radius         float64
	MaxSpeed       float64
	BaseMultiplier float64
	Health         int

	PanicDistance float64
	PanicDuration float64
	PanicBoost    float64

	DirChangeMin    float64 // s, lower bound of wander re-roll interval
	DirChangeMax    float64 // s
	SlowSpeedFactor float64 // re-roll faster below this fraction of max speed

	RayLength  float64
	EdgeMargin float64 // boundary reflect band
	CornerBias float64 // outward push when reflecting
	CornerGrace float64 // s of suppressed direction changes after corner escape

	StuckEpsilon float64 // m displacement per tick
	StuckTimeout float64 // s
	TeleportAfter int    // failed redirects before teleporting to safety
}

func DefaultParams() Params {
	return Params{
		Arena: ArenaParams{HalfExtent: 10.0},
		Interceptor: InterceptorParams{
			Mass:              1.2,
			MaxRotorSpeed:     1000.0,
			RotorResponseTime: 0.15,
			ThrustHoverFactor: 0.5,
			ThrustGain:        1.0,
			ThrustFloor:       0.85,
			AttitudeAccel:     300.0,
			YawAccel:          180.0,
			LinearDrag:        0.6,
			AngularDamping:    4.0,
			MaxTiltAngle:      20.0,
			MaxYawRate:        90.0,
			ManualScale:       0.5,
		},
		Flight: FlightParams{
			HoverThrottle:  0.5,
			LevelGain:      0.35,
			LevelTau:       0.2,
			TiltResetAngle: 60.0,

			PitchPID:    PIDController{Kp: 0.035, Ki: 0.004, Kd: 0.012, OutputLimit: 1.0, IntegralLimit: 25.0},
			RollPID:     PIDController{Kp: 0.035, Ki: 0.004, Kd: 0.012, OutputLimit: 1.0, IntegralLimit: 25.0},
			YawRatePID:  PIDController{Kp: 0.01, Ki: 0.001, Kd: 0.001, OutputLimit: 1.0, IntegralLimit: 40.0},
			AltitudePID: PIDController{Kp: 0.35, Ki: 0.05, Kd: 0.28, OutputLimit: 0.45, IntegralLimit: 2.0},

			LoiterGain:     0.35,
			LoiterMaxInput: 1.0,
			RTLAltitude:    3.0,

			PredictionHorizon: 0.5,
			ChaseAltitude:     2.5,
			MinStandoff:       1.5,
			ChaseStrengthGain: 0.25,
			ChaseMaxStrength:  1.0,
			ChaseYawGain:      0.02,
		},
		Safety: SafetyParams{
			HardTiltAngle:     75.0,
			RecoveryThrottle:  0.6,
			EmergencyTimeout:  3.0,
			SafePose:          Vec3{X: 0, Y: 3.0, Z: 0},
			EmergencyDistance: 1.0,
			WarningDistance:   2.5,
			WarningCooldown:   1.0,
		},
		Weapon: WeaponParams{
			MaxRange:     8.0,
			OptimalRange: 5.0,
			AimTime:      0.5,
			Cooldown:     1.0,
			Damage:       1,
			Falloff:      0.3,
		},
		Evader: EvaderParams{
			Radius:         0.4,
			MaxSpeed:       3.0,
			BaseMultiplier: 0.8,
			Health:         3,

			PanicDistance: 4.0,
			PanicDuration: 2.0,
			PanicBoost:    1.6,

			DirChangeMin:    1.0,
			DirChangeMax:    3.0,
			SlowSpeedFactor: 0.25,

			RayLength:   1.5,
			EdgeMargin:  1.0,
			CornerBias:  0.5,
			CornerGrace: 0.8,

			StuckEpsilon:  0.005,
			StuckTimeout:  0.5,
			TeleportAfter: 4,
		},
	}
}
