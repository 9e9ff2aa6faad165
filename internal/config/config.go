package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/TrentIndeed/smart-drone-ai-sub000/internal/sim"
)

// Load builds the simulation parameters from defaults, an optional JSON
// config file and SIM_-prefixed environment variables. An empty path means
// defaults only.
func Load(path string) (sim.Params, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("sim")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return sim.Params{}, err
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	d := sim.DefaultParams()

	v.SetDefault("arena.halfExtent", d.Arena.HalfExtent)

	v.SetDefault("interceptor.mass", d.Interceptor.Mass)
	v.SetDefault("interceptor.maxRotorSpeed", d.Interceptor.MaxRotorSpeed)
	v.SetDefault("interceptor.rotorResponseTime", d.Interceptor.RotorResponseTime)
	v.SetDefault("interceptor.thrustHoverFactor", d.Interceptor.ThrustHoverFactor)
	v.SetDefault("interceptor.thrustGain", d.Interceptor.ThrustGain)
	v.SetDefault("interceptor.thrustFloor", d.Interceptor.ThrustFloor)
	v.SetDefault("interceptor.attitudeAccel", d.Interceptor.AttitudeAccel)
	v.SetDefault("interceptor.yawAccel", d.Interceptor.YawAccel)
	v.SetDefault("interceptor.linearDrag", d.Interceptor.LinearDrag)
	v.SetDefault("interceptor.angularDamping", d.Interceptor.AngularDamping)
	v.SetDefault("interceptor.maxTiltAngle", d.Interceptor.MaxTiltAngle)
	v.SetDefault("interceptor.maxYawRate", d.Interceptor.MaxYawRate)
	v.SetDefault("interceptor.manualScale", d.Interceptor.ManualScale)

	v.SetDefault("flight.hoverThrottle", d.Flight.HoverThrottle)
	v.SetDefault("flight.levelGain", d.Flight.LevelGain)
	v.SetDefault("flight.levelTau", d.Flight.LevelTau)
	v.SetDefault("flight.tiltResetAngle", d.Flight.TiltResetAngle)
	v.SetDefault("flight.loiterGain", d.Flight.LoiterGain)
	v.SetDefault("flight.loiterMaxInput", d.Flight.LoiterMaxInput)
	v.SetDefault("flight.rtlAltitude", d.Flight.RTLAltitude)
	v.SetDefault("flight.predictionHorizon", d.Flight.PredictionHorizon)
	v.SetDefault("flight.chaseAltitude", d.Flight.ChaseAltitude)
	v.SetDefault("flight.minStandoff", d.Flight.MinStandoff)
	v.SetDefault("flight.chaseStrengthGain", d.Flight.ChaseStrengthGain)
	v.SetDefault("flight.chaseMaxStrength", d.Flight.ChaseMaxStrength)
	v.SetDefault("flight.chaseYawGain", d.Flight.ChaseYawGain)

	v.SetDefault("safety.hardTiltAngle", d.Safety.HardTiltAngle)
	v.SetDefault("safety.recoveryThrottle", d.Safety.RecoveryThrottle)
	v.SetDefault("safety.emergencyTimeout", d.Safety.EmergencyTimeout)
	v.SetDefault("safety.safeAltitude", d.Safety.SafePose.Y)
	v.SetDefault("safety.emergencyDistance", d.Safety.EmergencyDistance)
	v.SetDefault("safety.warningDistance", d.Safety.WarningDistance)
	v.SetDefault("safety.warningCooldown", d.Safety.WarningCooldown)

	v.SetDefault("weapon.maxRange", d.Weapon.MaxRange)
	v.SetDefault("weapon.optimalRange", d.Weapon.OptimalRange)
	v.SetDefault("weapon.aimTime", d.Weapon.AimTime)
	v.SetDefault("weapon.cooldown", d.Weapon.Cooldown)
	v.SetDefault("weapon.damage", d.Weapon.Damage)
	v.SetDefault("weapon.falloff", d.Weapon.Falloff)

	v.SetDefault("evader.radius", d.Evader.Radius)
	v.SetDefault("evader.maxSpeed", d.Evader.MaxSpeed)
	v.SetDefault("evader.baseMultiplier", d.Evader.BaseMultiplier)
	v.SetDefault("evader.health", d.Evader.Health)
	v.SetDefault("evader.panicDistance", d.Evader.PanicDistance)
	v.SetDefault("evader.panicDuration", d.Evader.PanicDuration)
	v.SetDefault("evader.panicBoost", d.Evader.PanicBoost)
	v.SetDefault("evader.dirChangeMin", d.Evader.DirChangeMin)
	v.SetDefault("evader.dirChangeMax", d.Evader.DirChangeMax)
	v.SetDefault("evader.slowSpeedFactor", d.Evader.SlowSpeedFactor)
	v.SetDefault("evader.rayLength", d.Evader.RayLength)
	v.SetDefault("evader.edgeMargin", d.Evader.EdgeMargin)
	v.SetDefault("evader.cornerBias", d.Evader.CornerBias)
	v.SetDefault("evader.cornerGrace", d.Evader.CornerGrace)
	v.SetDefault("evader.stuckEpsilon", d.Evader.StuckEpsilon)
	v.SetDefault("evader.stuckTimeout", d.Evader.StuckTimeout)
	v.SetDefault("evader.teleportAfter", d.Evader.TeleportAfter)
}

func fromViper(v *viper.Viper) sim.Params {
	return sim.Params{
		Arena: sim.ArenaParams{
			HalfExtent: v.GetFloat64("arena.halfExtent"),
		},
		Interceptor: sim.InterceptorParams{
			Mass:              v.GetFloat64("interceptor.mass"),
			MaxRotorSpeed:     v.GetFloat64("interceptor.maxRotorSpeed"),
			RotorResponseTime: v.GetFloat64("interceptor.rotorResponseTime"),
			ThrustHoverFactor: v.GetFloat64("interceptor.thrustHoverFactor"),
			ThrustGain:        v.GetFloat64("interceptor.thrustGain"),
			ThrustFloor:       v.GetFloat64("interceptor.thrustFloor"),
			AttitudeAccel:     v.GetFloat64("interceptor.attitudeAccel"),
			YawAccel:          v.GetFloat64("interceptor.yawAccel"),
			LinearDrag:        v.GetFloat64("interceptor.linearDrag"),
			AngularDamping:    v.GetFloat64("interceptor.angularDamping"),
			MaxTiltAngle:      v.GetFloat64("interceptor.maxTiltAngle"),
			MaxYawRate:        v.GetFloat64("interceptor.maxYawRate"),
			ManualScale:       v.GetFloat64("interceptor.manualScale"),
		},
		Flight: withPIDDefaults(sim.FlightParams{
			HoverThrottle:     v.GetFloat64("flight.hoverThrottle"),
			LevelGain:         v.GetFloat64("flight.levelGain"),
			LevelTau:          v.GetFloat64("flight.levelTau"),
			TiltResetAngle:    v.GetFloat64("flight.tiltResetAngle"),
			LoiterGain:        v.GetFloat64("flight.loiterGain"),
			LoiterMaxInput:    v.GetFloat64("flight.loiterMaxInput"),
			RTLAltitude:       v.GetFloat64("flight.rtlAltitude"),
			PredictionHorizon: v.GetFloat64("flight.predictionHorizon"),
			ChaseAltitude:     v.GetFloat64("flight.chaseAltitude"),
			MinStandoff:       v.GetFloat64("flight.minStandoff"),
			ChaseStrengthGain: v.GetFloat64("flight.chaseStrengthGain"),
			ChaseMaxStrength:  v.GetFloat64("flight.chaseMaxStrength"),
			ChaseYawGain:      v.GetFloat64("flight.chaseYawGain"),
		}),
		Safety: sim.SafetyParams{
			HardTiltAngle:     v.GetFloat64("safety.hardTiltAngle"),
			RecoveryThrottle:  v.GetFloat64("safety.recoveryThrottle"),
			EmergencyTimeout:  v.GetFloat64("safety.emergencyTimeout"),
			SafePose:          sim.Vec3{Y: v.GetFloat64("safety.safeAltitude")},
			EmergencyDistance: v.GetFloat64("safety.emergencyDistance"),
			WarningDistance:   v.GetFloat64("safety.warningDistance"),
			WarningCooldown:   v.GetFloat64("safety.warningCooldown"),
		},
		Weapon: sim.WeaponParams{
			MaxRange:     v.GetFloat64("weapon.maxRange"),
			OptimalRange: v.GetFloat64("weapon.optimalRange"),
			AimTime:      v.GetFloat64("weapon.aimTime"),
			Cooldown:     v.GetFloat64("weapon.cooldown"),
			Damage:       v.GetInt("weapon.damage"),
			Falloff:      v.GetFloat64("weapon.falloff"),
		},
		Evader: sim.EvaderParams{
			Radius:          v.GetFloat64("evader.radius"),
			MaxSpeed:        v.GetFloat64("evader.maxSpeed"),
			BaseMultiplier:  v.GetFloat64("evader.baseMultiplier"),
			Health:          v.GetInt("evader.health"),
			PanicDistance:   v.GetFloat64("evader.panicDistance"),
			PanicDuration:   v.GetFloat64("evader.panicDuration"),
			PanicBoost:      v.GetFloat64("evader.panicBoost"),
			DirChangeMin:    v.GetFloat64("evader.dirChangeMin"),
			DirChangeMax:    v.GetFloat64("evader.dirChangeMax"),
			SlowSpeedFactor: v.GetFloat64("evader.slowSpeedFactor"),
			RayLength:       v.GetFloat64("evader.rayLength"),
			EdgeMargin:      v.GetFloat64("evader.edgeMargin"),
			CornerBias:      v.GetFloat64("evader.cornerBias"),
			CornerGrace:     v.GetFloat64("evader.cornerGrace"),
			StuckEpsilon:    v.GetFloat64("evader.stuckEpsilon"),
			StuckTimeout:    v.GetFloat64("evader.stuckTimeout"),
			TeleportAfter:   v.GetInt("evader.teleportAfter"),
		},
	}
}

// withPIDDefaults keeps the PID gain sets from the stock tuning; they are
// not meant to be edited from a config file.
func withPIDDefaults(f sim.FlightParams) sim.FlightParams {
	d := sim.DefaultParams().Flight
	f.PitchPID = d.PitchPID
	f.RollPID = d.RollPID
	f.YawRatePID = d.YawRatePID
	f.AltitudePID = d.AltitudePID
	return f
}
