package main

import (
	"flag"
	"math/rand"
	"time"

	"github.com/TrentIndeed/smart-drone-ai-sub000/internal/blackbox"
	"github.com/TrentIndeed/smart-drone-ai-sub000/internal/config"
	"github.com/TrentIndeed/smart-drone-ai-sub000/internal/logging"
	"github.com/TrentIndeed/smart-drone-ai-sub000/internal/sim"
)

func main() {
	steps := flag.Int("steps", 3600, "Number of fixed updates to run")
	ups := flag.Int("ups", 60, "Fixed updates per second")
	duration := flag.Duration("duration", 0, "Duration to run if steps=0 (e.g., 30s)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	configPath := flag.String("config", "", "Optional JSON config file")
	blackboxPath := flag.String("blackbox", "", "Optional SQLite flight recording path")
	logLevel := flag.String("loglevel", "info", "Log level (trace..error)")
	pretty := flag.Bool("pretty", true, "Human-readable log output")
	chase := flag.Bool("chase", true, "Start in AUTO_CHASE instead of STABILIZE")
	flag.Parse()

	log := logging.New(*logLevel, *pretty)

	params, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	obstacles := []sim.Obstacle{
		{Position: sim.Vec3{X: 3, Z: 2}, Radius: 0.8, Height: 2.5},
		{Position: sim.Vec3{X: -4, Z: -3}, Radius: 1.0, Height: 3.0},
		{Position: sim.Vec3{X: -2, Z: 5}, Radius: 0.6, Height: 2.0},
		{Position: sim.Vec3{X: 5, Z: -5}, Radius: 0.7, Height: 2.2},
	}

	s := sim.NewSimulator(params, obstacles, log, rng)

	var rec *blackbox.Recorder
	if *blackboxPath != "" {
		rec, err = blackbox.Open(*blackboxPath, log)
		if err != nil {
			log.Fatal().Err(err).Msg("blackbox open failed")
		}
		rec.Attach(s.Bus(), s.Tick)
		defer func() {
			if cerr := rec.Close(); cerr != nil {
				log.Error().Err(cerr).Msg("blackbox close failed")
			}
		}()
	}

	if *chase {
		s.SetFlightMode(sim.FlightModeAutoChase)
	}

	log.Info().Int64("seed", *seed).Int("ups", *ups).Msg("starting engagement run")

	fixed := 1.0 / float64(maxInt(1, *ups))
	performed := 0
	start := time.Now()
	for {
		if *steps > 0 && performed >= *steps {
			break
		}
		if *steps <= 0 && *duration > 0 && time.Since(start) >= *duration {
			break
		}
		if *steps <= 0 && *duration <= 0 {
			break
		}
		s.Step(fixed)
		performed++
		if rec != nil {
			rec.Sample(s.Status())
		}
		if !s.Status().TargetAlive {
			log.Info().Int("steps", performed).Msg("target neutralized, ending run")
			break
		}
	}

	st := s.Status()
	log.Info().
		Int("steps", performed).
		Str("mode", st.FlightMode).
		Float64("x", st.Position.X).
		Float64("y", st.Position.Y).
		Float64("z", st.Position.Z).
		Bool("target_alive", st.TargetAlive).
		Int("target_health", st.TargetHealth).
		Msg("run complete")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
