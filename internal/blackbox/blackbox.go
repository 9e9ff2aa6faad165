// Package blackbox persists flight telemetry and scenario events to a SQLite
// file for post-run analysis. The recorder sits behind the event bus and a
// per-tick sample call; it never feeds back into the simulation.
package blackbox

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/TrentIndeed/smart-drone-ai-sub000/internal/sim"
)

// TelemetrySample is one per-tick flight record.
type TelemetrySample struct {
	ID   uint `gorm:"primarykey"`
	Tick uint64

	PosX float64
	PosY float64
	PosZ float64
	VelX float64
	VelY float64
	VelZ float64

	FlightMode       string
	RotorMean        float64
	EmergencyActive  bool
	AimState         string
	DistanceToTarget float64
	TargetHealth     int
}

// EventRecord is one discrete bus event with a coarse payload.
type EventRecord struct {
	ID     uint `gorm:"primarykey"`
	Tick   uint64
	Name   string
	Detail string
	At     time.Time
}

// Recorder buffers samples and events and writes them in batches.
type Recorder struct {
	db  *gorm.DB
	log zerolog.Logger

	sampleEvery int
	batchSize   int

	samples []TelemetrySample
	events  []EventRecord

	tick func() uint64
}

// Open creates or appends to the recording database at path.
func Open(path string, logger zerolog.Logger) (*Recorder, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open blackbox db: %w", err)
	}
	if err := db.AutoMigrate(&TelemetrySample{}, &EventRecord{}); err != nil {
		return nil, fmt.Errorf("migrate blackbox schema: %w", err)
	}
	return &Recorder{
		db:          db,
		log:         logger,
		sampleEvery: 6, // 10 Hz at the stock 60 ups
		batchSize:   256,
	}, nil
}

// Attach subscribes the recorder to the simulation bus. tick supplies the
// current tick number when an event arrives.
func (r *Recorder) Attach(bus *sim.Bus, tick func() uint64) {
	r.tick = tick
	bus.Subscribe(r.onEvent)
}

func (r *Recorder) onEvent(e sim.Event) {
	var tick uint64
	if r.tick != nil {
		tick = r.tick()
	}
	rec := EventRecord{Tick: tick, Name: e.EventName(), At: time.Now()}
	switch ev := e.(type) {
	case sim.FlightModeChanged:
		rec.Detail = ev.From.String() + "->" + ev.To.String()
	case sim.ShotFired:
		rec.Detail = fmt.Sprintf("hit=%t", ev.Hit)
	case sim.TargetHit:
		rec.Detail = fmt.Sprintf("health=%d", ev.RemainingHealth)
	case sim.BoundaryWarning:
		rec.Detail = fmt.Sprintf("distance=%.2f", ev.Distance)
	case sim.EmergencyActivated:
		rec.Detail = fmt.Sprintf("pitch=%.1f roll=%.1f", ev.Pitch, ev.Roll)
	case sim.RotorSpeedChanged:
		// High-rate event, skip the detail string.
	}
	r.events = append(r.events, rec)
	if len(r.events) >= r.batchSize {
		r.flushEvents()
	}
}

// Sample records the status snapshot for tick. Samples are decimated to
// keep file growth bounded on long runs.
func (r *Recorder) Sample(st sim.Status) {
	if r.sampleEvery > 1 && st.Tick%uint64(r.sampleEvery) != 0 {
		return
	}
	var mean float64
	for _, s := range st.RotorSpeeds {
		mean += s
	}
	mean /= 4

	r.samples = append(r.samples, TelemetrySample{
		Tick:             st.Tick,
		PosX:             st.Position.X,
		PosY:             st.Position.Y,
		PosZ:             st.Position.Z,
		VelX:             st.Velocity.X,
		VelY:             st.Velocity.Y,
		VelZ:             st.Velocity.Z,
		FlightMode:       st.FlightMode,
		RotorMean:        mean,
		EmergencyActive:  st.EmergencyActive,
		AimState:         st.AimState,
		DistanceToTarget: st.DistanceToTarget,
		TargetHealth:     st.TargetHealth,
	})
	if len(r.samples) >= r.batchSize {
		r.flushSamples()
	}
}

func (r *Recorder) flushSamples() {
	if len(r.samples) == 0 {
		return
	}
	if err := r.db.CreateInBatches(r.samples, r.batchSize).Error; err != nil {
		r.log.Error().Err(err).Msg("blackbox telemetry write failed")
	}
	r.samples = r.samples[:0]
}

func (r *Recorder) flushEvents() {
	if len(r.events) == 0 {
		return
	}
	if err := r.db.CreateInBatches(r.events, r.batchSize).Error; err != nil {
		r.log.Error().Err(err).Msg("blackbox event write failed")
	}
	r.events = r.events[:0]
}

// Flush writes any buffered rows.
func (r *Recorder) Flush() {
	r.flushSamples()
	r.flushEvents()
}

// Close flushes and releases the database handle.
func (r *Recorder) Close() error {
	r.Flush()
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
