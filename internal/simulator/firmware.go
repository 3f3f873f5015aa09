// Package simulator emulates the bin's firmware: an ultrasonic fill sensor,
// a PIR-driven lid servo and the optional environment sensors.
package simulator

import (
	"math"
	"sync"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/telemetry"
)

const (
	// Sensor range in cm: 40 reads as an empty bin, 5 as a full one.
	emptyDistance = 40
	fullDistance  = 5

	// EmptiedDrop is how far the fill must fall between two readings to count as an emptying.
	EmptiedDrop = 30

	// commandHold keeps a remotely opened lid open for this many steps.
	commandHold = 10
)

type Options struct {
	Seed             uint64
	PresenceRate     float64
	CollectionAt     int
	CollectionChance float64
}

func DefaultOptions() Options {
	return Options{PresenceRate: 0.3, CollectionAt: 85, CollectionChance: 0.15}
}

// Firmware holds the emulated device state. Step and HandleCommand may be
// called from different goroutines.
type Firmware struct {
	mu       sync.Mutex
	faker    *gofakeit.Faker
	opts     Options
	depth    float64
	lastFill int
	lidOpen  bool
	hold     int
	battery  float64
}

func New(opts Options) *Firmware {
	return &Firmware{faker: gofakeit.New(opts.Seed), opts: opts, battery: 100}
}

// FillFromDistance maps a distance reading to a 0..100 fill level.
func FillFromDistance(dist float64) int {
	fill := int(math.Round((emptyDistance - dist) * 100 / (emptyDistance - fullDistance)))
	if fill < 0 {
		return 0
	}
	if fill > 100 {
		return 100
	}
	return fill
}

// Reading is one loop iteration's output.
type Reading struct {
	Telemetry telemetry.TelemetryPayload
	Emptied   bool
}

// Step advances the emulation by one loop.
func (f *Firmware) Step() Reading {
	f.mu.Lock()
	defer f.mu.Unlock()

	human := f.faker.Float64Range(0, 1) < f.opts.PresenceRate
	switch {
	case f.hold > 0:
		f.hold--
	case human:
		f.lidOpen = true
	default:
		f.lidOpen = false
	}
	if human {
		f.depth += f.faker.Float64Range(0.2, 1.5)
	}

	fill := FillFromDistance(emptyDistance - f.depth)
	if fill >= f.opts.CollectionAt && f.faker.Float64Range(0, 1) < f.opts.CollectionChance {
		f.depth = f.faker.Float64Range(0, 2)
		fill = FillFromDistance(emptyDistance - f.depth)
	}
	if f.depth > emptyDistance-fullDistance {
		f.depth = emptyDistance - fullDistance
	}

	emptied := f.lastFill-fill > EmptiedDrop
	f.lastFill = fill

	f.battery = math.Max(0, f.battery-0.01)
	fillF := float64(fill)
	lid := f.lidOpen
	battery := math.Round(f.battery*10) / 10
	temperature := math.Round(f.faker.Float64Range(26, 32)*10) / 10
	humidity := math.Round(f.faker.Float64Range(55, 80))
	odor := math.Round(domain.ClampOdor(fillF/10+f.faker.Float64Range(-1, 1))*10) / 10

	return Reading{
		Telemetry: telemetry.TelemetryPayload{
			Fill:        &fillF,
			Lid:         &lid,
			Battery:     &battery,
			Temperature: &temperature,
			Humidity:    &humidity,
			Odor:        &odor,
		},
		Emptied: emptied,
	}
}

// HandleCommand applies an OPEN or CLOSE from the control topic and reports
// whether the command was understood.
func (f *Firmware) HandleCommand(cmd string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch cmd {
	case telemetry.CommandOpen:
		f.lidOpen = true
		f.hold = commandHold
	case telemetry.CommandClose:
		f.lidOpen = false
		f.hold = 0
	default:
		return false
	}
	return true
}

func (f *Firmware) LidOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lidOpen
}
