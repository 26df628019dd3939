package signal

import (
	"math"

	"github.com/roach88/simcheck/internal/simerr"
)

// NoFinish is the ramp finish time for a ramp that never saturates.
var NoFinish = math.Inf(1)

// Stimulus is a signal evaluated at an explicit simulation time.
type Stimulus interface {
	At(t float64) float64
}

// Sample evaluates s at the clock's current time.
func Sample(c *Clock, s Stimulus) float64 {
	return s.At(c.Now())
}

// Ramp returns 0 before start, slope*(t-start) until finish, and holds
// slope*(finish-start) from finish on.
func Ramp(t, slope, start, finish float64) float64 {
	switch {
	case t < start:
		return 0
	case t < finish:
		return slope * (t - start)
	default:
		return slope * (finish - start)
	}
}

// Step returns height from start (inclusive) on, 0 before.
func Step(t, height, start float64) float64 {
	if t < start {
		return 0
	}
	return height
}

// Pulse returns 1 on [start, start+duration), 0 elsewhere.
func Pulse(t, start, duration float64) float64 {
	return PulseHeight(t, start, duration, 1)
}

// PulseHeight is Pulse with a caller-chosen height. A non-positive duration
// never fires.
func PulseHeight(t, start, duration, height float64) float64 {
	if duration > 0 && t >= start && t < start+duration {
		return height
	}
	return 0
}

// PulseTrain evaluates a pulse train at t. See [Train] for the semantics.
// A non-positive interval is a configuration error.
func PulseTrain(t, start, duration, interval, stop float64) (float64, error) {
	train, err := NewTrain(start, duration, interval, stop)
	if err != nil {
		return 0, err
	}
	return train.At(t), nil
}

// RampSignal is a [Ramp] bound to its parameters.
type RampSignal struct {
	Slope  float64
	Start  float64
	Finish float64
}

// At implements Stimulus.
func (r RampSignal) At(t float64) float64 {
	return Ramp(t, r.Slope, r.Start, r.Finish)
}

// StepSignal is a [Step] bound to its parameters.
type StepSignal struct {
	Height float64
	Start  float64
}

// At implements Stimulus.
func (s StepSignal) At(t float64) float64 {
	return Step(t, s.Height, s.Start)
}

// PulseSignal is a [PulseHeight] bound to its parameters.
type PulseSignal struct {
	Start    float64
	Duration float64
	Height   float64
}

// At implements Stimulus.
func (p PulseSignal) At(t float64) float64 {
	return PulseHeight(t, p.Start, p.Duration, p.Height)
}

// Train is a validated pulse train: unit pulses of width Duration every
// Interval, beginning at Start. Nothing fires at or after Stop, which cuts the
// last pulse off mid-window if it would run past Stop.
type Train struct {
	start    float64
	duration float64
	interval float64
	stop     float64
}

// NewTrain validates the train parameters.
func NewTrain(start, duration, interval, stop float64) (*Train, error) {
	if !(interval > 0) {
		return nil, simerr.Configuration("signal.NewTrain",
			"repeat interval must be positive, got %g", interval)
	}
	return &Train{start: start, duration: duration, interval: interval, stop: stop}, nil
}

// At implements Stimulus.
func (p *Train) At(t float64) float64 {
	if t < p.start || t >= p.stop {
		return 0
	}
	n := math.Floor((t - p.start) / p.interval)
	windowStart := p.start + n*p.interval
	if t < windowStart+p.duration {
		return 1
	}
	return 0
}
