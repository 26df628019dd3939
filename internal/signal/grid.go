package signal

import (
	"math"

	"github.com/roach88/simcheck/internal/simerr"
)

// MaxGridPoints caps the number of times Grid will produce.
const MaxGridPoints = 1 << 24

// Grid returns the times start, start+step, ... up to and including stop.
// Times are computed as start + i*step so error does not accumulate.
func Grid(start, stop, step float64) ([]float64, error) {
	if math.IsNaN(start) || math.IsNaN(stop) || math.IsInf(start, 0) || math.IsInf(stop, 0) {
		return nil, simerr.Configuration("signal.Grid", "start and stop must be finite")
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, simerr.Configuration("signal.Grid", "step must be positive and finite, got %g", step)
	}
	if stop < start {
		return nil, simerr.Configuration("signal.Grid", "stop %g is before start %g", stop, start)
	}

	// Tolerate rounding so that a stop which is a whole number of steps away
	// is always included.
	count := math.Floor((stop-start)/step+1e-9) + 1
	if !(count <= MaxGridPoints) {
		return nil, simerr.Configuration("signal.Grid",
			"grid from %g to %g by %g has more than %d points", start, stop, step, MaxGridPoints)
	}
	n := int(count)
	times := make([]float64, n)
	for i := range times {
		times[i] = start + float64(i)*step
	}
	return times, nil
}

// Trace drives clock across times and samples s at every step.
func Trace(clock *Clock, s Stimulus, times []float64) ([]float64, error) {
	out := make([]float64, len(times))
	for i, t := range times {
		if err := clock.Advance(t); err != nil {
			return nil, err
		}
		out[i] = Sample(clock, s)
	}
	return out, nil
}
