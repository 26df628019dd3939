// Package signal provides the time-domain stimulus primitives a simulation
// engine feeds into a model: ramp, step, pulse, pulse train and a seeded
// bounded-normal random stream.
//
// # Explicit time
//
// Every primitive takes the current simulation time as an argument. There is
// no ambient "current time" global. Engines that own a [Clock] can bind a
// [Stimulus] to it with [Sample]:
//
//	clock := signal.NewClock()
//	train, err := signal.NewTrain(1, 3, 5, 12)
//	if err != nil {
//	    return err
//	}
//	for _, t := range []float64{0, 1, 2} {
//	    if err := clock.Advance(t); err != nil {
//	        return err
//	    }
//	    u := signal.Sample(clock, train)
//	    ...
//	}
//
// # Window semantics
//
// All windows are half-open: a pulse is on for start <= t < start+duration, a
// pulse train is off at t >= stop even mid-pulse, and a step is on at exactly
// t == start.
//
// # Randomness
//
// [BoundedNormal] and [Streams] are deterministic per seed. Out-of-range draws
// are resampled rather than clamped so the distribution keeps its requested
// mean and deviation when the bounds are wide relative to std.
package signal
