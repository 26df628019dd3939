package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/simcheck/internal/bounds"
	"github.com/roach88/simcheck/internal/series"
	"github.com/roach88/simcheck/internal/signal"
	"github.com/roach88/simcheck/internal/tabular"
)

// SignalKinds lists the signals the signal command can trace.
var SignalKinds = []string{"ramp", "step", "pulse", "pulse-train", "normal"}

// SignalOptions holds flags for the signal command.
type SignalOptions struct {
	*RootOptions
	Output string

	// Grid.
	Start float64
	Stop  float64
	Step  float64

	// Signal parameters.
	At       float64
	Until    float64
	Slope    float64
	Height   float64
	Duration float64
	Interval float64
	Min      float64
	Max      float64
	Mean     float64
	Std      float64
	Seed     int64
}

// stimulusFunc adapts a function to signal.Stimulus.
type stimulusFunc func(t float64) float64

func (f stimulusFunc) At(t float64) float64 { return f(t) }

// NewSignalCommand creates the signal command.
func NewSignalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SignalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "signal <ramp|step|pulse|pulse-train|normal>",
		Short: "Trace a test signal over the time grid",
		Long: `Sample a test signal at every time of the grid. Useful to check the
stimulus a model will see before wiring it in.

  ramp         --slope, starts at --at, holds from --until
  step         --height from --at
  pulse        --height for --duration from --at
  pulse-train  unit pulses of --duration every --interval from --at until --until
  normal       seeded normal draws (--mean, --std) kept inside [--min, --max]`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: SignalKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignal(cmd, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Output, "output", "o", "", "write the trace to this file (.xlsx, .csv, .tab)")
	f.Float64Var(&opts.Start, "start", 0, "grid start time")
	f.Float64Var(&opts.Stop, "stop", 0, "grid stop time")
	f.Float64Var(&opts.Step, "step", 0, "grid step")
	f.Float64Var(&opts.At, "at", 0, "time the signal starts")
	f.Float64Var(&opts.Until, "until", signal.NoFinish, "ramp finish or pulse-train stop time")
	f.Float64Var(&opts.Slope, "slope", 1, "ramp slope")
	f.Float64Var(&opts.Height, "height", 1, "step or pulse height")
	f.Float64Var(&opts.Duration, "duration", 1, "pulse width")
	f.Float64Var(&opts.Interval, "interval", 1, "pulse-train repeat interval")
	f.Float64Var(&opts.Min, "min", 0, "normal lower bound")
	f.Float64Var(&opts.Max, "max", 1, "normal upper bound")
	f.Float64Var(&opts.Mean, "mean", 0.5, "normal mean")
	f.Float64Var(&opts.Std, "std", 0.1, "normal standard deviation")
	f.Int64Var(&opts.Seed, "seed", 1, "normal stream seed")

	return cmd
}

func runSignal(cmd *cobra.Command, opts *SignalOptions, kind string) error {
	stim, err := opts.stimulus(kind)
	if err != nil {
		return err
	}

	grid := opts.Config.Grid
	flags := cmd.Flags()
	if flags.Changed("start") {
		grid.Start = opts.Start
	}
	if flags.Changed("stop") {
		grid.Stop = opts.Stop
	}
	if flags.Changed("step") {
		grid.Step = opts.Step
	}
	times, err := signal.Grid(grid.Start, grid.Stop, grid.Step)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid time grid", err)
	}

	values, err := signal.Trace(signal.NewClockAt(grid.Start), stim, times)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to trace signal", err)
	}
	opts.Logger.Debug("signal traced", "kind", kind, "samples", len(values))

	if opts.Output != "" {
		trace := series.New(times)
		if err := trace.Add(kind, values); err != nil {
			return WrapExitError(ExitCommandError, "failed to build trace", err)
		}
		if err := tabular.WriteSeries(opts.Output, trace, tabular.Options{}); err != nil {
			return WrapExitError(ExitCommandError, "failed to write trace", err)
		}
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Emit(map[string]any{"signal": kind, "times": times, "values": values}, 0, "")
	}
	fmt.Fprintf(out.Writer, "time\t%s\n", kind)
	for i, t := range times {
		fmt.Fprintf(out.Writer, "%s\t%s\n", bounds.FormatBound(t), bounds.FormatBound(values[i]))
	}
	return nil
}

func (o *SignalOptions) stimulus(kind string) (signal.Stimulus, error) {
	switch kind {
	case "ramp":
		return signal.RampSignal{Slope: o.Slope, Start: o.At, Finish: o.Until}, nil
	case "step":
		return signal.StepSignal{Height: o.Height, Start: o.At}, nil
	case "pulse":
		return signal.PulseSignal{Start: o.At, Duration: o.Duration, Height: o.Height}, nil
	case "pulse-train":
		train, err := signal.NewTrain(o.At, o.Duration, o.Interval, o.Until)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid pulse train", err)
		}
		return train, nil
	case "normal":
		stream, err := signal.NewBoundedNormal(o.Min, o.Max, o.Mean, o.Std, o.Seed)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid normal signal", err)
		}
		return stimulusFunc(func(float64) float64 { return stream.Next() }), nil
	default:
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("unknown signal %q: must be one of %v", kind, SignalKinds))
	}
}
