package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/simcheck/internal/bounds"
	"github.com/roach88/simcheck/internal/harness"
	"github.com/roach88/simcheck/internal/model"
	"github.com/roach88/simcheck/internal/series"
	"github.com/roach88/simcheck/internal/signal"
	"github.com/roach88/simcheck/internal/store"
	"github.com/roach88/simcheck/internal/tabular"
)

// RangeOptions holds flags for the range command.
type RangeOptions struct {
	*RootOptions
	BoundsFile string
	SeriesFile string
	Set        []string
	Policy     string
	Start      float64
	Stop       float64
	Step       float64
}

// NewRangeCommand creates the range command.
func NewRangeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "range <model.cue>",
		Short: "Check that every variable stays inside its documented range",
		Long: `Simulate the model over the time grid and report every variable that
leaves its [min, max] support. Each variable yields at most one finding per
side, listing every time it was out of range.

Bounds come from the model's unit strings unless --bounds names an edited
table. With --series an existing results file is checked instead of
simulating.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRange(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.BoundsFile, "bounds", "", "bounds table (.xlsx, .csv, .tab)")
	cmd.Flags().StringVar(&opts.SeriesFile, "series", "", "check this results file instead of simulating")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "override a parameter (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "error policy (raise|return)")
	cmd.Flags().Float64Var(&opts.Start, "start", 0, "grid start time")
	cmd.Flags().Float64Var(&opts.Stop, "stop", 0, "grid stop time")
	cmd.Flags().Float64Var(&opts.Step, "step", 0, "grid step")

	return cmd
}

func runRange(cmd *cobra.Command, opts *RangeOptions, modelPath string) error {
	ctx := cmd.Context()
	policy, err := resolvePolicy(opts.RootOptions, opts.Policy)
	if err != nil {
		return err
	}

	def, err := model.Load(modelPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load model", err)
	}

	table, err := loadBounds(opts, def)
	if err != nil {
		return err
	}

	result, err := loadSeries(cmd, opts, def)
	if err != nil {
		return err
	}
	opts.Logger.Debug("checking ranges",
		"model", def.Name(), "variables", len(result.Names()), "samples", result.Len())

	startedAt := opts.Now()
	findings, err := harness.CheckRanges(result, table, harness.PolicyReturn)
	if err != nil {
		return WrapExitError(ExitCommandError, "range check failed", err)
	}

	runID, err := opts.record(ctx, store.Run{
		Kind:      store.KindRange,
		Subject:   def.Name(),
		Policy:    policy,
		StartedAt: startedAt,
		Rows:      result.Len(),
		Findings:  findings,
	})
	if err != nil {
		return err
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		data := map[string]any{
			"model":    def.Name(),
			"samples":  result.Len(),
			"findings": findings,
		}
		if err := out.Emit(data, len(findings), runID); err != nil {
			return err
		}
	} else {
		out.Findings(findings)
		if runID != "" {
			fmt.Fprintf(out.Writer, "recorded run %s\n", runID)
		}
	}

	if policy == harness.PolicyReturn {
		return nil
	}
	return findingsError(findings)
}

func loadBounds(opts *RangeOptions, def *model.Definition) (*bounds.Table, error) {
	if opts.BoundsFile == "" {
		table, err := def.Bounds()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to build bounds", err)
		}
		return table, nil
	}
	table, err := tabular.ReadBounds(opts.BoundsFile, tabular.Options{Sheet: opts.Config.BoundsSheet})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read bounds", err)
	}
	return table, nil
}

func loadSeries(cmd *cobra.Command, opts *RangeOptions, def *model.Definition) (*series.Series, error) {
	if opts.SeriesFile != "" {
		if len(opts.Set) > 0 {
			return nil, NewExitError(ExitCommandError, "--set cannot be combined with --series")
		}
		s, err := tabular.ReadSeries(opts.SeriesFile, tabular.Options{})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read series", err)
		}
		return s, nil
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
		return nil, WrapExitError(ExitCommandError, "invalid time grid", err)
	}

	overrides, err := parseOverrides(opts.Set)
	if err != nil {
		return nil, err
	}
	s, err := def.Simulate(cmd.Context(), overrides, nil, times)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "simulation failed", err)
	}
	return s, nil
}

// parseOverrides parses repeated name=value flags. The last value for a name
// wins.
func parseOverrides(pairs []string) (map[string]float64, error) {
	overrides := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid override %q: want name=value", pair))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid override %q: %q is not a number", pair, raw))
		}
		overrides[name] = v
	}
	return overrides, nil
}

// resolvePolicy picks the flag value over the configured one.
func resolvePolicy(opts *RootOptions, flag string) (harness.Policy, error) {
	raw := opts.Config.Policy
	if flag != "" {
		raw = flag
	}
	policy, err := harness.ParsePolicy(raw)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "invalid policy", err)
	}
	return policy, nil
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
