package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/simcheck/internal/bounds"
	"github.com/roach88/simcheck/internal/harness"
	"github.com/roach88/simcheck/internal/model"
	"github.com/roach88/simcheck/internal/store"
	"github.com/roach88/simcheck/internal/tabular"
)

// ScenariosOptions holds flags for the scenarios command.
type ScenariosOptions struct {
	*RootOptions
	Parallel int
	EvalTime float64
	Policy   string
	Sheet    string
	Snapshot string
}

// NewScenariosCommand creates the scenarios command.
func NewScenariosCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenariosOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenarios <model.cue> <matrix>",
		Short: "Run an extreme-condition scenario matrix against a model",
		Long: `Run every row of a scenario matrix on a fresh model instance. Each row
sets one parameter and lists the values expected for other variables; cells
equal to the wildcard are not compared.

Matrices are YAML (.yaml, .yml), spreadsheets (.xlsx) or CSV/TSV files laid
out as Parameter, Value, <variable>... A row that fails to run is reported
and the remaining rows still run.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 0, "rows run at once (default from config)")
	cmd.Flags().Float64Var(&opts.EvalTime, "eval-time", 0, "time at which outputs are compared")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "error policy (raise|return)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "worksheet of an .xlsx matrix")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "write the canonical findings snapshot to this file")

	cmd.AddCommand(NewTemplateCommand(rootOpts))

	return cmd
}

func runScenarios(cmd *cobra.Command, opts *ScenariosOptions, modelPath, matrixPath string) error {
	ctx := cmd.Context()
	policy, err := resolvePolicy(opts.RootOptions, opts.Policy)
	if err != nil {
		return err
	}

	def, err := model.Load(modelPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load model", err)
	}

	m, err := tabular.ReadMatrix(matrixPath, tabular.Options{Sheet: opts.Sheet, Wildcard: opts.Config.Wildcard})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read matrix", err)
	}
	switch {
	case cmd.Flags().Changed("eval-time"):
		m.EvalTime = opts.EvalTime
	case !tabular.IsYAML(matrixPath):
		m.EvalTime = opts.Config.EvalTime
	}

	parallel := opts.Config.Parallelism
	if cmd.Flags().Changed("parallel") {
		parallel = opts.Parallel
	}

	runner := harness.NewRunner(opts.Logger, harness.RunnerOptions{
		Parallelism: parallel,
		Policy:      harness.PolicyReturn,
	})
	startedAt := opts.Now()
	result, err := runner.Run(ctx, m, def.Factory())
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario run failed", err)
	}

	if opts.Snapshot != "" {
		snap, err := harness.Snapshot(m.Name, result.Findings)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to render snapshot", err)
		}
		if err := os.WriteFile(opts.Snapshot, snap, 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write snapshot", err)
		}
	}

	runID, err := opts.record(ctx, store.Run{
		Kind:      store.KindScenarios,
		Subject:   m.Name,
		Policy:    policy,
		StartedAt: startedAt,
		Rows:      len(m.Rows),
		Findings:  result.Findings,
	})
	if err != nil {
		return err
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		if err := out.Emit(result, len(result.Findings), runID); err != nil {
			return err
		}
	} else {
		printOutcomes(out, opts.Verbose, result)
		if runID != "" {
			fmt.Fprintf(out.Writer, "recorded run %s\n", runID)
		}
	}

	if policy == harness.PolicyReturn {
		return nil
	}
	return findingsError(result.Findings)
}

func printOutcomes(out *OutputFormatter, verbose bool, result *harness.MatrixResult) {
	for _, o := range result.Outcomes {
		mark := "✓"
		if !o.Passed() {
			mark = "✗"
		}
		fmt.Fprintf(out.Writer, "%s %s = %s\n", mark, o.Parameter, bounds.FormatBound(o.Value))
		for _, f := range o.Findings {
			fmt.Fprintf(out.Writer, "    %s\n", f.Message)
		}
		if verbose && len(o.Observed) > 0 {
			parts := make([]string, 0, len(o.Observed))
			for _, name := range sortedKeys(o.Observed) {
				parts = append(parts, fmt.Sprintf("%s=%s", name, bounds.FormatBound(o.Observed[name])))
			}
			fmt.Fprintf(out.Writer, "    observed: %s\n", strings.Join(parts, ", "))
		}
	}
	fmt.Fprintf(out.Writer, "\n%d passed, %d failed\n", result.Passed(), result.Failed())
}

// TemplateOptions holds flags for the scenarios template command.
type TemplateOptions struct {
	*RootOptions
	Output string
	Sheet  string
	Name   string
}

// NewTemplateCommand creates the scenarios template command.
func NewTemplateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TemplateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "template <model.cue>",
		Short: "Draft an extreme-condition matrix from a model's bounds",
		Long: `Write a scenario matrix with one row per finite bound of every variable.
All expectations start as wildcards; fill in the ones whose extreme-condition
value is known, then run "simcheck scenarios".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "matrix file to write (.xlsx, .csv, .tab)")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "worksheet name for .xlsx output")
	cmd.Flags().StringVar(&opts.Name, "name", "", "matrix name (default: model name)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runTemplate(cmd *cobra.Command, opts *TemplateOptions, modelPath string) error {
	if tabular.IsYAML(opts.Output) {
		return NewExitError(ExitCommandError, "template output must be .xlsx, .csv or .tab")
	}

	def, err := model.Load(modelPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load model", err)
	}
	table, err := def.Bounds()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build bounds", err)
	}

	name := opts.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
	}
	m := harness.ExtremeConditions(name, table)
	if len(m.Rows) == 0 {
		return WrapExitError(ExitCommandError, "nothing to draft",
			errors.New("need at least two variables and one finite bound"))
	}

	err = tabular.WriteMatrix(opts.Output, m, tabular.Options{Sheet: opts.Sheet, Wildcard: opts.Config.Wildcard})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write matrix", err)
	}
	opts.Logger.Debug("template written", "path", opts.Output, "rows", len(m.Rows))

	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Emit(map[string]any{"path": opts.Output, "rows": len(m.Rows)}, 0, "")
	}
	fmt.Fprintf(out.Writer, "✓ wrote %d scenarios to %s\n", len(m.Rows), opts.Output)
	return nil
}
