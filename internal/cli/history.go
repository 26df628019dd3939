package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/simcheck/internal/store"
)

// HistoryOptions holds flags for the history commands.
type HistoryOptions struct {
	*RootOptions
	Kind     string
	Limit    int
	Snapshot bool
}

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect validation runs recorded with --db",
		Long: `Inspect validation runs recorded in the history database. Runs are
recorded by "range" and "scenarios" whenever --db (or the db config key) is
set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only runs of this kind (range|scenarios)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum runs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the findings of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, opts, args[0])
		},
	}
	show.Flags().BoolVar(&opts.Snapshot, "snapshot", false, "print the stored canonical snapshot")

	variable := &cobra.Command{
		Use:   "variable <name>",
		Short: "List every recorded finding about one variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryVariable(cmd, opts, args[0])
		},
	}

	cmd.AddCommand(show, variable)
	return cmd
}

func (o *HistoryOptions) open() (*store.Store, error) {
	if o.Config.DB == "" {
		return nil, NewExitError(ExitCommandError, "no history database: pass --db or set db in config")
	}
	st, err := store.Open(o.Config.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	return st, nil
}

func runHistoryList(cmd *cobra.Command, opts *HistoryOptions) error {
	if opts.Kind != "" && opts.Kind != store.KindRange && opts.Kind != store.KindScenarios {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid kind %q: must be %s or %s", opts.Kind, store.KindRange, store.KindScenarios))
	}
	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Kind, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Emit(runs, 0, "")
	}
	if len(runs) == 0 {
		fmt.Fprintln(out.Writer, "no runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSUBJECT\tSTARTED\tROWS\tFINDINGS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.Kind, r.Subject, r.StartedAt.UTC().Format(time.RFC3339), r.Rows, r.FindingCount)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, opts *HistoryOptions, id string) error {
	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	out := opts.formatter(cmd)
	if opts.Snapshot {
		snap, err := st.Snapshot(cmd.Context(), id)
		if err != nil {
			return historyError(err)
		}
		_, err = fmt.Fprintln(out.Writer, string(snap))
		return err
	}

	run, err := st.GetRun(cmd.Context(), id)
	if err != nil {
		return historyError(err)
	}
	if out.JSON() {
		return out.Emit(map[string]any{
			"id":         run.ID,
			"kind":       run.Kind,
			"subject":    run.Subject,
			"policy":     run.Policy,
			"started_at": run.StartedAt,
			"rows":       run.Rows,
			"findings":   run.Findings,
		}, len(run.Findings), run.ID)
	}
	fmt.Fprintf(out.Writer, "%s run %s of %s at %s (%d rows, policy %s)\n",
		run.Kind, run.ID, run.Subject, run.StartedAt.UTC().Format(time.RFC3339), run.Rows, run.Policy)
	out.Findings(run.Findings)
	return nil
}

func runHistoryVariable(cmd *cobra.Command, opts *HistoryOptions, name string) error {
	st, err := opts.open()
	if err != nil {
		return err
	}
	defer st.Close()

	findings, err := st.VariableHistory(cmd.Context(), name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to query findings", err)
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		return out.Emit(map[string]any{"variable": name, "findings": findings}, len(findings), "")
	}
	out.Findings(findings)
	return nil
}

func historyError(err error) error {
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	return WrapExitError(ExitCommandError, "failed to read run", err)
}
