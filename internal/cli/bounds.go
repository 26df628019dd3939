package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/simcheck/internal/bounds"
	"github.com/roach88/simcheck/internal/model"
	"github.com/roach88/simcheck/internal/tabular"
)

// BoundsOptions holds flags for the bounds command.
type BoundsOptions struct {
	*RootOptions
	Output string
	Sheet  string
}

// boundsEntry is the JSON rendering of one bounds row. Bounds are text so
// open ends ("-inf", "+inf") survive encoding.
type boundsEntry struct {
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
	Unit    string `json:"unit,omitempty"`
	Min     string `json:"min"`
	Max     string `json:"max"`
}

// NewBoundsCommand creates the bounds command.
func NewBoundsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BoundsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bounds <model.cue>",
		Short: "Build the bounds table from a model's unit strings",
		Long: `Build the bounds table from the "[low, high]" annotations in each
variable's unit. "?" marks an open end.

With --output the table is written as a spreadsheet (.xlsx), CSV (.csv) or
tab-separated (.tab, .tsv) file, ready to be edited and passed to
"simcheck range --bounds".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBounds(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the table to this file")
	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "worksheet name for .xlsx output")

	return cmd
}

func runBounds(cmd *cobra.Command, opts *BoundsOptions, modelPath string) error {
	def, err := model.Load(modelPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load model", err)
	}
	table, err := def.Bounds()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build bounds", err)
	}
	opts.Logger.Debug("bounds built", "model", def.Name(), "variables", table.Len())

	if opts.Output != "" {
		sheet := opts.Sheet
		if sheet == "" {
			sheet = opts.Config.BoundsSheet
		}
		if err := tabular.WriteBounds(opts.Output, table, tabular.Options{Sheet: sheet}); err != nil {
			return WrapExitError(ExitCommandError, "failed to write bounds", err)
		}
	}

	out := opts.formatter(cmd)
	if out.JSON() {
		entries := make([]boundsEntry, 0, table.Len())
		for _, e := range table.Entries() {
			entries = append(entries, boundsEntry{
				Name:    e.Name,
				Comment: e.Comment,
				Unit:    e.Unit,
				Min:     bounds.FormatBound(e.Min),
				Max:     bounds.FormatBound(e.Max),
			})
		}
		return out.Emit(map[string]any{"model": def.Name(), "bounds": entries}, 0, "")
	}

	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMIN\tMAX\tUNIT")
	for _, e := range table.Entries() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, bounds.FormatBound(e.Min), bounds.FormatBound(e.Max), e.Unit)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if opts.Output != "" {
		fmt.Fprintf(out.Writer, "✓ wrote %d bounds to %s\n", table.Len(), opts.Output)
	}
	return nil
}
