package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/roach88/simcheck/internal/config"
	"github.com/roach88/simcheck/internal/store"
)

// RootOptions holds global flags and the state resolved from them before any
// subcommand runs.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DBPath     string

	// Resolved in PersistentPreRunE.
	Config *config.Config
	Logger *slog.Logger

	// Injected for deterministic tests. Default to the wall clock and UUIDv7.
	Now func() time.Time
	IDs store.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the simcheck CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simcheck",
		Short: "simcheck - validation harness for simulation models",
		Long: `Check simulation models against their documented ranges and against
extreme-condition scenario matrices.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./simcheck.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "record runs in this SQLite database")

	cmd.AddCommand(NewBoundsCommand(opts))
	cmd.AddCommand(NewRangeCommand(opts))
	cmd.AddCommand(NewScenariosCommand(opts))
	cmd.AddCommand(NewSignalCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// resolve loads config and applies flag precedence: flag > env > file >
// default.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, path, err := config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: o.ConfigPath})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if !slices.Contains(ValidFormats, cfg.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	o.Format = cfg.Format
	if flags.Changed("db") {
		cfg.DB = o.DBPath
	}
	o.Config = cfg

	o.Logger = newLogger(cmd.ErrOrStderr(), o.Verbose)
	if path != "" {
		o.Logger.Debug("config loaded", "path", path)
	}

	if o.Now == nil {
		o.Now = time.Now
	}
	if o.IDs == nil {
		o.IDs = store.UUIDv7Generator{}
	}
	return nil
}

// newLogger routes slog through a charmbracelet/log handler. Verbose mode
// shows debug records; otherwise only warnings and errors are printed.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Prefix: "simcheck",
		Level:  level,
	})
	return slog.New(handler)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// record stores a run when a database is configured and returns its ID.
func (o *RootOptions) record(ctx context.Context, run store.Run) (string, error) {
	if o.Config.DB == "" {
		return "", nil
	}
	st, err := store.Open(o.Config.DB)
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer st.Close()

	run.ID = o.IDs.Generate()
	if err := st.RecordRun(ctx, run); err != nil {
		return "", WrapExitError(ExitCommandError, "failed to record run", err)
	}
	o.Logger.Debug("run recorded", "id", run.ID, "db", o.Config.DB)
	return run.ID, nil
}
