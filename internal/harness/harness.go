package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/simcheck/internal/simerr"
)

// Model is one executable instance of a simulation model.
type Model interface {
	// Run applies overrides, evaluates the model at time at and returns the
	// value of every requested variable.
	Run(ctx context.Context, overrides map[string]float64, vars []string, at float64) (map[string]float64, error)
}

// Factory produces a fresh Model. The runner calls it once per scenario row
// so no state leaks between rows.
type Factory func() (Model, error)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Parallelism is the maximum number of rows executed at once. Values
	// below 2 run rows sequentially.
	Parallelism int

	// Policy decides whether findings are raised as an *AggregateError at
	// the end of Run. Defaults to PolicyRaise.
	Policy Policy
}

// Runner executes scenario matrices.
type Runner struct {
	logger *slog.Logger
	opts   RunnerOptions
}

// NewRunner creates a Runner. A nil logger discards output.
func NewRunner(logger *slog.Logger, opts RunnerOptions) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Policy == "" {
		opts.Policy = PolicyRaise
	}
	return &Runner{logger: logger, opts: opts}
}

// ScenarioOutcome is the result of one scenario row.
type ScenarioOutcome struct {
	Index     int                `json:"index"`
	Parameter string             `json:"parameter"`
	Value     float64            `json:"value"`
	Observed  map[string]float64 `json:"-"`
	Findings  []Finding          `json:"findings,omitempty"`
}

// Passed reports whether the row produced no findings.
func (o ScenarioOutcome) Passed() bool {
	return len(o.Findings) == 0
}

// MatrixResult collects the outcome of every row of a matrix.
type MatrixResult struct {
	Name     string            `json:"name"`
	Outcomes []ScenarioOutcome `json:"outcomes"`

	// Findings is every row's findings flattened in matrix row order.
	Findings []Finding `json:"findings"`
}

// Passed returns the number of rows without findings.
func (r *MatrixResult) Passed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Passed() {
			n++
		}
	}
	return n
}

// Failed returns the number of rows with at least one finding.
func (r *MatrixResult) Failed() int {
	return len(r.Outcomes) - r.Passed()
}

// Run executes every row of m against fresh models from factory.
//
// A row that fails to instantiate, errors or panics contributes exactly one
// execution finding and never stops the remaining rows. The returned result
// is always complete. Under PolicyRaise a non-empty finding list is also
// returned as an *AggregateError.
func (r *Runner) Run(ctx context.Context, m *Matrix, factory Factory) (*MatrixResult, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matrix: %w", err)
	}
	if factory == nil {
		return nil, fmt.Errorf("model factory is required")
	}
	if err := r.opts.Policy.Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]ScenarioOutcome, len(m.Rows))
	for i, row := range m.Rows {
		outcomes[i] = ScenarioOutcome{Index: i, Parameter: row.Parameter, Value: row.Value}
	}

	if r.opts.Parallelism > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Parallelism)
		for i := range m.Rows {
			i := i
			g.Go(func() error {
				r.runRow(gctx, m, i, factory, &outcomes[i])
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range m.Rows {
			r.runRow(ctx, m, i, factory, &outcomes[i])
		}
	}

	result := &MatrixResult{Name: m.Name, Outcomes: outcomes}
	for _, o := range outcomes {
		result.Findings = append(result.Findings, o.Findings...)
	}

	r.logger.Info("scenario matrix completed",
		"matrix", m.Name,
		"rows", len(outcomes),
		"passed", result.Passed(),
		"findings", len(result.Findings),
	)

	findings, err := Aggregate(result.Findings, r.opts.Policy)
	if err != nil {
		return result, err
	}
	result.Findings = findings
	return result, nil
}

func (r *Runner) runRow(ctx context.Context, m *Matrix, i int, factory Factory, out *ScenarioOutcome) {
	row := m.Rows[i]

	if err := ctx.Err(); err != nil {
		out.Findings = []Finding{executionFinding(row, simerr.ScenarioExecution("harness.Runner", fmt.Errorf("not run: %w", err)))}
		return
	}

	observed, err := execute(ctx, row, m.EvalTime, factory)
	if err != nil {
		r.logger.Warn("scenario execution failed",
			"row", i,
			"parameter", row.Parameter,
			"value", row.Value,
			"error", err,
		)
		out.Findings = []Finding{executionFinding(row, err)}
		return
	}
	out.Observed = observed

	for _, e := range row.Expect {
		if e.Wildcard {
			continue
		}
		got, ok := observed[e.Variable]
		if !ok {
			out.Findings = append(out.Findings, mismatchFinding(row, e.Variable, "missing", formatNumber(e.Value)))
			continue
		}
		if got != e.Value {
			out.Findings = append(out.Findings, mismatchFinding(row, e.Variable, formatNumber(got), formatNumber(e.Value)))
		}
	}

	r.logger.Debug("scenario row completed",
		"row", i,
		"parameter", row.Parameter,
		"value", row.Value,
		"findings", len(out.Findings),
	)
}

// execute instantiates and runs one model. Failures and panics come back as
// scenario execution errors.
func execute(ctx context.Context, row ScenarioRow, at float64, factory Factory) (observed map[string]float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			observed, err = nil, fmt.Errorf("panic: %v", p)
		}
		if err != nil {
			err = simerr.ScenarioExecution("harness.Runner", err)
		}
	}()

	model, err := factory()
	if err != nil {
		return nil, err
	}
	return model.Run(ctx, map[string]float64{row.Parameter: row.Value}, row.Variables(), at)
}

func mismatchFinding(row ScenarioRow, variable, observed, expected string) Finding {
	value := formatNumber(row.Value)
	return Finding{
		Kind:      KindScenarioMismatch,
		Variable:  variable,
		Parameter: row.Parameter,
		Value:     value,
		Expected:  expected,
		Observed:  observed,
		Message: fmt.Sprintf("When %s = %s, %s is %s instead of %s",
			row.Parameter, value, variable, observed, expected),
	}
}

// executionFinding reports the cause of a scenario execution error; the
// finding kind already carries the code.
func executionFinding(row ScenarioRow, err error) Finding {
	var se *simerr.Error
	if errors.As(err, &se) && se.Code == simerr.CodeScenarioExecution && se.Err != nil {
		err = se.Err
	}
	value := formatNumber(row.Value)
	return Finding{
		Kind:      KindScenarioExecution,
		Parameter: row.Parameter,
		Value:     value,
		Message:   fmt.Sprintf("When %s = %s, %s", row.Parameter, value, err),
	}
}
