// Package harness validates simulation model output.
//
// Two validators share one reporting model:
//
//   - CheckRanges compares a result series against a bounds.Table and
//     reports at most one below-range and one above-range finding per
//     variable.
//   - Runner executes a scenario Matrix: each row overrides one parameter
//     on a fresh model and compares outputs with expected values.
//
// Every recoverable failure is a Finding. A Policy decides whether findings
// are returned or raised as a single *AggregateError.
//
// # Scenario Format
//
// Matrices are YAML files with the following structure:
//
//	name: sir_extremes
//	description: "Extreme-condition checks"
//	eval_time: 0
//	wildcard: "-"
//	scenarios:
//	  - parameter: contact rate
//	    value: 0
//	    expect:
//	      infected: 0
//	      recovered: "-"
//
// Cells equal to the wildcard are never compared. Spreadsheet and CSV
// matrices are read by package tabular. ExtremeConditions drafts a matrix
// from a bounds table for the modeller to fill in.
//
// # Usage
//
//	m, err := harness.LoadMatrix("testdata/sir.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	runner := harness.NewRunner(logger, harness.RunnerOptions{})
//	result, err := runner.Run(ctx, m, def.Factory())
//	if agg, ok := harness.AsAggregate(err); ok {
//	    for _, f := range agg.Findings {
//	        log.Println(f)
//	    }
//	}
package harness
