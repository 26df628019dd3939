package harness

import (
	"math"

	"github.com/roach88/simcheck/internal/bounds"
)

// ExtremeConditions drafts a scenario matrix that pushes every bounded
// variable to each finite end of its range. Expectations for the other
// variables start as wildcards; the modeller replaces the ones that have a
// known extreme-condition answer.
//
// Variables without a finite bound produce no rows. Returns an empty matrix
// when the table has fewer than two variables.
func ExtremeConditions(name string, table *bounds.Table) *Matrix {
	entries := table.Entries()
	m := &Matrix{Name: name}
	if len(entries) < 2 {
		return m
	}

	for i, param := range entries {
		for _, v := range extremes(param) {
			row := ScenarioRow{Parameter: param.Name, Value: v}
			for j, other := range entries {
				if j == i {
					continue
				}
				row.Expect = append(row.Expect, Expectation{Variable: other.Name, Wildcard: true})
			}
			m.Rows = append(m.Rows, row)
		}
	}
	return m
}

func extremes(e bounds.Entry) []float64 {
	var out []float64
	if !math.IsInf(e.Min, 0) {
		out = append(out, e.Min)
	}
	if !math.IsInf(e.Max, 0) && e.Max != e.Min {
		out = append(out, e.Max)
	}
	return out
}
