package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/simcheck/internal/bounds"
	"github.com/roach88/simcheck/internal/series"
)

// CheckRanges reports every excursion of result outside table.
//
// Each variable present in both gets at most two findings: one for samples
// below Min and one for samples above Max, each listing every offending time.
// Variables the table does not know are skipped. NaN samples never violate.
// The policy decides whether findings are returned or raised; an unknown
// policy fails before any sample is read.
func CheckRanges(result *series.Series, table *bounds.Table, policy Policy) ([]Finding, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var findings []Finding
	times := result.Times()

	for _, name := range result.Names() {
		entry, ok := table.Lookup(name)
		if !ok {
			continue
		}
		values, _ := result.Column(name)

		var below, above []int
		for i, v := range values {
			if v < entry.Min {
				below = append(below, i)
			}
			if v > entry.Max {
				above = append(above, i)
			}
		}

		if len(below) > 0 {
			findings = append(findings, rangeFinding(name, SideBelow, entry.Min, times, below))
		}
		if len(above) > 0 {
			findings = append(findings, rangeFinding(name, SideAbove, entry.Max, times, above))
		}
	}

	return Aggregate(findings, policy)
}

func rangeFinding(name, side string, bound float64, times []float64, idx []int) Finding {
	at := make([]float64, len(idx))
	for i, j := range idx {
		at[i] = times[j]
	}
	b := bounds.FormatBound(bound)
	return Finding{
		Kind:     KindRangeViolation,
		Variable: name,
		Side:     side,
		Bound:    b,
		Times:    at,
		Message: fmt.Sprintf("'%s' %s support %s at %s",
			name, side, b, summarizeLocations(times, idx)),
	}
}

// summarizeLocations renders sample indices compactly: runs of consecutive
// samples collapse to "t=a..b", e.g. "3 samples: t=1..2, t=7".
func summarizeLocations(times []float64, idx []int) string {
	var runs []string
	for start := 0; start < len(idx); {
		end := start
		for end+1 < len(idx) && idx[end+1] == idx[end]+1 {
			end++
		}
		if start == end {
			runs = append(runs, "t="+formatNumber(times[idx[start]]))
		} else {
			runs = append(runs, "t="+formatNumber(times[idx[start]])+".."+formatNumber(times[idx[end]]))
		}
		start = end + 1
	}

	noun := "samples"
	if len(idx) == 1 {
		noun = "sample"
	}
	return fmt.Sprintf("%d %s: %s", len(idx), noun, strings.Join(runs, ", "))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
