package bounds

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/simcheck/internal/simerr"
)

// Placeholder marks an open side of a range annotation.
const Placeholder = "?"

// VarDoc is the documentation of one model variable as exposed by a model
// artifact.
type VarDoc struct {
	Name    string `json:"name"`
	Comment string `json:"comment"`
	Unit    string `json:"unit"`
}

// Build derives a bounds table from variable documentation.
// The docs slice is read only; the first malformed annotation aborts the call.
func Build(docs []VarDoc) (*Table, error) {
	table := NewTable()
	for _, doc := range docs {
		min, max, err := ParseUnit(doc.Unit)
		if err != nil {
			return nil, simerr.Parse("bounds.Build", "variable %q: %v", doc.Name, err)
		}
		entry := Entry{
			Name:    doc.Name,
			Comment: doc.Comment,
			Unit:    doc.Unit,
			Min:     min,
			Max:     max,
		}
		if err := table.Add(entry); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// ParseUnit extracts the range from a unit string such as "widgets [?, 100]".
//
// Everything after the first '[' is the range. Without a bracket the range is
// (-Inf, +Inf). An empty side or the placeholder "?" is open. An optional
// third element (the Vensim increment) must be numeric and is ignored.
func ParseUnit(unit string) (min, max float64, err error) {
	_, rangePart, found := strings.Cut(unit, "[")
	if !found {
		return math.Inf(-1), math.Inf(1), nil
	}

	rangePart = strings.TrimSpace(rangePart)
	if !strings.HasSuffix(rangePart, "]") {
		return 0, 0, simerr.Parse("bounds.ParseUnit", "unterminated range in %q", unit)
	}
	parts := strings.Split(strings.TrimSuffix(rangePart, "]"), ",")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, simerr.Parse("bounds.ParseUnit",
			"range in %q must have 2 or 3 elements, got %d", unit, len(parts))
	}

	if min, err = parseBound(parts[0], math.Inf(-1)); err != nil {
		return 0, 0, err
	}
	if max, err = parseBound(parts[1], math.Inf(1)); err != nil {
		return 0, 0, err
	}
	if len(parts) == 3 {
		if _, err := parseBound(parts[2], 0); err != nil {
			return 0, 0, err
		}
	}
	if min > max {
		return 0, 0, simerr.Parse("bounds.ParseUnit",
			"min %s is greater than max %s in %q", FormatBound(min), FormatBound(max), unit)
	}
	return min, max, nil
}

func parseBound(token string, open float64) (float64, error) {
	token = strings.TrimSpace(token)
	if token == "" || token == Placeholder {
		return open, nil
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) {
		return 0, simerr.Parse("bounds.ParseUnit", "bound %q is neither a number nor %q", token, Placeholder)
	}
	return v, nil
}

// FormatBound renders a bound the way tables and findings print it:
// "-inf", "+inf" or the shortest exact decimal.
func FormatBound(v float64) string {
	switch {
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsInf(v, 1):
		return "+inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}
