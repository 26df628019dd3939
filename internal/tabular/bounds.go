package tabular

import (
	"math"
	"strings"

	"github.com/roach88/simcheck/internal/bounds"
	"github.com/roach88/simcheck/internal/simerr"
)

// BoundsSheet is the default workbook sheet of a bounds table.
const BoundsSheet = "Bounds"

// BoundsHeader is the column layout of a bounds file.
var BoundsHeader = []string{"Real Name", "Comment", "Unit", "Min", "Max"}

// WriteBounds writes table in BoundsHeader layout. Open bounds are written
// as -inf and +inf.
func WriteBounds(path string, table *bounds.Table, opts Options) error {
	opts, err := opts.resolve(path, BoundsSheet)
	if err != nil {
		return err
	}

	entries := table.Entries()
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.Name, e.Comment, e.Unit, e.Min, e.Max}
	}
	return writeRecords(path, opts, BoundsHeader, rows)
}

// ReadBounds reads a bounds table. Columns are located by header name;
// Real Name, Min and Max are required. Empty and "?" bounds are open.
func ReadBounds(path string, opts Options) (*bounds.Table, error) {
	opts, err := opts.resolve(path, BoundsSheet)
	if err != nil {
		return nil, err
	}
	header, rows, err := readRecords(path, opts)
	if err != nil {
		return nil, err
	}

	cols := columnIndex(header)
	name, okName := cols["real name"]
	lo, okMin := cols["min"]
	hi, okMax := cols["max"]
	if !okName || !okMin || !okMax {
		return nil, simerr.Parse("tabular.ReadBounds",
			"%s: header must contain Real Name, Min and Max (got %s)", path, strings.Join(header, ", "))
	}
	comment, hasComment := cols["comment"]
	unit, hasUnit := cols["unit"]

	table := bounds.NewTable()
	for i, row := range rows {
		e := bounds.Entry{Name: strings.TrimSpace(row[name])}
		if hasComment {
			e.Comment = row[comment]
		}
		if hasUnit {
			e.Unit = row[unit]
		}
		if e.Min, err = readBound(row[lo], math.Inf(-1)); err != nil {
			return nil, simerr.Parse("tabular.ReadBounds", "%s: row %d: %q: invalid Min %q", path, i+2, e.Name, row[lo])
		}
		if e.Max, err = readBound(row[hi], math.Inf(1)); err != nil {
			return nil, simerr.Parse("tabular.ReadBounds", "%s: row %d: %q: invalid Max %q", path, i+2, e.Name, row[hi])
		}
		if err := table.Add(e); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func readBound(cell string, open float64) (float64, error) {
	if strings.TrimSpace(cell) == bounds.Placeholder {
		return open, nil
	}
	v, err := parseCell(cell, open)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, simerr.Parse("tabular.ReadBounds", "NaN bound")
	}
	return v, nil
}
