package tabular

import (
	"math"

	"github.com/roach88/simcheck/internal/series"
	"github.com/roach88/simcheck/internal/simerr"
)

// SeriesSheet is the default workbook sheet of a result series.
const SeriesSheet = "Results"

// ReadSeries reads a result series: the first column is time, every other
// column a variable. Empty cells read as NaN.
func ReadSeries(path string, opts Options) (*series.Series, error) {
	opts, err := opts.resolve(path, SeriesSheet)
	if err != nil {
		return nil, err
	}
	header, rows, err := readRecords(path, opts)
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, simerr.Parse("tabular.ReadSeries", "%s: header must be time and at least one variable", path)
	}

	times := make([]float64, len(rows))
	columns := make([][]float64, len(header)-1)
	for j := range columns {
		columns[j] = make([]float64, len(rows))
	}
	for i, row := range rows {
		t, err := parseCell(row[0], math.NaN())
		if err != nil || math.IsNaN(t) {
			return nil, simerr.Parse("tabular.ReadSeries", "%s: row %d: invalid time %q", path, i+2, row[0])
		}
		times[i] = t
		for j := range columns {
			v, err := parseCell(row[j+1], math.NaN())
			if err != nil {
				return nil, simerr.Parse("tabular.ReadSeries", "%s: row %d: %s: invalid value %q", path, i+2, header[j+1], row[j+1])
			}
			columns[j][i] = v
		}
	}

	s := series.New(times)
	for j, name := range header[1:] {
		if err := s.Add(name, columns[j]); err != nil {
			return nil, simerr.Wrap(simerr.CodeParse, "tabular.ReadSeries", err)
		}
	}
	return s, nil
}

// WriteSeries writes s with a leading time column.
func WriteSeries(path string, s *series.Series, opts Options) error {
	opts, err := opts.resolve(path, SeriesSheet)
	if err != nil {
		return err
	}

	names := s.Names()
	header := append([]string{"time"}, names...)
	cols := make([][]float64, len(names))
	for j, name := range names {
		cols[j], _ = s.Column(name)
	}

	rows := make([][]any, s.Len())
	for i, t := range s.Times() {
		row := make([]any, len(header))
		row[0] = t
		for j := range names {
			row[j+1] = cols[j][i]
		}
		rows[i] = row
	}
	return writeRecords(path, opts, header, rows)
}
