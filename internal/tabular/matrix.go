package tabular

import (
	"path/filepath"
	"strings"

	"github.com/roach88/simcheck/internal/harness"
	"github.com/roach88/simcheck/internal/simerr"
)

// MatrixSheet is the default workbook sheet of a scenario matrix.
const MatrixSheet = "Scenarios"

// IsYAML reports whether path names a YAML matrix.
func IsYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ReadMatrix reads a scenario matrix. YAML files go through
// harness.LoadMatrix; tabular files use the layout
//
//	Parameter, Value, <variable>, <variable>, ...
//
// with one scenario per row. A cell equal to the wildcard, or an empty cell,
// is not compared.
func ReadMatrix(path string, opts Options) (*harness.Matrix, error) {
	if IsYAML(path) {
		return harness.LoadMatrix(path)
	}

	opts, err := opts.resolve(path, MatrixSheet)
	if err != nil {
		return nil, err
	}
	wildcard := opts.Wildcard
	if wildcard == "" {
		wildcard = harness.DefaultWildcard
	}

	header, rows, err := readRecords(path, opts)
	if err != nil {
		return nil, err
	}
	if len(header) < 3 {
		return nil, simerr.Parse("tabular.ReadMatrix",
			"%s: header must be Parameter, Value and at least one variable", path)
	}
	vars := header[2:]

	m := &harness.Matrix{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Rows: make([]harness.ScenarioRow, 0, len(rows)),
	}
	for i, row := range rows {
		value, err := parseCell(row[1], 0)
		if err != nil || strings.TrimSpace(row[1]) == "" {
			return nil, simerr.Parse("tabular.ReadMatrix", "%s: row %d: invalid parameter value %q", path, i+2, row[1])
		}
		sr := harness.ScenarioRow{Parameter: strings.TrimSpace(row[0]), Value: value}
		for j, name := range vars {
			cell := strings.TrimSpace(row[j+2])
			if cell == "" {
				cell = wildcard
			}
			e, err := harness.ParseExpectation(name, cell, wildcard)
			if err != nil {
				return nil, simerr.Parse("tabular.ReadMatrix", "%s: row %d: %v", path, i+2, err)
			}
			sr.Expect = append(sr.Expect, e)
		}
		m.Rows = append(m.Rows, sr)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteMatrix writes m in the tabular layout. Variables form the union of
// every row's expectations in first-seen order.
func WriteMatrix(path string, m *harness.Matrix, opts Options) error {
	opts, err := opts.resolve(path, MatrixSheet)
	if err != nil {
		return err
	}
	wildcard := opts.Wildcard
	if wildcard == "" {
		wildcard = harness.DefaultWildcard
	}

	var vars []string
	col := make(map[string]int)
	for _, row := range m.Rows {
		for _, e := range row.Expect {
			if _, ok := col[e.Variable]; !ok {
				col[e.Variable] = len(vars)
				vars = append(vars, e.Variable)
			}
		}
	}

	header := append([]string{"Parameter", "Value"}, vars...)
	rows := make([][]any, len(m.Rows))
	for i, row := range m.Rows {
		cells := make([]any, len(header))
		cells[0] = row.Parameter
		cells[1] = row.Value
		for j := range vars {
			cells[j+2] = ""
		}
		for _, e := range row.Expect {
			if e.Wildcard {
				cells[col[e.Variable]+2] = wildcard
			} else {
				cells[col[e.Variable]+2] = e.Value
			}
		}
		rows[i] = cells
	}
	return writeRecords(path, opts, header, rows)
}
