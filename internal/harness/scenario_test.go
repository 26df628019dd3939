package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simcheck/internal/simerr"
)

func TestParseMatrix_Valid(t *testing.T) {
	yaml := `
name: sir_extremes
description: "Extreme-condition checks"
eval_time: 0
scenarios:
  - parameter: contact rate
    value: 0
    expect:
      infected: 0
      recovered: "-"
  - parameter: recovery time
    value: 1e6
    expect:
      recovered: 0
      infected: 1000
`
	m, err := ParseMatrix([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "sir_extremes", m.Name)
	assert.Equal(t, "Extreme-condition checks", m.Description)
	assert.Equal(t, 0.0, m.EvalTime)
	require.Len(t, m.Rows, 2)

	assert.Equal(t, "contact rate", m.Rows[0].Parameter)
	assert.Equal(t, 0.0, m.Rows[0].Value)
	assert.Equal(t, []Expectation{
		{Variable: "infected", Value: 0},
		{Variable: "recovered", Wildcard: true},
	}, m.Rows[0].Expect)

	// Expectations keep file order, not alphabetical order.
	assert.Equal(t, []string{"recovered", "infected"}, m.Rows[1].Variables())
	assert.Equal(t, 1e6, m.Rows[1].Value)
}

func TestParseMatrix_CustomWildcard(t *testing.T) {
	yaml := `
name: custom
wildcard: "*"
scenarios:
  - parameter: p
    value: 1
    expect:
      a: "*"
      b: "-1"
`
	m, err := ParseMatrix([]byte(yaml))
	require.NoError(t, err)
	assert.True(t, m.Rows[0].Expect[0].Wildcard)
	assert.False(t, m.Rows[0].Expect[1].Wildcard)
	assert.Equal(t, -1.0, m.Rows[0].Expect[1].Value)
}

func TestParseMatrix_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\nscenarioz: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "no scenarios",
			yaml:    "name: x\nscenarios: []\n",
			wantErr: "scenario list is required",
		},
		{
			name:    "missing parameter",
			yaml:    "scenarios:\n  - value: 1\n    expect: {a: 1}\n",
			wantErr: "parameter is required",
		},
		{
			name:    "missing value",
			yaml:    "scenarios:\n  - parameter: p\n    expect: {a: 1}\n",
			wantErr: "value is required",
		},
		{
			name:    "missing expect",
			yaml:    "scenarios:\n  - parameter: p\n    value: 1\n",
			wantErr: "expect is required",
		},
		{
			name:    "expect not a mapping",
			yaml:    "scenarios:\n  - parameter: p\n    value: 1\n    expect: [1, 2]\n",
			wantErr: "expect must be a mapping",
		},
		{
			name:    "non numeric expectation",
			yaml:    "scenarios:\n  - parameter: p\n    value: 1\n    expect: {a: lots}\n",
			wantErr: `expected value "lots" is neither a number nor the wildcard "-"`,
		},
		{
			name:    "duplicate variable",
			yaml:    "scenarios:\n  - parameter: p\n    value: 1\n    expect:\n      a: 1\n      \" a\": 2\n",
			wantErr: `variable " a" listed twice`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMatrix([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseExpectation(t *testing.T) {
	e, err := ParseExpectation("x", "-", DefaultWildcard)
	require.NoError(t, err)
	assert.True(t, e.Wildcard)

	e, err = ParseExpectation("x", " 2.5 ", DefaultWildcard)
	require.NoError(t, err)
	assert.Equal(t, Expectation{Variable: "x", Value: 2.5}, e)

	_, err = ParseExpectation("x", "abc", DefaultWildcard)
	require.Error(t, err)
	assert.True(t, simerr.IsParse(err))
}

func TestLoadMatrix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix.yaml")
	content := "name: file\nscenarios:\n  - parameter: p\n    value: 2\n    expect: {y: 4}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, err := LoadMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, "file", m.Name)
	assert.Equal(t, 2.0, m.Rows[0].Value)

	_, err = LoadMatrix(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read matrix file")
}

func TestMatrixValidate_EmptyVariable(t *testing.T) {
	m := &Matrix{Rows: []ScenarioRow{
		{Parameter: "p", Value: 1, Expect: []Expectation{{Variable: "  "}}},
	}}
	err := m.Validate()
	require.Error(t, err)
	assert.True(t, simerr.IsConfiguration(err))
}
