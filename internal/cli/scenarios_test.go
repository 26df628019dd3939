package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simcheck/internal/harness"
	"github.com/roach88/simcheck/internal/tabular"
)

const sirMatrixCSV = `Parameter,Value,infected,growth
contact rate,0,0,-
contact rate,1,1000,
population,0,0,-
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScenariosCommand_AllPass(t *testing.T) {
	matrix := writeFile(t, "matrix.csv", sirMatrixCSV)

	out, err := executeCommand(t, nil, "scenarios", sirModel, matrix)
	require.NoError(t, err)
	assert.Equal(t, "✓ contact rate = 0\n✓ contact rate = 1\n✓ population = 0\n\n3 passed, 0 failed\n", out)
}

func TestScenariosCommand_Verbose(t *testing.T) {
	matrix := writeFile(t, "matrix.csv", sirMatrixCSV)

	out, err := executeCommand(t, nil, "-v", "scenarios", sirModel, matrix)
	require.NoError(t, err)
	assert.Contains(t, out, "    observed: growth=0, infected=1000\n")
}

func TestScenariosCommand_Mismatch(t *testing.T) {
	matrix := writeFile(t, "matrix.csv", "Parameter,Value,infected\ncontact rate,1,999\nnope,1,0\ncontact rate,0,0\n")

	out, err := executeCommand(t, nil, "scenarios", sirModel, matrix)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ contact rate = 1\n    When contact rate = 1, infected is 1000 instead of 999\n")
	assert.Contains(t, out, "✗ nope = 1\n    When nope = 1, ")
	assert.Contains(t, out, "✓ contact rate = 0\n")
	assert.Contains(t, out, "1 passed, 2 failed")

	agg, ok := harness.AsAggregate(err)
	require.True(t, ok)
	require.Len(t, agg.Findings, 2)
	assert.Equal(t, harness.KindScenarioMismatch, agg.Findings[0].Kind)
	assert.Equal(t, harness.KindScenarioExecution, agg.Findings[1].Kind)
}

func TestScenariosCommand_YAMLEvalTime(t *testing.T) {
	matrix := writeFile(t, "matrix.yaml", `
name: growth
eval_time: 2
scenarios:
  - parameter: contact rate
    value: 0
    expect:
      growth: 20
`)

	_, err := executeCommand(t, nil, "scenarios", sirModel, matrix)
	require.NoError(t, err)

	// The flag wins over the file.
	out, err := executeCommand(t, nil, "scenarios", sirModel, matrix, "--eval-time", "3", "--policy", "return")
	require.NoError(t, err)
	assert.Contains(t, out, "growth is 30 instead of 20")
}

func TestScenariosCommand_JSONAndSnapshot(t *testing.T) {
	matrix := writeFile(t, "matrix.csv", "Parameter,Value,infected\ncontact rate,1,999\n")
	snapshot := filepath.Join(t.TempDir(), "findings.json")

	out, err := executeCommand(t, nil, "--format", "json", "scenarios", sirModel, matrix,
		"--snapshot", snapshot, "--parallel", "4")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string                `json:"status"`
		Data   harness.MatrixResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "findings", resp.Status)
	assert.Equal(t, "matrix", resp.Data.Name)
	require.Len(t, resp.Data.Findings, 1)

	got, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	want, err := harness.Snapshot("matrix", resp.Data.Findings)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestScenariosCommand_Errors(t *testing.T) {
	valid := writeFile(t, "matrix.csv", sirMatrixCSV)
	invalid := writeFile(t, "bad.csv", "Parameter,Value,infected\ncontact rate,1,lots\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing model", []string{"scenarios", "testdata/none.cue", valid}, "failed to load model"},
		{"bad matrix", []string{"scenarios", sirModel, invalid}, "failed to read matrix"},
		{"bad policy", []string{"scenarios", sirModel, valid, "--policy", "warn"}, "invalid policy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, nil, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTemplateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extremes.csv")

	out, err := executeCommand(t, nil, "scenarios", "template", sirModel, "-o", path)
	require.NoError(t, err)
	assert.Equal(t, "✓ wrote 4 scenarios to "+path+"\n", out)

	m, err := tabular.ReadMatrix(path, tabular.Options{})
	require.NoError(t, err)
	require.Len(t, m.Rows, 4)
	assert.Equal(t, "contact rate", m.Rows[1].Parameter)
	assert.Equal(t, 1.0, m.Rows[1].Value)
	// Columns are the union of every row's variables, so the parameter's
	// own column reads back as a wildcard.
	assert.Equal(t, []string{"population", "infected", "growth", "contact rate"}, m.Rows[1].Variables())
	for _, e := range m.Rows[1].Expect {
		assert.True(t, e.Wildcard, e.Variable)
	}

	// The draft is a runnable matrix.
	out, err = executeCommand(t, nil, "scenarios", sirModel, path, "--policy", "return")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ contact rate = 1\n")
}

func TestTemplateCommand_Errors(t *testing.T) {
	_, err := executeCommand(t, nil, "scenarios", "template", sirModel)
	require.Error(t, err)

	_, err = executeCommand(t, nil, "scenarios", "template", sirModel, "-o", filepath.Join(t.TempDir(), "m.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template output must be")
}
