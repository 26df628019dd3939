package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simcheck/internal/harness"
	"github.com/roach88/simcheck/internal/simerr"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, path, err := Load(context.Background(), LoadOptions{SearchDir: t.TempDir()})
	require.NoError(t, err)

	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, harness.PolicyRaise, cfg.ErrorPolicy())
}

func TestLoad_SearchDirFile(t *testing.T) {
	dir := t.TempDir()
	content := `
format: json
policy: return
wildcard: "*"
eval_time: 5
parallelism: 4
db: history.db
grid:
  stop: 100
  step: 0.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	cfg, path, err := Load(context.Background(), LoadOptions{SearchDir: dir})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, FileName), path)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, harness.PolicyReturn, cfg.ErrorPolicy())
	assert.Equal(t, "*", cfg.Wildcard)
	assert.Equal(t, 5.0, cfg.EvalTime)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "history.db", cfg.DB)
	assert.Equal(t, GridConfig{Start: 0, Stop: 100, Step: 0.5}, cfg.Grid)
	assert.Equal(t, "Bounds", cfg.BoundsSheet)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("policy: return\n"), 0644))
	t.Setenv("SIMCHECK_POLICY", "raise")
	t.Setenv("SIMCHECK_GRID_STEP", "0.25")

	cfg, _, err := Load(context.Background(), LoadOptions{SearchDir: dir})
	require.NoError(t, err)
	assert.Equal(t, harness.PolicyRaise, cfg.ErrorPolicy())
	assert.Equal(t, 0.25, cfg.Grid.Step)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, _, err := Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "none.yaml")})
	require.Error(t, err)
	assert.True(t, simerr.IsConfiguration(err))
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad policy", "policy: warn\n", `unknown error policy "warn"`},
		{"bad format", "format: xml\n", "format must be text or json"},
		{"zero parallelism", "parallelism: 0\n", "parallelism must be at least 1"},
		{"bad grid", "grid: {start: 5, stop: 1}\n", "grid must have"},
		{"malformed yaml", "policy: [\n", "CONFIGURATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "custom.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, _, err := Load(context.Background(), LoadOptions{ConfigFilePath: path})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Load(ctx, LoadOptions{})
	require.ErrorIs(t, err, context.Canceled)
}
