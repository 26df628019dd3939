package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/simcheck/internal/canon"
)

// Snapshot renders findings as canonical JSON. Equal finding lists always
// produce byte-identical snapshots, which makes them safe to store and diff.
func Snapshot(name string, findings []Finding) ([]byte, error) {
	list := make([]any, len(findings))
	for i, f := range findings {
		list[i] = findingMap(f)
	}
	return canon.Marshal(map[string]any{
		"name":     name,
		"count":    len(findings),
		"findings": list,
	})
}

func findingMap(f Finding) map[string]any {
	m := map[string]any{
		"kind":    string(f.Kind),
		"message": f.Message,
	}
	if f.Variable != "" {
		m["variable"] = f.Variable
	}
	if f.Side != "" {
		m["side"] = f.Side
		m["bound"] = f.Bound
	}
	if len(f.Times) > 0 {
		times := make([]string, len(f.Times))
		for i, t := range f.Times {
			times[i] = formatNumber(t)
		}
		m["times"] = times
	}
	if f.Parameter != "" {
		m["parameter"] = f.Parameter
		m["value"] = f.Value
	}
	if f.Expected != "" {
		m["expected"] = f.Expected
		m["observed"] = f.Observed
	}
	return m
}

// AssertGolden compares the snapshot of findings against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, findings []Finding) {
	t.Helper()

	data, err := Snapshot(name, findings)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
