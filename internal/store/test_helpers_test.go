package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/simcheck/internal/harness"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a range run with two findings.
func createTestRun(id string, startedAt time.Time) Run {
	return Run{
		ID:        id,
		Kind:      KindRange,
		Subject:   "sir.cue",
		Policy:    harness.PolicyReturn,
		StartedAt: startedAt,
		Rows:      3,
		Findings: []harness.Finding{
			{
				Kind:     harness.KindRangeViolation,
				Variable: "stock",
				Side:     harness.SideBelow,
				Bound:    "0",
				Times:    []float64{0, 0.5},
				Message:  "'stock' below support 0 at 2 samples: t=0..0.5",
			},
			{
				Kind:     harness.KindRangeViolation,
				Variable: "flow",
				Side:     harness.SideAbove,
				Bound:    "10",
				Times:    []float64{2},
				Message:  "'flow' above support 10 at 1 sample: t=2",
			},
		},
	}
}

// verifyPragma fails the test unless pragma name reads expected.
func verifyPragma(t *testing.T, s *Store, name, expected string) {
	t.Helper()
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		t.Fatalf("query %s: %v", name, err)
	}
	if value != expected {
		t.Errorf("%s = %q, expected %q", name, value, expected)
	}
}
