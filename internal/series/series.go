// Package series holds simulation results: a time index plus named numeric
// columns, one sample per time.
package series

import (
	"fmt"
)

// Series is a time-indexed set of variable trajectories. Every column has
// exactly len(Times) samples. Column order is insertion order.
type Series struct {
	times   []float64
	names   []string
	columns map[string][]float64
}

// New creates a series over the given time index. The slice is copied.
func New(times []float64) *Series {
	return &Series{
		times:   append([]float64(nil), times...),
		columns: make(map[string][]float64),
	}
}

// Add appends a column. The values are copied; a length mismatch or a
// duplicate name is an error.
func (s *Series) Add(name string, values []float64) error {
	if len(values) != len(s.times) {
		return fmt.Errorf("column %q has %d samples, time index has %d", name, len(values), len(s.times))
	}
	if _, dup := s.columns[name]; dup {
		return fmt.Errorf("duplicate column %q", name)
	}
	s.names = append(s.names, name)
	s.columns[name] = append([]float64(nil), values...)
	return nil
}

// Times returns the time index.
func (s *Series) Times() []float64 {
	return s.times
}

// Len returns the number of time samples.
func (s *Series) Len() int {
	return len(s.times)
}

// Names returns the column names in insertion order.
func (s *Series) Names() []string {
	return append([]string(nil), s.names...)
}

// Column returns the samples of a column.
func (s *Series) Column(name string) ([]float64, bool) {
	col, ok := s.columns[name]
	return col, ok
}
