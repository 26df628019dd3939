package harness

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/simcheck/internal/bounds"
	"github.com/roach88/simcheck/internal/simerr"
)

// DefaultWildcard is the expected-value cell meaning "do not check".
const DefaultWildcard = "-"

// Expectation is one expected output of a scenario.
type Expectation struct {
	Variable string
	Value    float64

	// Wildcard marks a "don't care" cell. Value is meaningless when set and
	// is never compared.
	Wildcard bool
}

// ScenarioRow assigns one parameter and lists the outputs it should produce.
type ScenarioRow struct {
	Parameter string
	Value     float64
	Expect    []Expectation
}

// Variables returns every variable the row mentions, wildcards included, in
// row order. These are the outputs requested from the model.
func (r ScenarioRow) Variables() []string {
	vars := make([]string, len(r.Expect))
	for i, e := range r.Expect {
		vars[i] = e.Variable
	}
	return vars
}

// Matrix is an ordered set of independently executable scenarios.
type Matrix struct {
	Name        string
	Description string

	// EvalTime is the single instant at which every scenario reads its
	// outputs.
	EvalTime float64

	Rows []ScenarioRow
}

// Validate checks structural requirements: every row names a parameter and
// has at least one uniquely named expectation.
func (m *Matrix) Validate() error {
	if len(m.Rows) == 0 {
		return simerr.Configuration("harness.Matrix.Validate", "scenario list is required and must be non-empty")
	}
	for i, row := range m.Rows {
		if row.Parameter == "" {
			return simerr.Configuration("harness.Matrix.Validate", "scenarios[%d]: parameter is required", i)
		}
		if len(row.Expect) == 0 {
			return simerr.Configuration("harness.Matrix.Validate", "scenarios[%d]: expect is required and must be non-empty", i)
		}
		seen := make(map[string]bool, len(row.Expect))
		for _, e := range row.Expect {
			key := bounds.Key(e.Variable)
			if key == "" {
				return simerr.Configuration("harness.Matrix.Validate", "scenarios[%d]: empty variable name", i)
			}
			if seen[key] {
				return simerr.Configuration("harness.Matrix.Validate", "scenarios[%d]: variable %q listed twice", i, e.Variable)
			}
			seen[key] = true
		}
	}
	return nil
}

// matrixFile is the YAML layout of a scenario matrix:
//
//	name: sir_extremes
//	description: "Extreme-condition checks"
//	eval_time: 0
//	wildcard: "-"
//	scenarios:
//	  - parameter: contact rate
//	    value: 0
//	    expect:
//	      infected: 0
//	      recovered: "-"
type matrixFile struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	EvalTime    float64        `yaml:"eval_time"`
	Wildcard    string         `yaml:"wildcard,omitempty"`
	Scenarios   []scenarioFile `yaml:"scenarios"`
}

type scenarioFile struct {
	Parameter string    `yaml:"parameter"`
	Value     *float64  `yaml:"value"`
	Expect    yaml.Node `yaml:"expect"`
}

// LoadMatrix reads and parses a YAML scenario matrix.
func LoadMatrix(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix file: %w", err)
	}
	return ParseMatrix(data)
}

// ParseMatrix parses a YAML scenario matrix. Unknown fields are rejected so
// typos surface as errors. Expectations keep file order.
func ParseMatrix(data []byte) (*Matrix, error) {
	var file matrixFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, simerr.Wrap(simerr.CodeParse, "harness.ParseMatrix", fmt.Errorf("failed to parse YAML: %w", err))
	}

	wildcard := file.Wildcard
	if wildcard == "" {
		wildcard = DefaultWildcard
	}

	m := &Matrix{
		Name:        file.Name,
		Description: file.Description,
		EvalTime:    file.EvalTime,
		Rows:        make([]ScenarioRow, 0, len(file.Scenarios)),
	}
	for i, sc := range file.Scenarios {
		if sc.Value == nil {
			return nil, simerr.Configuration("harness.ParseMatrix", "scenarios[%d]: value is required", i)
		}
		expect, err := parseExpectations(&sc.Expect, wildcard)
		if err != nil {
			return nil, fmt.Errorf("scenarios[%d]: %w", i, err)
		}
		m.Rows = append(m.Rows, ScenarioRow{
			Parameter: sc.Parameter,
			Value:     *sc.Value,
			Expect:    expect,
		})
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matrix: %w", err)
	}
	return m, nil
}

func parseExpectations(node *yaml.Node, wildcard string) ([]Expectation, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, simerr.Parse("harness.ParseMatrix", "line %d: expect must be a mapping", node.Line)
	}

	expect := make([]Expectation, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		e, err := ParseExpectation(key.Value, val.Value, wildcard)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", val.Line, err)
		}
		expect = append(expect, e)
	}
	return expect, nil
}

// ParseExpectation interprets one expected-value cell.
func ParseExpectation(variable, cell, wildcard string) (Expectation, error) {
	if cell == wildcard {
		return Expectation{Variable: variable, Wildcard: true}, nil
	}
	v, err := parseNumber(cell)
	if err != nil {
		return Expectation{}, simerr.Parse("harness.ParseExpectation",
			"variable %q: expected value %q is neither a number nor the wildcard %q", variable, cell, wildcard)
	}
	return Expectation{Variable: variable, Value: v}, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
