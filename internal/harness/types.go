package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/simcheck/internal/simerr"
)

// Kind categorizes a finding.
type Kind string

const (
	// KindRangeViolation: a variable left its documented range.
	KindRangeViolation Kind = "range_violation"

	// KindScenarioMismatch: a model produced a value other than expected.
	KindScenarioMismatch Kind = "scenario_mismatch"

	// KindScenarioExecution: a model could not be instantiated or run.
	KindScenarioExecution Kind = "scenario_execution"
)

// Side of a range that was violated.
const (
	SideBelow = "below"
	SideAbove = "above"
)

// Finding is one recoverable validation failure. Numeric context is kept as
// formatted text so a finding prints (and serializes) identically everywhere,
// infinities included.
type Finding struct {
	Kind Kind `json:"kind"`

	// Variable is the model variable the finding is about. Empty for
	// execution errors.
	Variable string `json:"variable,omitempty"`

	// Range violations.
	Side  string    `json:"side,omitempty"`
	Bound string    `json:"bound,omitempty"`
	Times []float64 `json:"times,omitempty"`

	// Scenario findings.
	Parameter string `json:"parameter,omitempty"`
	Value     string `json:"value,omitempty"`
	Expected  string `json:"expected,omitempty"`
	Observed  string `json:"observed,omitempty"`

	// Message is the self-contained human-readable description.
	Message string `json:"message"`
}

// String returns the message.
func (f Finding) String() string {
	return f.Message
}

// Messages returns the messages of findings in order.
func Messages(findings []Finding) []string {
	out := make([]string, len(findings))
	for i, f := range findings {
		out[i] = f.Message
	}
	return out
}

// Policy selects what a validator does with its findings.
type Policy string

const (
	// PolicyReturn hands the findings back and never fails.
	PolicyReturn Policy = "return"

	// PolicyRaise fails with an *AggregateError when there are findings.
	PolicyRaise Policy = "raise"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyReturn, PolicyRaise:
		return p, nil
	default:
		return "", simerr.Configuration("harness.ParsePolicy",
			"unknown error policy %q: must be %q or %q", s, PolicyReturn, PolicyRaise)
	}
}

// Validate rejects policies other than PolicyReturn and PolicyRaise.
func (p Policy) Validate() error {
	switch p {
	case PolicyReturn, PolicyRaise:
		return nil
	default:
		return simerr.Configuration("harness.Policy", "unknown error policy %q", p)
	}
}

// AggregateError is the single failure that carries every finding of one
// validation call.
type AggregateError struct {
	Findings []Finding
}

// Error implements the error interface. Every finding is listed.
func (e *AggregateError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%d validation finding(s):", len(e.Findings))
	for _, f := range e.Findings {
		buf.WriteString("\n  ")
		buf.WriteString(f.Message)
	}
	return buf.String()
}

// AsAggregate extracts an *AggregateError from err.
func AsAggregate(err error) (*AggregateError, bool) {
	var agg *AggregateError
	if errors.As(err, &agg) {
		return agg, true
	}
	return nil, false
}

// Aggregate applies policy to the findings of one validation call.
//
// PolicyReturn always returns the findings (never nil) and no error.
// PolicyRaise returns an *AggregateError when findings is non-empty and
// (nil, nil) when it is empty.
func Aggregate(findings []Finding, policy Policy) ([]Finding, error) {
	switch policy {
	case PolicyReturn:
		if findings == nil {
			findings = []Finding{}
		}
		return findings, nil
	case PolicyRaise:
		if len(findings) == 0 {
			return nil, nil
		}
		return nil, &AggregateError{Findings: findings}
	default:
		return nil, policy.Validate()
	}
}
