// Package simerr defines the fatal error kinds shared across simcheck.
//
// Findings (range violations, scenario mismatches) are not errors; they are
// collected by the harness package and surfaced once as an aggregate. The
// kinds here abort the call that produced them.
package simerr

import (
	"errors"
	"fmt"
)

// Code categorizes fatal errors.
type Code string

const (
	// CodeParse indicates a malformed bound or unit annotation.
	CodeParse Code = "PARSE"

	// CodeConfiguration indicates an invalid source type, format, policy
	// or signal parameter. Raised before any validation runs.
	CodeConfiguration Code = "CONFIGURATION"

	// CodeScenarioExecution indicates a model instantiate-or-run failure
	// inside one scenario. The runner records these as findings and keeps
	// going.
	CodeScenarioExecution Code = "SCENARIO_EXECUTION"
)

// Error is a fatal simcheck error with a category code.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Op names the operation that failed (e.g. "bounds.Build").
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Parse creates a CodeParse error.
func Parse(op, format string, args ...any) *Error {
	return &Error{Code: CodeParse, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Configuration creates a CodeConfiguration error.
func Configuration(op, format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and operation to an existing error.
func Wrap(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// ScenarioExecution wraps a model failure inside one scenario row.
func ScenarioExecution(op string, err error) *Error {
	return Wrap(CodeScenarioExecution, op, err)
}

// IsParse reports whether err (or anything it wraps) is a parse error.
func IsParse(err error) bool {
	return hasCode(err, CodeParse)
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return hasCode(err, CodeConfiguration)
}

// IsScenarioExecution reports whether err is a scenario execution error.
func IsScenarioExecution(err error) bool {
	return hasCode(err, CodeScenarioExecution)
}

func hasCode(err error, code Code) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
