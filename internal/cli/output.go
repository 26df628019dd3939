package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/simcheck/internal/harness"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution, no findings
	ExitFailure      = 1 // Validation failure (range violations, scenario mismatches)
	ExitCommandError = 2 // Command error (unreadable model, bad flags, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitCommandError if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// findingsError converts validator findings into the exit status of a
// command: nil when clean, ExitFailure otherwise.
func findingsError(findings []harness.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	return WrapExitError(ExitFailure, "validation failed", &harness.AggregateError{Findings: findings})
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string `json:"status"`         // "ok" or "findings"
	RunID  string `json:"run_id,omitempty"` // set when the run was recorded
	Data   any    `json:"data,omitempty"`
}

// JSON reports whether output is JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Emit writes data in a JSON envelope. Status is "findings" when count > 0.
func (f *OutputFormatter) Emit(data any, count int, runID string) error {
	status := "ok"
	if count > 0 {
		status = "findings"
	}
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(CLIResponse{Status: status, RunID: runID, Data: data})
}

// Findings prints findings as text, one per line, followed by a summary.
func (f *OutputFormatter) Findings(findings []harness.Finding) {
	for _, finding := range findings {
		fmt.Fprintf(f.Writer, "✗ %s\n", finding.Message)
	}
	if len(findings) == 0 {
		fmt.Fprintln(f.Writer, "✓ no findings")
		return
	}
	fmt.Fprintf(f.Writer, "\n%d finding(s)\n", len(findings))
}
