package simerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := Parse("bounds.Build", "variable %q: bad token %q", "stock", "abc")
	assert.Equal(t, `PARSE: bounds.Build: variable "stock": bad token "abc"`, err.Error())

	noOp := &Error{Code: CodeConfiguration, Message: "unknown policy"}
	assert.Equal(t, "CONFIGURATION: unknown policy", noOp.Error())
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Wrap(CodeScenarioExecution, "model.Run", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "SCENARIO_EXECUTION: model.Run: disk on fire", err.Error())
}

func TestIsHelpers_ThroughWrapping(t *testing.T) {
	parse := fmt.Errorf("load bounds: %w", Parse("op", "x"))
	cfg := fmt.Errorf("signal: %w", Configuration("op", "y"))

	assert.True(t, IsParse(parse))
	assert.False(t, IsConfiguration(parse))
	assert.True(t, IsConfiguration(cfg))
	assert.False(t, IsParse(cfg))
	assert.False(t, IsParse(errors.New("plain")))
	assert.False(t, IsParse(nil))

	exec := fmt.Errorf("row 2: %w", ScenarioExecution("harness.Runner", errors.New("boom")))
	assert.True(t, IsScenarioExecution(exec))
	assert.False(t, IsConfiguration(exec))
}
