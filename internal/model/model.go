// Package model loads simulation models written in CUE.
//
// A model file declares a time input and a struct of variables:
//
//	time: number | *0
//	variables: {
//		"contact rate": {unit: "1/day [0, 1]", comment: "contacts per person", value: number | *0.3}
//		infected: {unit: "people [0, ?]", value: 1000 * variables["contact rate"].value}
//	}
//
// A parameter override fills variables.<name>.value and the evaluation time
// fills time. Variables whose value is a default (*x) can be overridden;
// computed or constant values conflict with an override.
package model

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/simcheck/internal/bounds"
	"github.com/roach88/simcheck/internal/harness"
	"github.com/roach88/simcheck/internal/series"
	"github.com/roach88/simcheck/internal/simerr"
)

var (
	timePath      = cue.ParsePath("time")
	variablesPath = cue.ParsePath("variables")
)

// Definition is a parsed model source. It is immutable; every instance
// compiles the source again in its own CUE context.
type Definition struct {
	filename string
	source   []byte
	docs     []bounds.VarDoc
	known    map[string]bool
}

// Load reads and parses a model file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return Parse(path, data)
}

// Parse compiles a model source and extracts its variable documentation.
func Parse(filename string, src []byte) (*Definition, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError("model.Parse", err)
	}

	vars := v.LookupPath(variablesPath)
	if !vars.Exists() {
		return nil, simerr.Parse("model.Parse", "%s: variables is required", filename)
	}
	iter, err := vars.Fields()
	if err != nil {
		return nil, formatCUEError("model.Parse", err)
	}

	def := &Definition{
		filename: filename,
		source:   append([]byte(nil), src...),
		known:    make(map[string]bool),
	}
	for iter.Next() {
		name := iter.Label()
		field := iter.Value()
		if !field.LookupPath(cue.ParsePath("value")).Exists() {
			return nil, simerr.Parse("model.Parse", "%s: variable %q has no value", filename, name)
		}
		unit, err := optionalString(field, "unit")
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		comment, err := optionalString(field, "comment")
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		def.docs = append(def.docs, bounds.VarDoc{Name: name, Comment: comment, Unit: unit})
		def.known[name] = true
	}
	if len(def.docs) == 0 {
		return nil, simerr.Parse("model.Parse", "%s: variables must not be empty", filename)
	}
	return def, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError("model.Parse", err)
	}
	return s, nil
}

// Name returns the file name the definition was parsed from.
func (d *Definition) Name() string {
	return d.filename
}

// Docs returns the documentation of every variable in declaration order.
func (d *Definition) Docs() []bounds.VarDoc {
	return append([]bounds.VarDoc(nil), d.docs...)
}

// Names returns every variable name in declaration order.
func (d *Definition) Names() []string {
	names := make([]string, len(d.docs))
	for i, doc := range d.docs {
		names[i] = doc.Name
	}
	return names
}

// Bounds derives the bounds table from the variable units.
func (d *Definition) Bounds() (*bounds.Table, error) {
	return bounds.Build(d.docs)
}

// NewInstance compiles a fresh, independent instance of the model.
func (d *Definition) NewInstance() (*Instance, error) {
	v := cuecontext.New().CompileBytes(d.source, cue.Filename(d.filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError("model.NewInstance", err)
	}
	return &Instance{def: d, root: v}, nil
}

// Factory adapts the definition to the scenario runner.
func (d *Definition) Factory() harness.Factory {
	return func() (harness.Model, error) {
		return d.NewInstance()
	}
}

// Simulate evaluates the model at every time of the grid and returns the
// trajectories of vars (every variable when vars is empty).
func (d *Definition) Simulate(ctx context.Context, overrides map[string]float64, vars []string, times []float64) (*series.Series, error) {
	if len(vars) == 0 {
		vars = d.Names()
	}
	inst, err := d.NewInstance()
	if err != nil {
		return nil, err
	}
	base, err := inst.apply(overrides)
	if err != nil {
		return nil, err
	}

	columns := make([][]float64, len(vars))
	for i := range columns {
		columns[i] = make([]float64, len(times))
	}
	for j, t := range times {
		out, err := inst.evaluate(ctx, base, vars, t)
		if err != nil {
			return nil, fmt.Errorf("t=%g: %w", t, err)
		}
		for i, name := range vars {
			columns[i][j] = out[name]
		}
	}

	result := series.New(times)
	for i, name := range vars {
		if err := result.Add(name, columns[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Instance is one compiled model. It satisfies harness.Model.
type Instance struct {
	def  *Definition
	root cue.Value
}

// Run applies overrides, evaluates the model at time at and returns the
// requested variables.
func (i *Instance) Run(ctx context.Context, overrides map[string]float64, vars []string, at float64) (map[string]float64, error) {
	base, err := i.apply(overrides)
	if err != nil {
		return nil, err
	}
	return i.evaluate(ctx, base, vars, at)
}

func (i *Instance) apply(overrides map[string]float64) (cue.Value, error) {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	v := i.root
	for _, name := range names {
		if !i.def.known[name] {
			return cue.Value{}, simerr.Configuration("model.Run", "unknown parameter %q", name)
		}
		path := valuePath(name)
		v = v.FillPath(path, literal(v.LookupPath(path), overrides[name]))
	}
	return v, nil
}

// literal converts an override to the Go value CUE unifies with field. A
// float64 always becomes a float literal, which conflicts with int, so
// integral values for fields admitting int are filled as int64.
func literal(field cue.Value, x float64) any {
	if field.IncompleteKind()&cue.IntKind == 0 {
		return x
	}
	if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
		return x
	}
	return int64(x)
}

func (i *Instance) evaluate(ctx context.Context, base cue.Value, vars []string, at float64) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := base.FillPath(timePath, at)
	if err := v.Err(); err != nil {
		return nil, formatCUEError("model.Run", err)
	}

	out := make(map[string]float64, len(vars))
	for _, name := range vars {
		if !i.def.known[name] {
			return nil, simerr.Configuration("model.Run", "unknown variable %q", name)
		}
		f, err := floatAt(v, valuePath(name))
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		out[name] = f
	}
	return out, nil
}

func floatAt(v cue.Value, path cue.Path) (float64, error) {
	field := v.LookupPath(path)
	if err := field.Err(); err != nil {
		return 0, formatCUEError("model.Run", err)
	}
	field, _ = field.Default()
	f, err := field.Float64()
	if err != nil {
		return 0, formatCUEError("model.Run", err)
	}
	return f, nil
}

func valuePath(name string) cue.Path {
	return cue.MakePath(cue.Str("variables"), cue.Str(name), cue.Str("value"))
}

// formatCUEError keeps the position of the first CUE error.
func formatCUEError(op string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return simerr.Wrap(simerr.CodeParse, op, err)
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		pos := positions[0]
		return simerr.Parse(op, "%s:%d:%d: %s", pos.Filename(), pos.Line(), pos.Column(), first.Error())
	}
	return simerr.Wrap(simerr.CodeParse, op, first)
}
