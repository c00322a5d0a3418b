package compiler

import (
	"context"
	"fmt"
	"io/fs"
)

// Phase is how far one view got through the pipeline.
type Phase int

const (
	Parsing Phase = iota
	Resolving
	Inferring
	Analyzing
	Generating
	Emitted
	Failed
)

var phaseNames = [...]string{"parsing", "resolving", "inferring", "analyzing", "generating", "emitted", "failed"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Unit records the outcome of one view.
type Unit struct {
	View  string
	File  string
	Phase Phase
	// Skipped is set when the view was not attempted because a view it uses
	// failed; the failure is reported on that view.
	Skipped bool
	Err     error
}

// Result is the outcome of a compilation.
type Result struct {
	Graph   *Graph
	Program *Program
	Units   []*Unit
	// Source is the generated Go file; nil whenever any unit failed.
	Source []byte
}

// Compile loads the entry templates from fsys and compiles every view they
// make reachable into one Go file. Independent views are still analyzed when
// others fail so that a single run reports every error; the returned error
// is then a Diagnostics list and Result.Source is nil.
func Compile(ctx context.Context, fsys fs.FS, entries []string, opts Options) (*Result, error) {
	// Step 1: Load and resolve the module graph.
	graph, err := Load(ctx, fsys, entries)
	if graph == nil {
		return nil, err
	}
	diags := asDiagnostics(err)

	// Step 2: Infer and analyze the views in dependency order.
	prog, units, more := Analyze(graph)
	diags = append(diags, more...)
	res := &Result{Graph: graph, Program: prog, Units: units}
	if len(diags) > 0 {
		diags.Sort()
		return res, diags
	}

	// Step 3: Generate.
	for _, u := range units {
		u.Phase = Generating
	}
	src, err := Generate(prog, opts)
	if err != nil {
		for _, u := range units {
			u.Phase, u.Err = Failed, err
		}
		return res, err
	}
	for _, u := range units {
		u.Phase = Emitted
	}
	res.Source = src
	return res, nil
}

// Analyze infers and plans every view of the graph. A view is skipped when a
// view it uses is missing or failed.
func Analyze(graph *Graph) (*Program, []*Unit, Diagnostics) {
	var diags Diagnostics
	var units []*Unit
	prog := &Program{}
	schemas := make(map[string]*Record)

	for _, name := range sortedKeys(graph.Failed) {
		units = append(units, &Unit{View: name, Phase: Failed, Skipped: true})
	}
	for _, v := range graph.Views {
		u := &Unit{View: v.Name, File: v.File.Source.Path, Phase: Resolving}
		units = append(units, u)

		missing := ""
		for _, used := range graph.Uses[v.Name] {
			if _, ok := schemas[used]; !ok {
				missing = used
				break
			}
		}
		if missing != "" {
			u.Phase, u.Skipped = Failed, true
			u.Err = fmt.Errorf("%w: uses %s, which failed to compile", ErrUnresolvedView, missing)
			continue
		}

		u.Phase = Inferring
		tv, d := inferView(v, schemas)
		if d != nil {
			u.Phase, u.Err = Failed, d
			diags = append(diags, d)
			continue
		}
		schemas[v.Name] = tv.input

		u.Phase = Analyzing
		prog.Views = append(prog.Views, planView(tv))
	}
	return prog, units, diags
}
