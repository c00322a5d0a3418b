// Package interp executes compiled views directly on a runtime.Document. It
// follows the same build and update plan as generated Go code, which makes
// it the reference for previews and behavioral tests.
package interp

import (
	"fmt"

	"github.com/vcrobe/vgc/compiler"
	"github.com/vcrobe/vgc/runtime"
)

// Record is a record value: the input of a view, a nested record or a union
// variant (which carries its tag in the "type" field).
type Record = map[string]any

// Func is a template-callable function. Plain Go funcs are also accepted in
// inputs and called through reflection.
type Func func(args ...any) any

// ViewFunc is a view used as a value by <use view={...}>.
type ViewFunc = runtime.View[Record]

// Interpreter runs the views of one program.
type Interpreter struct {
	prog  *compiler.Program
	views map[string]ViewFunc
}

// New prepares every view of prog. Nodes are created through the document
// set with runtime.SetDocument.
func New(prog *compiler.Program) *Interpreter {
	in := &Interpreter{prog: prog, views: make(map[string]ViewFunc, len(prog.Views))}
	for _, cv := range prog.Views {
		in.views[cv.Name] = in.view(cv)
	}
	return in
}

// View returns a view by name, usable as a ViewFunc input value.
func (in *Interpreter) View(name string) (ViewFunc, error) {
	v, ok := in.views[name]
	if !ok {
		return nil, fmt.Errorf("interp: no view named %q", name)
	}
	return v, nil
}

// Build builds a view. A malformed input value, such as a string where
// the view reads a record, is reported as an error.
func (in *Interpreter) Build(name string, input Record) (st *runtime.ViewState[Record], err error) {
	v, err := in.View(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(*evalError); ok {
				st, err = nil, e
				return
			}
			panic(rec)
		}
	}()
	return v(input), nil
}

// env is the scope value of a block: the view input plus the names bound by
// enclosing loops and cases.
type env struct {
	input Record
	names map[string]any
}

func (e env) with(name string, v any) env {
	names := make(map[string]any, len(e.names)+1)
	for k, x := range e.names {
		names[k] = x
	}
	names[name] = v
	return env{input: e.input, names: names}
}

func (in *Interpreter) view(cv *compiler.CompiledView) ViewFunc {
	root := in.block(cv, cv.Root)
	return func(input Record) *runtime.ViewState[Record] {
		st := root(env{input: input})
		out := &runtime.ViewState[Record]{Root: st.Root}
		out.Update = func(next Record) {
			st.Update(env{input: next})
			out.Root = st.Root
		}
		return out
	}
}

// block returns the build function of a block.
func (in *Interpreter) block(cv *compiler.CompiledView, b *compiler.Block) func(env) *runtime.ViewState[env] {
	return func(e env) *runtime.ViewState[env] {
		bi := &blockInst{in: in, cv: cv, blk: b, nodes: make(map[compiler.BuildNode]runtime.Node), slots: make(map[compiler.Slot]*slotState)}
		st := &runtime.ViewState[env]{Root: bi.build(b.Root, e, nil)}
		cur := e
		st.Update = func(next env) {
			for _, g := range b.Groups {
				if !bi.changed(g.Deps, cur, next) {
					continue
				}
				for _, a := range g.Actions {
					bi.apply(a, next)
				}
			}
			if slot, ok := b.Root.(compiler.Slot); ok {
				st.Root = bi.slots[slot].root()
			}
			cur = next
		}
		return st
	}
}
