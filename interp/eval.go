package interp

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vcrobe/vgc/compiler"
	"github.com/vcrobe/vgc/runtime"
)

// evalError is a value of the wrong shape met while evaluating a view.
type evalError struct {
	view string
	expr string
	msg  string
}

func (e *evalError) Error() string {
	return fmt.Sprintf("interp: view %s: %s: %s", e.view, e.expr, e.msg)
}

type evaluator struct {
	cv *compiler.CompiledView
	sc *compiler.Scope
}

func (ev evaluator) fail(e fmt.Stringer, format string, args ...any) {
	panic(&evalError{view: ev.cv.Name, expr: e.String(), msg: fmt.Sprintf(format, args...)})
}

func (ev evaluator) eval(e compiler.Expr, en env) any {
	switch e := e.(type) {
	case *compiler.Var:
		return ev.path(e, e.Path, en)
	case *compiler.NumberLit:
		return e.Value
	case *compiler.BoolLit:
		return e.Value
	case *compiler.StringTemplate:
		var b strings.Builder
		for _, p := range e.Parts {
			if p.Expr == nil {
				b.WriteString(p.Lit)
				continue
			}
			b.WriteString(ev.str(p.Expr, en))
		}
		return b.String()
	case *compiler.Pipe:
		return ev.eval(e.Desugar(), en)
	case *compiler.Call:
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = ev.eval(a, en)
		}
		if name, ok := ev.cv.Builtin(e.Fn); ok {
			return ev.builtin(e, name, args)
		}
		return ev.call(e, ev.path(e.Fn, e.Fn.Path, en), args)
	}
	panic(fmt.Sprintf("interp: unknown expression %T", e))
}

// path reads a dotted name: bound names come from the scope, free names from
// the view input, later segments are record fields.
func (ev evaluator) path(e fmt.Stringer, path []string, en env) any {
	var v any
	if ev.sc.Binder(path[0]) != nil {
		v = en.names[path[0]]
	} else {
		v = en.input[path[0]]
	}
	for _, field := range path[1:] {
		rec, ok := v.(Record)
		if !ok {
			ev.fail(e, "reading %q of %T, want a record", field, v)
		}
		v = rec[field]
	}
	return v
}

// dep reads a dependency path; a missing intermediate record yields nil so
// that the comparison, not the read, decides.
func (ev evaluator) dep(path []string, en env) any {
	var v any
	if ev.sc.Binder(path[0]) != nil {
		v = en.names[path[0]]
	} else {
		v = en.input[path[0]]
	}
	for _, field := range path[1:] {
		rec, ok := v.(Record)
		if !ok {
			return nil
		}
		v = rec[field]
	}
	return v
}

func (ev evaluator) str(e compiler.Expr, en env) string {
	v := ev.eval(e, en)
	s, ok := v.(string)
	if !ok {
		ev.fail(e, "got %T, want a string", v)
	}
	return s
}

func (ev evaluator) cond(e compiler.Expr, en env) bool {
	v := ev.eval(e, en)
	b, ok := v.(bool)
	if !ok {
		ev.fail(e, "got %T, want a boolean", v)
	}
	return b
}

func (ev evaluator) builtin(c *compiler.Call, name string, args []any) any {
	switch name {
	case "numberToString":
		f, ok := number(args[0])
		if !ok {
			ev.fail(c, "got %T, want a number", args[0])
		}
		return runtime.NumberToString(f)
	case "boolean":
		cond, ok := args[0].(bool)
		if !ok {
			ev.fail(c, "got %T, want a boolean condition", args[0])
		}
		return runtime.Boolean(cond, args[1], args[2])
	case "lookup":
		key, ok := args[1].(string)
		if !ok {
			ev.fail(c, "got %T, want a string key", args[1])
		}
		return runtime.Lookup(args[0], key, args[2])
	}
	ev.fail(c, "unknown built-in %s", name)
	return nil
}

// call invokes a template-callable value: a Func or any Go func.
func (ev evaluator) call(c *compiler.Call, fn any, args []any) any {
	switch fn := fn.(type) {
	case Func:
		return fn(args...)
	case func(...any) any:
		return fn(args...)
	case nil:
		ev.fail(c, "calling a nil function")
	}
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		ev.fail(c, "calling %T, want a function", fn)
	}
	ft := fv.Type()
	if ft.NumIn() != len(args) {
		ev.fail(c, "function takes %d arguments, got %d", ft.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		want := ft.In(i)
		if a == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		av := reflect.ValueOf(a)
		if !av.Type().AssignableTo(want) {
			if !av.Type().ConvertibleTo(want) {
				ev.fail(c, "argument %d is %T, want %s", i+1, a, want)
			}
			av = av.Convert(want)
		}
		in[i] = av
	}
	out := fv.Call(in)
	if len(out) == 0 {
		return nil
	}
	return out[0].Interface()
}

// handler adapts an event handler value.
func (ev evaluator) handler(e compiler.Expr, v any) func() {
	switch h := v.(type) {
	case func():
		return h
	case Func:
		return func() { h() }
	case nil:
		return nil
	}
	ev.fail(e, "got %T, want an event handler", v)
	return nil
}

// mount adapts a node factory value.
func (ev evaluator) mount(e compiler.Expr, v any) runtime.Node {
	switch m := v.(type) {
	case func() runtime.Node:
		return m()
	case Func:
		if n, ok := m().(runtime.Node); ok {
			return n
		}
	}
	ev.fail(e, "got %T, want a node factory", v)
	return nil
}

// list converts a sequence value to its items.
func (ev evaluator) list(e compiler.Expr, v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case nil:
		return nil
	}
	lv := reflect.ValueOf(v)
	if lv.Kind() != reflect.Slice && lv.Kind() != reflect.Array {
		ev.fail(e, "got %T, want a list", v)
	}
	out := make([]any, lv.Len())
	for i := range out {
		out[i] = lv.Index(i).Interface()
	}
	return out
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// attrString formats an attribute value the way generated code would.
func attrString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return runtime.NumberToString(v)
	}
	return fmt.Sprint(v)
}
