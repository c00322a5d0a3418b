package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// expr renders e as a Go expression reading names from recv, a value of the
// scope type of sc.
func (vg *viewGen) expr(e Expr, sc *Scope, recv string) string {
	switch e := e.(type) {
	case *Var:
		// The tag of a narrowed variant is known statically.
		if tag, ok := vg.view.TypeOf(e).(*TagLit); ok {
			return strconv.Quote(tag.Tag)
		}
		return vg.path(e.Path, sc, recv)
	case *NumberLit:
		return "float64(" + e.Raw + ")"
	case *BoolLit:
		return strconv.FormatBool(e.Value)
	case *StringTemplate:
		return vg.template(e, sc, recv)
	case *Pipe:
		return vg.expr(e.Desugar(), sc, recv)
	case *Call:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = vg.expr(a, sc, recv)
		}
		callee := vg.path(e.Fn.Path, sc, recv)
		if name, ok := vg.view.Builtin(e.Fn); ok {
			callee = "runtime." + builtins[name].goName
		}
		return callee + "(" + strings.Join(args, ", ") + ")"
	}
	panic(fmt.Sprintf("vgc: cannot render expression %T", e))
}

// path renders a dotted name. Bound names are scope struct fields, free names
// are fields of the view input.
func (vg *viewGen) path(path []string, sc *Scope, recv string) string {
	var b strings.Builder
	b.WriteString(recv)
	switch {
	case sc.Binder(path[0]) != nil:
		b.WriteString("." + bindName(path[0]))
	case sc.Level == 0:
		b.WriteString("." + exportName(path[0]))
	default:
		b.WriteString(".input." + exportName(path[0]))
	}
	for _, field := range path[1:] {
		b.WriteString("." + exportName(field))
	}
	return b.String()
}

// template concatenates literal runs and interpolations.
func (vg *viewGen) template(t *StringTemplate, sc *Scope, recv string) string {
	if lit, ok := t.Literal(); ok {
		return strconv.Quote(lit)
	}
	parts := make([]string, 0, len(t.Parts))
	for _, p := range t.Parts {
		if p.Expr == nil {
			if p.Lit != "" {
				parts = append(parts, strconv.Quote(p.Lit))
			}
			continue
		}
		parts = append(parts, vg.expr(p.Expr, sc, recv))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

// guard renders the condition under which an update group runs: any of its
// dependencies differs between the tracked and the next scope value.
func (vg *viewGen) guard(deps []Dep, sc *Scope) string {
	conds := make([]string, len(deps))
	for i, d := range deps {
		prev, next := vg.path(d.Path, sc, "cur"), vg.path(d.Path, sc, "next")
		switch equality(d.Type) {
		case EqSlice:
			conds[i] = fmt.Sprintf("!runtime.SameSlice(%s, %s)", prev, next)
		case EqFunc:
			conds[i] = fmt.Sprintf("!runtime.SameFunc(%s, %s)", prev, next)
		case EqDynamic:
			conds[i] = fmt.Sprintf("!runtime.Same(%s, %s)", prev, next)
		default:
			conds[i] = fmt.Sprintf("%s != %s", prev, next)
		}
	}
	return strings.Join(conds, " || ")
}
