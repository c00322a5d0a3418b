package compiler

import (
	"sort"
	"strings"
)

// Dep is one path read by a dynamic node, rooted at an input field or at a
// name bound by an enclosing block.
type Dep struct {
	Path []string
	Type Type
}

// Key returns the dotted path.
func (d Dep) Key() string { return strings.Join(d.Path, ".") }

// Root returns the first path segment.
func (d Dep) Root() string { return d.Path[0] }

// exprDeps returns the dependency set of an expression: every path it reads,
// deduplicated, sorted and with paths covered by a shorter prefix removed.
func (tv *typedView) exprDeps(e Expr) []Dep {
	var deps []Dep
	tv.collectDeps(e, &deps)
	return normalizeDeps(deps)
}

func (tv *typedView) collectDeps(e Expr, deps *[]Dep) {
	switch e := e.(type) {
	case *Var:
		t := tv.exprs[e]
		if _, ok := t.(*TagLit); ok {
			// The tag of a narrowed variant is fixed for the whole case block.
			return
		}
		*deps = append(*deps, Dep{Path: e.Path, Type: t})
	case *Call:
		if _, ok := tv.builtins[e.Fn]; !ok {
			tv.collectDeps(e.Fn, deps)
		}
		for _, a := range e.Args {
			tv.collectDeps(a, deps)
		}
	case *Pipe:
		if _, ok := tv.builtins[e.Fn]; !ok {
			tv.collectDeps(e.Fn, deps)
		}
		tv.collectDeps(e.LHS, deps)
		for _, a := range e.Args {
			tv.collectDeps(a, deps)
		}
	case *StringTemplate:
		for _, p := range e.Parts {
			if p.Expr != nil {
				tv.collectDeps(p.Expr, deps)
			}
		}
	}
}

// normalizeDeps sorts and deduplicates deps and drops every path that has a
// proper prefix in the set: a change below the prefix is a change of it.
func normalizeDeps(deps []Dep) []Dep {
	byKey := make(map[string]Dep, len(deps))
	for _, d := range deps {
		byKey[d.Key()] = d
	}
	keys := sortedKeys(byKey)
	out := make([]Dep, 0, len(keys))
	for _, k := range keys {
		covered := false
		for _, kept := range out {
			if strings.HasPrefix(k, kept.Key()+".") {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, byKey[k])
		}
	}
	return out
}

// withoutRoot drops paths rooted at a name bound by the block itself.
func withoutRoot(deps []Dep, name string) []Dep {
	out := deps[:0:0]
	for _, d := range deps {
		if d.Root() != name {
			out = append(out, d)
		}
	}
	return out
}

// rootDeps widens every path to its first segment. A slot guards the reads
// of its nested blocks by reference so that its guard never reaches into a
// record only a branch that is not live would read.
func rootDeps(deps []Dep) []Dep {
	out := make([]Dep, len(deps))
	for i, d := range deps {
		if len(d.Path) > 1 {
			d = Dep{Path: d.Path[:1], Type: &Record{}}
		}
		out[i] = d
	}
	return out
}

// depsKey identifies a dependency set; updaters with equal keys share a guard.
func depsKey(deps []Dep) string {
	keys := make([]string, len(deps))
	for i, d := range deps {
		keys[i] = d.Key()
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// EqualityKind selects how a dependency is compared between updates.
type EqualityKind int

const (
	EqValue EqualityKind = iota // ==, also pointer identity for records and unions
	EqSlice                     // same backing array and length
	EqFunc                      // same function value
	EqDynamic                   // unknown static type
)

// equality returns the comparison used for a dependency of type t.
func equality(t Type) EqualityKind {
	switch t.(type) {
	case *List:
		return EqSlice
	case *Func, *ViewFunc:
		return EqFunc
	}
	if t == TAny {
		return EqDynamic
	}
	return EqValue
}
