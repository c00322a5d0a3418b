package compiler

import (
	"errors"
	"strconv"
	"strings"
)

// typedView is a view after inference: its resolved input and the resolved
// type of every expression and binding in its body.
type typedView struct {
	view  *View
	input *Record

	exprs       map[Expr]Type
	builtins    map[*Var]string // callee vars naming a built-in
	loopElems   map[*For]Type
	caseRecords map[*Case]*Record
	unions      map[*Switch]*Union
	components  map[*ComponentUse]*Record
	dynamic     map[*DynamicUse]*Record
	uses        []string
}

// inferScope holds the names bound by enclosing <for> and <case> blocks.
type inferScope struct {
	parent *inferScope
	name   string
	typ    Type
}

func (s *inferScope) lookup(name string) (Type, bool) {
	for ; s != nil; s = s.parent {
		if s.name == name {
			return s.typ, true
		}
	}
	return nil, false
}

type inferrer struct {
	env     typeEnv
	src     *Source
	schemas map[string]*Record

	inputs map[string]*TypeVar
	order  []string
	bound  map[string]string // names bound somewhere in the view -> binding form
	out    *typedView
}

// inferView infers the input schema of one view. schemas holds the resolved
// inputs of every view it may use.
func inferView(v *View, schemas map[string]*Record) (*typedView, *Diagnostic) {
	in := &inferrer{
		src:     v.File.Source,
		schemas: schemas,
		inputs:  make(map[string]*TypeVar),
		bound:   make(map[string]string),
		out: &typedView{
			view:        v,
			exprs:       make(map[Expr]Type),
			builtins:    make(map[*Var]string),
			loopElems:   make(map[*For]Type),
			caseRecords: make(map[*Case]*Record),
			unions:      make(map[*Switch]*Union),
			components:  make(map[*ComponentUse]*Record),
			dynamic:     make(map[*DynamicUse]*Record),
		},
	}
	collectBindings(v.Body, in.bound)
	if d := in.node(v.Body, nil); d != nil {
		return nil, d
	}
	in.finish()
	return in.out, nil
}

// finish resolves every recorded type and closes the input record.
func (in *inferrer) finish() {
	fields := make(map[string]Type, len(in.inputs))
	for name, tv := range in.inputs {
		fields[name] = tv
	}
	input := &Record{Row: in.env.extendRow(fields, in.env.closedRow()), order: in.order}
	in.out.input = resolve(input).(*Record)

	for e, t := range in.out.exprs {
		in.out.exprs[e] = resolve(t)
	}
	for f, t := range in.out.loopElems {
		in.out.loopElems[f] = resolve(t)
	}
	for c, r := range in.out.caseRecords {
		in.out.caseRecords[c] = resolve(r).(*Record)
	}
	for s, u := range in.out.unions {
		in.out.unions[s] = resolve(u).(*Union)
	}
	for d, r := range in.out.dynamic {
		in.out.dynamic[d] = resolve(r).(*Record)
	}
}

func (in *inferrer) errorAt(err *typeError, span Span, what string) *Diagnostic {
	d := newDiagnostic(err.kind, in.src, span, "%s", err.msg)
	if what != "" {
		d.label(span, "%s", what)
	}
	return d
}

// expect unifies the type of an expression with the type its context requires.
func (in *inferrer) expect(e Expr, actual, expected Type) *Diagnostic {
	if expected == nil {
		return nil
	}
	if err := in.env.unify(actual, expected); err != nil {
		return in.errorAt(err, e.Span(), "`"+e.String()+"` is used here")
	}
	return nil
}

func (in *inferrer) expr(e Expr, sc *inferScope, expected Type) (Type, *Diagnostic) {
	t, d := in.exprType(e, sc, expected)
	if d != nil {
		return nil, d
	}
	in.out.exprs[e] = t
	return t, nil
}

func (in *inferrer) exprType(e Expr, sc *inferScope, expected Type) (Type, *Diagnostic) {
	switch e := e.(type) {
	case *NumberLit:
		return TNumber, in.expect(e, TNumber, expected)
	case *BoolLit:
		return TBoolean, in.expect(e, TBoolean, expected)
	case *StringTemplate:
		for _, p := range e.Parts {
			if p.Expr == nil {
				continue
			}
			if _, d := in.expr(p.Expr, sc, TString); d != nil {
				return nil, d
			}
		}
		return TString, in.expect(e, TString, expected)
	case *Var:
		t, d := in.variable(e, sc)
		if d != nil {
			return nil, d
		}
		return t, in.expect(e, t, expected)
	case *Pipe:
		return in.call(e.Desugar(), sc, expected)
	case *Call:
		return in.call(e, sc, expected)
	}
	return nil, newDiagnostic(ErrSyntax, in.src, e.Span(), "unsupported expression %s", e)
}

// root returns the type of a free or bound name.
func (in *inferrer) root(name string, span Span, sc *inferScope) (Type, *Diagnostic) {
	if t, ok := sc.lookup(name); ok {
		return t, nil
	}
	if isBuiltin(name) {
		return nil, newDiagnostic(ErrUnresolvedVariable, in.src, span, "built-in function %q can only be called", name).
			hint("write %s(...) or use it after a pipe", name)
	}
	if form, ok := in.bound[name]; ok {
		return nil, newDiagnostic(ErrUnresolvedVariable, in.src, span, "%q is bound by %s and is not visible here", name, form).
			hint("use %s inside that block, or rename the binding if an input of the same name is meant", name)
	}
	tv, ok := in.inputs[name]
	if !ok {
		tv = in.env.named(name)
		in.inputs[name] = tv
		in.order = append(in.order, name)
	}
	return tv, nil
}

func (in *inferrer) variable(v *Var, sc *inferScope) (Type, *Diagnostic) {
	t, d := in.root(v.Path[0], v.span, sc)
	if d != nil {
		return nil, d
	}
	for i, field := range v.Path[1:] {
		ft := in.env.fresh()
		if err := in.env.unify(t, in.env.record(map[string]Type{field: ft})); err != nil {
			prefix := strings.Join(v.Path[:i+1], ".")
			return nil, in.errorAt(err, v.span, "`"+prefix+"` is accessed as a record here")
		}
		t = ft
	}
	in.out.exprs[v] = t
	return t, nil
}

func (in *inferrer) call(c *Call, sc *inferScope, expected Type) (Type, *Diagnostic) {
	name := c.Fn.Path[0]
	if _, bound := sc.lookup(name); !bound && isBuiltin(name) {
		return in.builtinCall(c, sc, expected)
	}

	params := make([]Type, len(c.Args))
	for i := range params {
		params[i] = in.env.fresh()
	}
	result := in.env.fresh()
	if _, d := in.expr(c.Fn, sc, &Func{Params: params, Result: result}); d != nil {
		return nil, d
	}
	for i, a := range c.Args {
		if _, d := in.expr(a, sc, params[i]); d != nil {
			return nil, d
		}
	}
	return result, in.expect(c, result, expected)
}

func (in *inferrer) builtinCall(c *Call, sc *inferScope, expected Type) (Type, *Diagnostic) {
	name := c.Fn.Path[0]
	if len(c.Fn.Path) > 1 {
		return nil, newDiagnostic(ErrUnresolvedVariable, in.src, c.Fn.span, "built-in function %q has no fields", name)
	}
	sig := builtins[name].signature(&in.env)
	if len(c.Args) != len(sig.Params) {
		return nil, newDiagnostic(ErrArityOrSignatureMismatch, in.src, c.span,
			"%s expects %d arguments, got %d", name, len(sig.Params), len(c.Args)).
			label(c.Fn.span, "signature: %s", sig)
	}
	in.out.builtins[c.Fn] = name
	in.out.exprs[c.Fn] = sig
	for i, a := range c.Args {
		if _, d := in.expr(a, sc, sig.Params[i]); d != nil {
			if errors.Is(d, ErrTypeConflict) {
				d.Kind = ErrArityOrSignatureMismatch
				d.Message = "argument " + strconv.Itoa(i+1) + " of " + name + ": " + d.Message
			}
			return nil, d
		}
	}
	return sig.Result, in.expect(c, sig.Result, expected)
}

func (in *inferrer) node(n Node, sc *inferScope) *Diagnostic {
	switch n := n.(type) {
	case *Element:
		for _, a := range n.Attrs {
			if a.Kind == AttrLiteral {
				continue
			}
			kind, _ := classifyAttr(a.Name)
			if _, d := in.expr(a.Expr, sc, expectedAttrType(kind)); d != nil {
				return d
			}
		}
		for _, c := range n.Children {
			if d := in.node(c, sc); d != nil {
				return d
			}
		}
	case *Text:
		for _, p := range n.Parts {
			if p.Expr == nil {
				continue
			}
			if _, d := in.expr(p.Expr, sc, TString); d != nil {
				return d
			}
		}
	case *If:
		if _, d := in.expr(n.Cond, sc, TBoolean); d != nil {
			return d
		}
		for _, branch := range []Node{n.Then, n.Else} {
			if branch == nil {
				continue
			}
			if d := in.node(branch, sc); d != nil {
				return d
			}
		}
	case *For:
		elem := in.env.named(n.As)
		if _, d := in.expr(n.Seq, sc, &List{Elem: elem}); d != nil {
			return d
		}
		in.out.loopElems[n] = elem
		return in.node(n.Body, &inferScope{parent: sc, name: n.As, typ: elem})
	case *Switch:
		return in.switchNode(n, sc)
	case *ComponentUse:
		return in.component(n, sc)
	case *DynamicUse:
		return in.dynamicUse(n, sc)
	case *Mount:
		if _, d := in.expr(n.Expr, sc, mountType()); d != nil {
			return d
		}
	}
	return nil
}

// switchNode types the discriminant as a union whose variants are exactly
// the cases, and binds each case to its variant record.
func (in *inferrer) switchNode(n *Switch, sc *inferScope) *Diagnostic {
	u := &Union{Variants: make(map[string]*Row, len(n.Cases))}
	for _, c := range n.Cases {
		u.Variants[c.Tag] = in.env.openRow()
	}
	if _, d := in.expr(n.On, sc, u); d != nil {
		return d
	}
	in.out.unions[n] = u
	for _, c := range n.Cases {
		rec := &Record{Row: in.env.extendRow(map[string]Type{"type": &TagLit{Tag: c.Tag}}, u.Variants[c.Tag])}
		in.out.caseRecords[c] = rec
		if d := in.node(c.Body, &inferScope{parent: sc, name: c.Binding, typ: rec}); d != nil {
			return d
		}
	}
	return nil
}

// component checks the arguments of <View .../> against the view's input.
func (in *inferrer) component(n *ComponentUse, sc *inferScope) *Diagnostic {
	schema, ok := in.schemas[n.View]
	if !ok {
		return newDiagnostic(ErrUnresolvedView, in.src, n.span, "view %q is not available here", n.View)
	}
	in.out.components[n] = schema
	in.addUse(n.View)

	inst := in.env.instantiate(schema).(*Record)
	given := make(map[string]bool, len(n.Args))
	var names []string
	for _, f := range schema.Fields() {
		names = append(names, f.Name)
	}
	for _, a := range n.Args {
		ft, ok := inst.Field(a.Name)
		if !ok {
			d := newDiagnostic(ErrArityOrSignatureMismatch, in.src, a.NameSpan, "<%s> has no input %q", n.View, a.Name)
			if hint := didYouMean(a.Name, names); hint != "" {
				d.hint("%s", hint)
			}
			return d
		}
		given[a.Name] = true
		if _, d := in.expr(a.Value(), sc, ft); d != nil {
			if errors.Is(d, ErrTypeConflict) {
				d.Kind = ErrArityOrSignatureMismatch
				d.Message = "input " + a.Name + " of <" + n.View + ">: " + d.Message
			}
			return d
		}
	}
	var missing []string
	for _, name := range names {
		if !given[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return newDiagnostic(ErrArityOrSignatureMismatch, in.src, n.span, "<%s> is missing %s %s",
			n.View, plural(len(missing), "input", "inputs"), strings.Join(quoteAll(missing), ", "))
	}
	return nil
}

// dynamicUse types the view expression as a view over exactly the given args.
func (in *inferrer) dynamicUse(n *DynamicUse, sc *inferScope) *Diagnostic {
	fields := make(map[string]Type, len(n.Args))
	var order []string
	for _, a := range n.Args {
		t, d := in.expr(a.Value(), sc, nil)
		if d != nil {
			return d
		}
		fields[a.Name] = t
		order = append(order, a.Name)
	}
	input := &Record{Row: in.env.extendRow(fields, in.env.closedRow()), order: order}
	in.out.dynamic[n] = input
	if _, d := in.expr(n.ViewExpr, sc, &ViewFunc{Input: input}); d != nil {
		return d
	}
	return nil
}

// collectBindings records every name bound by a <for> or <case> in n.
func collectBindings(n Node, out map[string]string) {
	switch n := n.(type) {
	case *Element:
		for _, c := range n.Children {
			collectBindings(c, out)
		}
	case *If:
		if n.Then != nil {
			collectBindings(n.Then, out)
		}
		if n.Else != nil {
			collectBindings(n.Else, out)
		}
	case *For:
		out[n.As] = `<for as="` + n.As + `">`
		collectBindings(n.Body, out)
	case *Switch:
		for _, c := range n.Cases {
			out[c.Binding] = `<case name="` + c.Tag + `">`
			collectBindings(c.Body, out)
		}
	}
}

func (in *inferrer) addUse(name string) {
	for _, u := range in.out.uses {
		if u == name {
			return
		}
	}
	in.out.uses = append(in.out.uses, name)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
