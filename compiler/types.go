package compiler

import (
	"fmt"
	"sort"
	"strings"
)

// Type is a template type. During inference types may contain *TypeVar and
// open rows; resolve turns them into ground types.
type Type interface {
	String() string
}

// Prim is a primitive type.
type Prim string

const (
	TString  Prim = "string"
	TNumber  Prim = "number"
	TBoolean Prim = "boolean"
	TVoid    Prim = "void" // result of an event handler
	TNode    Prim = "node" // a platform element returned by a mount function
	TAny     Prim = "any"  // left unconstrained by every use
)

// TagLit is the type of a union variant's "type" field.
type TagLit struct {
	Tag string
}

// TypeVar is a placeholder refined by unification. Vars form a union-find
// forest; only the root carries the binding.
type TypeVar struct {
	id     int
	name   string // free variable name, for messages
	parent *TypeVar
	bound  Type
}

// Row describes the fields of a record. A row is open (a row variable),
// closed and empty, or a set of fields followed by another row.
type Row struct {
	id     int
	parent *Row
	closed bool
	fields map[string]Type // nil for open and closed rows
	tail   *Row
}

// Record is a record type over a row.
type Record struct {
	Row *Row
	// order is the preferred field order; remaining fields follow sorted.
	order []string
}

// List is a sequence type.
type List struct {
	Elem Type
}

// Union is a discriminated union tagged by the "type" field. Variant rows do
// not contain the tag field.
type Union struct {
	Variants map[string]*Row
}

// Func is a function type. A handler is Func{Result: TVoid}.
type Func struct {
	Params []Type
	Result Type
}

// ViewFunc is a view used as a value: func(Input) *ViewState[Input].
type ViewFunc struct {
	Input Type
}

// Field is a resolved record field.
type Field struct {
	Name string
	Type Type
}

// typeEnv allocates variables and rows.
type typeEnv struct {
	nextID int
}

func (e *typeEnv) fresh() *TypeVar {
	e.nextID++
	return &TypeVar{id: e.nextID}
}

func (e *typeEnv) named(name string) *TypeVar {
	v := e.fresh()
	v.name = name
	return v
}

func (e *typeEnv) openRow() *Row {
	e.nextID++
	return &Row{id: e.nextID}
}

func (e *typeEnv) closedRow() *Row {
	e.nextID++
	return &Row{id: e.nextID, closed: true}
}

func (e *typeEnv) extendRow(fields map[string]Type, tail *Row) *Row {
	e.nextID++
	return &Row{id: e.nextID, fields: fields, tail: tail}
}

// record builds an open record requiring the given fields.
func (e *typeEnv) record(fields map[string]Type) *Record {
	return &Record{Row: e.extendRow(fields, e.openRow())}
}

func (v *TypeVar) find() *TypeVar {
	if v.parent == nil {
		return v
	}
	root := v.parent.find()
	v.parent = root
	return root
}

func (r *Row) find() *Row {
	if r.parent == nil {
		return r
	}
	root := r.parent.find()
	r.parent = root
	return root
}

func (r *Row) isOpen() bool {
	r = r.find()
	return !r.closed && r.fields == nil
}

// prune follows bound variables to the type they stand for.
func prune(t Type) Type {
	for {
		v, ok := t.(*TypeVar)
		if !ok {
			return t
		}
		v = v.find()
		if v.bound == nil {
			return v
		}
		t = v.bound
	}
}

// gatherFields flattens a row into its fields and final tail.
func gatherFields(r *Row) (map[string]Type, *Row) {
	fields := make(map[string]Type)
	for {
		r = r.find()
		if r.fields == nil {
			return fields, r
		}
		for name, t := range r.fields {
			if _, ok := fields[name]; !ok {
				fields[name] = t
			}
		}
		r = r.tail
	}
}

// Fields returns the record's fields in their preferred order.
func (t *Record) Fields() []Field {
	fields, _ := gatherFields(t.Row)
	out := make([]Field, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, name := range t.order {
		if ft, ok := fields[name]; ok && !seen[name] {
			out = append(out, Field{name, ft})
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(fields))
	for name := range fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, Field{name, fields[name]})
	}
	return out
}

// Field returns the type of one field.
func (t *Record) Field(name string) (Type, bool) {
	fields, _ := gatherFields(t.Row)
	ft, ok := fields[name]
	return ft, ok
}

// Tags returns the variant tags in sorted order.
func (t *Union) Tags() []string {
	tags := make([]string, 0, len(t.Variants))
	for tag := range t.Variants {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Variant returns the record of one variant, without the tag field.
func (t *Union) Variant(tag string) *Record {
	return &Record{Row: t.Variants[tag]}
}

func (p Prim) String() string     { return string(p) }
func (t *TagLit) String() string  { return fmt.Sprintf("%q", t.Tag) }
func (t *List) String() string    { return "list<" + t.Elem.String() + ">" }
func (t *Record) String() string  { return "{" + rowString(t.Row) + "}" }
func (t *ViewFunc) String() string { return "view(" + t.Input.String() + ")" }

func (v *TypeVar) String() string {
	t := prune(v)
	if r, ok := t.(*TypeVar); ok {
		if r.name != "" {
			return "'" + r.name
		}
		return fmt.Sprintf("'t%d", r.id)
	}
	return t.String()
}

func (t *Union) String() string {
	arms := make([]string, 0, len(t.Variants))
	for _, tag := range t.Tags() {
		body := rowString(t.Variants[tag])
		if body != "" {
			body = ", " + body
		}
		arms = append(arms, fmt.Sprintf("{type: %q%s}", tag, body))
	}
	return strings.Join(arms, " | ")
}

func (t *Func) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return "(" + strings.Join(params, ", ") + ") -> " + t.Result.String()
}

func rowString(r *Row) string {
	fields, tail := gatherFields(r)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names)+1)
	for _, name := range names {
		parts = append(parts, name+": "+fields[name].String())
	}
	if !tail.closed {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

// resolve replaces every variable by its binding (or TAny when unbound) and
// closes every open row. The result contains no *TypeVar.
func resolve(t Type) Type {
	switch t := prune(t).(type) {
	case *TypeVar:
		t.bound = TAny
		return TAny
	case *List:
		return &List{Elem: resolve(t.Elem)}
	case *Record:
		return &Record{Row: resolveRow(t.Row), order: t.order}
	case *Union:
		u := &Union{Variants: make(map[string]*Row, len(t.Variants))}
		for tag, r := range t.Variants {
			u.Variants[tag] = resolveRow(r)
		}
		return u
	case *Func:
		f := &Func{Params: make([]Type, len(t.Params)), Result: resolve(t.Result)}
		for i, p := range t.Params {
			f.Params[i] = resolve(p)
		}
		return f
	case *ViewFunc:
		return &ViewFunc{Input: resolve(t.Input)}
	default:
		return t
	}
}

func resolveRow(r *Row) *Row {
	fields, tail := gatherFields(r)
	if !tail.closed {
		tail.closed = true
	}
	out := make(map[string]Type, len(fields))
	for name, ft := range fields {
		out[name] = resolve(ft)
	}
	return &Row{fields: out, tail: &Row{closed: true}}
}

// instantiate copies a resolved type so that unifying against it cannot
// mutate the original. Rows stay closed.
func (e *typeEnv) instantiate(t Type) Type {
	switch t := t.(type) {
	case *List:
		return &List{Elem: e.instantiate(t.Elem)}
	case *Record:
		return &Record{Row: e.instantiateRow(t.Row), order: t.order}
	case *Union:
		u := &Union{Variants: make(map[string]*Row, len(t.Variants))}
		for tag, r := range t.Variants {
			u.Variants[tag] = e.instantiateRow(r)
		}
		return u
	case *Func:
		f := &Func{Params: make([]Type, len(t.Params)), Result: e.instantiate(t.Result)}
		for i, p := range t.Params {
			f.Params[i] = e.instantiate(p)
		}
		return f
	case *ViewFunc:
		return &ViewFunc{Input: e.instantiate(t.Input)}
	default:
		return t
	}
}

func (e *typeEnv) instantiateRow(r *Row) *Row {
	fields, _ := gatherFields(r)
	out := make(map[string]Type, len(fields))
	for name, ft := range fields {
		out[name] = e.instantiate(ft)
	}
	return e.extendRow(out, e.closedRow())
}

// typeKey is a structural key of a resolved type, used to share Go type
// declarations between identical shapes.
func typeKey(t Type) string {
	switch t := t.(type) {
	case Prim:
		return string(t)
	case *TagLit:
		return "string"
	case *List:
		return "[" + typeKey(t.Elem) + "]"
	case *Record:
		return "{" + fieldsKey(t.Fields()) + "}"
	case *Union:
		var b strings.Builder
		b.WriteString("<")
		for _, tag := range t.Tags() {
			fmt.Fprintf(&b, "%q:{%s}", tag, fieldsKey(t.Variant(tag).Fields()))
		}
		b.WriteString(">")
		return b.String()
	case *Func:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = typeKey(p)
		}
		return "func(" + strings.Join(params, ",") + ")" + typeKey(t.Result)
	case *ViewFunc:
		return "view(" + typeKey(t.Input) + ")"
	default:
		return "?"
	}
}

func fieldsKey(fields []Field) string {
	sorted := append([]Field(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	parts := make([]string, len(sorted))
	for i, f := range sorted {
		parts[i] = f.Name + ":" + typeKey(f.Type)
	}
	return strings.Join(parts, ",")
}
