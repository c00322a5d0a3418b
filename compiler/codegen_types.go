package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// typeNamer assigns Go names to record and union shapes. Structurally equal
// shapes share one declaration, named after the first place they appear.
type typeNamer struct {
	names    map[string]string            // typeKey -> Go name
	variants map[string]map[string]string // union typeKey -> tag -> variant name
	used     map[string]bool
	decls    strings.Builder
}

func newTypeNamer(reserved []string) *typeNamer {
	n := &typeNamer{
		names:    make(map[string]string),
		variants: make(map[string]map[string]string),
		used:     make(map[string]bool),
	}
	for _, r := range reserved {
		n.used[r] = true
	}
	return n
}

// unique returns hint, or hint with a numeric suffix when it is taken.
func (n *typeNamer) unique(hint string) string {
	name := goIdent(hint)
	if !n.used[name] {
		n.used[name] = true
		return name
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !n.used[candidate] {
			n.used[candidate] = true
			return candidate
		}
	}
}

// goIdent turns an arbitrary hint such as "Card-item" into "CardItem".
func goIdent(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" || unicode.IsDigit(rune(out[0])) {
		out = "T" + out
	}
	return out
}

// goType renders a resolved type. hint names records and unions that have
// not been declared yet.
func (n *typeNamer) goType(t Type, hint string) string {
	switch t := t.(type) {
	case Prim:
		switch t {
		case TString:
			return "string"
		case TNumber:
			return "float64"
		case TBoolean:
			return "bool"
		case TNode:
			return "runtime.Node"
		case TVoid:
			return ""
		default:
			return "any"
		}
	case *TagLit:
		return "string"
	case *List:
		return "[]" + n.goType(t.Elem, hint+"Item")
	case *Record:
		return "*" + n.recordName(t, hint)
	case *Union:
		return n.unionName(t, hint)
	case *Func:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = n.goType(p, fmt.Sprintf("%sArg%d", hint, i))
		}
		sig := "func(" + strings.Join(params, ", ") + ")"
		if res := n.goType(t.Result, hint+"Result"); res != "" {
			sig += " " + res
		}
		return sig
	case *ViewFunc:
		in := n.recordName(t.Input.(*Record), hint+"Input")
		return fmt.Sprintf("func(%s) *runtime.ViewState[%s]", in, in)
	}
	return "any"
}

// recordName declares a struct for the record shape on first sight.
func (n *typeNamer) recordName(r *Record, hint string) string {
	key := typeKey(r)
	if name, ok := n.names[key]; ok {
		return name
	}
	name := n.unique(hint)
	n.names[key] = name
	n.declareStruct(name, r.Fields())
	return name
}

// viewInputName declares the input type of a view. A view whose input shape
// is already declared gets an alias, so the two stay assignable.
func (n *typeNamer) viewInputName(view string, r *Record) string {
	name := n.unique(view + "Input")
	key := typeKey(r)
	if existing, ok := n.names[key]; ok {
		fmt.Fprintf(&n.decls, "// %s is the input of %s.\ntype %s = %s\n\n", name, view, name, existing)
		return name
	}
	n.names[key] = name
	n.declareStructAs(name, r.Fields(), view, fmt.Sprintf("// %s is the input of %s.\n", name, view))
	return name
}

func (n *typeNamer) declareStruct(name string, fields []Field) {
	n.declareStructAs(name, fields, name, "")
}

// declareStructAs writes a struct declaration after any nested types its
// fields need; prefix names those nested types.
func (n *typeNamer) declareStructAs(name string, fields []Field, prefix, doc string) {
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = fmt.Sprintf("\t%s %s\n", exportName(f.Name), n.goType(f.Type, prefix+exportName(f.Name)))
	}
	fmt.Fprintf(&n.decls, "%stype %s struct {\n%s}\n\n", doc, name, strings.Join(lines, ""))
}

// unionName declares an interface for the union plus one struct per variant.
func (n *typeNamer) unionName(u *Union, hint string) string {
	key := typeKey(u)
	if name, ok := n.names[key]; ok {
		return name
	}
	name := n.unique(hint)
	n.names[key] = name
	marker := "is" + name

	tags := u.Tags()
	variants := make(map[string]string, len(tags))
	for _, tag := range tags {
		variants[tag] = n.unique(name + goIdent(tag))
	}
	n.variants[key] = variants

	fmt.Fprintf(&n.decls, "// %s is one of:", name)
	for _, tag := range tags {
		fmt.Fprintf(&n.decls, " *%s", variants[tag])
	}
	fmt.Fprintf(&n.decls, ".\ntype %s interface {\n\t%s()\n}\n\n", name, marker)
	for _, tag := range tags {
		vname := variants[tag]
		n.declareStruct(vname, u.Variant(tag).Fields())
		fmt.Fprintf(&n.decls, "func (*%s) %s() {}\n\n", vname, marker)
	}
	return name
}

// variantName returns the struct declared for one union variant.
func (n *typeNamer) variantName(u *Union, tag string) string {
	n.unionName(u, "Union")
	return n.variants[typeKey(u)][tag]
}
