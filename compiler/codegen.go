package compiler

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/tools/imports"
)

// generator renders a whole program into one Go file.
type generator struct {
	opts   Options
	types  *typeNamer
	inputs map[string]string // view name -> input type name
}

// viewGen renders one view: its exported function plus unexported block
// functions, scope structs and helpers.
type viewGen struct {
	*generator
	view    *CompiledView
	prefix  string
	scopes  map[int]string
	decls   strings.Builder // scope structs
	helpers strings.Builder // block functions and helpers, in discovery order
}

// Generate renders the program as a single formatted Go source file.
func Generate(prog *Program, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	reserved := make([]string, 0, len(prog.Views))
	for _, v := range prog.Views {
		reserved = append(reserved, v.Name)
	}
	g := &generator{
		opts:   opts,
		types:  newTypeNamer(reserved),
		inputs: make(map[string]string, len(prog.Views)),
	}

	// Step 1: Declare every view input first; component slots refer to the
	// input types of other views.
	for _, v := range prog.Views {
		g.inputs[v.Name] = g.types.viewInputName(v.Name, v.Input)
	}

	// Step 2: Render the views. Nested types are declared while rendering.
	var views strings.Builder
	for _, v := range prog.Views {
		vg := &viewGen{generator: g, view: v, prefix: unexportName(v.Name), scopes: make(map[int]string)}
		views.WriteString(vg.render())
	}

	// Step 3: Assemble the file.
	var out bytes.Buffer
	if opts.Header != "" {
		for _, line := range strings.Split(strings.TrimRight(opts.Header, "\n"), "\n") {
			fmt.Fprintf(&out, "// %s\n", line)
		}
		out.WriteString("\n")
	}
	out.WriteString("// Code generated by vgc. DO NOT EDIT.\n\n")
	fmt.Fprintf(&out, "package %s\n\n", opts.Package)
	if len(prog.Views) > 0 {
		fmt.Fprintf(&out, "import %q\n\n", opts.RuntimeImport)
	}
	out.WriteString(g.types.decls.String())
	out.WriteString(views.String())

	// Step 4: Format. FormatOnly keeps the runtime import even when its last
	// path element differs from the package name.
	src, err := imports.Process("views.go", out.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return out.Bytes(), fmt.Errorf("formatting generated code: %w", err)
	}
	return src, nil
}

// render returns the view function followed by its helpers.
func (vg *viewGen) render() string {
	var b strings.Builder
	in := vg.inputs[vg.view.Name]
	fmt.Fprintf(&b, "// %s renders the %s view from %s.\n", vg.view.Name, vg.view.Name, vg.view.File)
	fmt.Fprintf(&b, "func %s(input %s) *runtime.ViewState[%s] {\n", vg.view.Name, in, in)
	b.WriteString(vg.blockBody(vg.view.Root, "input"))
	b.WriteString("}\n\n")
	b.WriteString(vg.decls.String())
	b.WriteString(vg.helpers.String())
	return b.String()
}

// blockFunc emits a child block as a package-level function and returns its name.
func (vg *viewGen) blockFunc(blk *Block) string {
	name := fmt.Sprintf("%sBlock%d", vg.prefix, blk.ID)
	typ := vg.scopeType(blk.Scope)
	var b strings.Builder
	fmt.Fprintf(&b, "func %s(v %s) *runtime.ViewState[%s] {\n", name, typ, typ)
	b.WriteString(vg.blockBody(blk, "v"))
	b.WriteString("}\n\n")
	vg.helpers.WriteString(b.String())
	return name
}

// scopeType returns the Go type a block of scope sc receives: the view input
// at level 0, a struct of the input plus every visible binding deeper down.
func (vg *viewGen) scopeType(sc *Scope) string {
	if sc.Level == 0 {
		return vg.inputs[vg.view.Name]
	}
	if name, ok := vg.scopes[sc.ID]; ok {
		return name
	}
	name := fmt.Sprintf("%sScope%d", vg.prefix, sc.ID)
	vg.scopes[sc.ID] = name

	fields := []string{fmt.Sprintf("\tinput %s\n", vg.inputs[vg.view.Name])}
	for _, b := range sc.Bindings() {
		fields = append(fields, fmt.Sprintf("\t%s %s\n", bindName(b.Binding), vg.bindingType(b)))
	}
	fmt.Fprintf(&vg.decls, "type %s struct {\n%s}\n\n", name, strings.Join(fields, ""))
	return name
}

// bindingType is the Go type of the name a scope binds.
func (vg *viewGen) bindingType(sc *Scope) string {
	if sc.Union != nil {
		return "*" + vg.types.variantName(sc.Union, sc.Tag)
	}
	return vg.types.goType(sc.Type, vg.view.Name+goIdent(sc.Binding))
}

// inputOf renders the view input reachable from recv, a value of scope sc.
func inputOf(sc *Scope, recv string) string {
	if sc.Level == 0 {
		return recv
	}
	return recv + ".input"
}

// scopeLiteral builds the scope value of child from recv, a value of the
// parent scope, binding the child's name to value.
func (vg *viewGen) scopeLiteral(child *Scope, recv, value string) string {
	fields := []string{"input: " + inputOf(child.Parent, recv)}
	for _, b := range child.Bindings() {
		if b == child {
			fields = append(fields, bindName(b.Binding)+": "+value)
			continue
		}
		fields = append(fields, bindName(b.Binding)+": "+recv+"."+bindName(b.Binding))
	}
	return vg.scopeType(child) + "{" + strings.Join(fields, ", ") + "}"
}
