package compiler

import (
	"fmt"
	"strings"
)

// inputLiteral renders the struct literal passed to a view.
func (bg *blockGen) inputLiteral(typ string, args []*Arg, recv string) string {
	fields := make([]string, len(args))
	for i, a := range args {
		fields[i] = exportName(a.Name) + ": " + bg.expr(a.Value, bg.blk.Scope, recv)
	}
	return typ + "{" + strings.Join(fields, ", ") + "}"
}

// componentSlot calls another view of the program directly.
func (bg *blockGen) componentSlot(s *ComponentSlot) string {
	v := fmt.Sprintf("comp%d", s.ID)
	bg.emit("%s := %s(%s)", v, s.View, bg.inputLiteral(bg.inputs[s.View], s.Args, bg.recv))
	return v + ".Root"
}

func (bg *blockGen) componentUpdate(s *ComponentSlot) string {
	return fmt.Sprintf("comp%d.Update(%s)\n", s.ID, bg.inputLiteral(bg.inputs[s.View], s.Args, "next"))
}

// useInput returns the input type of a dynamic use.
func (bg *blockGen) useInput(s *UseSlot) string {
	return bg.types.recordName(s.Input, bg.view.Name+"UseInput")
}

// useSlot renders a view held in a variable. A different view function
// replaces the subtree; the same one is updated in place.
func (bg *blockGen) useSlot(s *UseSlot) string {
	v := fmt.Sprintf("use%d", s.ID)
	bg.emit("%sView := %s", v, bg.expr(s.View, bg.blk.Scope, bg.recv))
	bg.emit("%s := %sView(%s)", v, v, bg.inputLiteral(bg.useInput(s), s.Args, bg.recv))
	return v + ".Root"
}

func (bg *blockGen) useUpdate(s *UseSlot) string {
	v := fmt.Sprintf("use%d", s.ID)
	in := bg.inputLiteral(bg.useInput(s), s.Args, "next")
	var b strings.Builder
	fmt.Fprintf(&b, "if f := %s; !runtime.SameFunc(f, %sView) {\n", bg.expr(s.View, bg.blk.Scope, "next"), v)
	fmt.Fprintf(&b, "\told := %s.Root\n", v)
	fmt.Fprintf(&b, "\t%sView, %s = f, f(%s)\n", v, v, in)
	fmt.Fprintf(&b, "\told.ReplaceWith(%s.Root)\n", v)
	b.WriteString("} else {\n")
	fmt.Fprintf(&b, "\t%s.Update(%s)\n", v, in)
	b.WriteString("}\n")
	return b.String()
}

// mountSlot inserts a node produced by host code.
func (bg *blockGen) mountSlot(s *MountSlot) string {
	v := fmt.Sprintf("mount%d", s.ID)
	bg.emit("%sFn := %s", v, bg.expr(s.Expr, bg.blk.Scope, bg.recv))
	bg.emit("%s := %sFn()", v, v)
	return v
}

func (bg *blockGen) mountUpdate(s *MountSlot) string {
	v := fmt.Sprintf("mount%d", s.ID)
	var b strings.Builder
	fmt.Fprintf(&b, "if f := %s; !runtime.SameFunc(f, %sFn) {\n", bg.expr(s.Expr, bg.blk.Scope, "next"), v)
	b.WriteString("\tm := f()\n")
	fmt.Fprintf(&b, "\t%s.ReplaceWith(m)\n", v)
	fmt.Fprintf(&b, "\t%sFn, %s = f, m\n", v, v)
	b.WriteString("}\n")
	return b.String()
}
