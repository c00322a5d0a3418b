package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// ifSlot emits a conditional. Both branches are blocks over the enclosing
// scope; a missing branch renders an empty placeholder.
func (bg *blockGen) ifSlot(s *IfSlot) string {
	typ := bg.scopeType(bg.blk.Scope)
	pick := bg.ifHelper(s, typ)
	v := fmt.Sprintf("if%d", s.ID)
	bg.emit("%sCond := %s", v, bg.expr(s.Cond, bg.blk.Scope, bg.recv))
	bg.emit("%s := %s(%s, %sCond)", v, pick, bg.recv, v)
	return v + ".Root"
}

// ifHelper writes the function choosing a branch and returns its name.
func (bg *blockGen) ifHelper(s *IfSlot, typ string) string {
	branch := func(blk *Block) string {
		if blk == nil {
			return fmt.Sprintf("runtime.Empty[%s]()", typ)
		}
		return bg.blockFunc(blk) + "(v)"
	}
	then, els := branch(s.Then), branch(s.Else)

	name := fmt.Sprintf("%sIf%d", bg.prefix, s.ID)
	fmt.Fprintf(&bg.helpers, "func %s(v %s, cond bool) *runtime.ViewState[%s] {\n", name, typ, typ)
	fmt.Fprintf(&bg.helpers, "\tif cond {\n\t\treturn %s\n\t}\n\treturn %s\n}\n\n", then, els)
	return name
}

// ifUpdate swaps branches when the condition flips and otherwise forwards
// the update to the live branch.
func (bg *blockGen) ifUpdate(s *IfSlot) string {
	v := fmt.Sprintf("if%d", s.ID)
	var b strings.Builder
	fmt.Fprintf(&b, "if c := %s; c != %sCond {\n", bg.expr(s.Cond, bg.blk.Scope, "next"), v)
	fmt.Fprintf(&b, "\told := %s.Root\n", v)
	fmt.Fprintf(&b, "\t%sCond, %s = c, %sIf%d(next, c)\n", v, v, bg.prefix, s.ID)
	fmt.Fprintf(&b, "\told.ReplaceWith(%s.Root)\n", v)
	b.WriteString("} else {\n")
	fmt.Fprintf(&b, "\t%s.Update(next)\n", v)
	b.WriteString("}\n")
	return b.String()
}

// switchSlot emits a type switch over the union's variant structs. The live
// case keeps its own state so an update with the same tag stays in place.
func (bg *blockGen) switchSlot(s *SwitchSlot) string {
	v := fmt.Sprintf("sw%d", s.ID)
	dynamic := len(s.Deps) > 0
	if dynamic {
		bg.emit("var %sTag string", v)
	}
	bg.emit("var %sRoot runtime.Node", v)
	for i, c := range s.Cases {
		bg.emit("var %sCase%d *runtime.ViewState[%s]", v, i, bg.scopeType(c.Body.Scope))
	}

	typ := bg.scopeType(bg.blk.Scope)
	var b strings.Builder
	fmt.Fprintf(&b, "build%d := func(v %s) {\n", s.ID, typ)
	fmt.Fprintf(&b, "\tswitch x := (%s).(type) {\n", bg.expr(s.On, bg.blk.Scope, "v"))
	for i, c := range s.Cases {
		fmt.Fprintf(&b, "\tcase *%s:\n", bg.types.variantName(s.Union, c.Tag))
		fmt.Fprintf(&b, "\t\t%sCase%d = %s(%s)\n", v, i, bg.blockFunc(c.Body), bg.scopeLiteral(c.Body.Scope, "v", "x"))
		if dynamic {
			fmt.Fprintf(&b, "\t\t%sTag = %s\n", v, strconv.Quote(c.Tag))
		}
		fmt.Fprintf(&b, "\t\t%sRoot = %sCase%d.Root\n", v, v, i)
	}
	b.WriteString("\tdefault:\n")
	if dynamic {
		fmt.Fprintf(&b, "\t\t%sTag = \"\"\n", v)
	}
	fmt.Fprintf(&b, "\t\t%sRoot = runtime.Comment(\"\")\n", v)
	b.WriteString("\t}\n}\n")
	fmt.Fprintf(&b, "build%d(%s)\n", s.ID, bg.recv)

	if dynamic {
		fmt.Fprintf(&b, "update%d := func(v %s) {\n", s.ID, typ)
		fmt.Fprintf(&b, "\tswitch x := (%s).(type) {\n", bg.expr(s.On, bg.blk.Scope, "v"))
		for i, c := range s.Cases {
			fmt.Fprintf(&b, "\tcase *%s:\n", bg.types.variantName(s.Union, c.Tag))
			fmt.Fprintf(&b, "\t\tif %sTag == %s {\n", v, strconv.Quote(c.Tag))
			fmt.Fprintf(&b, "\t\t\t%sCase%d.Update(%s)\n", v, i, bg.scopeLiteral(c.Body.Scope, "v", "x"))
			b.WriteString("\t\t\treturn\n\t\t}\n")
		}
		b.WriteString("\t}\n")
		fmt.Fprintf(&b, "\told := %sRoot\n", v)
		fmt.Fprintf(&b, "\tbuild%d(v)\n", s.ID)
		fmt.Fprintf(&b, "\told.ReplaceWith(%sRoot)\n", v)
		b.WriteString("}\n")
	}
	bg.build.WriteString(indent(b.String(), "\t"))
	return v + "Root"
}

func (bg *blockGen) switchUpdate(s *SwitchSlot) string {
	return fmt.Sprintf("update%d(next)\n", s.ID)
}
