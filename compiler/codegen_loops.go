package compiler

import "fmt"

// forSlot emits a loop. Entries live between the previous sibling and an
// anchor comment; runtime.UpdateForLoop reconciles them by index.
func (bg *blockGen) forSlot(s *ForSlot, parent string) {
	scopes := bg.forScopes(s)
	body := bg.blockFunc(s.Body)
	anchor := fmt.Sprintf("anchor%d", s.ID)
	bg.emit("%s := runtime.Comment(\"\")", anchor)
	bg.emit("%s.AppendChild(%s)", parent, anchor)
	bg.emit("loop%d := runtime.UpdateForLoop(%s, nil, %s(%s), %s)", s.ID, anchor, scopes, bg.recv, body)
	if len(s.Deps) == 0 {
		bg.emit("_ = loop%d", s.ID)
	}
}

// forScopes writes the function mapping the sequence to one scope value per
// entry and returns its name.
func (bg *blockGen) forScopes(s *ForSlot) string {
	name := fmt.Sprintf("%sScopes%d", bg.prefix, s.ID)
	parent := bg.scopeType(bg.blk.Scope)
	child := bg.scopeType(s.Body.Scope)
	fmt.Fprintf(&bg.helpers, "func %s(v %s) []%s {\n", name, parent, child)
	fmt.Fprintf(&bg.helpers, "\titems := %s\n", bg.expr(s.Seq, bg.blk.Scope, "v"))
	fmt.Fprintf(&bg.helpers, "\tscopes := make([]%s, len(items))\n", child)
	bg.helpers.WriteString("\tfor i, item := range items {\n")
	fmt.Fprintf(&bg.helpers, "\t\tscopes[i] = %s\n", bg.scopeLiteral(s.Body.Scope, "v", "item"))
	bg.helpers.WriteString("\t}\n\treturn scopes\n}\n\n")
	return name
}

func (bg *blockGen) forUpdate(s *ForSlot) string {
	return fmt.Sprintf("loop%d = runtime.UpdateForLoop(anchor%d, loop%d, %sScopes%d(next), %sBlock%d)\n",
		s.ID, s.ID, s.ID, bg.prefix, s.ID, bg.prefix, s.Body.ID)
}
