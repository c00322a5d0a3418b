package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// blockGen renders the body of one block function: the build statements,
// then the update closure driven by the block's groups.
type blockGen struct {
	*viewGen
	blk   *Block
	recv  string
	build strings.Builder
	vars  map[BuildNode]string
	next  int
}

// blockBody renders the statements of a block function whose scope value is
// named recv.
func (vg *viewGen) blockBody(blk *Block, recv string) string {
	bg := &blockGen{viewGen: vg, blk: blk, recv: recv, vars: make(map[BuildNode]string)}
	typ := vg.scopeType(blk.Scope)

	// 1. Build the tree. The root expression is whatever holds the block's
	//    current top-level node.
	root := bg.node(blk.Root, "")

	// 2. Without dependencies the state never changes.
	var b strings.Builder
	b.WriteString(bg.build.String())
	if len(blk.Groups) == 0 {
		fmt.Fprintf(&b, "\treturn &runtime.ViewState[%s]{Root: %s, Update: func(%s) {}}\n", typ, root, typ)
		return b.String()
	}

	// 3. One guarded section per dependency set, then refresh the root in case
	//    a slot at the top swapped it.
	fmt.Fprintf(&b, "\tst := &runtime.ViewState[%s]{Root: %s}\n", typ, root)
	fmt.Fprintf(&b, "\tcur := %s\n", recv)
	fmt.Fprintf(&b, "\tst.Update = func(next %s) {\n", typ)
	for _, g := range blk.Groups {
		fmt.Fprintf(&b, "\t\tif %s {\n", vg.guard(g.Deps, blk.Scope))
		for _, a := range g.Actions {
			b.WriteString(indent(bg.action(a), "\t\t\t"))
		}
		b.WriteString("\t\t}\n")
	}
	if slot, ok := blk.Root.(Slot); ok && len(slot.SlotDeps()) > 0 {
		fmt.Fprintf(&b, "\t\tst.Root = %s\n", root)
	}
	b.WriteString("\t\tcur = next\n")
	b.WriteString("\t}\n")
	b.WriteString("\treturn st\n")
	return b.String()
}

// name allocates a local variable.
func (bg *blockGen) name(prefix string) string {
	bg.next++
	return prefix + strconv.Itoa(bg.next-1)
}

func (bg *blockGen) emit(format string, args ...any) {
	fmt.Fprintf(&bg.build, "\t"+format+"\n", args...)
}

// node emits the build statements of n and appends it to parent, unless
// parent is empty. It returns the expression holding n's current DOM node.
func (bg *blockGen) node(n BuildNode, parent string) string {
	var ref string
	switch n := n.(type) {
	case *ElementNode:
		ref = bg.element(n)
	case *TextNode:
		ref = bg.text(n)
	case *ForSlot:
		// A loop appends its anchor itself and inserts entries before it.
		bg.forSlot(n, parent)
		return ""
	case *IfSlot:
		ref = bg.ifSlot(n)
	case *SwitchSlot:
		ref = bg.switchSlot(n)
	case *ComponentSlot:
		ref = bg.componentSlot(n)
	case *UseSlot:
		ref = bg.useSlot(n)
	case *MountSlot:
		ref = bg.mountSlot(n)
	}
	if parent != "" {
		bg.emit("%s.AppendChild(%s)", parent, ref)
	}
	return ref
}

func (bg *blockGen) element(n *ElementNode) string {
	v := bg.name("n")
	bg.vars[n] = v
	bg.emit("%s := runtime.Element(%q)", v, n.Tag)
	for _, a := range n.Static {
		bg.emit("%s.SetAttribute(%q, %q)", v, a.Name, a.Value)
	}
	for _, a := range n.Dynamic {
		bg.emit("%s", bg.applyAttr(v, a, bg.recv))
	}
	for _, c := range n.Children {
		bg.node(c, v)
	}
	return v
}

// text returns static text inline; dynamic text gets a variable for updates.
func (bg *blockGen) text(n *TextNode) string {
	if n.Value == nil {
		return fmt.Sprintf("runtime.Text(%q)", n.Literal)
	}
	v := bg.name("t")
	bg.vars[n] = v
	bg.emit("%s := runtime.Text(%s)", v, bg.expr(n.Value, bg.blk.Scope, bg.recv))
	return v
}

// action renders one update against the scope value "next".
func (bg *blockGen) action(a Action) string {
	sc := bg.blk.Scope
	switch a := a.(type) {
	case SetText:
		return fmt.Sprintf("%s.SetText(%s)\n", bg.vars[a.Node], bg.expr(a.Node.Value, sc, "next"))
	case SetAttr:
		return bg.applyAttr(bg.vars[a.Element], a.Attr, "next") + "\n"
	case UpdateSlot:
		return bg.slotUpdate(a.Slot)
	}
	return ""
}

func (bg *blockGen) slotUpdate(s Slot) string {
	switch s := s.(type) {
	case *ForSlot:
		return bg.forUpdate(s)
	case *IfSlot:
		return bg.ifUpdate(s)
	case *SwitchSlot:
		return bg.switchUpdate(s)
	case *ComponentSlot:
		return bg.componentUpdate(s)
	case *UseSlot:
		return bg.useUpdate(s)
	case *MountSlot:
		return bg.mountUpdate(s)
	}
	return ""
}

// indent prefixes every non-empty line of code.
func indent(code, prefix string) string {
	lines := strings.SplitAfter(code, "\n")
	var b strings.Builder
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			b.WriteString(prefix)
		}
		b.WriteString(l)
	}
	return b.String()
}
