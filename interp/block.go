package interp

import (
	"github.com/vcrobe/vgc/compiler"
	"github.com/vcrobe/vgc/runtime"
)

// blockInst is one built instance of a block: the nodes its actions patch
// and the live state of its slots.
type blockInst struct {
	in    *Interpreter
	cv    *compiler.CompiledView
	blk   *compiler.Block
	nodes map[compiler.BuildNode]runtime.Node
	slots map[compiler.Slot]*slotState
}

func (bi *blockInst) eval() evaluator {
	return evaluator{cv: bi.cv, sc: bi.blk.Scope}
}

// changed reports whether any dependency differs between two scope values.
func (bi *blockInst) changed(deps []compiler.Dep, cur, next env) bool {
	ev := bi.eval()
	for _, d := range deps {
		if !runtime.Same(ev.dep(d.Path, cur), ev.dep(d.Path, next)) {
			return true
		}
	}
	return false
}

// build creates n and appends it to parent when parent is set. It returns
// the created node, or nil for a loop, which only appends its anchor.
func (bi *blockInst) build(n compiler.BuildNode, e env, parent runtime.Node) runtime.Node {
	var node runtime.Node
	switch n := n.(type) {
	case *compiler.ElementNode:
		el := runtime.Element(n.Tag)
		bi.nodes[n] = el
		for _, a := range n.Static {
			el.SetAttribute(a.Name, a.Value)
		}
		for _, a := range n.Dynamic {
			bi.applyAttr(el, a, e)
		}
		for _, c := range n.Children {
			bi.build(c, e, el)
		}
		node = el
	case *compiler.TextNode:
		if n.Value == nil {
			node = runtime.Text(n.Literal)
		} else {
			node = runtime.Text(bi.eval().str(n.Value, e))
			bi.nodes[n] = node
		}
	case *compiler.ForSlot:
		bi.slots[n] = bi.forSlot(n, e, parent)
		return nil
	case compiler.Slot:
		st := bi.buildSlot(n, e)
		bi.slots[n] = st
		node = st.root()
	}
	if parent != nil {
		parent.AppendChild(node)
	}
	return node
}

func (bi *blockInst) applyAttr(el runtime.Node, a *compiler.AttrBinding, e env) {
	ev := bi.eval()
	v := ev.eval(a.Value, e)
	switch a.Kind {
	case compiler.BindHandler:
		el.SetHandler(a.Event, ev.handler(a.Value, v))
	case compiler.BindBool:
		b, ok := v.(bool)
		if !ok {
			ev.fail(a.Value, "got %T, want a boolean", v)
		}
		el.SetBoolAttribute(a.Name, b)
	default:
		el.SetAttribute(a.Name, attrString(v))
	}
}

func (bi *blockInst) apply(a compiler.Action, next env) {
	switch a := a.(type) {
	case compiler.SetText:
		bi.nodes[a.Node].SetText(bi.eval().str(a.Node.Value, next))
	case compiler.SetAttr:
		bi.applyAttr(bi.nodes[a.Element], a.Attr, next)
	case compiler.UpdateSlot:
		bi.slots[a.Slot].update(next)
	}
}
