package vdom

import "testing"

func newTree(t *testing.T) (*Document, *Node, []*Node) {
	t.Helper()
	doc := NewDocument()
	root := doc.Root()
	var kids []*Node
	for _, tag := range []string{"a", "b", "c"} {
		n := doc.CreateElement(tag).(*Node)
		root.AppendChild(n)
		kids = append(kids, n)
	}
	doc.Reset(root)
	return doc, root, kids
}

func tags(n *Node) string {
	s := ""
	for _, c := range n.Children {
		switch c.Kind {
		case ElementNode:
			s += c.Tag
		case TextNode:
			s += "'" + c.Data + "'"
		default:
			s += "#"
		}
	}
	return s
}

func TestNode_Mutations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc *Document, kids []*Node)
		want   string
		op     Op
	}{
		{"append moves", func(_ *Document, k []*Node) { k[0].Parent.AppendChild(k[0]) }, "bca", OpAppend},
		{"before", func(d *Document, k []*Node) { k[0].Before(d.CreateComment("")) }, "#abc", OpInsert},
		{"before moves", func(_ *Document, k []*Node) { k[0].Before(k[2]) }, "cab", OpInsert},
		{"replace", func(d *Document, k []*Node) { k[1].ReplaceWith(d.CreateText("x")) }, "a'x'c", OpReplace},
		{"remove", func(_ *Document, k []*Node) { k[1].Remove() }, "ac", OpRemove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			doc, root, kids := newTree(t)

			// Act
			tt.mutate(doc, kids)

			// Assert
			if got := tags(root); got != tt.want {
				t.Errorf("children = %s, want %s", got, tt.want)
			}
			if len(doc.Log) != 1 || doc.Log[0].Op != tt.op {
				t.Errorf("log = %+v, want one %s", doc.Log, tt.op)
			}
		})
	}
}

func TestNode_ReplaceWithSelfIsNoop(t *testing.T) {
	doc, root, kids := newTree(t)

	kids[0].ReplaceWith(kids[0])

	if len(doc.Log) != 0 || tags(root) != "abc" {
		t.Errorf("log = %+v, children = %s", doc.Log, tags(root))
	}
}

func TestNode_DetachedIsNoop(t *testing.T) {
	tests := []struct {
		name string
		op   func(n, other *Node)
	}{
		{"remove", func(n, _ *Node) { n.Remove() }},
		{"replace", func(n, other *Node) { n.ReplaceWith(other) }},
		{"before", func(n, other *Node) { n.Before(other) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument()
			n := doc.CreateElement("p").(*Node)
			other := doc.CreateElement("b").(*Node)

			tt.op(n, other)

			if n.Mutations != 0 || other.Mutations != 0 || len(doc.Log) != 0 || other.Parent != nil {
				t.Errorf("log = %+v, want no mutations", doc.Log)
			}
		})
	}
}

func TestNode_Attributes(t *testing.T) {
	// Arrange
	doc := NewDocument()
	n := doc.CreateElement("input").(*Node)

	// Act
	n.SetAttribute("value", "a")
	n.SetAttribute("value", "b")
	n.SetBoolAttribute("disabled", true)
	n.SetBoolAttribute("checked", true)
	n.SetBoolAttribute("checked", false)

	// Assert
	if v, _ := n.Attr("value"); v != "b" {
		t.Errorf("value = %q, want b", v)
	}
	if _, ok := n.Attr("disabled"); !ok {
		t.Error("disabled should be set")
	}
	if _, ok := n.Attr("checked"); ok {
		t.Error("checked should be removed")
	}
	if n.Mutations != 5 || doc.Count(OpAttribute) != 5 {
		t.Errorf("Mutations = %d, attribute ops = %d, want 5", n.Mutations, doc.Count(OpAttribute))
	}
}

func TestNode_Handlers(t *testing.T) {
	doc := NewDocument()
	n := doc.CreateElement("button").(*Node)
	clicks := 0

	n.SetHandler("click", func() { clicks++ })
	n.Dispatch("click")
	n.SetHandler("click", nil)
	dispatched := n.Dispatch("click")

	if clicks != 1 || dispatched {
		t.Errorf("clicks = %d, dispatched after removal = %v", clicks, dispatched)
	}
}

func TestNode_SetText(t *testing.T) {
	doc := NewDocument()
	p := doc.CreateElement("p").(*Node)
	p.AppendChild(doc.CreateElement("b"))
	txt := doc.CreateText("a").(*Node)

	p.SetText("hello")
	txt.SetText("b")

	if tags(p) != "'hello'" || p.TextContent() != "hello" {
		t.Errorf("element children = %s", tags(p))
	}
	if txt.Data != "b" {
		t.Errorf("text = %q, want b", txt.Data)
	}
}

func TestNode_Find(t *testing.T) {
	_, root, kids := newTree(t)
	kids[1].AppendChild(kids[1].doc.CreateElement("span"))

	if got := root.FindTag("span"); got == nil || got.Parent != kids[1] {
		t.Errorf("FindTag(span) = %v", got)
	}
	if got := root.FindTag("table"); got != nil {
		t.Errorf("FindTag(table) = %v, want nil", got)
	}
	if got := root.FindTag("div"); got != nil {
		t.Errorf("FindTag(div) = %v, want nil since the root itself is not searched", got)
	}
	if got := len(root.Elements()); got != 3 {
		t.Errorf("len(Elements) = %d, want 3", got)
	}
}
