// Package vdom provides runtime.Document implementations: an in-memory tree
// that counts every mutation, used for tests and HTML previews, and the
// browser DOM in WebAssembly builds.
package vdom

import (
	"strings"

	"github.com/vcrobe/vgc/runtime"
)

// Kind is the type of an in-memory node.
type Kind int

const (
	ElementNode Kind = iota
	TextNode
	CommentNode
)

// Attr is an element attribute. Boolean attributes have an empty value.
type Attr struct {
	Name  string
	Value string
}

// Node is an in-memory DOM node.
type Node struct {
	Kind     Kind
	Tag      string // elements only
	Data     string // text and comment content
	Attrs    []Attr
	Handlers map[string]func()
	Parent   *Node
	Children []*Node
	// Mutations counts the changes applied to this node after it was
	// created, including its insertion, replacement and removal.
	Mutations int

	doc *Document
}

// Op names a mutation.
type Op string

const (
	OpAppend    Op = "append"
	OpInsert    Op = "insert"
	OpReplace   Op = "replace"
	OpRemove    Op = "remove"
	OpText      Op = "text"
	OpAttribute Op = "attribute"
	OpHandler   Op = "handler"
)

// Mutation is one recorded change.
type Mutation struct {
	Node *Node
	Op   Op
	Name string // attribute or event name
}

// Document is an in-memory runtime.Document.
type Document struct {
	Log []Mutation
}

var _ runtime.Document = (*Document)(nil)
var _ runtime.Node = (*Node)(nil)

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Reset clears the mutation log and every node's counter reachable from
// the given roots.
func (d *Document) Reset(roots ...*Node) {
	d.Log = nil
	for _, r := range roots {
		r.Walk(func(n *Node) bool {
			n.Mutations = 0
			return true
		})
	}
}

// Root returns a detached <div> to mount views into.
func (d *Document) Root() *Node {
	return &Node{Kind: ElementNode, Tag: "div", doc: d}
}

func (d *Document) CreateElement(tag string) runtime.Node {
	return &Node{Kind: ElementNode, Tag: tag, doc: d}
}

func (d *Document) CreateText(s string) runtime.Node {
	return &Node{Kind: TextNode, Data: s, doc: d}
}

func (d *Document) CreateComment(s string) runtime.Node {
	return &Node{Kind: CommentNode, Data: s, doc: d}
}

func (d *Document) record(n *Node, op Op, name string) {
	n.Mutations++
	d.Log = append(d.Log, Mutation{Node: n, Op: op, Name: name})
}

// Count returns the number of logged mutations with the given op.
func (d *Document) Count(op Op) int {
	c := 0
	for _, m := range d.Log {
		if m.Op == op {
			c++
		}
	}
	return c
}

func asNode(n runtime.Node) *Node {
	return n.(*Node)
}

func (n *Node) AppendChild(child runtime.Node) {
	c := asNode(child)
	c.detach()
	c.Parent = n
	n.Children = append(n.Children, c)
	n.doc.record(c, OpAppend, "")
}

// Before and ReplaceWith do nothing on a detached node, as in the browser.
func (n *Node) Before(other runtime.Node) {
	o := asNode(other)
	if n.Parent == nil {
		return
	}
	o.detach()
	p := n.Parent
	i := p.index(n)
	p.Children = append(p.Children[:i], append([]*Node{o}, p.Children[i:]...)...)
	o.Parent = p
	n.doc.record(o, OpInsert, "")
}

func (n *Node) ReplaceWith(other runtime.Node) {
	o := asNode(other)
	if o == n || n.Parent == nil {
		return
	}
	o.detach()
	p := n.Parent
	p.Children[p.index(n)] = o
	o.Parent = p
	n.Parent = nil
	n.doc.record(n, OpReplace, "")
}

func (n *Node) Remove() {
	if n.Parent == nil {
		return
	}
	n.detach()
	n.doc.record(n, OpRemove, "")
}

func (n *Node) SetText(s string) {
	if n.Kind == ElementNode {
		n.Children = []*Node{{Kind: TextNode, Data: s, Parent: n, doc: n.doc}}
	} else {
		n.Data = s
	}
	n.doc.record(n, OpText, "")
}

func (n *Node) SetAttribute(name, value string) {
	n.setAttr(name, value)
	n.doc.record(n, OpAttribute, name)
}

func (n *Node) SetBoolAttribute(name string, on bool) {
	if on {
		n.setAttr(name, "")
	} else {
		for i, a := range n.Attrs {
			if a.Name == name {
				n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
				break
			}
		}
	}
	n.doc.record(n, OpAttribute, name)
}

func (n *Node) SetHandler(event string, fn func()) {
	if fn == nil {
		delete(n.Handlers, event)
	} else {
		if n.Handlers == nil {
			n.Handlers = make(map[string]func())
		}
		n.Handlers[event] = fn
	}
	n.doc.record(n, OpHandler, event)
}

func (n *Node) setAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

func (n *Node) detach() {
	if n.Parent == nil {
		return
	}
	p := n.Parent
	i := p.index(n)
	p.Children = append(p.Children[:i], p.Children[i+1:]...)
	n.Parent = nil
}

func (n *Node) index(child *Node) int {
	for i, c := range n.Children {
		if c == child {
			return i
		}
	}
	panic("vdom: node is not a child of its parent")
}

// Attr returns an attribute value.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Dispatch calls the handler registered for event, if any.
func (n *Node) Dispatch(event string) bool {
	fn, ok := n.Handlers[event]
	if ok {
		fn()
	}
	return ok
}

// Walk visits n and its descendants in document order until visit returns false.
func (n *Node) Walk(visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(visit) {
			return false
		}
	}
	return true
}

// Find returns the first descendant of n in document order matching pred.
func (n *Node) Find(pred func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c != n && pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindTag returns the first descendant element with the given tag.
func (n *Node) FindTag(tag string) *Node {
	return n.Find(func(c *Node) bool { return c.Kind == ElementNode && c.Tag == tag })
}

// Elements returns the element children of n.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// TextContent concatenates the text of every descendant text node.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Kind == TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}
