package compiler

// File is a parsed .vg template.
type File struct {
	Source   *Source
	Requires []*Require
	Views    []*View
}

// Require is a top-level <require src="..."/>.
type Require struct {
	Src  string
	Span Span
}

// View is a top-level <view name="...">.
type View struct {
	Name     string
	NameSpan Span
	Span     Span
	Body     Node
	File     *File
}

// Node is a template body node: *Element, *Text, *If, *For, *Switch,
// *ComponentUse, *DynamicUse or *Mount.
type Node interface {
	NodeSpan() Span
}

// AttrKind tells how an attribute value was written.
type AttrKind int

const (
	AttrLiteral  AttrKind = iota // name="text"
	AttrExpr                     // name={expr}
	AttrTemplate                 // name="text {expr} text"
)

// Attr is an attribute of an element or special form.
type Attr struct {
	Name     string
	Kind     AttrKind
	Literal  string // AttrLiteral only
	Expr     Expr   // AttrExpr and AttrTemplate (a *StringTemplate)
	NameSpan Span
	Span     Span
}

// Value returns the attribute as an expression; literals become constant templates.
func (a *Attr) Value() Expr {
	if a.Expr == nil {
		a.Expr = &StringTemplate{Parts: []TemplatePart{{Lit: a.Literal}}, span: a.Span}
	}
	return a.Expr
}

// Element is an ordinary markup element.
type Element struct {
	Tag      string
	Attrs    []*Attr
	Children []Node
	span     Span
}

// TextPart is a literal run or an interpolated expression.
type TextPart struct {
	Lit  string
	Expr Expr
}

// Text is a run of character data with interpolations.
type Text struct {
	Parts []TextPart
	span  Span
}

// Static reports whether the text has no interpolations.
func (t *Text) Static() bool {
	for _, p := range t.Parts {
		if p.Expr != nil {
			return false
		}
	}
	return true
}

func (t *Text) literal() string {
	var s string
	for _, p := range t.Parts {
		s += p.Lit
	}
	return s
}

// If is <if condition={...}><then>...</then><else>...</else></if>.
type If struct {
	Cond Expr
	Then Node // nil when absent
	Else Node // nil when absent
	span Span
}

// For is <for seq={...} as="name">body</for>.
type For struct {
	Seq    Expr
	As     string
	AsSpan Span
	Body   Node
	span   Span
}

// Case is one <case name="tag"> arm of a switch.
type Case struct {
	Tag     string
	Binding string
	Body    Node
	Span    Span
}

// Switch is <switch on={...}> with one or more cases.
type Switch struct {
	On    Expr
	Cases []*Case
	span  Span
}

// ComponentUse is a tag naming another view.
type ComponentUse struct {
	View string
	Args []*Attr
	span Span
}

// DynamicUse is <use view={...} arg=.../>.
type DynamicUse struct {
	ViewExpr Expr
	Args     []*Attr
	span     Span
}

// Mount is <mount use={...}/>.
type Mount struct {
	Expr Expr
	span Span
}

func (n *Element) NodeSpan() Span      { return n.span }
func (n *Text) NodeSpan() Span         { return n.span }
func (n *If) NodeSpan() Span           { return n.span }
func (n *For) NodeSpan() Span          { return n.span }
func (n *Switch) NodeSpan() Span       { return n.span }
func (n *ComponentUse) NodeSpan() Span { return n.span }
func (n *DynamicUse) NodeSpan() Span   { return n.span }
func (n *Mount) NodeSpan() Span        { return n.span }

// componentRefs collects the names of views referenced by component tags.
func componentRefs(n Node, visit func(*ComponentUse)) {
	switch n := n.(type) {
	case *Element:
		for _, c := range n.Children {
			componentRefs(c, visit)
		}
	case *If:
		if n.Then != nil {
			componentRefs(n.Then, visit)
		}
		if n.Else != nil {
			componentRefs(n.Else, visit)
		}
	case *For:
		componentRefs(n.Body, visit)
	case *Switch:
		for _, c := range n.Cases {
			componentRefs(c.Body, visit)
		}
	case *ComponentUse:
		visit(n)
	}
}
