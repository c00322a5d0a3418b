package compiler

import (
	"strings"
)

// Reserved tag names of the special forms.
const (
	tagView    = "view"
	tagRequire = "require"
	tagIf      = "if"
	tagThen    = "then"
	tagElse    = "else"
	tagFor     = "for"
	tagSwitch  = "switch"
	tagCase    = "case"
	tagUse     = "use"
	tagMount   = "mount"
)

// rawNode is a markup element or text before it is turned into an AST node.
type rawNode struct {
	tok      *markupToken
	children []*rawNode
	span     Span
}

func (n *rawNode) isText() bool { return n.tok.Kind == mkText }

func (n *rawNode) isBlank() bool {
	return n.isText() && strings.TrimSpace(n.tok.Text) == ""
}

type parser struct {
	src  *Source
	mask *maskedSource
	file *File
}

// Parse parses a template file. It returns every view that parsed cleanly
// together with a Diagnostics error describing the ones that did not.
func Parse(path, text string) (*File, error) {
	src := NewSource(path, text)
	file := &File{Source: src}

	mask, diags := preprocessBindings(src)
	if mask == nil {
		return file, diags
	}
	toks, d := lexMarkup(src, mask)
	if d != nil {
		return file, append(diags, d)
	}

	p := &parser{src: src, mask: mask, file: file}
	for i := 0; i < len(toks); {
		tok := toks[i]
		switch {
		case tok.Kind == mkText:
			if strings.TrimSpace(tok.Text) != "" {
				diags = append(diags, newDiagnostic(ErrSyntax, src, tok.Span, "text is not allowed outside <view>"))
			}
			i++
		case tok.Kind != mkEndTag && tok.Name == tagRequire:
			if d := p.require(tok); d != nil {
				diags = append(diags, d)
			}
			i++
			if tok.Kind == mkStartTag && i < len(toks) && toks[i].Kind == mkEndTag && toks[i].Name == tagRequire {
				i++
			}
		case tok.Kind == mkStartTag && tok.Name == tagView:
			end := p.viewEnd(toks, i)
			if end < 0 {
				diags = append(diags, newDiagnostic(ErrSyntax, src, tok.Span, "<view> is never closed").
					hint("add </view> after the view body"))
				i = len(toks)
				break
			}
			if mask.brokenWithin(tok.Span.union(toks[end].Span)) {
				// Already reported by preprocessBindings.
				i = end + 1
				break
			}
			view, d := p.view(tok, toks[i+1:end], toks[end])
			if d != nil {
				diags = append(diags, d)
			} else {
				file.Views = append(file.Views, view)
			}
			i = end + 1
		default:
			diags = append(diags, newDiagnostic(ErrSyntax, src, tok.Span, "unexpected <%s> at top level", tok.Name).
				hint("only <require> and <view> may appear at the top of a template"))
			i++
		}
	}
	return file, diags.Err()
}

// viewEnd returns the index of the </view> closing toks[start], or -1.
func (p *parser) viewEnd(toks []*markupToken, start int) int {
	for i := start + 1; i < len(toks); i++ {
		t := toks[i]
		if t.Name != tagView {
			continue
		}
		if t.Kind == mkEndTag {
			return i
		}
		// A nested <view> means the outer one was left open.
		return -1
	}
	return -1
}

func (p *parser) require(tok *markupToken) *Diagnostic {
	attr := findMarkupAttr(tok, "src")
	if attr == nil || len(tok.Attrs) != 1 {
		return newDiagnostic(ErrSyntax, p.src, tok.Span, `<require> takes exactly one attribute, src="path"`)
	}
	if segs := splitMasked(attr.Val); len(segs) != 1 || segs[0].Binding >= 0 || attr.Val == "" {
		return newDiagnostic(ErrSyntax, p.src, attr.Span, "<require src> must be a literal path")
	}
	p.file.Requires = append(p.file.Requires, &Require{Src: attr.Val, Span: tok.Span})
	return nil
}

func (p *parser) view(open *markupToken, body []*markupToken, closing *markupToken) (*View, *Diagnostic) {
	nameAttr := findMarkupAttr(open, "name")
	if nameAttr == nil {
		return nil, newDiagnostic(ErrSyntax, p.src, open.Span, `<view> requires a name="..." attribute`)
	}
	if len(open.Attrs) != 1 {
		for _, a := range open.Attrs {
			if a != nameAttr {
				return nil, newDiagnostic(ErrSyntax, p.src, a.NameSpan, "unknown attribute %q on <view>", a.Name)
			}
		}
	}
	if d := validateViewName(p.src, nameAttr.Val, nameAttr.Span); d != nil {
		return nil, d
	}

	roots, d := p.tree(open, body)
	if d != nil {
		return nil, d
	}
	span := open.Span.union(closing.Span)
	root, d := p.block(roots, span, "<view>")
	if d != nil {
		return nil, d
	}
	return &View{
		Name:     nameAttr.Val,
		NameSpan: nameAttr.Span,
		Span:     span,
		Body:     root,
		File:     p.file,
	}, nil
}

// tree nests a flat token list into raw nodes, checking that tags balance.
func (p *parser) tree(owner *markupToken, toks []*markupToken) ([]*rawNode, *Diagnostic) {
	root := &rawNode{tok: owner}
	stack := []*rawNode{root}
	for _, t := range toks {
		top := stack[len(stack)-1]
		switch t.Kind {
		case mkText:
			top.children = append(top.children, &rawNode{tok: t, span: t.Span})
		case mkSelfClosingTag:
			top.children = append(top.children, &rawNode{tok: t, span: t.Span})
		case mkStartTag:
			n := &rawNode{tok: t, span: t.Span}
			top.children = append(top.children, n)
			if !voidElements[strings.ToLower(t.Name)] {
				stack = append(stack, n)
			}
		case mkEndTag:
			if voidElements[strings.ToLower(t.Name)] {
				continue
			}
			if len(stack) == 1 {
				return nil, newDiagnostic(ErrSyntax, p.src, t.Span, "closing tag </%s> has no matching opening tag", t.Name)
			}
			if top.tok.Name != t.Name {
				return nil, newDiagnostic(ErrSyntax, p.src, t.Span, "mismatched closing tag </%s>, expected </%s>", t.Name, top.tok.Name).
					label(top.tok.Span, "<%s> opened here", top.tok.Name)
			}
			top.span = top.span.union(t.Span)
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 1 {
		top := stack[len(stack)-1]
		return nil, newDiagnostic(ErrSyntax, p.src, top.tok.Span, "<%s> is never closed", top.tok.Name).
			hint("add </%s>", top.tok.Name)
	}
	return root.children, nil
}

// block converts the children of a view or branch, which must have exactly
// one root node.
func (p *parser) block(children []*rawNode, owner Span, what string) (Node, *Diagnostic) {
	var roots []*rawNode
	for _, c := range children {
		if !c.isBlank() {
			roots = append(roots, c)
		}
	}
	if len(roots) == 0 {
		return nil, newDiagnostic(ErrSyntax, p.src, owner, "%s must contain exactly one root node, found none", what)
	}
	if len(roots) > 1 {
		return nil, newDiagnostic(ErrSyntax, p.src, roots[1].span, "%s must contain exactly one root node, found %d", what, len(roots)).
			hint("wrap the content in a single element")
	}
	if !roots[0].isText() && roots[0].tok.Name == tagFor {
		return nil, newDiagnostic(ErrSyntax, p.src, roots[0].span, "<for> cannot be the root of %s", what).
			hint("wrap the loop in an element")
	}
	return p.node(roots[0])
}

func (p *parser) node(n *rawNode) (Node, *Diagnostic) {
	if n.isText() {
		return p.text(n)
	}
	switch name := n.tok.Name; name {
	case tagIf:
		return p.ifNode(n)
	case tagFor:
		return p.forNode(n)
	case tagSwitch:
		return p.switchNode(n)
	case tagUse:
		return p.useNode(n)
	case tagMount:
		return p.mountNode(n)
	case tagThen, tagElse:
		return nil, newDiagnostic(ErrSyntax, p.src, n.span, "<%s> is only allowed directly inside <if>", name)
	case tagCase:
		return nil, newDiagnostic(ErrSyntax, p.src, n.span, "<case> is only allowed directly inside <switch>")
	case tagView, tagRequire:
		return nil, newDiagnostic(ErrSyntax, p.src, n.span, "<%s> is only allowed at the top of a template", name)
	default:
		if isUpper(name) {
			return p.componentNode(n)
		}
		return p.element(n)
	}
}

func (p *parser) element(n *rawNode) (Node, *Diagnostic) {
	attrs, d := p.attrs(n.tok)
	if d != nil {
		return nil, d
	}
	el := &Element{Tag: n.tok.Name, Attrs: attrs, span: n.span}
	for _, c := range n.children {
		if c.isBlank() {
			continue
		}
		child, d := p.node(c)
		if d != nil {
			return nil, d
		}
		if t, ok := child.(*Text); ok && len(t.Parts) == 0 {
			continue
		}
		el.Children = append(el.Children, child)
	}
	return el, nil
}

// text splits character data into literal runs and interpolations.
// Leading and trailing whitespace that includes a line break is dropped.
func (p *parser) text(n *rawNode) (Node, *Diagnostic) {
	s := n.tok.Text
	if trimmed := strings.TrimLeft(s, " \t\r\n"); strings.Contains(s[:len(s)-len(trimmed)], "\n") {
		s = trimmed
	}
	if trimmed := strings.TrimRight(s, " \t\r\n"); strings.Contains(s[len(trimmed):], "\n") {
		s = trimmed
	}
	t := &Text{span: n.span}
	for _, seg := range splitMasked(s) {
		if seg.Binding < 0 {
			t.Parts = append(t.Parts, TextPart{Lit: seg.Lit})
			continue
		}
		e, d := p.bindingExpr(seg.Binding)
		if d != nil {
			return nil, d
		}
		t.Parts = append(t.Parts, TextPart{Expr: e})
	}
	return t, nil
}

func (p *parser) bindingExpr(idx int) (Expr, *Diagnostic) {
	b := p.mask.bindings[idx]
	e, err := ParseExpr(b.Src, b.Span.Start+1)
	if err != nil {
		return nil, p.exprDiagnostic(err)
	}
	return e, nil
}

func (p *parser) exprDiagnostic(err error) *Diagnostic {
	if ee, ok := err.(*exprError); ok {
		return newDiagnostic(ErrSyntax, p.src, ee.Span, "%s", ee.Msg)
	}
	return newDiagnostic(ErrSyntax, p.src, Span{}, "%v", err)
}

func (p *parser) attrs(tok *markupToken) ([]*Attr, *Diagnostic) {
	seen := make(map[string]bool, len(tok.Attrs))
	attrs := make([]*Attr, 0, len(tok.Attrs))
	for _, ma := range tok.Attrs {
		if seen[ma.Name] {
			return nil, newDiagnostic(ErrSyntax, p.src, ma.NameSpan, "duplicate attribute %q on <%s>", ma.Name, tok.Name)
		}
		seen[ma.Name] = true
		a, d := p.attr(ma)
		if d != nil {
			return nil, d
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func (p *parser) attr(ma *markupAttr) (*Attr, *Diagnostic) {
	a := &Attr{Name: ma.Name, NameSpan: ma.NameSpan, Span: ma.Span}
	segs := splitMasked(ma.Val)
	switch {
	case len(segs) == 0:
		a.Kind = AttrLiteral
	case len(segs) == 1 && segs[0].Binding < 0:
		a.Kind = AttrLiteral
		a.Literal = segs[0].Lit
	case len(segs) == 1 && p.mask.bindings[segs[0].Binding].Attr:
		e, d := p.bindingExpr(segs[0].Binding)
		if d != nil {
			return nil, d
		}
		a.Kind = AttrExpr
		a.Expr = e
	default:
		st := &StringTemplate{span: ma.Span}
		for _, seg := range segs {
			if seg.Binding < 0 {
				st.Parts = append(st.Parts, TemplatePart{Lit: seg.Lit})
				continue
			}
			e, d := p.bindingExpr(seg.Binding)
			if d != nil {
				return nil, d
			}
			st.Parts = append(st.Parts, TemplatePart{Expr: e})
		}
		a.Kind = AttrTemplate
		a.Expr = st
	}
	return a, nil
}

// formAttrs checks a special form's attributes against the allowed names and
// returns them by name.
func (p *parser) formAttrs(n *rawNode, required []string, optional ...string) (map[string]*Attr, *Diagnostic) {
	attrs, d := p.attrs(n.tok)
	if d != nil {
		return nil, d
	}
	allowed := make(map[string]bool)
	for _, name := range append(required, optional...) {
		allowed[name] = true
	}
	byName := make(map[string]*Attr, len(attrs))
	for _, a := range attrs {
		if !allowed[a.Name] {
			return nil, newDiagnostic(ErrSyntax, p.src, a.NameSpan, "unknown attribute %q on <%s>", a.Name, n.tok.Name).
				hint("<%s> accepts: %s", n.tok.Name, strings.Join(append(required, optional...), ", "))
		}
		byName[a.Name] = a
	}
	for _, name := range required {
		if byName[name] == nil {
			return nil, newDiagnostic(ErrSyntax, p.src, n.tok.Span, "<%s> requires a %q attribute", n.tok.Name, name)
		}
	}
	return byName, nil
}

// literalName returns a literal identifier attribute value, such as <for as="item">.
func (p *parser) literalName(n *rawNode, a *Attr) (string, *Diagnostic) {
	if a.Kind != AttrLiteral || !isIdent(a.Literal) {
		return "", newDiagnostic(ErrSyntax, p.src, a.Span, "<%s %s> must be a literal identifier", n.tok.Name, a.Name)
	}
	return a.Literal, nil
}

// bindingValue requires an attribute written as name={expr}.
func (p *parser) bindingValue(n *rawNode, a *Attr) (Expr, *Diagnostic) {
	if a.Kind != AttrExpr {
		return nil, newDiagnostic(ErrSyntax, p.src, a.Span, "<%s %s> must be a {binding}", n.tok.Name, a.Name).
			hint("write %s={...}", a.Name)
	}
	return a.Expr, nil
}

func (p *parser) noChildren(n *rawNode) *Diagnostic {
	for _, c := range n.children {
		if !c.isBlank() {
			return newDiagnostic(ErrSyntax, p.src, c.span, "<%s> cannot have children", n.tok.Name).
				hint("write it as <%s ... />", n.tok.Name)
		}
	}
	return nil
}

func (p *parser) ifNode(n *rawNode) (Node, *Diagnostic) {
	attrs, d := p.formAttrs(n, []string{"condition"})
	if d != nil {
		return nil, d
	}
	cond, d := p.bindingValue(n, attrs["condition"])
	if d != nil {
		return nil, d
	}
	node := &If{Cond: cond, span: n.span}
	var thenSeen, elseSeen bool
	for _, c := range n.children {
		if c.isBlank() {
			continue
		}
		if c.isText() || (c.tok.Name != tagThen && c.tok.Name != tagElse) {
			return nil, newDiagnostic(ErrSyntax, p.src, c.span, "<if> may only contain <then> and <else>")
		}
		if len(c.tok.Attrs) > 0 {
			return nil, newDiagnostic(ErrSyntax, p.src, c.tok.Attrs[0].NameSpan, "<%s> takes no attributes", c.tok.Name)
		}
		body, d := p.block(c.children, c.span, "<"+c.tok.Name+">")
		if d != nil {
			return nil, d
		}
		switch c.tok.Name {
		case tagThen:
			if thenSeen || elseSeen {
				return nil, newDiagnostic(ErrSyntax, p.src, c.span, "<then> must appear once, before <else>")
			}
			thenSeen = true
			node.Then = body
		case tagElse:
			if elseSeen {
				return nil, newDiagnostic(ErrSyntax, p.src, c.span, "duplicate <else>")
			}
			elseSeen = true
			node.Else = body
		}
	}
	if !thenSeen && !elseSeen {
		return nil, newDiagnostic(ErrSyntax, p.src, n.span, "<if> needs a <then> or an <else>")
	}
	return node, nil
}

func (p *parser) forNode(n *rawNode) (Node, *Diagnostic) {
	attrs, d := p.formAttrs(n, []string{"seq", "as"})
	if d != nil {
		return nil, d
	}
	seq, d := p.bindingValue(n, attrs["seq"])
	if d != nil {
		return nil, d
	}
	as, d := p.literalName(n, attrs["as"])
	if d != nil {
		return nil, d
	}
	body, d := p.block(n.children, n.span, "<for>")
	if d != nil {
		return nil, d
	}
	return &For{Seq: seq, As: as, AsSpan: attrs["as"].Span, Body: body, span: n.span}, nil
}

func (p *parser) switchNode(n *rawNode) (Node, *Diagnostic) {
	attrs, d := p.formAttrs(n, []string{"on"})
	if d != nil {
		return nil, d
	}
	on, d := p.bindingValue(n, attrs["on"])
	if d != nil {
		return nil, d
	}
	node := &Switch{On: on, span: n.span}
	seen := make(map[string]*Case)
	for _, c := range n.children {
		if c.isBlank() {
			continue
		}
		if c.isText() || c.tok.Name != tagCase {
			return nil, newDiagnostic(ErrSyntax, p.src, c.span, "<switch> may only contain <case>")
		}
		cattrs, d := p.formAttrs(c, []string{"name"}, "as")
		if d != nil {
			return nil, d
		}
		nameAttr := cattrs["name"]
		if nameAttr.Kind != AttrLiteral || nameAttr.Literal == "" {
			return nil, newDiagnostic(ErrSyntax, p.src, nameAttr.Span, `<case name> must be a literal tag`)
		}
		tag := nameAttr.Literal
		if prev := seen[tag]; prev != nil {
			return nil, newDiagnostic(ErrSyntax, p.src, c.tok.Span, "duplicate <case name=%q>", tag).
				label(prev.Span, "first case for %q", tag)
		}
		binding := tag
		if as := cattrs["as"]; as != nil {
			if binding, d = p.literalName(c, as); d != nil {
				return nil, d
			}
		} else if !isIdent(tag) {
			return nil, newDiagnostic(ErrSyntax, p.src, nameAttr.Span, "case %q is not an identifier, so it needs as=\"name\"", tag)
		}
		body, d := p.block(c.children, c.span, "<case>")
		if d != nil {
			return nil, d
		}
		cs := &Case{Tag: tag, Binding: binding, Body: body, Span: c.span}
		seen[tag] = cs
		node.Cases = append(node.Cases, cs)
	}
	if len(node.Cases) == 0 {
		return nil, newDiagnostic(ErrSyntax, p.src, n.span, "<switch> needs at least one <case>")
	}
	return node, nil
}

func (p *parser) useNode(n *rawNode) (Node, *Diagnostic) {
	if d := p.noChildren(n); d != nil {
		return nil, d
	}
	attrs, d := p.attrs(n.tok)
	if d != nil {
		return nil, d
	}
	node := &DynamicUse{span: n.span}
	for _, a := range attrs {
		if a.Name != "view" {
			node.Args = append(node.Args, a)
			continue
		}
		if node.ViewExpr, d = p.bindingValue(n, a); d != nil {
			return nil, d
		}
	}
	if node.ViewExpr == nil {
		return nil, newDiagnostic(ErrSyntax, p.src, n.tok.Span, `<use> requires a "view" attribute`)
	}
	return node, nil
}

func (p *parser) mountNode(n *rawNode) (Node, *Diagnostic) {
	if d := p.noChildren(n); d != nil {
		return nil, d
	}
	attrs, d := p.formAttrs(n, []string{"use"})
	if d != nil {
		return nil, d
	}
	e, d := p.bindingValue(n, attrs["use"])
	if d != nil {
		return nil, d
	}
	return &Mount{Expr: e, span: n.span}, nil
}

func (p *parser) componentNode(n *rawNode) (Node, *Diagnostic) {
	if d := p.noChildren(n); d != nil {
		return nil, d
	}
	attrs, d := p.attrs(n.tok)
	if d != nil {
		return nil, d
	}
	return &ComponentUse{View: n.tok.Name, Args: attrs, span: n.span}, nil
}

func findMarkupAttr(tok *markupToken, name string) *markupAttr {
	for _, a := range tok.Attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}
