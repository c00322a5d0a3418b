package compiler

// Program is the output of analysis: every compiled view in dependency order.
type Program struct {
	Views []*CompiledView
}

// View returns a compiled view by name.
func (p *Program) View(name string) *CompiledView {
	for _, v := range p.Views {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// CompiledView is a typed, analyzed view ready for code generation.
type CompiledView struct {
	Name   string
	File   string
	Input  *Record
	Root   *Block
	Blocks []*Block // Root first
	Uses   []string

	typed *typedView
}

// Builtin reports the built-in function a callee names.
func (v *CompiledView) Builtin(fn *Var) (string, bool) {
	name, ok := v.typed.builtins[fn]
	return name, ok
}

// TypeOf returns the resolved type of an expression in the view.
func (v *CompiledView) TypeOf(e Expr) Type {
	return v.typed.exprs[e]
}

// Scope is a level of name binding. The root scope binds nothing; every
// <for> body and <case> body opens a child scope binding one name.
type Scope struct {
	ID      int
	Level   int
	Parent  *Scope
	Binding string
	Type    Type

	// Case scopes only.
	Union *Union
	Tag   string
}

// Binder returns the scope binding name, or nil when name is an input field.
func (s *Scope) Binder(name string) *Scope {
	for ; s != nil; s = s.Parent {
		if s.Parent != nil && s.Binding == name {
			return s
		}
	}
	return nil
}

// Bindings returns every visible bound scope, outermost first; a shadowed
// binding is left out.
func (s *Scope) Bindings() []*Scope {
	var chain []*Scope
	for c := s; c != nil && c.Parent != nil; c = c.Parent {
		chain = append([]*Scope{c}, chain...)
	}
	out := chain[:0:0]
	for i, c := range chain {
		shadowed := false
		for _, inner := range chain[i+1:] {
			if inner.Binding == c.Binding {
				shadowed = true
				break
			}
		}
		if !shadowed {
			out = append(out, c)
		}
	}
	return out
}

// Block is a unit with its own build and update routine: the view body, a
// branch, a case or a loop body.
type Block struct {
	ID     int
	Scope  *Scope
	Root   BuildNode
	Groups []*UpdateGroup

	reads []Dep
}

// BuildNode is a node of a block's build tree.
type BuildNode interface {
	buildNode()
}

// Slot is a build node whose content is managed by its own update logic.
type Slot interface {
	BuildNode
	SlotID() int
	SlotDeps() []Dep
}

// StaticAttr is an attribute with a literal value.
type StaticAttr struct {
	Name  string
	Value string
}

// AttrBinding is an attribute driven by an expression.
type AttrBinding struct {
	Name  string
	Kind  BindKind
	Event string // BindHandler only
	Value Expr
	Deps  []Dep
}

type ElementNode struct {
	Tag      string
	Static   []StaticAttr
	Dynamic  []*AttrBinding
	Children []BuildNode
}

// TextNode is a text node; Value is nil for static text.
type TextNode struct {
	Literal string
	Value   *StringTemplate
	Deps    []Dep
}

type ForSlot struct {
	ID   int
	Seq  Expr
	Var  string
	Elem Type
	Body *Block
	Deps []Dep
}

type IfSlot struct {
	ID   int
	Cond Expr
	Then *Block // nil renders an empty placeholder
	Else *Block
	Deps []Dep
}

type SwitchSlot struct {
	ID    int
	On    Expr
	Union *Union
	Cases []*CaseBlock
	Deps  []Dep
}

type CaseBlock struct {
	Tag     string
	Binding string
	Body    *Block
}

// Arg is a named argument passed to a view.
type Arg struct {
	Name  string
	Value Expr
}

type ComponentSlot struct {
	ID    int
	View  string
	Input *Record
	Args  []*Arg
	Deps  []Dep
}

type UseSlot struct {
	ID    int
	View  Expr
	Input *Record
	Args  []*Arg
	Deps  []Dep
}

type MountSlot struct {
	ID   int
	Expr Expr
	Deps []Dep
}

func (*ElementNode) buildNode()   {}
func (*TextNode) buildNode()      {}
func (*ForSlot) buildNode()       {}
func (*IfSlot) buildNode()        {}
func (*SwitchSlot) buildNode()    {}
func (*ComponentSlot) buildNode() {}
func (*UseSlot) buildNode()       {}
func (*MountSlot) buildNode()     {}

func (s *ForSlot) SlotID() int       { return s.ID }
func (s *IfSlot) SlotID() int        { return s.ID }
func (s *SwitchSlot) SlotID() int    { return s.ID }
func (s *ComponentSlot) SlotID() int { return s.ID }
func (s *UseSlot) SlotID() int       { return s.ID }
func (s *MountSlot) SlotID() int     { return s.ID }

func (s *ForSlot) SlotDeps() []Dep       { return s.Deps }
func (s *IfSlot) SlotDeps() []Dep        { return s.Deps }
func (s *SwitchSlot) SlotDeps() []Dep    { return s.Deps }
func (s *ComponentSlot) SlotDeps() []Dep { return s.Deps }
func (s *UseSlot) SlotDeps() []Dep       { return s.Deps }
func (s *MountSlot) SlotDeps() []Dep     { return s.Deps }

// UpdateGroup is every mutation guarded by one dependency set.
type UpdateGroup struct {
	Deps    []Dep
	Actions []Action
}

// Action is one mutation run when its group's dependencies change.
type Action interface {
	action()
}

type SetText struct {
	Node *TextNode
}

type SetAttr struct {
	Element *ElementNode
	Attr    *AttrBinding
}

type UpdateSlot struct {
	Slot Slot
}

func (SetText) action()    {}
func (SetAttr) action()    {}
func (UpdateSlot) action() {}

// planner lowers one typed view into blocks.
type planner struct {
	tv        *typedView
	view      *CompiledView
	nextScope int
	nextSlot  int
}

type pendingAction struct {
	deps   []Dep
	action Action
}

// planView lowers a typed view.
func planView(tv *typedView) *CompiledView {
	cv := &CompiledView{
		Name:  tv.view.Name,
		File:  tv.view.File.Source.Path,
		Input: tv.input,
		Uses:  tv.uses,
		typed: tv,
	}
	p := &planner{tv: tv, view: cv}
	root := &Scope{ID: p.scopeID()}
	cv.Root = p.block(tv.view.Body, root)
	return cv
}

func (p *planner) scopeID() int {
	id := p.nextScope
	p.nextScope++
	return id
}

func (p *planner) slotID() int {
	id := p.nextSlot
	p.nextSlot++
	return id
}

func (p *planner) childScope(parent *Scope, binding string, t Type) *Scope {
	return &Scope{ID: p.scopeID(), Level: parent.Level + 1, Parent: parent, Binding: binding, Type: t}
}

// block lowers n and groups the updaters of the resulting tree.
func (p *planner) block(n Node, sc *Scope) *Block {
	b := &Block{ID: len(p.view.Blocks), Scope: sc}
	p.view.Blocks = append(p.view.Blocks, b)

	var pending []pendingAction
	b.Root = p.lower(n, sc, &pending)

	var reads []Dep
	index := make(map[string]*UpdateGroup)
	for _, pa := range pending {
		if len(pa.deps) == 0 {
			continue
		}
		reads = append(reads, pa.deps...)
		key := depsKey(pa.deps)
		g, ok := index[key]
		if !ok {
			g = &UpdateGroup{Deps: pa.deps}
			index[key] = g
			b.Groups = append(b.Groups, g)
		}
		g.Actions = append(g.Actions, pa.action)
	}
	b.reads = normalizeDeps(reads)
	return b
}

func (p *planner) lower(n Node, sc *Scope, pending *[]pendingAction) BuildNode {
	switch n := n.(type) {
	case *Element:
		el := &ElementNode{Tag: n.Tag}
		for _, a := range n.Attrs {
			if a.Kind == AttrLiteral {
				el.Static = append(el.Static, StaticAttr{Name: a.Name, Value: a.Literal})
				continue
			}
			kind, event := classifyAttr(a.Name)
			ab := &AttrBinding{Name: a.Name, Kind: kind, Event: event, Value: a.Expr, Deps: p.tv.exprDeps(a.Expr)}
			el.Dynamic = append(el.Dynamic, ab)
			*pending = append(*pending, pendingAction{ab.Deps, SetAttr{Element: el, Attr: ab}})
		}
		for _, c := range n.Children {
			el.Children = append(el.Children, p.lower(c, sc, pending))
		}
		return el

	case *Text:
		if n.Static() {
			return &TextNode{Literal: n.literal()}
		}
		st := &StringTemplate{span: n.span}
		for _, part := range n.Parts {
			st.Parts = append(st.Parts, TemplatePart(part))
		}
		tn := &TextNode{Value: st, Deps: p.tv.exprDeps(st)}
		*pending = append(*pending, pendingAction{tn.Deps, SetText{Node: tn}})
		return tn

	case *If:
		slot := &IfSlot{ID: p.slotID(), Cond: n.Cond}
		deps := p.tv.exprDeps(n.Cond)
		if n.Then != nil {
			slot.Then = p.block(n.Then, sc)
			deps = append(deps, rootDeps(slot.Then.reads)...)
		}
		if n.Else != nil {
			slot.Else = p.block(n.Else, sc)
			deps = append(deps, rootDeps(slot.Else.reads)...)
		}
		slot.Deps = normalizeDeps(deps)
		*pending = append(*pending, pendingAction{slot.Deps, UpdateSlot{Slot: slot}})
		return slot

	case *For:
		elem := p.tv.loopElems[n]
		slot := &ForSlot{ID: p.slotID(), Seq: n.Seq, Var: n.As, Elem: elem}
		slot.Body = p.block(n.Body, p.childScope(sc, n.As, elem))
		deps := append(p.tv.exprDeps(n.Seq), rootDeps(withoutRoot(slot.Body.reads, n.As))...)
		slot.Deps = normalizeDeps(deps)
		*pending = append(*pending, pendingAction{slot.Deps, UpdateSlot{Slot: slot}})
		return slot

	case *Switch:
		u := p.tv.unions[n]
		slot := &SwitchSlot{ID: p.slotID(), On: n.On, Union: u}
		deps := p.tv.exprDeps(n.On)
		for _, c := range n.Cases {
			cs := p.childScope(sc, c.Binding, p.tv.caseRecords[c])
			cs.Union, cs.Tag = u, c.Tag
			body := p.block(c.Body, cs)
			slot.Cases = append(slot.Cases, &CaseBlock{Tag: c.Tag, Binding: c.Binding, Body: body})
			deps = append(deps, rootDeps(withoutRoot(body.reads, c.Binding))...)
		}
		slot.Deps = normalizeDeps(deps)
		*pending = append(*pending, pendingAction{slot.Deps, UpdateSlot{Slot: slot}})
		return slot

	case *ComponentUse:
		slot := &ComponentSlot{ID: p.slotID(), View: n.View, Input: p.tv.components[n]}
		var deps []Dep
		for _, a := range n.Args {
			v := a.Value()
			slot.Args = append(slot.Args, &Arg{Name: a.Name, Value: v})
			deps = append(deps, p.tv.exprDeps(v)...)
		}
		slot.Deps = normalizeDeps(deps)
		*pending = append(*pending, pendingAction{slot.Deps, UpdateSlot{Slot: slot}})
		return slot

	case *DynamicUse:
		slot := &UseSlot{ID: p.slotID(), View: n.ViewExpr, Input: p.tv.dynamic[n]}
		deps := p.tv.exprDeps(n.ViewExpr)
		for _, a := range n.Args {
			v := a.Value()
			slot.Args = append(slot.Args, &Arg{Name: a.Name, Value: v})
			deps = append(deps, p.tv.exprDeps(v)...)
		}
		slot.Deps = normalizeDeps(deps)
		*pending = append(*pending, pendingAction{slot.Deps, UpdateSlot{Slot: slot}})
		return slot

	case *Mount:
		slot := &MountSlot{ID: p.slotID(), Expr: n.Expr, Deps: p.tv.exprDeps(n.Expr)}
		*pending = append(*pending, pendingAction{slot.Deps, UpdateSlot{Slot: slot}})
		return slot
	}
	return &TextNode{}
}
