package interp

import (
	"github.com/vcrobe/vgc/compiler"
	"github.com/vcrobe/vgc/runtime"
)

// slotState is the live content of a slot.
type slotState struct {
	root   func() runtime.Node
	update func(next env)
}

func (bi *blockInst) buildSlot(s compiler.Slot, e env) *slotState {
	switch s := s.(type) {
	case *compiler.IfSlot:
		return bi.ifSlot(s, e)
	case *compiler.SwitchSlot:
		return bi.switchSlot(s, e)
	case *compiler.ComponentSlot:
		return bi.componentSlot(s, e)
	case *compiler.UseSlot:
		return bi.useSlot(s, e)
	case *compiler.MountSlot:
		return bi.mountSlot(s, e)
	}
	return nil
}

// forSlot inserts one body instance per item before an anchor comment.
func (bi *blockInst) forSlot(s *compiler.ForSlot, e env, parent runtime.Node) *slotState {
	ev := bi.eval()
	body := bi.in.block(bi.cv, s.Body)
	scopes := func(e env) []env {
		items := ev.list(s.Seq, ev.eval(s.Seq, e))
		out := make([]env, len(items))
		for i, item := range items {
			out[i] = e.with(s.Var, item)
		}
		return out
	}
	anchor := runtime.Comment("")
	parent.AppendChild(anchor)
	entries := runtime.UpdateForLoop(anchor, nil, scopes(e), body)
	return &slotState{
		root: func() runtime.Node { return anchor },
		update: func(next env) {
			entries = runtime.UpdateForLoop(anchor, entries, scopes(next), body)
		},
	}
}

func (bi *blockInst) ifSlot(s *compiler.IfSlot, e env) *slotState {
	ev := bi.eval()
	pick := func(e env, cond bool) *runtime.ViewState[env] {
		blk := s.Else
		if cond {
			blk = s.Then
		}
		if blk == nil {
			return runtime.Empty[env]()
		}
		return bi.in.block(bi.cv, blk)(e)
	}
	cond := ev.cond(s.Cond, e)
	st := pick(e, cond)
	return &slotState{
		root: func() runtime.Node { return st.Root },
		update: func(next env) {
			if c := ev.cond(s.Cond, next); c != cond {
				old := st.Root
				cond, st = c, pick(next, c)
				old.ReplaceWith(st.Root)
				return
			}
			st.Update(next)
		},
	}
}

// switchSlot keeps the live case while the tag stays the same and rebuilds
// on a tag change. A value matching no case renders an empty comment.
func (bi *blockInst) switchSlot(s *compiler.SwitchSlot, e env) *slotState {
	ev := bi.eval()
	match := func(e env) (*compiler.CaseBlock, env) {
		v := ev.eval(s.On, e)
		rec, ok := v.(Record)
		if !ok {
			return nil, e
		}
		tag, _ := rec["type"].(string)
		for _, c := range s.Cases {
			if c.Tag == tag {
				return c, e.with(c.Binding, rec)
			}
		}
		return nil, e
	}
	var (
		live *compiler.CaseBlock
		st   *runtime.ViewState[env]
		root runtime.Node
	)
	build := func(e env) {
		c, ce := match(e)
		live, st = c, nil
		if c == nil {
			root = runtime.Comment("")
			return
		}
		st = bi.in.block(bi.cv, c.Body)(ce)
		root = st.Root
	}
	build(e)
	return &slotState{
		root: func() runtime.Node {
			if st != nil {
				return st.Root
			}
			return root
		},
		update: func(next env) {
			if c, ce := match(next); c != nil && c == live {
				st.Update(ce)
				return
			}
			old := root
			if st != nil {
				old = st.Root
			}
			build(next)
			old.ReplaceWith(root)
		},
	}
}

// args builds the input record of a view call.
func (bi *blockInst) args(args []*compiler.Arg, e env) Record {
	ev := bi.eval()
	rec := make(Record, len(args))
	for _, a := range args {
		rec[a.Name] = ev.eval(a.Value, e)
	}
	return rec
}

func (bi *blockInst) componentSlot(s *compiler.ComponentSlot, e env) *slotState {
	st := bi.in.views[s.View](bi.args(s.Args, e))
	return &slotState{
		root:   func() runtime.Node { return st.Root },
		update: func(next env) { st.Update(bi.args(s.Args, next)) },
	}
}

// useSlot renders a view value. A different view replaces the subtree; the
// same one is updated in place.
func (bi *blockInst) useSlot(s *compiler.UseSlot, e env) *slotState {
	ev := bi.eval()
	view := func(e env) ViewFunc {
		v := ev.eval(s.View, e)
		f, ok := v.(ViewFunc)
		if !ok {
			if g, isFunc := v.(func(Record) *runtime.ViewState[Record]); isFunc {
				return g
			}
			ev.fail(s.View, "got %T, want a view", v)
		}
		return f
	}
	f := view(e)
	st := f(bi.args(s.Args, e))
	return &slotState{
		root: func() runtime.Node { return st.Root },
		update: func(next env) {
			if g := view(next); !runtime.SameFunc(g, f) {
				old := st.Root
				f, st = g, g(bi.args(s.Args, next))
				old.ReplaceWith(st.Root)
				return
			}
			st.Update(bi.args(s.Args, next))
		},
	}
}

func (bi *blockInst) mountSlot(s *compiler.MountSlot, e env) *slotState {
	ev := bi.eval()
	fn := ev.eval(s.Expr, e)
	node := ev.mount(s.Expr, fn)
	return &slotState{
		root: func() runtime.Node { return node },
		update: func(next env) {
			if g := ev.eval(s.Expr, next); !runtime.Same(g, fn) {
				m := ev.mount(s.Expr, g)
				node.ReplaceWith(m)
				fn, node = g, m
			}
		},
	}
}
