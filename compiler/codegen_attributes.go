package compiler

import "fmt"

// applyAttr renders the call that sets a dynamic attribute on element el
// from the scope value recv.
func (bg *blockGen) applyAttr(el string, a *AttrBinding, recv string) string {
	value := bg.expr(a.Value, bg.blk.Scope, recv)
	switch a.Kind {
	case BindHandler:
		return fmt.Sprintf("%s.SetHandler(%q, %s)", el, a.Event, value)
	case BindBool:
		return fmt.Sprintf("%s.SetBoolAttribute(%q, %s)", el, a.Name, value)
	default:
		return fmt.Sprintf("%s.SetAttribute(%q, %s)", el, a.Name, value)
	}
}
