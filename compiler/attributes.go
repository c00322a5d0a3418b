package compiler

import "strings"

// BindKind says how a dynamic attribute is applied to an element.
type BindKind int

const (
	BindString  BindKind = iota // SetAttribute
	BindBool                    // SetBoolAttribute
	BindHandler                 // SetHandler
)

// Standard HTML boolean attributes
var standardBooleanAttrs = map[string]bool{
	"disabled":       true,
	"checked":        true,
	"readonly":       true,
	"required":       true,
	"autofocus":      true,
	"autoplay":       true,
	"controls":       true,
	"loop":           true,
	"muted":          true,
	"selected":       true,
	"hidden":         true,
	"multiple":       true,
	"novalidate":     true,
	"open":           true,
	"reversed":       true,
	"default":        true,
	"ismap":          true,
	"formnovalidate": true,
	"inert":          true,
	"playsinline":    true,
}

// classifyAttr decides how an attribute is typed and applied. onX attributes
// are event handlers for event "x"; data-* and everything else are strings.
func classifyAttr(name string) (kind BindKind, event string) {
	lower := strings.ToLower(name)
	switch {
	case len(lower) > 2 && strings.HasPrefix(lower, "on"):
		return BindHandler, lower[2:]
	case standardBooleanAttrs[lower]:
		return BindBool, ""
	default:
		return BindString, ""
	}
}

// expectedAttrType is the type a bound attribute value must have.
func expectedAttrType(kind BindKind) Type {
	switch kind {
	case BindHandler:
		return handlerType()
	case BindBool:
		return TBoolean
	default:
		return TString
	}
}

func handlerType() *Func {
	return &Func{Result: TVoid}
}

func mountType() *Func {
	return &Func{Result: TNode}
}
