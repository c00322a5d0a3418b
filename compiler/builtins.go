package compiler

// builtin is a function with a fixed signature provided by the runtime.
type builtin struct {
	// signature returns a fresh instance; type parameters get new variables.
	signature func(e *typeEnv) *Func
	// goName is the runtime function generated code calls.
	goName string
}

var builtins = map[string]builtin{
	// numberToString(n) formats a number without trailing zeros.
	"numberToString": {
		signature: func(e *typeEnv) *Func {
			return &Func{Params: []Type{TNumber}, Result: TString}
		},
		goName: "NumberToString",
	},
	// boolean(cond, a, b) picks a when cond holds, b otherwise.
	"boolean": {
		signature: func(e *typeEnv) *Func {
			a := e.fresh()
			return &Func{Params: []Type{TBoolean, a, a}, Result: a}
		},
		goName: "Boolean",
	},
	// lookup(table, key, fallback) reads table[key] or returns fallback.
	"lookup": {
		signature: func(e *typeEnv) *Func {
			b := e.fresh()
			return &Func{Params: []Type{e.fresh(), TString, b}, Result: b}
		},
		goName: "Lookup",
	},
}

func isBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}
