package compiler

import "strings"

// sortViews orders views so that used views come first. Names are visited
// in declaration order and dependencies in the order they are used, which
// keeps generated output stable. A view on a component cycle, or one that
// uses a view missing from deps, is reported in failed.
func sortViews(names []string, deps map[string][]string, byName map[string]viewRef) (order []string, failed map[string]bool, diag *Diagnostic) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	failed = make(map[string]bool)
	var stack []string

	var visit func(name string) bool
	visit = func(name string) bool {
		switch state[name] {
		case done:
			return !failed[name]
		case visiting:
			cycle := cycleFromStack(stack, name)
			for _, n := range cycle {
				failed[n] = true
			}
			if diag == nil {
				diag = cycleDiagnostic(cycle, byName)
			}
			return false
		}
		uses, ok := deps[name]
		if !ok {
			state[name] = done
			failed[name] = true
			return false
		}
		state[name] = visiting
		stack = append(stack, name)
		good := true
		for _, u := range uses {
			if !visit(u) {
				good = false
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		if !good {
			failed[name] = true
		}
		order = append(order, name)
		return good
	}

	for _, name := range names {
		if state[name] == 0 {
			visit(name)
		}
	}
	return order, failed, diag
}

// cycleDiagnostic reports a component cycle at the view that closes it.
func cycleDiagnostic(cycle []string, byName map[string]viewRef) *Diagnostic {
	last := byName[cycle[len(cycle)-2]]
	d := newDiagnostic(ErrComponentCycle, last.file.Source, last.view.NameSpan,
		"Circular component dependency: %s", strings.Join(cycle, " -> "))
	for _, n := range cycle[:len(cycle)-1] {
		ref := byName[n]
		if ref.file == last.file {
			d.label(ref.view.NameSpan, "%s participates in the cycle", n)
		}
	}
	return d
}
