package runtime

// ViewState is a built view: its current top-level node and the function
// that patches it for a new input. Root changes when the top of the view is
// a branch, a case or a dynamic view that was swapped.
type ViewState[T any] struct {
	Root   Node
	Update func(next T)
}

// View is the signature of every generated view function.
type View[T any] func(input T) *ViewState[T]

// Empty returns a placeholder state for a missing branch.
func Empty[T any]() *ViewState[T] {
	return &ViewState[T]{Root: Comment(""), Update: func(T) {}}
}
