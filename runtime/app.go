package runtime

import "sync"

// App owns the current input of a mounted view and re-runs its update when
// the input changes. Updates never overlap: a change requested while one is
// being applied, for example by an event handler fired during the update, is
// queued and applied right after it in request order.
type App[T any] struct {
	mu       sync.Mutex
	state    *ViewState[T]
	input    T
	queue    []func(T) T
	updating bool
}

// Run builds view into mount. build receives the App so that handlers in the
// input can call Set or Update on it.
func Run[T any](mount Node, view View[T], build func(app *App[T]) T) *App[T] {
	a := &App[T]{}
	a.input = build(a)
	a.state = view(a.input)
	mount.AppendChild(a.state.Root)
	return a
}

// Input returns the input the view currently shows.
func (a *App[T]) Input() T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.input
}

// Root returns the current top-level node of the view.
func (a *App[T]) Root() Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Root
}

// Set replaces the input.
func (a *App[T]) Set(next T) {
	a.Update(func(T) T { return next })
}

// Update derives the next input from the current one. When called during
// another update it returns immediately and the change is applied once the
// running update finishes. A change or view update that panics is dropped
// (see runUpdate) and never blocks later updates.
func (a *App[T]) Update(change func(T) T) {
	a.mu.Lock()
	a.queue = append(a.queue, change)
	if a.updating {
		a.mu.Unlock()
		return
	}
	a.updating = true
	a.mu.Unlock()

	drained := false
	defer func() {
		if !drained {
			a.mu.Lock()
			a.updating = false
			a.mu.Unlock()
		}
	}()

	for {
		a.mu.Lock()
		if len(a.queue) == 0 {
			a.updating = false
			drained = true
			a.mu.Unlock()
			return
		}
		change := a.queue[0]
		a.queue = a.queue[1:]
		cur := a.input
		a.mu.Unlock()

		runUpdate(func() {
			next := change(cur)
			a.mu.Lock()
			a.input = next
			a.mu.Unlock()
			a.state.Update(next)
		})
	}
}
