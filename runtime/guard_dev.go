//go:build dev

package runtime

// runUpdate applies one update pass. In development builds a panic in a
// view update or helper propagates to aid debugging.
func runUpdate(apply func()) {
	apply()
}
