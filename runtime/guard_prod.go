//go:build !dev

package runtime

import "github.com/vcrobe/vgc/console"

// runUpdate applies one update pass. In production builds a panic is
// recovered and logged so one failing update does not stop the app; the
// queue keeps draining.
func runUpdate(apply func()) {
	defer func() {
		if rec := recover(); rec != nil {
			console.Error("vgc: update panicked:", rec)
		}
	}()
	apply()
}
