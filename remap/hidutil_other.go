//go:build !darwin

package remap

// NewRunner reports that this platform has no remap facility. The key
// grab swallows the trigger key on its own, so nothing needs remapping.
func NewRunner() (Runner, bool) {
	return nil, false
}
