//go:build windows

package shutdown

import (
	"os"
	"os/signal"
)

// Interrupt is the only catchable termination on Windows; the key grab
// there is released by the engine's own teardown.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
