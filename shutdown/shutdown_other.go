//go:build !windows

// Package shutdown registers the termination signals the agent has to
// intercept: an uncaught signal would leave the caps lock remap applied
// with no process left to revert it.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}
