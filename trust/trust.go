// Package trust tracks whether the process holds the elevated permission
// required to observe and intercept system input events.
package trust

import "sync/atomic"

// Checker queries the platform permission oracle. Trusted must never
// prompt; Prompt explicitly requests the system grant dialog.
type Checker interface {
	Trusted() (bool, error)
	Prompt()
}

// Flag is the shared permission bit. The event filter reads it on every
// qualifying key event, so the accessor is a single atomic load. Writers
// are the Monitor and the coordinator; nothing else may call Set.
type Flag struct {
	v atomic.Bool
}

func (f *Flag) Read() bool {
	return f.v.Load()
}

func (f *Flag) Set(trusted bool) {
	f.v.Store(trusted)
}
