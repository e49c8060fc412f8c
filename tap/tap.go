// Package tap installs the system-wide keyboard hook that lets the agent
// observe and selectively swallow presses of the trigger key.
package tap

import "errors"

// TriggerKeyCode is the virtual keycode the trigger key reports once the
// suppressing remap is in place (F18).
const TriggerKeyCode uint16 = 79

// ErrNotPermitted means the platform refused the hook registration, on
// macOS because the process lacks accessibility trust.
var ErrNotPermitted = errors.New("event hook registration refused")

// Event is a single keyboard event delivered to the handler.
type Event struct {
	Code   uint16
	Down   bool
	Repeat bool
}

// Verdict tells the hook what to do with the event after the handler
// returns.
type Verdict int

const (
	// Pass delivers the event to the rest of the system unmodified.
	Pass Verdict = iota
	// Consume swallows the event so no other application sees it.
	Consume
)

// Handler runs on the hook's event thread for every keyboard event. It
// must return quickly; the system disables hooks whose callbacks stall.
type Handler func(Event) Verdict

// Tap is one registration with the platform interception facility. Start
// installs the hook with the given handler and Stop removes it; a stopped
// Tap may be started again.
type Tap interface {
	Start(Handler) error
	Stop()
}
