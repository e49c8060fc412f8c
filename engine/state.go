// Package engine couples the permission flag, slot resolution and the
// event filter into the state machine that decides when the trigger key
// may switch input sources.
package engine

// State is the agent's operational mode. It is derived fresh on every
// reconcile from the trust flag and the resolved slot count, never
// patched incrementally, so it cannot drift from reality.
type State int

const (
	// PermissionsRequired means the process lacks the trust needed to
	// intercept input events. Overrides everything else.
	PermissionsRequired State = iota
	// Configuring means trust is granted but fewer than two slots
	// resolve against the live source list.
	Configuring
	// Active means trust is granted and both slots resolve: the trigger
	// key switches.
	Active
)

func (s State) String() string {
	switch s {
	case PermissionsRequired:
		return "permissions-required"
	case Configuring:
		return "configuring"
	case Active:
		return "active"
	default:
		return "invalid"
	}
}

// Derive maps the two observable facts onto a state.
func Derive(trusted bool, resolved int) State {
	switch {
	case !trusted:
		return PermissionsRequired
	case resolved == 2:
		return Active
	default:
		return Configuring
	}
}
