// Package sources models the system's selectable keyboard input sources
// and the two user-chosen switch targets.
package sources

import "errors"

// ErrNotFound means an identifier matched no enabled input source.
var ErrNotFound = errors.New("input source not found")

// Source is an immutable snapshot of one enabled keyboard input source.
// Snapshots are refreshed on every state re-derivation and never held
// across refreshes.
type Source struct {
	ID         string
	Name       string
	Selectable bool
}

// Directory enumerates and activates input sources. Implementations:
// TIS on darwin, IBus over dbus on linux, FakeDirectory everywhere.
type Directory interface {
	List() ([]Source, error)
	Current() (Source, error)
	Activate(id string) error
}

// Usable drops entries that can never be a switch target: non-selectable
// sources and nameless ones the menu could not render.
func Usable(list []Source) []Source {
	out := make([]Source, 0, len(list))
	for _, s := range list {
		if !s.Selectable || s.ID == "" || s.Name == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
