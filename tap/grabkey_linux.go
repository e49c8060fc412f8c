//go:build linux

package tap

import "golang.design/x/hotkey"

// With no remap facility the grab binds the physical trigger key itself.
const (
	grabKey   = hotkey.Key(0xffe5) // X11 keysym XK_Caps_Lock
	replayKey = 58                 // KEY_CAPSLOCK in the uinput table
)
