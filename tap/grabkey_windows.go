//go:build windows

package tap

import "golang.design/x/hotkey"

// With no remap facility the grab binds the physical trigger key itself.
const (
	grabKey   = hotkey.Key(0x14) // VK_CAPITAL
	replayKey = 0x14             // VK_CAPITAL again, as a virtual keyboard code
)
