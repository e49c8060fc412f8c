//go:build darwin

package tap

import "C"

import "sync/atomic"

// handler is read on the tap thread for every keyboard event. It lives
// at package level because the C callback has no instance context.
var handler atomic.Pointer[Handler]

//export goTapVerdict
func goTapVerdict(code C.ushort, down, repeat C.int) C.int {
	h := handler.Load()
	if h == nil {
		return 0
	}
	ev := Event{Code: uint16(code), Down: down != 0, Repeat: repeat != 0}
	if (*h)(ev) == Consume {
		return 1
	}
	return 0
}
