//go:build !darwin

package tap

import (
	"fmt"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
	"golang.design/x/hotkey"
)

// replayDelay gives the synthetic press time to clear the input queue
// before the grab is re-armed.
const replayDelay = 50 * time.Millisecond

// grabTap registers a global grab for the trigger key. A grab swallows
// the key unconditionally, so a Pass verdict is honored by replaying the
// press through a virtual keyboard while the grab is lifted.
type grabTap struct {
	mu      sync.Mutex
	hk      *hotkey.Hotkey
	stop    chan struct{}
	done    chan struct{}
	kb      keybd_event.KeyBonding
	kbReady bool
}

func New() Tap {
	return &grabTap{}
}

func (t *grabTap) Start(h Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hk != nil {
		return fmt.Errorf("trigger grab already installed")
	}

	hk := hotkey.New(nil, grabKey)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("registering trigger grab: %w", err)
	}

	// The virtual keyboard is only needed for replays; without uinput
	// access Pass degrades to swallowing, which is still safe.
	if !t.kbReady {
		if kb, err := keybd_event.NewKeyBonding(); err == nil {
			kb.SetKeys(replayKey)
			t.kb = kb
			t.kbReady = true
		}
	}

	t.hk = hk
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(hk, h, t.stop, t.done)
	return nil
}

func (t *grabTap) loop(hk *hotkey.Hotkey, h Handler, stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case <-hk.Keydown():
			if h(Event{Code: TriggerKeyCode, Down: true}) == Pass {
				t.replay(hk, stop)
			}
		case <-hk.Keyup():
			h(Event{Code: TriggerKeyCode, Down: false})
		}
	}
}

// replay lifts the grab, sends one synthetic press of the trigger key and
// re-arms the grab. Without the lift the synthetic press would land right
// back in our own grab.
func (t *grabTap) replay(hk *hotkey.Hotkey, stop chan struct{}) {
	if !t.kbReady {
		return
	}
	hk.Unregister()
	_ = t.kb.Launching()
	time.Sleep(replayDelay)
	select {
	case <-stop:
		return
	default:
	}
	_ = hk.Register()
}

func (t *grabTap) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hk == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.hk.Unregister()
	t.hk = nil
}
