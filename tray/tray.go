package tray

import (
	"sync"
	"time"
)

// Row is one input source in the menu. Selected rows carry a checkmark.
type Row struct {
	ID       string
	Name     string
	Selected bool
}

// Status mirrors the agent state for icon and menu purposes.
type Status int

const (
	StatusConfiguring Status = iota
	StatusPermission
	StatusActive
)

var (
	quitCh    = make(chan struct{})
	closeOnce sync.Once

	switchFn func()
	copyIDFn func()
	grantFn  func()

	status   Status
	headline string

	soundOn bool
	soundCb func(bool)

	loginOn bool
	loginCb func(bool) error

	sourceMu   sync.Mutex
	sourceRows []Row
	sourceCb   func(id string, selected bool)
)

func OnSwitch(fn func())          { switchFn = fn }
func OnCopyID(fn func())          { copyIDFn = fn }
func OnGrant(fn func())           { grantFn = fn }
func SetSound(on bool)            { soundOn = on }
func OnSound(fn func(bool))       { soundCb = fn }
func SetLogin(on bool)            { loginOn = on }
func OnLogin(fn func(bool) error) { loginCb = fn }

// OnToggleSource registers the row click handler. selected reports the
// requested direction: true to fill a slot, false to clear one.
func OnToggleSource(fn func(id string, selected bool)) {
	sourceMu.Lock()
	sourceCb = fn
	sourceMu.Unlock()
}

// SetStatus updates the icon and the headline item. Switch Now follows
// the status: enabled only while the toggle is armed.
func SetStatus(s Status, line string) {
	status = s
	headline = line
	updateStatusIcon(s)
	updateHeadline(line)
	if s == StatusActive {
		enableSwitch()
	} else {
		disableSwitch()
	}
	if s == StatusPermission {
		showGrant()
	} else {
		hideGrant()
	}
}

func SetError(msg string) {
	updateTooltip("capslang – " + msg)
	go func() {
		time.Sleep(10 * time.Second)
		updateTooltip("capslang – caps lock layout toggle")
	}()
}

func SetUpdateAvailable(version string) {
	addUpdateMenuItem(version)
}

func Quit() {
	closeOnce.Do(func() { close(quitCh) })
}
