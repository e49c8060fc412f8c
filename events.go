package main

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"capslang/beep"
	"capslang/engine"
	"capslang/sources"
	"capslang/tray"
)

// EventSink abstracts the display layer so both the Bubble Tea TUI
// and the Fyne status window can receive the same agent events.
type EventSink interface {
	StateLine(state, detail string)
	SlotLines(lines [2]string, current string)
	SwitchResult(from, to string, ms float64, errText string)
	Notice(text string)
	RemapLine(text string)
	UpdateAvailable(version string)
}

var sink EventSink = tuiSink{}
var guiMode bool

// uiHub receives coordinator events and fans them out to the tray, the
// active display sink and the feedback tones. Everything here runs on
// the coordinator goroutine and must not block, so the one blocking
// call (tray menu rebuild) is pushed through a channel to a helper.
type uiHub struct {
	mu       sync.Mutex
	state    engine.State
	slots    [2]string
	lastRows []tray.Row

	lastStatus   tray.Status
	lastHeadline string

	rows chan []tray.Row
}

func newUIHub() *uiHub {
	h := &uiHub{
		rows:       make(chan []tray.Row, 1),
		lastStatus: tray.Status(-1),
	}
	go h.pump()
	return h
}

// pump feeds the tray menu from its own goroutine: RefreshSources
// blocks until the menu exists, and the coordinator must never wait on
// that.
func (h *uiHub) pump() {
	for rows := range h.rows {
		tray.RefreshSources(rows)
	}
}

func (h *uiHub) StateChanged(s engine.State, trusted bool, resolved int) {
	detail := stateDetail(s, resolved)
	st := trayStatus(s)

	h.mu.Lock()
	h.state = s
	changed := st != h.lastStatus || detail != h.lastHeadline
	h.lastStatus, h.lastHeadline = st, detail
	h.mu.Unlock()

	if changed {
		tray.SetStatus(st, detail)
	}
	sink.StateLine(s.String(), detail)
}

func (h *uiHub) SourcesChanged(list []sources.Source, slots [2]string, current sources.Source) {
	rows := make([]tray.Row, 0, len(list))
	for _, s := range list {
		rows = append(rows, tray.Row{
			ID:       s.ID,
			Name:     s.Name,
			Selected: s.ID == slots[0] || s.ID == slots[1],
		})
	}

	// The periodic refresh re-lists every few seconds; only rebuild the
	// menu when something actually moved.
	h.mu.Lock()
	h.slots = slots
	same := slices.Equal(rows, h.lastRows)
	if !same {
		h.lastRows = rows
	}
	h.mu.Unlock()

	if !same {
		// Latest wins: drop a queued rebuild that is already stale.
		select {
		case <-h.rows:
		default:
		}
		h.rows <- rows
	}

	lines := [2]string{
		slotLine(1, slots[0], list),
		slotLine(2, slots[1], list),
	}
	sink.SlotLines(lines, current.Name)
}

func (h *uiHub) SwitchDone(from, to string, took time.Duration, err error) {
	ms := float64(took.Microseconds()) / 1000.0
	if err != nil {
		tray.SetError("switch failed: " + err.Error())
		sink.SwitchResult(from, to, ms, err.Error())
		go beep.PlayError()
		return
	}

	h.mu.Lock()
	second := to != "" && to == h.slots[1]
	h.mu.Unlock()

	sink.SwitchResult(from, to, ms, "")
	if second {
		go beep.PlaySlot2()
	} else {
		go beep.PlaySlot1()
	}
}

func (h *uiHub) ConfigureHint() {
	h.mu.Lock()
	s := h.state
	h.mu.Unlock()

	text := "pick two input sources before caps lock can switch"
	if s == engine.PermissionsRequired {
		text = "grant the input monitoring permission before caps lock can switch"
	}
	tray.SetError(text)
	sink.Notice(text)
	go beep.PlayError()
}

func (h *uiHub) SelectionRejected(id string) {
	text := "both slots are taken; deselect one first"
	tray.SetError(text)
	sink.Notice(text)
	go beep.PlayError()
}

func (h *uiHub) TapFailed(err error) {
	text := "keyboard hook refused: " + err.Error()
	tray.SetError(text)
	sink.Notice(text)
}

func (h *uiHub) RemapChanged(applied, known bool, err error) {
	sink.RemapLine(remapText(applied, known))
	if err != nil {
		text := "caps lock remap failed: " + err.Error()
		tray.SetError(text)
		sink.Notice(text)
	}
}

func trayStatus(s engine.State) tray.Status {
	switch s {
	case engine.Active:
		return tray.StatusActive
	case engine.PermissionsRequired:
		return tray.StatusPermission
	default:
		return tray.StatusConfiguring
	}
}

func stateDetail(s engine.State, resolved int) string {
	switch s {
	case engine.PermissionsRequired:
		return "input monitoring permission required"
	case engine.Active:
		return "caps lock toggles your two layouts"
	default:
		if resolved == 1 {
			return "pick one more input source"
		}
		return "pick two input sources to get started"
	}
}

func slotLine(n int, id string, list []sources.Source) string {
	if id == "" {
		return fmt.Sprintf("%d  (empty)", n)
	}
	for _, s := range list {
		if s.ID == id {
			return fmt.Sprintf("%d  %s", n, s.Name)
		}
	}
	// Chosen earlier, not enabled right now. Kept so it resolves again
	// when the layout comes back.
	return fmt.Sprintf("%d  %s (not enabled)", n, id)
}

func remapText(applied, known bool) string {
	switch {
	case !known:
		return "unconfirmed"
	case applied:
		return "applied"
	default:
		return "off"
	}
}
