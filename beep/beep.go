// Package beep plays the short feedback tones: one tick per toggle
// direction and a low double-beep when input is rejected.
package beep

import "sync/atomic"

const sampleRate = 44100

// A lower tick lands on slot 1, a higher one on slot 2, so the toggle
// direction is audible without looking at the menu bar.
const (
	slot1Freq  = 880
	slot2Freq  = 1320
	tickVolume = 0.5
	tickDecay  = 50

	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var muted atomic.Bool

// SetEnabled mutes or unmutes every tone. Safe from any goroutine; the
// tray toggles it while switches keep landing.
func SetEnabled(on bool) { muted.Store(!on) }
