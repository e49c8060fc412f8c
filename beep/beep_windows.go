//go:build windows

package beep

// No audio playback on Windows - beeps disabled.

func Init()      {}
func PlaySlot1() {}
func PlaySlot2() {}
func PlayError() {}
