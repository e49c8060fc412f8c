//go:build gui

package main

import (
	"runtime"

	"capslang/gui"
)

var guiApp *gui.App

func initGUI() {
	guiMode = true

	// Lock this goroutine to the OS thread for Fyne/GLFW
	runtime.LockOSThread()

	guiApp = gui.NewApp(func() {
		run()
	})
	guiApp.OnGrant = func() {
		if agent != nil {
			agent.RequestPermission()
		}
	}
	guiApp.OnSwitch = func() {
		if agent != nil {
			agent.SwitchNow()
		}
	}
	sink = guiApp
	if err := gui.Run(guiApp); err != nil {
		panic(err)
	}
}
