//go:build !gui

package main

func initGUI() {
	panic("capslang: built without GUI support (rebuild with -tags gui)")
}
