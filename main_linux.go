//go:build linux

package main

import "os"

func main() {
	// Check for -gui early (before flag.Parse in run()): the status
	// window needs the main thread from the start.
	for _, arg := range os.Args[1:] {
		if arg == "-gui" {
			initGUI()
			return
		}
	}
	run()
}
