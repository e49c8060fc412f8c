package main

import (
	"fmt"
	"os"

	"capslang/sources"
	"capslang/store"

	"golang.org/x/term"
)

// runSetup fills both slots from an interactive picker and persists
// them, so the agent comes up Active on the next launch.
func runSetup(st *store.Store) error {
	dir := sources.NewDirectory()
	list, err := dir.List()
	if err != nil {
		return fmt.Errorf("enumerating input sources: %w", err)
	}
	usable := sources.Usable(list)
	if len(usable) < 2 {
		return fmt.Errorf("need at least two enabled input sources, found %d", len(usable))
	}

	first, err := pickSource("Slot 1", usable)
	if err != nil {
		return err
	}

	remaining := make([]sources.Source, 0, len(usable)-1)
	for _, s := range usable {
		if s.ID != first.ID {
			remaining = append(remaining, s)
		}
	}
	second, err := pickSource("Slot 2", remaining)
	if err != nil {
		return err
	}

	prefs, err := st.Load()
	if err != nil {
		fmt.Printf("Warning: could not read existing preferences: %v\n", err)
	}
	prefs.Slot1, prefs.Slot2 = first.ID, second.ID
	if err := st.Save(prefs); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	fmt.Printf("Saved: caps lock now toggles %s and %s\n", first.Name, second.Name)
	return nil
}

func pickSource(slot string, list []sources.Source) (*sources.Source, error) {
	if len(list) == 1 {
		fmt.Printf("%s: %s\n", slot, list[0].Name)
		return &list[0], nil
	}

	// Raw mode for arrow key input
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	renderList := func() {
		// Move cursor up to redraw (except first render)
		fmt.Print("\r\x1b[J") // clear from cursor to end
		fmt.Printf("%s (↑/↓, Enter to confirm):\r\n\r\n", slot)
		for i, s := range list {
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", s.Name)
			} else {
				fmt.Printf("    %s\r\n", s.Name)
			}
		}
	}

	// Initial render
	renderList()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		if n == 1 {
			switch buf[0] {
			case 13: // Enter
				fmt.Printf("\r\n")
				term.Restore(fd, oldState)
				return &list[cursor], nil
			case 3: // Ctrl+C
				fmt.Printf("\r\n")
				term.Restore(fd, oldState)
				os.Exit(0)
			case 'j': // vim down
				if cursor < len(list)-1 {
					cursor++
				}
			case 'k': // vim up
				if cursor > 0 {
					cursor--
				}
			}
		} else if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			switch buf[2] {
			case 'A': // Up arrow
				if cursor > 0 {
					cursor--
				}
			case 'B': // Down arrow
				if cursor < len(list)-1 {
					cursor++
				}
			}
		}

		// Redraw: move up to overwrite
		lines := len(list) + 2
		fmt.Printf("\x1b[%dA", lines)
		renderList()
	}
}
