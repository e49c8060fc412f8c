package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"capslang/clipboard"
	"capslang/remap"
	"capslang/sources"
	"capslang/store"
	"capslang/tap"
	"capslang/trust"
)

// Run executes interactive diagnostic checks and returns an exit code (0=all pass, 1=any fail).
func Run() int {
	resetTerminal()
	setupInterruptHandler(runCleanups)
	defer runCleanups()

	fmt.Println("capslang doctor - interactive system diagnostics")
	fmt.Println("================================================")

	allPass := true

	if !checkPermission() {
		allPass = false
	}
	if allPass && !checkSources() {
		allPass = false
	}
	if allPass && !checkInterception() {
		allPass = false
	}
	if allPass && !checkStore() {
		allPass = false
	}
	if allPass && !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See details above.")
	}

	if allPass {
		return 0
	}
	return 1
}

// Cleanups undo system-level changes a check left behind (the caps lock
// remap, mainly). They run at exit and on interrupt, whichever comes
// first.
var (
	cleanupMu sync.Mutex
	cleanups  []func()
)

func addCleanup(fn func()) {
	cleanupMu.Lock()
	cleanups = append(cleanups, fn)
	cleanupMu.Unlock()
}

func runCleanups() {
	cleanupMu.Lock()
	fns := cleanups
	cleanups = nil
	cleanupMu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

func checkPermission() bool {
	fmt.Println()
	fmt.Println("[1/5] Input monitoring permission")

	chk := trust.NewChecker()
	ok, err := chk.Trusted()
	if err != nil {
		fmt.Printf("  FAIL: permission query failed: %v\n", err)
		return false
	}
	if ok {
		fmt.Println("  PASS: process is trusted")
		return true
	}

	fmt.Println("  Not trusted yet, raising the system prompt...")
	chk.Prompt()
	fmt.Println("  Grant access under System Settings > Privacy & Security > Accessibility.")
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(3 * time.Second)
		if ok, _ := chk.Trusted(); ok {
			fmt.Println("  PASS: permission granted")
			return true
		}
	}
	fmt.Println("  FAIL: still not trusted after 30s")
	return false
}

func checkSources() bool {
	fmt.Println()
	fmt.Println("[2/5] Input source directory")

	dir := sources.NewDirectory()
	list, err := dir.List()
	if err != nil {
		fmt.Printf("  FAIL: listing input sources failed: %v\n", err)
		return false
	}
	usable := sources.Usable(list)

	curID := ""
	if cur, cerr := dir.Current(); cerr == nil {
		curID = cur.ID
	}
	for _, s := range usable {
		marker := " "
		if s.ID == curID {
			marker = "*"
		}
		fmt.Printf("  %s %s (%s)\n", marker, s.Name, s.ID)
	}

	if len(usable) < 2 {
		fmt.Printf("  FAIL: found %d selectable source(s), need at least 2\n", len(usable))
		fmt.Println("  Add a second layout in System Settings > Keyboard > Input Sources.")
		return false
	}
	fmt.Printf("  PASS: %d selectable sources\n", len(usable))
	return true
}

func checkInterception() bool {
	fmt.Println()
	fmt.Println("[3/5] Caps lock interception")

	if runner, ok := remap.NewRunner(); ok {
		ctx, cancel := context.WithTimeout(context.Background(), remap.DefaultTimeout)
		err := runner.Apply(ctx)
		cancel()
		if err != nil {
			fmt.Printf("  FAIL: caps lock remap failed: %v\n", err)
			return false
		}
		fmt.Println("  Caps lock remapped for the test")

		var once sync.Once
		addCleanup(func() {
			once.Do(func() {
				ctx, cancel := context.WithTimeout(context.Background(), remap.DefaultTimeout)
				defer cancel()
				if err := runner.Revert(ctx); err != nil {
					fmt.Printf("  Warning: remap revert failed: %v\n", err)
					fmt.Println(`  Fix with: hidutil property --set '{"UserKeyMapping":[]}'`)
				}
			})
		})
	}

	events := make(chan tap.Event, 8)
	tp := tap.New()
	err := tp.Start(func(ev tap.Event) tap.Verdict {
		select {
		case events <- ev:
		default:
		}
		// Pass everything: the doctor observes, the agent is who consumes.
		return tap.Pass
	})
	if err != nil {
		fmt.Printf("  FAIL: could not install the key tap: %v\n", err)
		return false
	}
	defer tp.Stop()

	fmt.Println("Press Caps Lock...")
	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Code == tap.TriggerKeyCode && ev.Down {
				fmt.Println("  PASS: trigger key captured")
				return true
			}
		case <-deadline:
			fmt.Println("  FAIL: timeout waiting for the trigger key")
			return false
		}
	}
}

func checkStore() bool {
	fmt.Println()
	fmt.Println("[4/5] Preference store")

	path := filepath.Join(os.TempDir(), fmt.Sprintf("capslang-doctor-%d.toml", os.Getpid()))
	defer os.Remove(path)

	st := store.Open(path)
	want := store.Prefs{Slot1: "doctor.slot1", Slot2: "doctor.slot2", Sound: true}
	if err := st.Save(want); err != nil {
		fmt.Printf("  FAIL: writing preferences failed: %v\n", err)
		return false
	}
	got, err := st.Load()
	if err != nil {
		fmt.Printf("  FAIL: reading preferences back failed: %v\n", err)
		return false
	}
	if got != want {
		fmt.Printf("  FAIL: round-trip mismatch: wrote %+v, got %+v\n", want, got)
		return false
	}
	fmt.Println("  PASS: preference round-trip verified")
	return true
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[5/5] Clipboard")

	testStr := fmt.Sprintf("capslang-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (clipboard tool hung - compositor not accessible?)")
		return false
	}
}
