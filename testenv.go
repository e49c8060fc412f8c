package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"capslang/beep"
	"capslang/engine"
	"capslang/log"
	"capslang/remap"
	"capslang/sources"
	"capslang/store"
	"capslang/tap"
	"capslang/trust"
)

// testSink prints coordinator events as parseable lines. Integration
// tests run the binary with -testenv, feed commands on stdin and assert
// on this output.
type testSink struct {
	mu         sync.Mutex
	switchDone chan struct{}
}

func (s *testSink) emit(format string, args ...any) {
	s.mu.Lock()
	fmt.Printf(format+"\n", args...)
	s.mu.Unlock()
}

func (s *testSink) StateChanged(st engine.State, trusted bool, resolved int) {
	s.emit("EVENT state=%s trusted=%t resolved=%d", st, trusted, resolved)
}

func (s *testSink) SourcesChanged(list []sources.Source, slots [2]string, current sources.Source) {
}

func (s *testSink) SwitchDone(from, to string, took time.Duration, err error) {
	s.emit("EVENT switch from=%s to=%s ok=%t", from, to, err == nil)
	select {
	case s.switchDone <- struct{}{}:
	default:
	}
}

func (s *testSink) ConfigureHint() {
	s.emit("EVENT hint=configure")
}

func (s *testSink) SelectionRejected(id string) {
	s.emit("EVENT rejected=%s", id)
}

func (s *testSink) TapFailed(err error) {
	s.emit("EVENT tapfail=%q", err.Error())
}

func (s *testSink) RemapChanged(applied, known bool, err error) {
	s.emit("EVENT remap applied=%t known=%t ok=%t", applied, known, err == nil)
}

func runTestEnv(st *store.Store) {
	beep.SetEnabled(false)

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	dir := sources.NewFakeDirectory(
		sources.Source{ID: "us", Name: "English (US)", Selectable: true},
		sources.Source{ID: "fr", Name: "French", Selectable: true},
	)
	chk := trust.NewFakeChecker(true)
	tp := &tap.FakeTap{}
	runner := &remap.FakeRunner{}
	ts := &testSink{switchDone: make(chan struct{}, 8)}

	agent = engine.New(engine.Config{
		Directory:    dir,
		Checker:      chk,
		Tap:          tp,
		Runner:       runner,
		Store:        st,
		Sink:         ts,
		RemapTimeout: time.Second,
	})
	agent.Start()

	snap := func() {
		s := agent.Snapshot()
		ts.emit("SNAP state=%s resolved=%d slots=%s,%s current=%s tap=%t remap=%t",
			s.State, s.Resolved, s.Slots[0], s.Slots[1], s.Current.ID, s.TapInstalled, s.RemapApplied)
	}

	// Stdin driver -- each line is one command, same shape as a
	// scripted user plus a scripted operating system.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "GRANT":
			chk.SetTrusted(true)
			agent.Refresh()
		case "REVOKE":
			chk.SetTrusted(false)
			agent.Refresh()
		case "ADD":
			if len(args) >= 2 {
				dir.Add(sources.Source{ID: args[0], Name: strings.Join(args[1:], " "), Selectable: true})
				agent.Refresh()
			}
		case "REMOVE":
			if len(args) == 1 {
				dir.Remove(args[0])
				agent.Refresh()
			}
		case "CURRENT":
			if len(args) == 1 {
				dir.SetCurrent(args[0])
				agent.Refresh()
			}
		case "SELECT":
			if len(args) == 1 {
				agent.Select(args[0])
			}
		case "DESELECT":
			if len(args) == 1 {
				agent.Deselect(args[0])
			}
		case "PRESS":
			v := tp.Inject(tap.Event{Code: tap.TriggerKeyCode, Down: true})
			if v == tap.Consume {
				ts.emit("PRESS consumed")
			} else {
				ts.emit("PRESS passed")
			}
		case "SWITCH":
			agent.SwitchNow()
		case "TAPERR":
			if len(args) == 1 && args[0] == "on" {
				tp.SetStartErr(tap.ErrNotPermitted)
			} else {
				tp.SetStartErr(nil)
			}
		case "WAIT":
			// Snapshot round-trips through the coordinator, so every
			// command issued above has been applied when it returns.
			snap()
		case "WAIT_SWITCH":
			<-ts.switchDone
		case "QUIT":
			agent.Stop()
			os.Exit(0)
		default:
			if cmd == "SLEEP" && len(args) == 1 {
				if ms, err := strconv.Atoi(args[0]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		}
	}
	agent.Stop()
	os.Exit(0)
}
