package trust

import (
	"errors"
	"testing"
	"time"
)

func waitForChange(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for permission change")
		return false
	}
}

func TestMonitorDetectsGrant(t *testing.T) {
	checker := NewFakeChecker(false)
	var flag Flag

	changes := make(chan bool, 4)
	m := NewMonitor(checker, &flag, 10*time.Millisecond, func(trusted bool) {
		changes <- trusted
	})
	m.Start()
	defer m.Stop()

	checker.SetTrusted(true)
	if got := waitForChange(t, changes); !got {
		t.Error("expected change to trusted=true")
	}
	if !flag.Read() {
		t.Error("flag not updated after grant")
	}
}

func TestMonitorDetectsRevoke(t *testing.T) {
	checker := NewFakeChecker(true)
	var flag Flag
	flag.Set(true)

	changes := make(chan bool, 4)
	m := NewMonitor(checker, &flag, 10*time.Millisecond, func(trusted bool) {
		changes <- trusted
	})
	m.Start()
	defer m.Stop()

	checker.SetTrusted(false)
	if got := waitForChange(t, changes); got {
		t.Error("expected change to trusted=false")
	}
	if flag.Read() {
		t.Error("flag not cleared after revoke")
	}
}

func TestMonitorQuietWhenUnchanged(t *testing.T) {
	checker := NewFakeChecker(true)
	var flag Flag
	flag.Set(true)

	changes := make(chan bool, 16)
	m := NewMonitor(checker, &flag, 5*time.Millisecond, func(trusted bool) {
		changes <- trusted
	})
	m.Start()

	time.Sleep(60 * time.Millisecond)
	m.Stop()

	if n := len(changes); n != 0 {
		t.Errorf("expected no change callbacks, got %d", n)
	}
	if checker.Polls() < 2 {
		t.Errorf("expected repeated polling, got %d polls", checker.Polls())
	}
}

func TestPollOnceFailsClosed(t *testing.T) {
	checker := NewFakeChecker(true)
	checker.SetErr(errors.New("oracle unavailable"))
	var flag Flag

	m := NewMonitor(checker, &flag, time.Second, nil)
	if m.PollOnce() {
		t.Error("oracle error must report not trusted")
	}
}

func TestMonitorStopIdempotent(t *testing.T) {
	checker := NewFakeChecker(false)
	var flag Flag

	m := NewMonitor(checker, &flag, 10*time.Millisecond, nil)
	m.Start()
	m.Stop()
	m.Stop() // second stop must not panic or block
}

func TestStopWithoutStart(t *testing.T) {
	m := NewMonitor(NewFakeChecker(false), &Flag{}, time.Second, nil)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}
