package tap

import (
	"errors"
	"testing"
)

func TestFakeTapForwardsVerdict(t *testing.T) {
	var ft FakeTap
	err := ft.Start(func(ev Event) Verdict {
		if ev.Code == TriggerKeyCode && ev.Down {
			return Consume
		}
		return Pass
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if v := ft.Inject(Event{Code: TriggerKeyCode, Down: true}); v != Consume {
		t.Errorf("trigger down: got %v, want Consume", v)
	}
	if v := ft.Inject(Event{Code: 12, Down: true}); v != Pass {
		t.Errorf("other key: got %v, want Pass", v)
	}
}

func TestFakeTapPassesWhileStopped(t *testing.T) {
	var ft FakeTap
	if v := ft.Inject(Event{Code: TriggerKeyCode, Down: true}); v != Pass {
		t.Fatalf("before Start: got %v, want Pass", v)
	}

	if err := ft.Start(func(Event) Verdict { return Consume }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ft.Stop()

	if v := ft.Inject(Event{Code: TriggerKeyCode, Down: true}); v != Pass {
		t.Errorf("after Stop: got %v, want Pass", v)
	}
}

func TestFakeTapCountsLifecycle(t *testing.T) {
	var ft FakeTap
	handler := func(Event) Verdict { return Pass }

	if err := ft.Start(handler); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ft.Stop()
	ft.Stop() // second stop is a no-op
	if err := ft.Start(handler); err != nil {
		t.Fatalf("restart: %v", err)
	}

	if got := ft.Starts(); got != 2 {
		t.Errorf("starts = %d, want 2", got)
	}
	if got := ft.Stops(); got != 1 {
		t.Errorf("stops = %d, want 1", got)
	}
	if !ft.Started() {
		t.Error("expected tap to be started")
	}
}

func TestFakeTapStartError(t *testing.T) {
	var ft FakeTap
	boom := errors.New("no trust")
	ft.SetStartErr(boom)

	if err := ft.Start(func(Event) Verdict { return Consume }); !errors.Is(err, boom) {
		t.Fatalf("Start error = %v, want %v", err, boom)
	}
	if ft.Started() {
		t.Error("failed Start must leave the tap stopped")
	}
	if v := ft.Inject(Event{Code: TriggerKeyCode, Down: true}); v != Pass {
		t.Errorf("after failed Start: got %v, want Pass", v)
	}
}
