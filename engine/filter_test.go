package engine

import (
	"errors"
	"testing"

	"capslang/sources"
	"capslang/tap"
	"capslang/trust"
)

var (
	srcUS = sources.Source{ID: "com.apple.keylayout.US", Name: "U.S.", Selectable: true}
	srcFR = sources.Source{ID: "com.apple.keylayout.French", Name: "French", Selectable: true}
	srcDE = sources.Source{ID: "com.apple.keylayout.German", Name: "German", Selectable: true}
)

func press() tap.Event   { return tap.Event{Code: tap.TriggerKeyCode, Down: true} }
func repeat() tap.Event  { return tap.Event{Code: tap.TriggerKeyCode, Down: true, Repeat: true} }
func release() tap.Event { return tap.Event{Code: tap.TriggerKeyCode} }

func armedFilter(dir *sources.FakeDirectory) (*Filter, *trust.Flag) {
	flag := new(trust.Flag)
	flag.Set(true)
	f := NewFilter(tap.TriggerKeyCode, flag, dir)
	f.SetPlan(&Plan{Slot1: srcUS, Slot2: srcFR})
	return f, flag
}

func drainNotices(f *Filter) []Notice {
	var out []Notice
	for {
		select {
		case n := <-f.Notices():
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestIgnoresOtherKeys(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR)
	f, _ := armedFilter(dir)

	if v := f.Handle(tap.Event{Code: 5, Down: true}); v != tap.Pass {
		t.Fatalf("non-trigger key: got %v, want Pass", v)
	}
	if n := len(dir.Activations()); n != 0 {
		t.Errorf("non-trigger key caused %d activations", n)
	}
}

func TestFailsOpenWithoutTrust(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR)
	f, flag := armedFilter(dir)
	flag.Set(false)

	// Even with a stale plan still armed, a down flag wins.
	if v := f.Handle(press()); v != tap.Pass {
		t.Fatalf("untrusted press: got %v, want Pass", v)
	}
	if n := len(dir.Activations()); n != 0 {
		t.Errorf("untrusted press caused %d activations", n)
	}

	ns := drainNotices(f)
	if len(ns) == 0 || ns[0].Kind != NoticeRecheck {
		t.Errorf("expected a recheck notice, got %v", ns)
	}
}

func TestPassesWhileConfiguring(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR)
	flag := new(trust.Flag)
	flag.Set(true)
	f := NewFilter(tap.TriggerKeyCode, flag, dir)

	if v := f.Handle(press()); v != tap.Pass {
		t.Fatalf("unarmed press: got %v, want Pass", v)
	}
	if v := f.Handle(press()); v != tap.Pass {
		t.Fatalf("second unarmed press: got %v, want Pass", v)
	}
	if n := len(dir.Activations()); n != 0 {
		t.Errorf("unarmed presses caused %d activations", n)
	}

	// Hammering the key must not queue a reminder per press.
	ns := drainNotices(f)
	if len(ns) != 1 || ns[0].Kind != NoticeConfigure {
		t.Errorf("expected one throttled configure notice, got %v", ns)
	}
}

func TestSwitchToggles(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR, srcDE)
	f, _ := armedFilter(dir)

	if v := f.Handle(press()); v != tap.Consume {
		t.Fatalf("armed press: got %v, want Consume", v)
	}
	if v := f.Handle(press()); v != tap.Consume {
		t.Fatalf("armed press: got %v, want Consume", v)
	}

	// Starting on slot 1, the first press lands on slot 2 and the next
	// one comes back.
	want := []string{srcFR.ID, srcUS.ID}
	got := dir.Activations()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("activations = %v, want %v", got, want)
	}
}

func TestThirdSourceSwitchesToSlot1(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR, srcDE)
	dir.SetCurrent(srcDE.ID)
	f, _ := armedFilter(dir)

	if v := f.Handle(press()); v != tap.Consume {
		t.Fatalf("armed press: got %v, want Consume", v)
	}
	got := dir.Activations()
	if len(got) != 1 || got[0] != srcUS.ID {
		t.Errorf("activations = %v, want [%s]", got, srcUS.ID)
	}
}

func TestConsumesOnActivationFailure(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR)
	dir.SetActivateErr(errors.New("activation refused"))
	f, _ := armedFilter(dir)

	// The press never falls back to the key's native effect, even when
	// the switch itself failed.
	if v := f.Handle(press()); v != tap.Consume {
		t.Fatalf("failed switch: got %v, want Consume", v)
	}
	ns := drainNotices(f)
	if len(ns) != 1 || ns[0].Kind != NoticeSwitch || ns[0].Err == nil {
		t.Errorf("expected a failed switch notice, got %v", ns)
	}
}

func TestCurrentQueryFailureTargetsSlot1(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR)
	dir.SetCurrentErr(errors.New("query failed"))
	f, _ := armedFilter(dir)

	if v := f.Handle(press()); v != tap.Consume {
		t.Fatalf("press with broken query: got %v, want Consume", v)
	}
	got := dir.Activations()
	if len(got) != 1 || got[0] != srcUS.ID {
		t.Errorf("activations = %v, want [%s]", got, srcUS.ID)
	}
	ns := drainNotices(f)
	if len(ns) != 1 || ns[0].From != "" {
		t.Errorf("notice should carry no origin, got %v", ns)
	}
}

func TestRepeatAndReleaseConsumedWhileArmed(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR)
	f, _ := armedFilter(dir)

	if v := f.Handle(press()); v != tap.Consume {
		t.Fatalf("press: got %v, want Consume", v)
	}
	if v := f.Handle(repeat()); v != tap.Consume {
		t.Fatalf("autorepeat: got %v, want Consume", v)
	}
	if v := f.Handle(release()); v != tap.Consume {
		t.Fatalf("release: got %v, want Consume", v)
	}
	// One physical press means one switch, however long the key is held.
	if n := len(dir.Activations()); n != 1 {
		t.Errorf("got %d activations, want 1", n)
	}
}

func TestReleasePassesWhileDisarmed(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR)
	flag := new(trust.Flag)
	flag.Set(true)
	f := NewFilter(tap.TriggerKeyCode, flag, dir)

	if v := f.Handle(release()); v != tap.Pass {
		t.Fatalf("unarmed release: got %v, want Pass", v)
	}
	if ns := drainNotices(f); len(ns) != 0 {
		t.Errorf("release queued notices: %v", ns)
	}
}

func TestBypassPathsDoNotAllocate(t *testing.T) {
	dir := sources.NewFakeDirectory(srcUS, srcFR)
	f, flag := armedFilter(dir)

	other := tap.Event{Code: 3, Down: true}
	if n := testing.AllocsPerRun(1000, func() { f.Handle(other) }); n != 0 {
		t.Errorf("non-trigger path allocates %.1f per event", n)
	}

	flag.Set(false)
	trig := press()
	if n := testing.AllocsPerRun(1000, func() { f.Handle(trig) }); n != 0 {
		t.Errorf("untrusted trigger path allocates %.1f per event", n)
	}
}
