package engine

import (
	"sync/atomic"
	"time"

	"capslang/sources"
	"capslang/tap"
	"capslang/trust"
)

// configureThrottle limits how often presses in the configuring state
// queue a reminder.
const configureThrottle = 3 * time.Second

// Switcher is the pair of directory calls the hot path is allowed to
// make. Implementations must be callable from the tap thread.
type Switcher interface {
	Current() (sources.Source, error)
	Activate(id string) error
}

// Plan is the resolved slot pair the filter toggles between. The
// coordinator publishes one while the agent is active and clears it
// otherwise, so a non-nil plan is the filter's activity gate.
type Plan struct {
	Slot1 sources.Source
	Slot2 sources.Source
}

// Target picks the slot to activate. Anything other than slot 1's exact
// identifier toggles to slot 1, which keeps the switch deterministic
// even when a third source was selected by other means.
func (p *Plan) Target(currentID string) sources.Source {
	if currentID == p.Slot1.ID {
		return p.Slot2
	}
	return p.Slot1
}

// NoticeKind tags what the hot path wants the coordinator to do.
type NoticeKind int

const (
	// NoticeRecheck asks for a state reconcile after the filter saw the
	// trust flag down.
	NoticeRecheck NoticeKind = iota
	// NoticeConfigure reports a trigger press while configuring.
	NoticeConfigure
	// NoticeSwitch reports a completed switch attempt.
	NoticeSwitch
)

// Notice is the hot path's off-thread report. From is empty when the
// current-source query failed.
type Notice struct {
	Kind NoticeKind
	From string
	To   string
	Err  error
	Took time.Duration
}

// Filter is the synchronous keyboard event callback. It runs on the tap
// thread for every key event in the session, so the non-trigger path is
// a single compare and the trigger path stays free of locks, blocking
// calls and UI work. Everything slow is posted to the coordinator
// through a non-blocking channel.
type Filter struct {
	trigger uint16
	flag    *trust.Flag
	sw      Switcher

	plan    atomic.Pointer[Plan]
	notices chan Notice
	lastCfg atomic.Int64
}

func NewFilter(trigger uint16, flag *trust.Flag, sw Switcher) *Filter {
	return &Filter{
		trigger: trigger,
		flag:    flag,
		sw:      sw,
		notices: make(chan Notice, 16),
	}
}

// SetPlan publishes the pair to switch between, or nil to disarm the
// filter. Coordinator only.
func (f *Filter) SetPlan(p *Plan) {
	f.plan.Store(p)
}

// Notices delivers the hot path's reports. Drained by the coordinator.
func (f *Filter) Notices() <-chan Notice {
	return f.notices
}

// Handle is the tap handler.
func (f *Filter) Handle(ev tap.Event) tap.Verdict {
	if ev.Code != f.trigger {
		return tap.Pass
	}

	// Fail open: without verified trust the key keeps its native
	// behavior. The reconcile request runs off this thread.
	if !f.flag.Read() {
		if ev.Down && !ev.Repeat {
			f.post(Notice{Kind: NoticeRecheck})
		}
		return tap.Pass
	}

	p := f.plan.Load()
	if p == nil {
		if ev.Down && !ev.Repeat {
			f.postConfigure()
		}
		return tap.Pass
	}

	// Armed. One switch per physical press; autorepeat and the release
	// are swallowed so no application ever sees the trigger key.
	if !ev.Down || ev.Repeat {
		return tap.Consume
	}

	start := time.Now()
	from := ""
	target := p.Slot1
	if cur, err := f.sw.Current(); err == nil {
		from = cur.ID
		target = p.Target(cur.ID)
	}
	err := f.sw.Activate(target.ID)
	f.post(Notice{Kind: NoticeSwitch, From: from, To: target.ID, Err: err, Took: time.Since(start)})

	// A failed attempt is still consumed: falling back to the key's
	// native effect is exactly what the user asked us to prevent.
	return tap.Consume
}

func (f *Filter) post(n Notice) {
	select {
	case f.notices <- n:
	default:
	}
}

func (f *Filter) postConfigure() {
	now := time.Now().UnixNano()
	last := f.lastCfg.Load()
	if now-last < int64(configureThrottle) {
		return
	}
	if f.lastCfg.CompareAndSwap(last, now) {
		f.post(Notice{Kind: NoticeConfigure})
	}
}
