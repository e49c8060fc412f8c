package engine

import (
	"time"

	"capslang/log"
	"capslang/remap"
	"capslang/sources"
	"capslang/store"
	"capslang/tap"
	"capslang/trust"
)

// tapWarnThrottle spaces out registration-failure warnings while the
// retry loop keeps running in the background.
const tapWarnThrottle = 30 * time.Second

// Sink receives coordinator-side happenings for the UI layer. All
// methods are called on the coordinator goroutine and must not block.
type Sink interface {
	StateChanged(s State, trusted bool, resolved int)
	SourcesChanged(list []sources.Source, slots [2]string, current sources.Source)
	SwitchDone(from, to string, took time.Duration, err error)
	ConfigureHint()
	SelectionRejected(id string)
	TapFailed(err error)
	RemapChanged(applied, known bool, err error)
}

// Snapshot is a copy of the coordinator's view, safe to render from any
// goroutine.
type Snapshot struct {
	State          State
	Trusted        bool
	Resolved       int
	Slots          [2]string
	SlotNames      [2]string
	Sources        []sources.Source
	Current        sources.Source
	TapInstalled   bool
	RemapSupported bool
	RemapApplied   bool
	RemapKnown     bool
	Sound          bool
	WelcomeShown   bool
}

// Config wires the engine's collaborators. Zero durations pick the
// defaults.
type Config struct {
	Directory    sources.Directory
	Checker      trust.Checker
	Tap          tap.Tap
	Runner       remap.Runner // nil on platforms without a remap facility
	Store        *store.Store
	Sink         Sink
	PollInterval time.Duration
	RemapTimeout time.Duration
}

// Engine is the coordinator: one goroutine owns every state transition,
// resource lifecycle and preference mutation. Background workers and the
// hot path hand work to it through channels.
type Engine struct {
	dir     sources.Directory
	checker trust.Checker
	tap     tap.Tap
	st      *store.Store
	sink    Sink

	flag    trust.Flag
	monitor *trust.Monitor
	filter  *Filter
	remap   *remap.Controller
	remapOK bool

	// Owned by the coordinator goroutine.
	prefs       store.Prefs
	sel         sources.Selection
	state       State
	trusted     bool
	res         sources.Resolution
	lastList    []sources.Source
	current     sources.Source
	plan        *Plan
	tapUp       bool
	lastTapWarn time.Time

	tasks     chan func()
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopped   bool
	stopWatch func()
}

func New(cfg Config) *Engine {
	e := &Engine{
		dir:     cfg.Directory,
		checker: cfg.Checker,
		tap:     cfg.Tap,
		st:      cfg.Store,
		sink:    cfg.Sink,
		tasks:   make(chan func(), 32),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	prefs, err := cfg.Store.Load()
	if err != nil {
		log.Warnf("loading preferences: %v", err)
	}
	e.prefs = prefs
	e.sel = sources.NewSelection(prefs.Slot1, prefs.Slot2)

	e.filter = NewFilter(tap.TriggerKeyCode, &e.flag, cfg.Directory)
	e.monitor = trust.NewMonitor(cfg.Checker, &e.flag, cfg.PollInterval, func(bool) {
		e.enqueue(e.reconcile)
	})
	e.remapOK = cfg.Runner != nil
	if e.remapOK {
		e.remap = remap.NewController(cfg.Runner, cfg.RemapTimeout, e.onRemapDone)
	}
	return e
}

// Start seeds the permission flag, spins up the coordinator goroutine
// and schedules the launch reconcile.
func (e *Engine) Start() {
	e.flag.Set(e.monitor.PollOnce())
	go e.loop()
	e.enqueue(e.reconcile)
	e.monitor.Start()

	stop, err := e.st.Watch(func() {
		e.enqueue(e.reloadPrefs)
	})
	if err != nil {
		log.Warnf("preference watch unavailable: %v", err)
	} else {
		e.stopWatch = stop
	}
}

// Stop tears everything down: tap destroyed, remap reverted with a
// bounded wait, monitor joined. Safe to call once.
func (e *Engine) Stop() {
	if e.stopped {
		return
	}
	e.stopped = true

	close(e.stopCh)
	<-e.doneCh
	e.monitor.Stop()
	if e.stopWatch != nil {
		e.stopWatch()
	}

	e.filter.SetPlan(nil)
	if e.tapUp {
		e.tap.Stop()
		e.tapUp = false
		log.TapStopped()
	}
	if e.remapOK {
		e.remap.Want(false)
		if !e.remap.Wait(3 * time.Second) {
			log.Warn("remap revert unconfirmed at shutdown")
		}
	}
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	for {
		select {
		case <-e.stopCh:
			return
		case fn := <-e.tasks:
			fn()
		case n := <-e.filter.Notices():
			e.handleNotice(n)
		}
	}
}

// enqueue hands fn to the coordinator goroutine, preserving order.
// After shutdown the work is discarded.
func (e *Engine) enqueue(fn func()) {
	select {
	case e.tasks <- fn:
	case <-e.stopCh:
	}
}

// reconcile re-derives the operational state from scratch and converges
// every owned resource on it. All triggers funnel here: launch, menu
// refresh, selection changes, permission changes, filter nudges.
func (e *Engine) reconcile() {
	trusted := e.monitor.PollOnce()
	e.flag.Set(trusted)

	list, err := e.dir.List()
	if err != nil {
		log.Warnf("input source listing failed: %v", err)
		list = nil
	}
	usable := sources.Usable(list)
	res := e.sel.Resolve(usable)
	next := Derive(trusted, res.Count)

	// Trust loss destroys the tap before anything user-visible runs. An
	// interception without authorization must not outlive this line.
	if next == PermissionsRequired && e.tapUp {
		e.filter.SetPlan(nil)
		e.plan = nil
		e.tap.Stop()
		e.tapUp = false
		log.TapStopped()
	}

	if next != PermissionsRequired && !e.tapUp {
		if terr := e.tap.Start(e.filter.Handle); terr != nil {
			// Registration refused although the oracle said trusted.
			// Fail safe: clear the flag and demote. The monitor notices
			// the mismatch on its next poll and retries through here.
			e.flag.Set(false)
			trusted = false
			next = PermissionsRequired
			e.warnTapFailure(terr)
		} else {
			e.tapUp = true
			log.TapStarted()
		}
	}

	if e.remapOK {
		e.remap.Want(next == Active)
	}

	if next == Active {
		e.plan = &Plan{Slot1: *res.Slots[0], Slot2: *res.Slots[1]}
	} else {
		e.plan = nil
	}
	e.filter.SetPlan(e.plan)

	if cur, cerr := e.dir.Current(); cerr == nil {
		e.current = cur
	}

	if trusted != e.trusted {
		log.Permission(trusted)
		e.trusted = trusted
	}
	if next != e.state {
		log.State(e.state.String(), next.String(), trusted, res.Count)
		e.state = next
	}
	e.res = res
	e.lastList = usable

	if e.sink != nil {
		e.sink.StateChanged(next, trusted, res.Count)
		e.sink.SourcesChanged(usable, e.sel.IDs(), e.current)
	}
}

func (e *Engine) handleNotice(n Notice) {
	switch n.Kind {
	case NoticeRecheck:
		e.reconcile()
	case NoticeConfigure:
		log.Info("trigger pressed before setup finished")
		if e.sink != nil {
			e.sink.ConfigureHint()
		}
	case NoticeSwitch:
		e.finishSwitch(n)
	}
}

func (e *Engine) finishSwitch(n Notice) {
	ms := float64(n.Took.Microseconds()) / 1000.0
	log.Switch(n.From, n.To, ms, n.Err == nil)
	if n.Err == nil {
		for _, s := range e.lastList {
			if s.ID == n.To {
				e.current = s
				break
			}
		}
	}
	if e.sink != nil {
		e.sink.SwitchDone(n.From, n.To, n.Took, n.Err)
	}
}

func (e *Engine) onRemapDone(d remap.Done) {
	e.enqueue(func() {
		action := "revert"
		if d.Applied {
			action = "apply"
		}
		ms := float64(d.Took.Microseconds()) / 1000.0
		log.Remap(action, d.Err == nil, ms, d.Err)
		if e.sink != nil {
			applied, known := e.remap.Applied()
			e.sink.RemapChanged(applied, known, d.Err)
		}
	})
}

func (e *Engine) warnTapFailure(err error) {
	if time.Since(e.lastTapWarn) < tapWarnThrottle {
		return
	}
	e.lastTapWarn = time.Now()
	log.TapFailed(err)
	if e.sink != nil {
		e.sink.TapFailed(err)
	}
}

// Select assigns id to a free slot and persists the choice. A request
// that cannot be honored is rejected with a signal and no state change.
func (e *Engine) Select(id string) {
	e.enqueue(func() {
		list, err := e.dir.List()
		if err != nil {
			log.Warnf("input source listing failed: %v", err)
		}
		usable := sources.Usable(list)
		if _, ok := e.sel.Select(id, usable); !ok {
			log.Selection("reject", id, e.res.Count)
			if e.sink != nil {
				e.sink.SelectionRejected(id)
			}
			return
		}
		cnt := e.sel.Resolve(usable).Count
		e.persistSelection()
		log.Selection("select", id, cnt)
		e.reconcile()
	})
}

// Deselect clears whichever slot holds id.
func (e *Engine) Deselect(id string) {
	e.enqueue(func() {
		if _, ok := e.sel.Deselect(id); !ok {
			return
		}
		cnt := e.sel.Resolve(e.lastList).Count
		e.persistSelection()
		log.Selection("deselect", id, cnt)
		e.reconcile()
	})
}

func (e *Engine) persistSelection() {
	ids := e.sel.IDs()
	e.prefs.Slot1, e.prefs.Slot2 = ids[0], ids[1]
	if err := e.st.Save(e.prefs); err != nil {
		log.Errorf("saving preferences: %v", err)
	}
}

// Refresh schedules a reconcile, the menu-open and launch trigger.
func (e *Engine) Refresh() {
	e.enqueue(e.reconcile)
}

// SwitchNow performs the same toggle a trigger press would, on behalf of
// the menu.
func (e *Engine) SwitchNow() {
	e.enqueue(func() {
		p := e.plan
		if e.state != Active || p == nil {
			if e.sink != nil {
				e.sink.ConfigureHint()
			}
			return
		}
		start := time.Now()
		from := ""
		target := p.Slot1
		if cur, err := e.dir.Current(); err == nil {
			from = cur.ID
			target = p.Target(cur.ID)
		}
		err := e.dir.Activate(target.ID)
		e.finishSwitch(Notice{Kind: NoticeSwitch, From: from, To: target.ID, Err: err, Took: time.Since(start)})
	})
}

// RequestPermission raises the system grant dialog and reconciles.
func (e *Engine) RequestPermission() {
	e.enqueue(func() {
		e.checker.Prompt()
		e.reconcile()
	})
}

// SetSound persists the feedback-sound preference.
func (e *Engine) SetSound(on bool) {
	e.enqueue(func() {
		if e.prefs.Sound == on {
			return
		}
		e.prefs.Sound = on
		if err := e.st.Save(e.prefs); err != nil {
			log.Errorf("saving preferences: %v", err)
		}
	})
}

// MarkWelcomeShown records that the onboarding window was displayed.
func (e *Engine) MarkWelcomeShown() {
	e.enqueue(func() {
		if e.prefs.WelcomeShown {
			return
		}
		e.prefs.WelcomeShown = true
		if err := e.st.Save(e.prefs); err != nil {
			log.Errorf("saving preferences: %v", err)
		}
	})
}

// reloadPrefs picks up external edits to the preference file.
func (e *Engine) reloadPrefs() {
	p, err := e.st.Load()
	if err != nil {
		log.Warnf("reloading preferences: %v", err)
		return
	}
	if p == e.prefs {
		return
	}
	e.prefs = p
	e.sel = sources.NewSelection(p.Slot1, p.Slot2)
	log.Info("preferences reloaded from disk")
	e.reconcile()
}

// Snapshot returns the coordinator's current view. It round-trips
// through the coordinator goroutine, so it also acts as a barrier for
// previously issued operations.
func (e *Engine) Snapshot() Snapshot {
	ch := make(chan Snapshot, 1)
	e.enqueue(func() {
		ch <- e.snapshotNow()
	})
	select {
	case s := <-ch:
		return s
	case <-e.stopCh:
		return Snapshot{}
	}
}

func (e *Engine) snapshotNow() Snapshot {
	s := Snapshot{
		State:          e.state,
		Trusted:        e.trusted,
		Resolved:       e.res.Count,
		Slots:          e.sel.IDs(),
		Sources:        append([]sources.Source(nil), e.lastList...),
		Current:        e.current,
		TapInstalled:   e.tapUp,
		RemapSupported: e.remapOK,
		Sound:          e.prefs.Sound,
		WelcomeShown:   e.prefs.WelcomeShown,
	}
	for i, slot := range e.res.Slots {
		if slot != nil {
			s.SlotNames[i] = slot.Name
		}
	}
	if e.remapOK {
		s.RemapApplied, s.RemapKnown = e.remap.Applied()
	}
	return s
}
