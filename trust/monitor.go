package trust

import (
	"time"
)

// DefaultInterval bounds how stale the shared flag can get between the
// coordinator's own re-checks.
const DefaultInterval = 3 * time.Second

// Monitor polls the Checker on a fixed interval and keeps the shared Flag
// current. On every observed change it updates the flag and invokes
// onChange from the polling goroutine; the receiver is expected to marshal
// that onto its own context.
type Monitor struct {
	checker  Checker
	flag     *Flag
	interval time.Duration
	onChange func(trusted bool)
	started  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewMonitor(c Checker, flag *Flag, interval time.Duration, onChange func(trusted bool)) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		checker:  c,
		flag:     flag,
		interval: interval,
		onChange: onChange,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// PollOnce queries the oracle without prompting. An oracle error counts as
// not trusted: when we cannot verify permission we must not assume it.
func (m *Monitor) PollOnce() bool {
	trusted, err := m.checker.Trusted()
	if err != nil {
		return false
	}
	return trusted
}

func (m *Monitor) Start() {
	if m.started {
		return
	}
	m.started = true
	go m.loop()
}

func (m *Monitor) loop() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			trusted := m.PollOnce()
			if trusted == m.flag.Read() {
				continue
			}
			m.flag.Set(trusted)
			if m.onChange != nil {
				m.onChange(trusted)
			}
		}
	}
}

func (m *Monitor) Stop() {
	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}
	if m.started {
		<-m.doneCh
	}
}
