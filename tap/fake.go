package tap

import "sync"

// FakeTap drives the handler directly from tests.
type FakeTap struct {
	mu       sync.Mutex
	handler  Handler
	started  bool
	starts   int
	stops    int
	startErr error
}

func (f *FakeTap) Start(h Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.handler = h
	f.started = true
	return nil
}

func (f *FakeTap) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		f.stops++
	}
	f.started = false
	f.handler = nil
}

// Inject delivers one event the way the platform hook would and returns
// the verdict. Events injected while stopped pass through, mirroring a
// destroyed registration.
func (f *FakeTap) Inject(ev Event) Verdict {
	f.mu.Lock()
	h := f.handler
	ok := f.started
	f.mu.Unlock()
	if !ok || h == nil {
		return Pass
	}
	return h(ev)
}

// SetStartErr makes subsequent Start calls fail with err.
func (f *FakeTap) SetStartErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startErr = err
}

func (f *FakeTap) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

func (f *FakeTap) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeTap) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}
