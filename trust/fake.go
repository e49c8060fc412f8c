package trust

import "sync"

// FakeChecker is a controllable oracle for tests and -testenv mode.
type FakeChecker struct {
	mu       sync.Mutex
	trusted  bool
	err      error
	polls    int
	prompted int
}

func NewFakeChecker(trusted bool) *FakeChecker {
	return &FakeChecker{trusted: trusted}
}

func (f *FakeChecker) Trusted() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.err != nil {
		return false, f.err
	}
	return f.trusted, nil
}

func (f *FakeChecker) Prompt() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompted++
}

func (f *FakeChecker) SetTrusted(trusted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trusted = trusted
}

func (f *FakeChecker) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *FakeChecker) Polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func (f *FakeChecker) Prompted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prompted
}
