package sources

import (
	"fmt"
	"sync"
)

// FakeDirectory is an in-memory Directory for tests and -testenv mode.
type FakeDirectory struct {
	mu          sync.Mutex
	list        []Source
	current     string
	listErr     error
	currentErr  error
	activateErr error
	activations []string
}

func NewFakeDirectory(srcs ...Source) *FakeDirectory {
	f := &FakeDirectory{list: append([]Source(nil), srcs...)}
	if len(srcs) > 0 {
		f.current = srcs[0].ID
	}
	return f
}

func (f *FakeDirectory) List() ([]Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]Source(nil), f.list...), nil
}

func (f *FakeDirectory) Current() (Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return Source{}, f.currentErr
	}
	for _, s := range f.list {
		if s.ID == f.current {
			return s, nil
		}
	}
	return Source{ID: f.current}, nil
}

// Activate records the attempt, then switches when the id is present.
func (f *FakeDirectory) Activate(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activations = append(f.activations, id)
	if f.activateErr != nil {
		return f.activateErr
	}
	for _, s := range f.list {
		if s.ID == id {
			f.current = id
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (f *FakeDirectory) Add(s Source) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = append(f.list, s)
}

func (f *FakeDirectory) Remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.list[:0]
	for _, s := range f.list {
		if s.ID != id {
			out = append(out, s)
		}
	}
	f.list = out
}

func (f *FakeDirectory) SetCurrent(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = id
}

func (f *FakeDirectory) SetListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *FakeDirectory) SetCurrentErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentErr = err
}

func (f *FakeDirectory) SetActivateErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activateErr = err
}

// Activations returns every id passed to Activate, in order.
func (f *FakeDirectory) Activations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.activations...)
}
