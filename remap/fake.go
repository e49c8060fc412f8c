package remap

import (
	"context"
	"sync"
)

// FakeRunner records commands for tests. When Block is armed, commands
// stall until Release is called or their context expires.
type FakeRunner struct {
	mu        sync.Mutex
	applies   int
	reverts   int
	applyErr  error
	revertErr error
	block     chan struct{}
}

func (f *FakeRunner) Apply(ctx context.Context) error {
	f.mu.Lock()
	f.applies++
	block := f.block
	err := f.applyErr
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *FakeRunner) Revert(ctx context.Context) error {
	f.mu.Lock()
	f.reverts++
	block := f.block
	err := f.revertErr
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Block makes subsequent commands stall until Release.
func (f *FakeRunner) Block() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = make(chan struct{})
}

// Release unblocks stalled and future commands.
func (f *FakeRunner) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.block != nil {
		close(f.block)
		f.block = nil
	}
}

func (f *FakeRunner) SetApplyErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applyErr = err
}

func (f *FakeRunner) SetRevertErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revertErr = err
}

func (f *FakeRunner) Applies() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applies
}

func (f *FakeRunner) Reverts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reverts
}
