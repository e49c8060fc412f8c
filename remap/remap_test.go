package remap

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyConfirmedOnSuccess(t *testing.T) {
	var f FakeRunner
	c := NewController(&f, time.Second, nil)

	c.Want(true)
	require.True(t, c.Wait(time.Second))

	applied, known := c.Applied()
	assert.True(t, applied)
	assert.True(t, known)
	assert.Equal(t, 1, f.Applies())
}

func TestLaunchIssuesNoCommand(t *testing.T) {
	var f FakeRunner
	c := NewController(&f, time.Second, nil)

	c.Want(false)
	require.True(t, c.Wait(time.Second))
	assert.Equal(t, 0, f.Applies())
	assert.Equal(t, 0, f.Reverts())
}

func TestWantCoalescesWhileInFlight(t *testing.T) {
	var f FakeRunner
	c := NewController(&f, time.Second, nil)

	f.Block()
	c.Want(true)
	c.Want(true)
	c.Want(true)
	f.Release()

	require.True(t, c.Wait(time.Second))
	assert.Equal(t, 1, f.Applies())
}

func TestConfirmedStateSkipsCommands(t *testing.T) {
	var f FakeRunner
	c := NewController(&f, time.Second, nil)

	c.Want(true)
	require.True(t, c.Wait(time.Second))
	c.Want(true)
	c.Want(true)
	require.True(t, c.Wait(time.Second))

	assert.Equal(t, 1, f.Applies())
}

func TestRevertAfterApply(t *testing.T) {
	var f FakeRunner
	c := NewController(&f, time.Second, nil)

	c.Want(true)
	require.True(t, c.Wait(time.Second))
	c.Want(false)
	require.True(t, c.Wait(time.Second))

	applied, known := c.Applied()
	assert.False(t, applied)
	assert.True(t, known)
	assert.Equal(t, 1, f.Applies())
	assert.Equal(t, 1, f.Reverts())
}

func TestDesiredFlipMidFlight(t *testing.T) {
	var f FakeRunner
	c := NewController(&f, time.Second, nil)

	f.Block()
	c.Want(true)
	c.Want(false)
	f.Release()

	require.True(t, c.Wait(time.Second))
	applied, known := c.Applied()
	assert.False(t, applied)
	assert.True(t, known)
	assert.Equal(t, 1, f.Applies())
	assert.Equal(t, 1, f.Reverts())
}

func TestFailureLeavesStateUnknown(t *testing.T) {
	var f FakeRunner
	f.SetApplyErr(errors.New("exit status 1"))
	c := NewController(&f, time.Second, nil)

	c.Want(true)
	assert.False(t, c.Wait(time.Second))
	applied, known := c.Applied()
	assert.False(t, applied)
	assert.False(t, known)

	// The unknown state forces a fresh command on the next request.
	c.Want(true)
	c.Wait(time.Second)
	assert.Equal(t, 2, f.Applies())
}

func TestTimeoutForcesRevertAttempt(t *testing.T) {
	var f FakeRunner
	c := NewController(&f, 50*time.Millisecond, nil)

	f.Block()
	c.Want(true)
	assert.False(t, c.Wait(2*time.Second))
	_, known := c.Applied()
	assert.False(t, known)

	// Even though apply never confirmed, leaving the active state must
	// still issue a revert because the true mapping state is ambiguous.
	f.Release()
	c.Want(false)
	require.True(t, c.Wait(time.Second))
	assert.Equal(t, 1, f.Reverts())
}

func TestNotifyReportsEachCommand(t *testing.T) {
	var (
		f  FakeRunner
		mu sync.Mutex
		ds []Done
	)
	c := NewController(&f, time.Second, func(d Done) {
		mu.Lock()
		ds = append(ds, d)
		mu.Unlock()
	})

	c.Want(true)
	require.True(t, c.Wait(time.Second))
	c.Want(false)
	require.True(t, c.Wait(time.Second))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ds, 2)
	assert.True(t, ds[0].Applied)
	assert.NoError(t, ds[0].Err)
	assert.False(t, ds[1].Applied)
	assert.NoError(t, ds[1].Err)
}
