package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotUSFR() []Source {
	return []Source{
		{ID: "com.apple.keylayout.US", Name: "U.S.", Selectable: true},
		{ID: "com.apple.keylayout.French", Name: "French", Selectable: true},
		{ID: "com.apple.keylayout.German", Name: "German", Selectable: true},
	}
}

func TestSelectPrefersFirstEmptySlot(t *testing.T) {
	var sel Selection
	snap := snapshotUSFR()

	slot, ok := sel.Select("com.apple.keylayout.US", snap)
	require.True(t, ok)
	assert.Equal(t, 0, slot)

	slot, ok = sel.Select("com.apple.keylayout.French", snap)
	require.True(t, ok)
	assert.Equal(t, 1, slot)

	assert.Equal(t, [2]string{"com.apple.keylayout.US", "com.apple.keylayout.French"}, sel.IDs())
}

func TestSelectFillsGapLeftByDeselect(t *testing.T) {
	sel := NewSelection("com.apple.keylayout.US", "com.apple.keylayout.French")
	snap := snapshotUSFR()

	_, ok := sel.Deselect("com.apple.keylayout.US")
	require.True(t, ok)

	slot, ok := sel.Select("com.apple.keylayout.German", snap)
	require.True(t, ok)
	assert.Equal(t, 0, slot)
}

func TestSelectRejectsWhenBothSlotsResolve(t *testing.T) {
	sel := NewSelection("com.apple.keylayout.US", "com.apple.keylayout.French")

	_, ok := sel.Select("com.apple.keylayout.German", snapshotUSFR())
	assert.False(t, ok)
	assert.Equal(t, [2]string{"com.apple.keylayout.US", "com.apple.keylayout.French"}, sel.IDs())
}

func TestSelectReplacesVanishedSlot(t *testing.T) {
	sel := NewSelection("com.apple.keylayout.US", "org.unknown.removed")

	slot, ok := sel.Select("com.apple.keylayout.French", snapshotUSFR())
	require.True(t, ok)
	assert.Equal(t, 1, slot)
	assert.Equal(t, [2]string{"com.apple.keylayout.US", "com.apple.keylayout.French"}, sel.IDs())
}

func TestSelectRejectsDuplicate(t *testing.T) {
	sel := NewSelection("com.apple.keylayout.US", "")

	_, ok := sel.Select("com.apple.keylayout.US", snapshotUSFR())
	assert.False(t, ok)
	assert.Equal(t, [2]string{"com.apple.keylayout.US", ""}, sel.IDs())
}

func TestSelectRejectsEmptyID(t *testing.T) {
	var sel Selection
	_, ok := sel.Select("", snapshotUSFR())
	assert.False(t, ok)
}

func TestDeselectClearsMatchingSlot(t *testing.T) {
	sel := NewSelection("com.apple.keylayout.US", "com.apple.keylayout.French")

	slot, ok := sel.Deselect("com.apple.keylayout.French")
	require.True(t, ok)
	assert.Equal(t, 1, slot)
	assert.Equal(t, [2]string{"com.apple.keylayout.US", ""}, sel.IDs())

	_, ok = sel.Deselect("com.apple.keylayout.French")
	assert.False(t, ok)
}

func TestResolveCountsOnlyPresentSources(t *testing.T) {
	sel := NewSelection("com.apple.keylayout.US", "org.unknown.removed")

	res := sel.Resolve(snapshotUSFR())
	assert.Equal(t, 1, res.Count)
	require.NotNil(t, res.Slots[0])
	assert.Equal(t, "U.S.", res.Slots[0].Name)
	assert.Nil(t, res.Slots[1])
}

func TestResolveEmptySelection(t *testing.T) {
	var sel Selection
	res := sel.Resolve(snapshotUSFR())
	assert.Equal(t, 0, res.Count)
	assert.Nil(t, res.Slots[0])
	assert.Nil(t, res.Slots[1])
}

func TestResolveCopiesSnapshotEntries(t *testing.T) {
	sel := NewSelection("com.apple.keylayout.US", "")
	snap := snapshotUSFR()

	res := sel.Resolve(snap)
	require.NotNil(t, res.Slots[0])
	snap[0].Name = "mutated"
	assert.Equal(t, "U.S.", res.Slots[0].Name)
}
