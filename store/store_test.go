package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "prefs.toml"))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s := createTestStore(t)

	p, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), p)
	assert.True(t, p.Sound)
	assert.Empty(t, p.Slot1)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := createTestStore(t)

	want := Prefs{
		Slot1:        "com.apple.keylayout.US",
		Slot2:        "com.apple.keylayout.Russian",
		Sound:        false,
		WelcomeShown: true,
	}
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Save(Defaults()))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}

func TestLoadCorruptFile(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("slot1 = [not toml"), 0644))

	_, err := s.Load()
	assert.Error(t, err)
}

func TestEmptySlotsOmitted(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Save(Defaults()))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "slot1", "unset slots should not be serialized")
}

func TestWatchFiresOnExternalWrite(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Save(Defaults()))

	changed := make(chan struct{}, 1)
	stop, err := s.Watch(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer stop()

	// Simulate an external editor writing the file directly.
	require.NoError(t, os.WriteFile(s.Path(), []byte("sound = false\nwelcome_shown = false\n"), 0644))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not fire after external write")
	}
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Save(Defaults()))

	changed := make(chan struct{}, 1)
	stop, err := s.Watch(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)
	defer stop()

	other := filepath.Join(filepath.Dir(s.Path()), "unrelated.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))

	select {
	case <-changed:
		t.Fatal("watch fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}
