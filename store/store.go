// Package store persists user preferences: the two selected input-source
// identifiers plus a couple of ambient settings. The file is a small TOML
// document written atomically so a crash mid-save never truncates it.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/BurntSushi/toml"
)

const fileName = "prefs.toml"

// Prefs is the full on-disk preference set. Empty slot strings mean unset.
type Prefs struct {
	Slot1        string `toml:"slot1,omitempty"`
	Slot2        string `toml:"slot2,omitempty"`
	Sound        bool   `toml:"sound"`
	WelcomeShown bool   `toml:"welcome_shown"`
}

func Defaults() Prefs {
	return Prefs{Sound: true}
}

// ResolvePath picks the preference file location: -prefs flag, then the
// CAPSLANG_PREFS environment variable, then the OS config directory.
func ResolvePath(flagPath string) (string, error) {
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	if envPath := os.Getenv("CAPSLANG_PREFS"); envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "capslang", fileName), nil
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "capslang", fileName), nil
}

type Store struct {
	path string
	mu   sync.Mutex
}

func Open(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the preference file. A missing file is not an error: it
// returns the defaults, so first launch needs no setup step.
func (s *Store) Load() (Prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Defaults()
	if _, err := toml.DecodeFile(s.path, &p); err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Defaults(), fmt.Errorf("decode %s: %w", s.path, err)
	}
	return p, nil
}

// Save writes the full preference set via temp file and rename.
func (s *Store) Save(p Prefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), fileName+".tmp")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(p); err != nil {
		tmp.Close()
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}
