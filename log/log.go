package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog    zerolog.Logger
	diagFile   *os.File
	switchFile *os.File
	logMu      sync.Mutex
	logReady   bool
	pid        int
	dir        string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
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

	// Priority 2: CAPSLANG_LOG_PATH environment variable
	envPath := os.Getenv("CAPSLANG_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	switchPath := filepath.Join(dir, "switch_log.txt")
	switchFile, err = os.OpenFile(switchPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if switchFile != nil {
		switchFile.Close()
		switchFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// State records an operational state transition with the inputs that
// produced it.
func State(prev, next string, trusted bool, resolved int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("prev", prev).
		Str("next", next).
		Bool("trusted", trusted).
		Int("resolved", resolved).
		Msg("state")
}

func Permission(trusted bool) {
	if !logReady {
		return
	}
	diagLog.Info().Bool("trusted", trusted).Msg("permission")
}

func TapStarted() {
	if logReady {
		diagLog.Info().Msg("tap_started")
	}
}

func TapStopped() {
	if logReady {
		diagLog.Info().Msg("tap_stopped")
	}
}

func TapFailed(err error) {
	if logReady {
		diagLog.Error().Err(err).Msg("tap_failed")
	}
}

// Remap records the outcome of one apply/revert command. action is
// "apply" or "revert".
func Remap(action string, ok bool, ms float64, err error) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if !ok {
		ev = diagLog.Error().Err(err)
	}
	ev.Str("action", action).
		Bool("ok", ok).
		Float64("total_ms", ms).
		Msg("remap")
}

func Selection(op, id string, resolved int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("op", op).
		Str("id", id).
		Int("resolved", resolved).
		Msg("selection")
}

// Switch records one completed switch attempt in the diagnostics log and,
// on success, appends a human-readable line to switch_log.txt.
func Switch(from, to string, ms float64, ok bool) {
	if !logReady {
		return
	}

	ev := diagLog.Info()
	if !ok {
		ev = diagLog.Error()
	}
	ev.Str("from", from).
		Str("to", to).
		Float64("total_ms", ms).
		Bool("ok", ok).
		Msg("switch")

	if !ok {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	if switchFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s -> %s\n", time.Now().Format("2006-01-02 15:04:05"), pid, from, to)
	switchFile.WriteString(line)
}
