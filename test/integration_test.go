//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("CAPSLANG_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "CAPSLANG_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

// runAgent drives one capslang -testenv process over stdin and returns
// its combined output plus the log directory it wrote to.
func runAgent(t *testing.T, stdin string) (out, logDir string) {
	t.Helper()
	logDir = t.TempDir()
	prefsPath := filepath.Join(t.TempDir(), "prefs.toml")

	cmd := exec.Command(testBinary, "-testenv", "-logpath", logDir, "-prefs", prefsPath)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = os.Environ()

	outB, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("capslang exited with error: %v\noutput: %s", err, outB)
	}
	return string(outB), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q\noutput: %s", want, out)
	}
}

func TestLaunchConfiguring(t *testing.T) {
	out, _ := runAgent(t, cmds("WAIT", "QUIT"))
	requireContains(t, out, "SNAP state=configuring resolved=0 slots=, current=us tap=true remap=false")
}

func TestSelectBothActivates(t *testing.T) {
	// The remap command confirms on its own goroutine; give it a beat
	out, _ := runAgent(t, cmds("SELECT us", "SELECT fr", "SLEEP 100", "WAIT", "QUIT"))
	requireContains(t, out, "EVENT state=active trusted=true resolved=2")
	requireContains(t, out, "EVENT remap applied=true known=true ok=true")
	requireContains(t, out, "SNAP state=active resolved=2 slots=us,fr current=us tap=true remap=true")
}

func TestPressSwitches(t *testing.T) {
	out, logDir := runAgent(t, cmds(
		"SELECT us", "SELECT fr", "WAIT",
		"PRESS", "WAIT_SWITCH", "WAIT", "QUIT"))
	requireContains(t, out, "PRESS consumed")
	requireContains(t, out, "EVENT switch from=us to=fr ok=true")
	requireContains(t, out, "SNAP state=active resolved=2 slots=us,fr current=fr")

	swl := readLog(t, logDir, "switch_log.txt")
	if !strings.Contains(swl, "us -> fr") {
		t.Errorf("switch_log.txt missing entry: %q", swl)
	}
}

func TestPressTogglesBack(t *testing.T) {
	out, _ := runAgent(t, cmds(
		"SELECT us", "SELECT fr", "WAIT",
		"PRESS", "WAIT_SWITCH",
		"PRESS", "WAIT_SWITCH", "WAIT", "QUIT"))
	requireContains(t, out, "EVENT switch from=us to=fr ok=true")
	requireContains(t, out, "EVENT switch from=fr to=us ok=true")
	requireContains(t, out, "current=us tap=true")
}

func TestPressWhileConfiguringPasses(t *testing.T) {
	out, _ := runAgent(t, cmds("PRESS", "SLEEP 200", "WAIT", "QUIT"))
	requireContains(t, out, "PRESS passed")
	requireContains(t, out, "EVENT hint=configure")
}

func TestRevokeDemotes(t *testing.T) {
	out, _ := runAgent(t, cmds(
		"SELECT us", "SELECT fr", "WAIT",
		"REVOKE", "SLEEP 100", "WAIT", "QUIT"))
	requireContains(t, out, "EVENT state=permissions-required trusted=false resolved=2")
	requireContains(t, out, "SNAP state=permissions-required resolved=2 slots=us,fr current=us tap=false remap=false")
}

func TestGrantRecovers(t *testing.T) {
	out, _ := runAgent(t, cmds(
		"SELECT us", "SELECT fr", "WAIT",
		"REVOKE", "WAIT",
		"GRANT", "SLEEP 100", "WAIT", "QUIT"))
	requireContains(t, out, "SNAP state=permissions-required resolved=2")
	requireContains(t, out, "SNAP state=active resolved=2 slots=us,fr current=us tap=true remap=true")
}

func TestThirdSelectionRejected(t *testing.T) {
	out, _ := runAgent(t, cmds(
		"SELECT us", "SELECT fr",
		"ADD de German (PC)",
		"SELECT de", "WAIT", "QUIT"))
	requireContains(t, out, "EVENT rejected=de")
	requireContains(t, out, "slots=us,fr")
}

func TestVanishedSourceDemotes(t *testing.T) {
	out, _ := runAgent(t, cmds(
		"SELECT us", "SELECT fr", "WAIT",
		"REMOVE fr", "WAIT", "QUIT"))
	requireContains(t, out, "EVENT state=configuring trusted=true resolved=1")
	// The slot keeps its id so a returning layout resolves again
	requireContains(t, out, "SNAP state=configuring resolved=1 slots=us,fr")
}

func TestTapFailureDemotes(t *testing.T) {
	out, _ := runAgent(t, cmds(
		"SELECT us", "SELECT fr", "WAIT",
		"REVOKE", "WAIT",
		"TAPERR on", "GRANT", "WAIT",
		"TAPERR off", "GRANT", "SLEEP 100", "WAIT", "QUIT"))
	requireContains(t, out, "EVENT tapfail=\"event hook registration refused\"")
	requireContains(t, out, "SNAP state=permissions-required resolved=2 slots=us,fr current=us tap=false")
	requireContains(t, out, "SNAP state=active resolved=2 slots=us,fr current=us tap=true remap=true")
}

func TestExternalCurrentChange(t *testing.T) {
	out, _ := runAgent(t, cmds(
		"SELECT us", "SELECT fr", "WAIT",
		"ADD de German (PC)",
		"CURRENT de", "WAIT",
		"PRESS", "WAIT_SWITCH", "WAIT", "QUIT"))
	// A third layout activated behind our back still toggles to slot 1
	requireContains(t, out, "EVENT switch from=de to=us ok=true")
	requireContains(t, out, "current=us tap=true")
}

func TestDiagnosticsLogWritten(t *testing.T) {
	_, logDir := runAgent(t, cmds("SELECT us", "SELECT fr", "WAIT", "QUIT"))
	diag := readLog(t, logDir, "diagnostics_log.txt")
	if !strings.Contains(diag, "state") {
		t.Errorf("diagnostics_log.txt missing state transitions: %q", diag)
	}
	if !strings.Contains(diag, "selection") {
		t.Errorf("diagnostics_log.txt missing selection entries: %q", diag)
	}
}
