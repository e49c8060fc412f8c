//go:build darwin

package remap

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// HID usage codes on the keyboard page (0x07 << 32 | usage).
const (
	capsLockUsage uint64 = 0x700000039 // trigger key
	f18Usage      uint64 = 0x70000006D // neutral placeholder the tap listens for
)

// hidutilRunner drives the stock hidutil(1) utility. Apply maps the
// trigger key to the placeholder; Revert maps it back to itself, an
// explicit self-mapping rather than a cleared table, so default behavior
// is restored even if another mapping was present before us.
type hidutilRunner struct{}

// NewRunner returns the platform remapping runner. The second result
// reports whether this platform has a remap facility at all.
func NewRunner() (Runner, bool) {
	return hidutilRunner{}, true
}

func (hidutilRunner) Apply(ctx context.Context) error {
	if err := setMapping(ctx, f18Usage); err != nil {
		return err
	}
	return confirm(ctx, true)
}

func (hidutilRunner) Revert(ctx context.Context) error {
	if err := setMapping(ctx, capsLockUsage); err != nil {
		return err
	}
	return confirm(ctx, false)
}

func setMapping(ctx context.Context, dst uint64) error {
	payload := fmt.Sprintf(
		`{"UserKeyMapping":[{"HIDKeyboardModifierMappingSrc":%#x,"HIDKeyboardModifierMappingDst":%#x}]}`,
		capsLockUsage, dst)
	out, err := exec.CommandContext(ctx, "hidutil", "property", "--set", payload).CombinedOutput()
	if err != nil {
		return fmt.Errorf("hidutil --set: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// confirm reads the mapping table back. hidutil prints usage codes in
// decimal, so we look for the placeholder's decimal form.
func confirm(ctx context.Context, wantRemapped bool) error {
	out, err := exec.CommandContext(ctx, "hidutil", "property", "--get", "UserKeyMapping").Output()
	if err != nil {
		return fmt.Errorf("hidutil --get: %w", err)
	}
	has := strings.Contains(string(out), strconv.FormatUint(f18Usage, 10))
	if has != wantRemapped {
		return fmt.Errorf("mapping readback mismatch (remapped=%v)", has)
	}
	return nil
}
