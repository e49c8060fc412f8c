//go:build darwin

package trust

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>

static bool axTrusted(void) {
	return AXIsProcessTrusted();
}

static void axPromptUser(void) {
	CFStringRef keys[] = {kAXTrustedCheckOptionPrompt};
	CFBooleanRef values[] = {kCFBooleanTrue};
	CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault,
		(const void **)keys, (const void **)values, 1,
		&kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
	AXIsProcessTrustedWithOptions(options);
	CFRelease(options);
}
*/
import "C"

type axChecker struct{}

// NewChecker reports Accessibility trust. Event taps that observe
// keyboard input require the process to be listed under Privacy &
// Security > Accessibility.
func NewChecker() Checker {
	return axChecker{}
}

func (axChecker) Trusted() (bool, error) {
	return bool(C.axTrusted()), nil
}

// Prompt triggers the one-time system dialog that deep-links the user to
// the Accessibility pane. macOS only shows it once per app per grant.
func (axChecker) Prompt() {
	C.axPromptUser()
}
