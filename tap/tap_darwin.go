//go:build darwin

package tap

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation

#include <ApplicationServices/ApplicationServices.h>
#include <pthread.h>
#include <unistd.h>

extern int goTapVerdict(unsigned short code, int down, int repeat);

static CFMachPortRef keyTap = NULL;
static CFRunLoopSourceRef keyTapSource = NULL;
static CFRunLoopRef keyTapLoop = NULL;
static pthread_t keyTapThread;
static volatile int keyTapEnabled = 0;
static volatile int keyTapThreadUp = 0;

static void stopKeyTap(void);

static CGEventRef keyTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
    (void)proxy;
    (void)refcon;

    // The system disables taps whose callbacks run long. Re-arm and move on.
    if (type == kCGEventTapDisabledByTimeout || type == kCGEventTapDisabledByUserInput) {
        if (keyTap != NULL) {
            CGEventTapEnable(keyTap, true);
        }
        return event;
    }

    if (type != kCGEventKeyDown && type != kCGEventKeyUp) {
        return event;
    }

    int64_t code = CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
    int64_t repeat = CGEventGetIntegerValueField(event, kCGKeyboardEventAutorepeat);
    int down = type == kCGEventKeyDown ? 1 : 0;

    if (goTapVerdict((unsigned short)code, down, repeat ? 1 : 0)) {
        return NULL; // swallow
    }
    return event;
}

// Thread function that owns the tap's run loop.
static void* keyTapRunLoop(void* arg) {
    (void)arg;

    keyTapLoop = CFRunLoopGetCurrent();
    CFRunLoopAddSource(keyTapLoop, keyTapSource, kCFRunLoopCommonModes);
    CGEventTapEnable(keyTap, true);
    keyTapEnabled = 1;

    CFRunLoopRun();

    keyTapEnabled = 0;
    keyTapLoop = NULL;
    return NULL;
}

static int startKeyTap(void) {
    if (keyTap != NULL) {
        return 1; // already installed
    }

    CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) | CGEventMaskBit(kCGEventKeyUp);
    keyTap = CGEventTapCreate(
        kCGSessionEventTap,
        kCGHeadInsertEventTap,
        kCGEventTapOptionDefault,
        mask,
        keyTapCallback,
        NULL
    );
    if (keyTap == NULL) {
        return -1; // refused, accessibility trust missing or revoked
    }

    keyTapSource = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, keyTap, 0);
    if (keyTapSource == NULL) {
        CFRelease(keyTap);
        keyTap = NULL;
        return -2;
    }

    keyTapThreadUp = 1;
    if (pthread_create(&keyTapThread, NULL, keyTapRunLoop, NULL) != 0) {
        CFRelease(keyTapSource);
        CFRelease(keyTap);
        keyTapSource = NULL;
        keyTap = NULL;
        keyTapThreadUp = 0;
        return -3;
    }

    // Wait for the run loop thread to enable the tap.
    for (int i = 0; i < 100 && !keyTapEnabled; i++) {
        usleep(10000);
    }
    if (!keyTapEnabled) {
        stopKeyTap();
        return -4;
    }

    return 0;
}

static void stopKeyTap(void) {
    if (keyTap == NULL) {
        return;
    }

    CGEventTapEnable(keyTap, false);
    keyTapEnabled = 0;

    if (keyTapLoop != NULL) {
        CFRunLoopStop(keyTapLoop);
    }
    if (keyTapThreadUp) {
        pthread_join(keyTapThread, NULL);
        keyTapThreadUp = 0;
    }

    if (keyTapSource != NULL) {
        CFRelease(keyTapSource);
        keyTapSource = NULL;
    }
    CFRelease(keyTap);
    keyTap = NULL;
    keyTapLoop = NULL;
}
*/
import "C"

import (
	"errors"
	"sync/atomic"
)

// darwinTap is a session event tap serviced by a dedicated run loop
// thread. The C side holds process-global state, so at most one can be
// installed at a time.
type darwinTap struct {
	running atomic.Bool
}

func New() Tap {
	return &darwinTap{}
}

func (t *darwinTap) Start(h Handler) error {
	if t.running.Load() {
		return errors.New("event tap already installed")
	}

	handler.Store(&h)

	switch C.startKeyTap() {
	case 0:
		t.running.Store(true)
		return nil
	case 1:
		return errors.New("event tap already installed")
	case -1:
		handler.Store(nil)
		return ErrNotPermitted
	case -2:
		handler.Store(nil)
		return errors.New("creating tap run loop source")
	case -3:
		handler.Store(nil)
		return errors.New("creating tap run loop thread")
	default:
		handler.Store(nil)
		return errors.New("timeout waiting for event tap to enable")
	}
}

func (t *darwinTap) Stop() {
	if !t.running.Load() {
		return
	}
	C.stopKeyTap()
	t.running.Store(false)
	handler.Store(nil)
}
