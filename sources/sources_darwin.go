//go:build darwin

package sources

/*
#cgo LDFLAGS: -framework Carbon -framework CoreFoundation
#include <Carbon/Carbon.h>
#include <stdlib.h>

// Lines of "id\tname" for every enabled, select-capable keyboard input
// source. Caller frees. TISCreateInputSourceList with includeAll=false
// already limits the list to enabled sources.
static char *copyInputSourceLines(void) {
	CFArrayRef sources = TISCreateInputSourceList(NULL, false);
	if (!sources) return NULL;

	CFMutableStringRef acc = CFStringCreateMutable(kCFAllocatorDefault, 0);
	CFIndex count = CFArrayGetCount(sources);

	for (CFIndex i = 0; i < count; i++) {
		TISInputSourceRef src = (TISInputSourceRef)CFArrayGetValueAtIndex(sources, i);

		CFStringRef category = (CFStringRef)TISGetInputSourceProperty(src, kTISPropertyInputSourceCategory);
		if (!category || CFStringCompare(category, kTISCategoryKeyboardInputSource, 0) != kCFCompareEqualTo) continue;

		CFBooleanRef selectable = (CFBooleanRef)TISGetInputSourceProperty(src, kTISPropertyInputSourceIsSelectCapable);
		if (!selectable || !CFBooleanGetValue(selectable)) continue;

		CFStringRef sourceID = (CFStringRef)TISGetInputSourceProperty(src, kTISPropertyInputSourceID);
		if (!sourceID) continue;
		CFStringRef name = (CFStringRef)TISGetInputSourceProperty(src, kTISPropertyLocalizedName);

		if (CFStringGetLength(acc) > 0) CFStringAppend(acc, CFSTR("\n"));
		CFStringAppend(acc, sourceID);
		CFStringAppend(acc, CFSTR("\t"));
		if (name) CFStringAppend(acc, name);
	}
	CFRelease(sources);

	CFIndex max = CFStringGetMaximumSizeForEncoding(CFStringGetLength(acc), kCFStringEncodingUTF8) + 1;
	char *out = malloc(max);
	if (out && !CFStringGetCString(acc, out, max, kCFStringEncodingUTF8)) {
		free(out);
		out = NULL;
	}
	CFRelease(acc);
	return out;
}

// Writes "id\tname" of the current keyboard input source into buf.
// No heap allocation on this path; it runs from the event tap callback.
static int currentInputSource(char *buf, int cap) {
	TISInputSourceRef src = TISCopyCurrentKeyboardInputSource();
	if (!src) return -1;

	CFStringRef sourceID = (CFStringRef)TISGetInputSourceProperty(src, kTISPropertyInputSourceID);
	CFStringRef name = (CFStringRef)TISGetInputSourceProperty(src, kTISPropertyLocalizedName);

	CFMutableStringRef acc = CFStringCreateMutable(kCFAllocatorDefault, 0);
	if (sourceID) CFStringAppend(acc, sourceID);
	CFStringAppend(acc, CFSTR("\t"));
	if (name) CFStringAppend(acc, name);

	Boolean ok = CFStringGetCString(acc, buf, cap, kCFStringEncodingUTF8);
	CFRelease(acc);
	CFRelease(src);
	return ok ? 0 : -1;
}

// 0 = selected, 1 = no enabled source with that id, else OSStatus.
static int selectInputSourceByID(const char *sourceID) {
	CFStringRef targetID = CFStringCreateWithCString(kCFAllocatorDefault, sourceID, kCFStringEncodingUTF8);
	if (!targetID) return 1;

	CFArrayRef sources = TISCreateInputSourceList(NULL, false);
	if (!sources) {
		CFRelease(targetID);
		return 1;
	}

	int rc = 1;
	CFIndex count = CFArrayGetCount(sources);
	for (CFIndex i = 0; i < count; i++) {
		TISInputSourceRef src = (TISInputSourceRef)CFArrayGetValueAtIndex(sources, i);
		CFStringRef idProp = (CFStringRef)TISGetInputSourceProperty(src, kTISPropertyInputSourceID);
		if (idProp && CFStringCompare(idProp, targetID, 0) == kCFCompareEqualTo) {
			OSStatus st = TISSelectInputSource(src);
			rc = (st == noErr) ? 0 : (int)st;
			break;
		}
	}

	CFRelease(sources);
	CFRelease(targetID);
	return rc;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"
)

type tisDirectory struct{}

// NewDirectory returns the Text Input Source directory.
func NewDirectory() Directory {
	return tisDirectory{}
}

func (tisDirectory) List() ([]Source, error) {
	raw := C.copyInputSourceLines()
	if raw == nil {
		return nil, errors.New("input source list unavailable")
	}
	defer C.free(unsafe.Pointer(raw))

	var out []Source
	for _, line := range strings.Split(C.GoString(raw), "\n") {
		if line == "" {
			continue
		}
		id, name, _ := strings.Cut(line, "\t")
		out = append(out, Source{ID: id, Name: name, Selectable: true})
	}
	return out, nil
}

func (tisDirectory) Current() (Source, error) {
	var buf [512]C.char
	if C.currentInputSource(&buf[0], C.int(len(buf))) != 0 {
		return Source{}, errors.New("current input source unavailable")
	}
	id, name, _ := strings.Cut(C.GoString(&buf[0]), "\t")
	return Source{ID: id, Name: name, Selectable: true}, nil
}

func (tisDirectory) Activate(id string) error {
	cid := C.CString(id)
	defer C.free(unsafe.Pointer(cid))

	switch rc := int(C.selectInputSourceByID(cid)); rc {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	default:
		return fmt.Errorf("select input source %s: status %d", id, rc)
	}
}
