//go:build darwin && cgo

package power

/*
#cgo LDFLAGS: -framework IOKit -framework CoreFoundation
#include <stdlib.h>
#include <CoreFoundation/CoreFoundation.h>
#include <IOKit/pwr_mgt/IOPMLib.h>

static IOReturn createAssertion(const char *kind, const char *name, IOPMAssertionID *id) {
	CFStringRef k = CFStringCreateWithCString(kCFAllocatorDefault, kind, kCFStringEncodingASCII);
	CFStringRef n = CFStringCreateWithCString(kCFAllocatorDefault, name, kCFStringEncodingASCII);
	IOReturn ret = IOPMAssertionCreateWithName(k, kIOPMAssertionLevelOn, n, id);
	CFRelease(k);
	CFRelease(n);
	return ret;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

func platformCandidates() []candidate {
	return []candidate{
		{name: "iokit", new: newIOKitInhibitor},
		{name: "caffeinate", new: newCaffeinateProcess},
	}
}

// iokitInhibitor holds an IOPMLib power assertion.
type iokitInhibitor struct {
	id C.IOPMAssertionID
}

func newIOKitInhibitor() (Inhibitor, error) {
	return &iokitInhibitor{}, nil
}

func (i *iokitInhibitor) Name() string {
	return "iokit"
}

func (i *iokitInhibitor) Inhibit(kind Assertion) error {
	ckind := C.CString(string(kind))
	defer C.free(unsafe.Pointer(ckind))
	cname := C.CString(appName)
	defer C.free(unsafe.Pointer(cname))

	var id C.IOPMAssertionID
	if ret := C.createAssertion(ckind, cname, &id); ret != C.kIOReturnSuccess {
		return fmt.Errorf("IOPMAssertionCreateWithName: 0x%x", uint32(ret))
	}
	i.id = id
	return nil
}

func (i *iokitInhibitor) Release() error {
	if i.id == 0 {
		return nil
	}
	ret := C.IOPMAssertionRelease(i.id)
	i.id = 0
	if ret != C.kIOReturnSuccess {
		return fmt.Errorf("IOPMAssertionRelease: 0x%x", uint32(ret))
	}
	return nil
}
