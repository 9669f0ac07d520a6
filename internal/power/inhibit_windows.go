//go:build windows

package power

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/windows"
)

const (
	esContinuous      = 0x80000000
	esSystemRequired  = 0x00000001
	esDisplayRequired = 0x00000002
)

func platformCandidates() []candidate {
	return []candidate{
		{name: "execution-state", new: newExecutionStateInhibitor},
	}
}

// executionStateInhibitor uses SetThreadExecutionState. ES_CONTINUOUS makes
// the state stick until the next call, but only on the calling thread, so
// every call is made from one goroutine locked to its OS thread.
type executionStateInhibitor struct {
	setState func(state uintptr) error
	reqs     chan stateRequest
}

type stateRequest struct {
	state uintptr
	errc  chan error
}

func newExecutionStateInhibitor() (Inhibitor, error) {
	proc := windows.NewLazySystemDLL("kernel32.dll").NewProc("SetThreadExecutionState")
	if err := proc.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInhibitorUnavailable, err)
	}
	return startExecutionState(func(state uintptr) error {
		// Returns the previous state, or 0 on failure.
		prev, _, err := proc.Call(state)
		if prev == 0 {
			return fmt.Errorf("SetThreadExecutionState: %w", err)
		}
		return nil
	}), nil
}

func startExecutionState(setState func(uintptr) error) *executionStateInhibitor {
	e := &executionStateInhibitor{setState: setState, reqs: make(chan stateRequest)}
	go e.loop()
	return e
}

// loop never unlocks its thread; it lives as long as the process.
func (e *executionStateInhibitor) loop() {
	runtime.LockOSThread()
	for req := range e.reqs {
		req.errc <- e.setState(req.state)
	}
}

func (e *executionStateInhibitor) Name() string {
	return "execution-state"
}

func (e *executionStateInhibitor) Inhibit(kind Assertion) error {
	state := uintptr(esContinuous | esSystemRequired)
	if kind == NoDisplaySleep {
		state |= esDisplayRequired
	}
	return e.set(state)
}

func (e *executionStateInhibitor) Release() error {
	return e.set(esContinuous)
}

func (e *executionStateInhibitor) set(state uintptr) error {
	errc := make(chan error, 1)
	e.reqs <- stateRequest{state: state, errc: errc}
	return <-errc
}
