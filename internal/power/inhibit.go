// Package power keeps the machine awake while long transfers run.
//
// A Manager owns exactly one platform backend, picked once by probing the
// candidates for the current OS in priority order (see inhibit_*.go). When no
// candidate can be constructed the manager degrades to a no-op.
package power

import (
	"errors"
	"fmt"
	"sync"

	"github.com/phuslu/log"
)

const (
	appName = "gogvault"
	reason  = "Downloading game files"
)

// ErrInhibitorUnavailable is returned by backend constructors when the
// platform mechanism is missing. The manager moves on to the next candidate.
var ErrInhibitorUnavailable = errors.New("inhibitor unavailable")

// Assertion is the kind of sleep being prevented.
type Assertion string

const (
	NoIdleSleep    Assertion = "NoIdleSleepAssertion"
	NoDisplaySleep Assertion = "NoDisplaySleepAssertion"
)

// Inhibitor is one platform mechanism. Inhibit and Release each issue exactly
// one call to the OS; the Manager guarantees they are only called in
// alternation.
type Inhibitor interface {
	Name() string
	Inhibit(kind Assertion) error
	Release() error
}

type candidate struct {
	name string
	new  func() (Inhibitor, error)
}

// Manager holds at most one wakelock for the process.
type Manager struct {
	mu      sync.Mutex
	backend Inhibitor
	kind    Assertion
	held    Assertion // empty when nothing is held
	broken  error
	logger  *log.Logger
}

// New probes the platform backends and returns a manager around the first
// that works. kind is what Take asserts.
func New(kind Assertion, logger *log.Logger) *Manager {
	return newManager(platformCandidates(), kind, logger)
}

func newManager(candidates []candidate, kind Assertion, logger *log.Logger) *Manager {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	if kind == "" {
		kind = NoIdleSleep
	}

	m := &Manager{kind: kind, logger: logger}
	for _, c := range candidates {
		b, err := c.new()
		if err != nil {
			logger.Warn().Err(err).Str("backend", c.name).Msg("could not initialise wakelock backend")
			continue
		}
		m.backend = b
		break
	}
	if m.backend == nil {
		m.backend = noopInhibitor{}
	}
	logger.Debug().Str("backend", m.backend.Name()).Msg("wakelock backend selected")
	return m
}

// Backend names the selected mechanism.
func (m *Manager) Backend() string {
	return m.backend.Name()
}

// Held reports the assertion currently held, or "" when none is.
func (m *Manager) Held() Assertion {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// Take asserts the manager's configured kind.
func (m *Manager) Take() error {
	return m.TakeKind(m.kind)
}

// TakeKind is a no-op when kind is already held. Holding a different kind
// releases it first.
func (m *Manager) TakeKind(kind Assertion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.broken != nil {
		return nil
	}
	if m.held == kind {
		return nil
	}
	if m.held != "" {
		if err := m.release(); err != nil {
			return err
		}
	}

	if err := m.backend.Inhibit(kind); err != nil {
		return m.fail(fmt.Errorf("%s: take wakelock: %w", m.backend.Name(), err))
	}
	m.held = kind
	m.logger.Debug().Str("backend", m.backend.Name()).Str("assertion", string(kind)).Msg("wakelock taken")
	return nil
}

// Release is a no-op when nothing is held.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.broken != nil || m.held == "" {
		return nil
	}
	return m.release()
}

func (m *Manager) release() error {
	err := m.backend.Release()
	m.held = ""
	if err != nil {
		return m.fail(fmt.Errorf("%s: release wakelock: %w", m.backend.Name(), err))
	}
	m.logger.Debug().Str("backend", m.backend.Name()).Msg("wakelock released")
	return nil
}

// fail disables the manager for the rest of the process.
func (m *Manager) fail(err error) error {
	m.broken = err
	m.logger.Warn().Err(err).Msg("wakelock disabled for this run")
	return err
}

type noopInhibitor struct{}

func (noopInhibitor) Name() string            { return "none" }
func (noopInhibitor) Inhibit(Assertion) error { return nil }
func (noopInhibitor) Release() error          { return nil }
