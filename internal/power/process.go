//go:build linux || darwin

package power

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// settleDelay is how long a helper must stay up before the wakelock counts
// as held. Helpers that cannot take the lock exit straight away.
const settleDelay = 250 * time.Millisecond

// processInhibitor holds the assertion through a helper process that lives
// until Release kills it.
type processInhibitor struct {
	name   string
	path   string
	args   func(kind Assertion) []string
	settle time.Duration

	cmd  *exec.Cmd
	done chan error
}

func newProcessInhibitor(name, binary string, args func(Assertion) []string) (Inhibitor, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found: %v", ErrInhibitorUnavailable, binary, err)
	}
	return &processInhibitor{name: name, path: path, args: args, settle: settleDelay}, nil
}

func (p *processInhibitor) Name() string {
	return p.name
}

func (p *processInhibitor) Inhibit(kind Assertion) error {
	cmd := exec.Command(p.path, p.args(kind)...)
	configureChild(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", p.path, err)
	}

	// Reap the child in background so it doesn't become a zombie.
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err == nil {
			err = errors.New("exit status 0")
		}
		return fmt.Errorf("%s exited before holding the wakelock: %w", p.name, err)
	case <-time.After(p.settle):
	}

	p.cmd, p.done = cmd, done
	return nil
}

func (p *processInhibitor) Release() error {
	if p.cmd == nil {
		return nil
	}
	cmd, done := p.cmd, p.done
	p.cmd, p.done = nil, nil

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop %s: %w", p.path, err)
	}
	<-done
	return nil
}
