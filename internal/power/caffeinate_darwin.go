//go:build darwin

package power

import (
	"os"
	"os/exec"
	"strconv"
)

func newCaffeinateProcess() (Inhibitor, error) {
	return newProcessInhibitor("caffeinate", "caffeinate", func(kind Assertion) []string {
		// -i: prevent idle sleep
		// -d: prevent display sleep
		// -w <pid>: exit automatically when this process dies
		flags := "-i"
		if kind == NoDisplaySleep {
			flags = "-di"
		}
		return []string{flags, "-w", strconv.Itoa(os.Getpid())}
	})
}

// caffeinate watches our pid itself.
func configureChild(*exec.Cmd) {}
