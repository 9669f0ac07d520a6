//go:build linux

package power

import (
	"os/exec"
	"syscall"
)

func platformCandidates() []candidate {
	return []candidate{
		{name: "logind", new: newLogindInhibitor},
		{name: "gnome-session", new: newGnomeSessionInhibitor},
		{name: "freedesktop-power", new: newFreedesktopPowerInhibitor},
		{name: "systemd-inhibit", new: newSystemdInhibitProcess},
	}
}

func newSystemdInhibitProcess() (Inhibitor, error) {
	return newProcessInhibitor("systemd-inhibit", "systemd-inhibit", systemdInhibitArgs)
}

func systemdInhibitArgs(kind Assertion) []string {
	return []string{
		"--what=" + inhibitWhat(kind),
		"--who=" + appName,
		"--why=" + reason,
		"sleep", "infinity",
	}
}

// inhibitWhat is the logind lock list for kind, shared by the bus and the
// systemd-inhibit backends.
func inhibitWhat(kind Assertion) string {
	if kind == NoDisplaySleep {
		return "idle:sleep"
	}
	return "sleep"
}

func configureChild(cmd *exec.Cmd) {
	// Kernel sends SIGTERM to child when parent dies, prevents orphans.
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
}
