//go:build unix

package supervise

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup makes the child the leader of a fresh process group so one
// group signal reaches every descendant it spawns, not just the immediate
// child.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // New process group
		Pgid:    0,    // Child becomes its own group leader
	}
}

// signalGroup signals the whole process group. ESRCH means the group vanished
// between the liveness check and the signal; the processes we wanted gone are
// gone, so that is success.
func signalGroup(pgid int, sig unix.Signal) error {
	if err := unix.Kill(-pgid, sig); err != nil && err != unix.ESRCH {
		return err
	}
	return nil
}
