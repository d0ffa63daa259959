package supervise

import (
	"fmt"
	"io"
	"os/exec"
)

// SpawnError means the child could not be started at all. It is the only
// supervisor failure surfaced to the caller as an error; everything after a
// successful start resolves into a Result.
type SpawnError struct {
	Cmd string
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Cmd, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

type child struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// launch starts argv as the leader of a brand-new process group, with both
// output streams piped. There is no shell interpretation: argv[0] is the
// executable, the rest are its literal arguments.
func launch(argv []string) (*child, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Cmd: argv[0], Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{Cmd: argv[0], Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Cmd: argv[0], Err: err}
	}

	return &child{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// pid is also the process-group id: the child was made its own group leader
func (c *child) pid() int {
	return c.cmd.Process.Pid
}

// closePipes releases the parent's read ends, unblocking any pump still
// waiting on a descendant that inherited the write ends. Safe to call twice.
func (c *child) closePipes() {
	c.stdout.Close()
	c.stderr.Close()
}
