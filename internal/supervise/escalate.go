package supervise

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lexicalci/xcharness/internal/logging"
)

const (
	// gracePollInterval and gracePolls give the child ~2s to exit after SIGTERM
	gracePollInterval = 200 * time.Millisecond
	gracePolls        = 10

	// drainTimeout bounds the wait for buffered tail output after the child exits
	drainTimeout = 3 * time.Second
)

// waitStatus is what the reaper goroutine delivers once the child exits
type waitStatus struct {
	state *os.ProcessState
	err   error
}

// escalate tears down the child's process group: graceful SIGTERM first, a
// grace window, then SIGKILL. exitCh fires once the reaper collects the
// child, so polling it tracks the teardown without touching wait state.
func escalate(pgid int, exitCh <-chan waitStatus, log *logging.Logger) waitStatus {
	if err := signalGroup(pgid, unix.SIGTERM); err != nil {
		log.Warn("failed to signal process group", map[string]interface{}{
			"error": err.Error(),
		})
	}

	for i := 0; i < gracePolls; i++ {
		select {
		case st := <-exitCh:
			return st
		case <-time.After(gracePollInterval):
		}
	}

	// Still alive after the grace window: no more mercy. SIGKILL also frees
	// any descendant holding the pipes open.
	if err := signalGroup(pgid, unix.SIGKILL); err != nil {
		log.Warn("failed to kill process group", map[string]interface{}{
			"error": err.Error(),
		})
	}

	select {
	case st := <-exitCh:
		return st
	case <-time.After(drainTimeout):
		log.Warn("child not collected after SIGKILL")
		return waitStatus{err: errors.New("child not collected after SIGKILL")}
	}
}
