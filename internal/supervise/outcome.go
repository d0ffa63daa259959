package supervise

import "syscall"

// Outcome is the terminal state of a supervision run. Exactly one is
// recorded per run; the first detected condition wins.
type Outcome int

const (
	// OutcomeNormal means the child exited on its own
	OutcomeNormal Outcome = iota
	// OutcomeIdleTimeout means no output was seen within the idle limit
	OutcomeIdleTimeout
	// OutcomeHardTimeout means the wall-clock limit was exceeded
	OutcomeHardTimeout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNormal:
		return "normal"
	case OutcomeIdleTimeout:
		return "idle-timeout"
	case OutcomeHardTimeout:
		return "hard-timeout"
	default:
		return "unknown"
	}
}

// TimedOut reports whether the run ended because a timeout fired
func (o Outcome) TimedOut() bool {
	return o == OutcomeIdleTimeout || o == OutcomeHardTimeout
}

// ExitTimedOut is the exit code for idle or hard timeouts, matching the
// conventional timeout(1) semantics so CI automation can tell "timed out"
// apart from "failed".
const ExitTimedOut = 124

// Result is what one supervision run produces
type Result struct {
	Outcome  Outcome
	ExitCode int
}

// exitCodeFor maps the final state to the process exit code: 124 for either
// timeout, otherwise the child's own exit status (128+signal when the child
// died from an uncaught signal).
func exitCodeFor(outcome Outcome, st waitStatus) int {
	if outcome.TimedOut() {
		return ExitTimedOut
	}
	if st.err != nil || st.state == nil {
		return 1
	}
	if ws, ok := st.state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return st.state.ExitCode()
}
