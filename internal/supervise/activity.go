package supervise

import (
	"sync"
	"time"
)

// activity is the state shared between the stream pumps and the timeout
// monitor. The pumps write, the monitor and sampler read. started never
// changes after construction so it needs no lock.
type activity struct {
	started time.Time

	mu         sync.Mutex
	lastOutput time.Time
	targetPID  int
}

func newActivity() *activity {
	now := time.Now()
	return &activity{started: now, lastOutput: now}
}

func (a *activity) Started() time.Time {
	return a.started
}

// Touch records that output was just seen
func (a *activity) Touch() {
	a.mu.Lock()
	a.lastOutput = time.Now()
	a.mu.Unlock()
}

func (a *activity) LastOutput() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastOutput
}

// SetTargetPID records a discovered xctest pid. Later discoveries overwrite
// earlier ones.
func (a *activity) SetTargetPID(pid int) {
	a.mu.Lock()
	a.targetPID = pid
	a.mu.Unlock()
}

// TargetPID returns the last discovered xctest pid, or 0 if none was seen
func (a *activity) TargetPID() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.targetPID
}
