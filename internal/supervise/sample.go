package supervise

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/lexicalci/xcharness/internal/logging"
)

// pidAlive reports whether a pid refers to a live process
func pidAlive(pid int) bool {
	alive, err := process.PidExists(int32(pid))
	return err == nil && alive
}

// sampleForDiagnostics captures a point-in-time sample of the stuck process,
// before any termination signal is sent, so the snapshot reflects the hung
// state. It prefers the xctest pid discovered from the output and falls back
// to the child itself. Sampling is best-effort diagnostics: every failure is
// a warning, never a reason to stop the shutdown sequence.
func sampleForDiagnostics(cfg Config, act *activity, childPID int, stderr io.Writer, log *logging.Logger) {
	target := 0
	if pid := act.TargetPID(); pid > 0 && pidAlive(pid) {
		target = pid
		fmt.Fprintf(stderr, "\n🔥 TIMEOUT: sampling xctest pid=%d for %ds…\n\n", pid, cfg.SampleSeconds)
	} else if pidAlive(childPID) {
		target = childPID
		fmt.Fprintf(stderr, "\n🔥 TIMEOUT: sampling child pid=%d for %ds…\n\n", childPID, cfg.SampleSeconds)
	}
	if target == 0 {
		log.Warn("no live process left to sample")
		return
	}

	cmd := exec.Command(cfg.SampleTool, strconv.Itoa(target), strconv.Itoa(cfg.SampleSeconds))
	cmd.Stdout = stderr
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		log.Warn("sampling failed", map[string]interface{}{
			"tool":  cfg.SampleTool,
			"pid":   target,
			"error": err.Error(),
		})
	}
}
