package supervise

import "time"

const (
	// DefaultSampleSeconds is how long the diagnostic sampler runs on timeout
	DefaultSampleSeconds = 8

	// DefaultSampleTool is the macOS stack sampler invoked as `sample <pid> <seconds>`
	DefaultSampleTool = "sample"
)

// Config controls one supervision run. It is immutable once Run starts;
// environment overrides are resolved by the CLI before the Config is built.
type Config struct {
	// Idle kills the run when no new output is seen for this long. Zero disables.
	Idle time.Duration

	// Hard kills the run after this much wall-clock time regardless of output.
	// Zero disables.
	Hard time.Duration

	// SampleOnTimeout captures a diagnostic sample of the stuck process
	// before any termination signal is sent.
	SampleOnTimeout bool

	// SampleSeconds is the sampling duration passed to the tool.
	SampleSeconds int

	// SampleTool is the sampler executable. Tests point this at a stub.
	SampleTool string
}

func (c Config) withDefaults() Config {
	if c.SampleSeconds <= 0 {
		c.SampleSeconds = DefaultSampleSeconds
	}
	if c.SampleTool == "" {
		c.SampleTool = DefaultSampleTool
	}
	return c
}
