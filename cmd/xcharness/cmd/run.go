package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lexicalci/xcharness/internal/config"
	"github.com/lexicalci/xcharness/internal/logging"
	"github.com/lexicalci/xcharness/internal/supervise"
)

var (
	idleSec       int
	hardSec       int
	sampleFlag    bool
	sampleSeconds int
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- <command> [args...]",
	Short: "Run a command with idle and hard timeouts, streaming output",
	Long: `Run supervises a long-lived command, typically an xcodebuild test
invocation, under two independent timeout policies:

  idle timeout: no new output for N seconds kills the run
  hard timeout: wall-clock cap regardless of output

The child starts in its own process group and the whole group is killed on
timeout, so simulator helpers spawned by xcodebuild do not survive the run.
Output streams through unmodified so CI logs stay verbose.

Exit codes:
  0    command succeeded
  124  timed out (idle or hard)
  *    child exit code passed through verbatim

Example:
  xcharness run --idle 120 --hard 1800 --sample -- \
    xcodebuild -scheme Lexical-Package -destination 'platform=iOS Simulator,name=iPhone 17 Pro' test`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSupervised,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&idleSec, "idle", 0, "Idle timeout in seconds (0=disabled)")
	runCmd.Flags().IntVar(&hardSec, "hard", 0, "Hard timeout in seconds (0=disabled)")
	runCmd.Flags().BoolVar(&sampleFlag, "sample", false, "Sample the stuck process on timeout (prefers the last seen xctest PID)")
	runCmd.Flags().IntVar(&sampleSeconds, "sample-seconds", supervise.DefaultSampleSeconds, "Seconds to sample for on timeout")
}

func runSupervised(cmd *cobra.Command, args []string) error {
	defaults, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}
	cfg := superviseConfig(cmd, defaults)

	res, err := supervise.Run(cfg, args, supervise.Options{
		Logger: logging.New("run"),
	})
	if err != nil {
		var spawn *supervise.SpawnError
		if errors.As(err, &spawn) {
			fmt.Fprintf(os.Stderr, "error: %v\n", spawn)
			os.Exit(2)
		}
		return err
	}

	os.Exit(res.ExitCode)
	return nil
}

// superviseConfig merges flag values, file defaults, and environment
// overrides. Precedence: env beats flags, flags beat the config file.
func superviseConfig(cmd *cobra.Command, defaults *config.File) supervise.Config {
	idle, hard := idleSec, hardSec
	if !cmd.Flags().Changed("idle") {
		idle = defaults.IdleSeconds
	}
	if !cmd.Flags().Changed("hard") {
		hard = defaults.HardSeconds
	}
	seconds := sampleSeconds
	if !cmd.Flags().Changed("sample-seconds") && defaults.SampleSeconds > 0 {
		seconds = defaults.SampleSeconds
	}

	cfg := supervise.Config{
		Idle:            time.Duration(idle) * time.Second,
		Hard:            time.Duration(hard) * time.Second,
		SampleOnTimeout: sampleFlag || defaults.SampleOnTimeout,
		SampleSeconds:   seconds,
		SampleTool:      supervise.DefaultSampleTool,
	}

	// Environment overrides, bound in initConfig
	if viper.GetString("sample_on_timeout") != "" {
		cfg.SampleOnTimeout = true
	}
	if v := viper.GetString("sample_seconds"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SampleSeconds = n
		}
	}
	if v := viper.GetString("sample_tool"); v != "" {
		cfg.SampleTool = v
	}
	return cfg
}
