package supervise

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lexicalci/xcharness/internal/logging"
)

// pollInterval bounds how long the monitor waits between timeout checks, so
// limits are re-evaluated at least once per second even with no output.
const pollInterval = 1 * time.Second

// Options carries the per-run plumbing. Zero values mean the real process
// streams and a default logger.
type Options struct {
	Stdout   io.Writer
	Stderr   io.Writer
	Observer LineObserver
	Logger   *logging.Logger
}

// Run supervises one child command to completion: it launches argv in a new
// process group, streams its output live, and enforces the configured idle
// and hard timeouts. On timeout it samples the stuck process (if enabled),
// then escalates SIGTERM to SIGKILL across the whole group, leaving no
// descendant behind. A child that exits on its own ends the run promptly
// even when a descendant it spawned keeps the output pipes open; such a
// descendant is the child's own business and is not waited for.
//
// The only error Run returns is *SpawnError; every post-start condition
// resolves into the Result.
func Run(cfg Config, argv []string, opts Options) (*Result, error) {
	if len(argv) == 0 {
		return nil, &SpawnError{Cmd: "", Err: errors.New("no command given")}
	}
	cfg = cfg.withDefaults()
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = logging.New("supervise")
	}

	ch, err := launch(argv)
	if err != nil {
		return nil, err
	}
	pgid := ch.pid()
	log := opts.Logger.WithFields(map[string]interface{}{"pgid": pgid})
	log.Debug("child started", map[string]interface{}{"cmd": argv[0]})

	act := newActivity()
	mux := newMultiplexer(act, opts.Observer)
	mux.start(ch.stdout, ch.stderr, opts.Stdout, opts.Stderr)

	// The reaper observes the child's exit the moment it happens, even while
	// a descendant keeps the output pipes open.
	exitCh := make(chan waitStatus, 1)
	go func() {
		state, werr := ch.cmd.Process.Wait()
		exitCh <- waitStatus{state: state, err: werr}
	}()

	// pumpDone closes once both streams hit end-of-stream.
	pumpDone := make(chan struct{})
	go func() {
		mux.wait()
		close(pumpDone)
	}()

	// Last-resort cleanup for unexpected exit paths. Normal, timeout, and
	// interrupt paths all collect the child before returning.
	collected := false
	defer func() {
		if !collected {
			log.Error("forcing process group kill on exit")
			signalGroup(pgid, unix.SIGKILL)
			select {
			case <-exitCh:
			case <-time.After(drainTimeout):
			}
		}
	}()

	// A Ctrl-C or TERM aimed at the supervisor must take the child down
	// with it: the child lives in its own group, so the terminal's signal
	// does not reach it on its own.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	outcome := OutcomeNormal
	var st waitStatus

loop:
	for {
		select {
		case st = <-exitCh:
			collected = true
			break loop

		case sig := <-sigCh:
			log.Warn("interrupted, terminating process group", map[string]interface{}{
				"signal": sig.String(),
			})
			st = escalate(pgid, exitCh, log)
			collected = true
			break loop

		case <-ticker.C:
			// An exit that raced the tick beats any timeout.
			select {
			case st = <-exitCh:
				collected = true
				break loop
			default:
			}

			now := time.Now()
			switch {
			case cfg.Hard > 0 && now.Sub(act.Started()) > cfg.Hard:
				outcome = OutcomeHardTimeout
				fmt.Fprintf(opts.Stderr, "\n🔥 TIMEOUT: hard limit exceeded — killing process…\n")
			case cfg.Idle > 0 && now.Sub(act.LastOutput()) > cfg.Idle:
				outcome = OutcomeIdleTimeout
				fmt.Fprintf(opts.Stderr, "\n🔥 TIMEOUT: idle limit exceeded — killing process…\n")
			default:
				continue
			}

			// Sample before signaling so the snapshot shows the hang, not
			// the shutdown.
			if cfg.SampleOnTimeout {
				sampleForDiagnostics(cfg, act, ch.pid(), opts.Stderr, log)
			}

			st = escalate(pgid, exitCh, log)
			collected = true
			break loop
		}
	}

	// Give the pumps a bounded window to forward tail output, then unblock
	// them by closing our pipe ends. A descendant that inherited the pipes
	// must not keep the run open after the child is gone.
	select {
	case <-pumpDone:
	case <-time.After(drainTimeout):
		log.Warn("child output may be truncated")
		ch.closePipes()
		<-pumpDone
	}
	ch.closePipes()

	return &Result{
		Outcome:  outcome,
		ExitCode: exitCodeFor(outcome, st),
	}, nil
}
