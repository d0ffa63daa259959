package supervise

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"sync"
)

// Stream identifies which child stream a line came from
type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
)

// LineObserver receives every forwarded line. Used by the benchmark recorder
// to scrape stdout without re-buffering the run.
type LineObserver func(stream Stream, line string)

// targetPIDPattern captures the xctest runner pid from XCTest output,
// e.g. "xctest (81823)"
var targetPIDPattern = regexp.MustCompile(`xctest \((\d+)\)`)

// extractTargetPID applies the pid pattern to one line. A match that does not
// parse as a positive int is skipped, not fatal.
func extractTargetPID(line string) (int, bool) {
	m := targetPIDPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pid, err := strconv.Atoi(m[1])
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// multiplexer forwards both child streams to the parent streams in real time
// while updating shared activity state. One goroutine per stream, so a silent
// stream can never block reads from the other.
type multiplexer struct {
	act      *activity
	observer LineObserver
	wg       sync.WaitGroup
}

func newMultiplexer(act *activity, observer LineObserver) *multiplexer {
	return &multiplexer{act: act, observer: observer}
}

func (m *multiplexer) start(stdout, stderr io.Reader, outW, errW io.Writer) {
	m.wg.Add(2)
	go m.pump(stdout, outW, StreamStdout)
	go m.pump(stderr, errW, StreamStderr)
}

// wait blocks until both streams hit end-of-stream
func (m *multiplexer) wait() {
	m.wg.Wait()
}

// pump forwards src to dst line by line, stamping last-output time and
// scanning for the xctest pid announcement. Lines keep their exact bytes,
// including the terminator, and each write goes straight to dst so external
// log collectors see output as it is produced. ReadString rather than a
// Scanner so an unterminated final line is still forwarded.
func (m *multiplexer) pump(src io.Reader, dst io.Writer, stream Stream) {
	defer m.wg.Done()

	r := bufio.NewReader(src)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			m.act.Touch()
			if pid, ok := extractTargetPID(line); ok {
				m.act.SetTargetPID(pid)
			}
			if m.observer != nil {
				m.observer(stream, line)
			}
			io.WriteString(dst, line)
		}
		if err != nil {
			return
		}
	}
}
