package supervise

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestExtractTargetPID(t *testing.T) {
	cases := []struct {
		line    string
		wantPID int
		wantOK  bool
	}{
		{"xctest (81823)", 81823, true},
		{"2024-01-01 12:00:00 xctest (99) started\n", 99, true},
		{"xctest(81823)", 0, false},
		{"xctest ()", 0, false},
		{"xctest (abc)", 0, false},
		{"nothing to see here", 0, false},
		{"xctest (999999999999999999999999)", 0, false}, // overflows int, skipped
	}

	for _, c := range cases {
		pid, ok := extractTargetPID(c.line)
		if ok != c.wantOK || pid != c.wantPID {
			t.Errorf("extractTargetPID(%q) = (%d, %v), want (%d, %v)",
				c.line, pid, ok, c.wantPID, c.wantOK)
		}
	}
}

func TestPumpForwardsBytesAndDiscoversPID(t *testing.T) {
	act := newActivity()

	input := "first line\nxctest (81823)\npartial tail"
	var out bytes.Buffer

	mux := newMultiplexer(act, nil)
	mux.start(strings.NewReader(input), strings.NewReader(""), &out, &bytes.Buffer{})
	mux.wait()

	if out.String() != input {
		t.Errorf("forwarded output = %q, want byte-identical %q", out.String(), input)
	}
	if pid := act.TargetPID(); pid != 81823 {
		t.Errorf("targetPID = %d, want 81823", pid)
	}
}

func TestPumpLastPIDWins(t *testing.T) {
	act := newActivity()
	input := "xctest (81823)\nxctest (99)\n"

	mux := newMultiplexer(act, nil)
	mux.start(strings.NewReader(input), strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	mux.wait()

	if pid := act.TargetPID(); pid != 99 {
		t.Errorf("targetPID = %d, want 99 (later discovery overwrites)", pid)
	}
}

func TestPumpObserverSeesStreamOrigin(t *testing.T) {
	act := newActivity()

	var mu sync.Mutex
	got := make(map[Stream]string)
	observer := func(stream Stream, line string) {
		mu.Lock()
		got[stream] += line
		mu.Unlock()
	}

	mux := newMultiplexer(act, observer)
	mux.start(strings.NewReader("on stdout\n"), strings.NewReader("on stderr\n"), &bytes.Buffer{}, &bytes.Buffer{})
	mux.wait()

	want := map[Stream]string{
		StreamStdout: "on stdout\n",
		StreamStderr: "on stderr\n",
	}
	for stream, lines := range want {
		if got[stream] != lines {
			t.Errorf("stream %d saw %q, want %q", stream, got[stream], lines)
		}
	}
}

func TestActivityTouchMovesForward(t *testing.T) {
	act := newActivity()
	first := act.LastOutput()
	time.Sleep(5 * time.Millisecond)
	act.Touch()
	if !act.LastOutput().After(first) {
		t.Error("Touch did not advance lastOutput")
	}
}
