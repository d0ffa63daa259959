package bench

import (
	"io"
	"testing"

	"github.com/lexicalci/xcharness/internal/logging"
	"github.com/lexicalci/xcharness/internal/supervise"
)

func quietLogger() *logging.Logger {
	log := logging.NewLogger(logging.FATAL, false)
	log.SetOutput(io.Discard)
	return log
}

func TestScraperCapturesPerfJSON(t *testing.T) {
	s := NewScraper(quietLogger())

	s.Observe(supervise.StreamStdout, "Test Suite 'All tests' started\n")
	s.Observe(supervise.StreamStdout, `🔥 PERF_JSON {"scenario":"typing","optimized":{"wallTimeSeconds":1.5}}`+"\n")
	s.Observe(supervise.StreamStdout, `🔥 PERF_JSON {"scenario":"paste","legacy":{"wallTimeSeconds":2.0}}`+"\n")

	got := s.Payloads()
	if len(got) != 2 {
		t.Fatalf("captured %d payloads, want 2", len(got))
	}
	if got[0]["scenario"] != "typing" {
		t.Errorf("first payload scenario = %v, want typing", got[0]["scenario"])
	}
	if got[1]["scenario"] != "paste" {
		t.Errorf("second payload scenario = %v, want paste", got[1]["scenario"])
	}
}

func TestScraperIgnoresStderr(t *testing.T) {
	s := NewScraper(quietLogger())
	s.Observe(supervise.StreamStderr, `🔥 PERF_JSON {"scenario":"noise"}`+"\n")
	if len(s.Payloads()) != 0 {
		t.Error("stderr lines must not be scraped")
	}
}

func TestScraperSkipsMalformedJSON(t *testing.T) {
	s := NewScraper(quietLogger())
	s.Observe(supervise.StreamStdout, `🔥 PERF_JSON {"scenario": broken}`+"\n")
	s.Observe(supervise.StreamStdout, `🔥 PERF_JSON {"scenario":"ok"}`+"\n")

	got := s.Payloads()
	if len(got) != 1 {
		t.Fatalf("captured %d payloads, want 1 (malformed skipped)", len(got))
	}
	if got[0]["scenario"] != "ok" {
		t.Errorf("surviving payload = %v", got[0])
	}
}

func TestScraperRequiresMarker(t *testing.T) {
	s := NewScraper(quietLogger())
	s.Observe(supervise.StreamStdout, `PERF_JSON {"scenario":"no-flame"}`+"\n")
	s.Observe(supervise.StreamStdout, `{"scenario":"bare"}`+"\n")
	if len(s.Payloads()) != 0 {
		t.Error("lines without the marker must not be scraped")
	}
}
