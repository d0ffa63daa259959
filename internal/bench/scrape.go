package bench

import (
	"encoding/json"
	"regexp"
	"sync"

	"github.com/lexicalci/xcharness/internal/logging"
	"github.com/lexicalci/xcharness/internal/supervise"
)

// perfJSONPattern matches benchmark emissions in test output, e.g.
//
//	🔥 PERF_JSON {"scenario":"typing","optimized":{"wallTimeSeconds":1.2}}
var perfJSONPattern = regexp.MustCompile(`🔥 PERF_JSON (\{.*\})\s*$`)

// Scraper collects PERF_JSON payloads from a supervised run. It plugs into
// the supervisor as a line observer, so the run stays a single pass over the
// output with no extra buffering.
type Scraper struct {
	log *logging.Logger

	mu       sync.Mutex
	payloads []map[string]interface{}
}

func NewScraper(log *logging.Logger) *Scraper {
	if log == nil {
		log = logging.New("bench")
	}
	return &Scraper{log: log}
}

// Observe is a supervise.LineObserver. Only stdout carries PERF_JSON lines;
// a payload that fails to decode is skipped with a warning and the run
// continues.
func (s *Scraper) Observe(stream supervise.Stream, line string) {
	if stream != supervise.StreamStdout {
		return
	}
	m := perfJSONPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
		s.log.Warn("skipping malformed PERF_JSON line", map[string]interface{}{"error": err.Error()})
		return
	}
	s.mu.Lock()
	s.payloads = append(s.payloads, payload)
	s.mu.Unlock()
}

// Payloads returns the collected benchmark payloads in emission order
func (s *Scraper) Payloads() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]interface{}, len(s.payloads))
	copy(out, s.payloads)
	return out
}
