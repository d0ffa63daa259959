package bench

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultResultsPath is where recorded runs land unless overridden
const DefaultResultsPath = ".benchmarks/results.jsonl"

// RunMeta describes one recorded benchmark run. It is stored alongside every
// payload so a single JSONL row is self-describing.
type RunMeta struct {
	ID        string `json:"id"`
	Issue     string `json:"issue,omitempty"`
	Tag       string `json:"tag,omitempty"`
	GitHead   string `json:"git_head,omitempty"`
	GitBranch string `json:"git_branch,omitempty"`
	GitDirty  *bool  `json:"git_dirty,omitempty"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at"`
	Cmd       string `json:"cmd"`
}

// Record is one JSONL row: run metadata plus one benchmark payload
type Record struct {
	Run   RunMeta                `json:"run"`
	Bench map[string]interface{} `json:"bench"`
}

// NewRunID returns a fresh run identifier. A UUID rather than the wall clock
// so parallel CI jobs cannot collide.
func NewRunID() string {
	return uuid.NewString()
}

// UTCNow formats the current instant the way run metadata stores timestamps
func UTCNow() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// AppendJSONL appends records to path, one JSON object per line, creating
// parent directories as needed. Appending keeps history across runs; the
// report side aggregates per run id.
func AppendJSONL(path string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

// ReadJSONL loads every well-formed record from path. Blank and malformed
// lines are skipped; a results file shared across interrupted runs can
// contain both.
func ReadJSONL(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}
	return records, nil
}
