package bench

import (
	"math"
	"testing"
)

func payload(scenario string, opt, leg float64) map[string]interface{} {
	return map[string]interface{}{
		"scenario":  scenario,
		"optimized": map[string]interface{}{"wallTimeSeconds": opt},
		"legacy":    map[string]interface{}{"wallTimeSeconds": leg},
	}
}

func run(id, issue, startedAt string) RunMeta {
	return RunMeta{ID: id, Issue: issue, StartedAt: startedAt}
}

func TestBuildReportAggregatesPerScenario(t *testing.T) {
	records := []Record{
		{Run: run("r1", "u7r.8", "2026-08-01T00:00:00.000Z"), Bench: payload("typing", 1.0, 2.0)},
		{Run: run("r1", "u7r.8", "2026-08-01T00:00:00.000Z"), Bench: payload("typing", 3.0, 4.0)},
		{Run: run("r1", "u7r.8", "2026-08-01T00:00:00.000Z"), Bench: payload("paste", 5.0, 5.0)},
	}

	rows := BuildReport(records, "", "", 0)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	var typing *Row
	for i := range rows {
		if rows[i].Scenario == "typing" {
			typing = &rows[i]
		}
	}
	if typing == nil {
		t.Fatal("no typing row")
	}
	if typing.Count != 2 {
		t.Errorf("count = %d, want 2", typing.Count)
	}
	if math.Abs(typing.OptAvgSec-2.0) > 1e-9 {
		t.Errorf("optimized avg = %v, want 2.0", typing.OptAvgSec)
	}
	if math.Abs(typing.LegAvgSec-3.0) > 1e-9 {
		t.Errorf("legacy avg = %v, want 3.0", typing.LegAvgSec)
	}
	if math.Abs(typing.Ratio-2.0/3.0) > 1e-9 {
		t.Errorf("ratio = %v, want %v", typing.Ratio, 2.0/3.0)
	}
}

func TestBuildReportFilters(t *testing.T) {
	records := []Record{
		{Run: run("r1", "issue-a", "2026-08-01T00:00:00.000Z"), Bench: payload("typing", 1, 1)},
		{Run: run("r2", "issue-b", "2026-08-02T00:00:00.000Z"), Bench: payload("typing", 1, 1)},
		{Run: run("r2", "issue-b", "2026-08-02T00:00:00.000Z"), Bench: payload("paste", 1, 1)},
	}

	rows := BuildReport(records, "issue-b", "", 0)
	for _, r := range rows {
		if r.Issue != "issue-b" {
			t.Errorf("issue filter leaked row %+v", r)
		}
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows for issue-b, want 2", len(rows))
	}

	rows = BuildReport(records, "", "paste", 0)
	if len(rows) != 1 || rows[0].Scenario != "paste" {
		t.Errorf("scenario filter gave %v", rows)
	}
}

func TestBuildReportKeepsNewestRuns(t *testing.T) {
	records := []Record{
		{Run: run("old", "", "2026-08-01T00:00:00.000Z"), Bench: payload("typing", 1, 1)},
		{Run: run("mid", "", "2026-08-02T00:00:00.000Z"), Bench: payload("typing", 1, 1)},
		{Run: run("new", "", "2026-08-03T00:00:00.000Z"), Bench: payload("typing", 1, 1)},
	}

	rows := BuildReport(records, "", "", 2)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, r := range rows {
		if r.RunID == "old" {
			t.Error("oldest run should have been trimmed")
		}
	}
}

func TestBuildReportSkipsRecordsWithoutScenarioOrRun(t *testing.T) {
	records := []Record{
		{Run: run("", "", ""), Bench: payload("typing", 1, 1)},
		{Run: run("r1", "", "2026-08-01T00:00:00.000Z"), Bench: map[string]interface{}{"noscenario": true}},
	}
	if rows := BuildReport(records, "", "", 0); len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestBuildReportHandlesMissingSections(t *testing.T) {
	records := []Record{
		{Run: run("r1", "", "2026-08-01T00:00:00.000Z"), Bench: map[string]interface{}{
			"scenario":  "typing",
			"optimized": map[string]interface{}{"wallTimeSeconds": 2.0},
		}},
	}
	rows := BuildReport(records, "", "", 0)
	if len(rows) != 1 {
		t.Fatal("expected one row")
	}
	if math.Abs(rows[0].OptAvgSec-2.0) > 1e-9 {
		t.Errorf("optimized avg = %v, want 2.0", rows[0].OptAvgSec)
	}
	if rows[0].LegAvgSec != 0 || rows[0].Ratio != 0 {
		t.Errorf("legacy avg/ratio = %v/%v, want 0/0", rows[0].LegAvgSec, rows[0].Ratio)
	}
}

func TestBuildReportGitColumns(t *testing.T) {
	dirty := true
	rec := Record{
		Run: RunMeta{
			ID:        "r1",
			StartedAt: "2026-08-01T00:00:00.000Z",
			GitHead:   "0123456789abcdef0123456789abcdef01234567",
			GitDirty:  &dirty,
		},
		Bench: payload("typing", 1, 1),
	}
	rows := BuildReport([]Record{rec}, "", "", 0)
	if len(rows) != 1 {
		t.Fatal("expected one row")
	}
	if rows[0].GitShort != "01234567" {
		t.Errorf("git short = %q, want 8 chars", rows[0].GitShort)
	}
	if rows[0].Dirty != "dirty" {
		t.Errorf("dirty = %q, want dirty", rows[0].Dirty)
	}
}
