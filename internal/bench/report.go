package bench

import (
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// aggKey groups records the way the report displays them: one row per
// scenario per run.
type aggKey struct {
	runID    string
	issue    string
	scenario string
}

type agg struct {
	startedAt string
	tag       string
	gitHead   string
	gitDirty  *bool
	count     int
	optimized []float64
	legacy    []float64
}

// Row is one rendered report line
type Row struct {
	RunID     string
	Issue     string
	Tag       string
	GitShort  string
	Dirty     string
	Scenario  string
	Count     int
	OptAvgSec float64
	LegAvgSec float64
	Ratio     float64
}

// BuildReport aggregates JSONL records into report rows: filtered by issue
// and scenario when given, sorted by run start time, trimmed to the newest
// `last` run ids (0 keeps everything). Wall times are averaged per scenario
// per run; the ratio column is optimized over legacy.
func BuildReport(records []Record, issue, scenario string, last int) []Row {
	aggs := make(map[aggKey]*agg)

	for _, rec := range records {
		if issue != "" && rec.Run.Issue != issue {
			continue
		}
		sc, _ := rec.Bench["scenario"].(string)
		if scenario != "" && sc != scenario {
			continue
		}
		if rec.Run.ID == "" || sc == "" {
			continue
		}

		key := aggKey{runID: rec.Run.ID, issue: rec.Run.Issue, scenario: sc}
		a := aggs[key]
		if a == nil {
			a = &agg{
				startedAt: rec.Run.StartedAt,
				tag:       rec.Run.Tag,
				gitHead:   rec.Run.GitHead,
				gitDirty:  rec.Run.GitDirty,
			}
			aggs[key] = a
		}
		a.count++
		if v, ok := wallTime(rec.Bench, "optimized"); ok {
			a.optimized = append(a.optimized, v)
		}
		if v, ok := wallTime(rec.Bench, "legacy"); ok {
			a.legacy = append(a.legacy, v)
		}
	}

	keys := make([]aggKey, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ai, aj := aggs[keys[i]], aggs[keys[j]]
		if ai.startedAt != aj.startedAt {
			return ai.startedAt < aj.startedAt
		}
		return keys[i].scenario < keys[j].scenario
	})

	if last > 0 {
		keep := make(map[string]bool)
		var order []string
		seen := make(map[string]bool)
		for _, k := range keys {
			if !seen[k.runID] {
				seen[k.runID] = true
				order = append(order, k.runID)
			}
		}
		start := len(order) - last
		if start < 0 {
			start = 0
		}
		for _, id := range order[start:] {
			keep[id] = true
		}
		filtered := keys[:0]
		for _, k := range keys {
			if keep[k.runID] {
				filtered = append(filtered, k)
			}
		}
		keys = filtered
	}

	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		a := aggs[k]
		var optAvg, legAvg float64
		if len(a.optimized) > 0 {
			optAvg = stats.Sample{Xs: a.optimized}.Mean()
		}
		if len(a.legacy) > 0 {
			legAvg = stats.Sample{Xs: a.legacy}.Mean()
		}
		ratio := 0.0
		if legAvg != 0 {
			ratio = optAvg / legAvg
		}

		gitShort := a.gitHead
		if len(gitShort) > 8 {
			gitShort = gitShort[:8]
		}
		dirty := ""
		if a.gitDirty != nil {
			if *a.gitDirty {
				dirty = "dirty"
			} else {
				dirty = "clean"
			}
		}

		rows = append(rows, Row{
			RunID:     k.runID,
			Issue:     k.issue,
			Tag:       a.tag,
			GitShort:  gitShort,
			Dirty:     dirty,
			Scenario:  k.scenario,
			Count:     a.count,
			OptAvgSec: optAvg,
			LegAvgSec: legAvg,
			Ratio:     ratio,
		})
	}
	return rows
}

// wallTime digs bench[section].wallTimeSeconds out of a payload
func wallTime(bench map[string]interface{}, section string) (float64, bool) {
	sub, _ := bench[section].(map[string]interface{})
	if sub == nil {
		return 0, false
	}
	v, ok := sub["wallTimeSeconds"].(float64)
	return v, ok
}
