package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lexicalci/xcharness/internal/bench"
	"github.com/lexicalci/xcharness/internal/config"
	"github.com/lexicalci/xcharness/internal/logging"
	"github.com/lexicalci/xcharness/internal/supervise"
)

var (
	benchOut     string
	benchIssue   string
	benchTag     string
	benchRunID   string
	benchGitHead string
	benchIdleSec int
	benchHardSec int

	reportIn       string
	reportIssue    string
	reportScenario string
	reportLast     int
)

// benchCmd represents the bench command
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Record and report perf benchmark runs",
	Long: `Commands for capturing 🔥 PERF_JSON benchmark output from supervised test
runs and summarizing the recorded results.`,
}

var benchRecordCmd = &cobra.Command{
	Use:   "record [flags] -- <command> [args...]",
	Short: "Run a command and append its PERF_JSON records to a JSONL file",
	Long: `Record supervises the command, scrapes lines matching
🔥 PERF_JSON {...} from its stdout, and appends each decoded payload to the
results file together with run metadata (run id, git commit/branch/dirty,
timestamps, the exact command line).

The child's exit code is passed through, so record can wrap the real test
invocation in CI without changing failure semantics. Records scraped before
a failure are still flushed.

Example:
  xcharness bench record --issue lexical-ios-u7r.8 -- \
    xcodebuild -scheme Lexical-Package -only-testing:LexicalTests/MixedDocumentBenchmarkTests test`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBenchRecord,
}

var benchReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize recorded benchmark results",
	RunE:  runBenchReport,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.AddCommand(benchRecordCmd)
	benchCmd.AddCommand(benchReportCmd)

	benchRecordCmd.Flags().StringVar(&benchOut, "out", "", "Output JSONL path (default "+bench.DefaultResultsPath+")")
	benchRecordCmd.Flags().StringVar(&benchIssue, "issue", "", "Issue id to associate with the run")
	benchRecordCmd.Flags().StringVar(&benchTag, "tag", "", "Optional tag for the run (e.g. 'baseline', 'wip')")
	benchRecordCmd.Flags().StringVar(&benchRunID, "run-id", "", "Optional run id (defaults to a fresh UUID)")
	benchRecordCmd.Flags().StringVar(&benchGitHead, "git-head", "", "Optional git sha (defaults to the repository HEAD)")
	benchRecordCmd.Flags().IntVar(&benchIdleSec, "idle", 0, "Idle timeout in seconds (0=disabled)")
	benchRecordCmd.Flags().IntVar(&benchHardSec, "hard", 0, "Hard timeout in seconds (0=disabled)")

	benchReportCmd.Flags().StringVar(&reportIn, "in", "", "Input JSONL path (default "+bench.DefaultResultsPath+")")
	benchReportCmd.Flags().StringVar(&reportIssue, "issue", "", "Filter by issue id")
	benchReportCmd.Flags().StringVar(&reportScenario, "scenario", "", "Filter by scenario id")
	benchReportCmd.Flags().IntVar(&reportLast, "last", 10, "Only show the last N runs (0=all)")
}

func runBenchRecord(cmd *cobra.Command, args []string) error {
	defaults, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}

	out := benchOut
	if out == "" {
		out = defaults.Bench.Out
	}
	issue := benchIssue
	if issue == "" {
		issue = defaults.Bench.Issue
	}
	runID := benchRunID
	if runID == "" {
		runID = bench.NewRunID()
	}

	git := bench.LookupGit(".")
	if benchGitHead != "" {
		git.Head = benchGitHead
	}

	log := logging.New("bench").WithFields(map[string]interface{}{"run": runID})
	scraper := bench.NewScraper(log)

	cfg := supervise.Config{
		Idle: time.Duration(benchIdleSec) * time.Second,
		Hard: time.Duration(benchHardSec) * time.Second,
	}

	startedAt := bench.UTCNow()
	res, err := supervise.Run(cfg, args, supervise.Options{
		Observer: scraper.Observe,
		Logger:   log,
	})
	if err != nil {
		var spawn *supervise.SpawnError
		if errors.As(err, &spawn) {
			fmt.Fprintf(os.Stderr, "error: %v\n", spawn)
			os.Exit(2)
		}
		return err
	}
	endedAt := bench.UTCNow()

	meta := bench.RunMeta{
		ID:        runID,
		Issue:     issue,
		Tag:       benchTag,
		GitHead:   git.Head,
		GitBranch: git.Branch,
		GitDirty:  git.Dirty,
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Cmd:       strings.Join(args, " "),
	}
	payloads := scraper.Payloads()
	records := make([]bench.Record, 0, len(payloads))
	for _, p := range payloads {
		records = append(records, bench.Record{Run: meta, Bench: p})
	}
	if err := bench.AppendJSONL(out, records); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nRecorded %d benchmark records -> %s\n", len(records), out)
	if res.ExitCode != 0 {
		fmt.Fprintf(os.Stderr, "warning: command exited non-zero rc=%d\n", res.ExitCode)
	}
	os.Exit(res.ExitCode)
	return nil
}

func runBenchReport(cmd *cobra.Command, args []string) error {
	defaults, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}
	in := reportIn
	if in == "" {
		in = defaults.Bench.Out
	}

	records, err := bench.ReadJSONL(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}

	rows := bench.BuildReport(records, reportIssue, reportScenario, reportLast)
	if len(rows) == 0 {
		fmt.Println("No benchmark records matched.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Run", "Issue", "Tag", "Git", "Dirty", "Scenario", "Count", "Opt avg (s)", "Leg avg (s)", "Opt/Leg")
	for _, r := range rows {
		table.Append(
			r.RunID,
			r.Issue,
			r.Tag,
			r.GitShort,
			r.Dirty,
			r.Scenario,
			strconv.Itoa(r.Count),
			fmt.Sprintf("%.4f", r.OptAvgSec),
			fmt.Sprintf("%.4f", r.LegAvgSec),
			fmt.Sprintf("%.2f", r.Ratio),
		)
	}
	table.Render()
	return nil
}
