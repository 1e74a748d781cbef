package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Summarize counts passes and failures. An empty sequence has a 0% success rate.
func Summarize(results []TestResult) Summary {
	s := Summary{TotalTests: len(results)}
	for _, r := range results {
		if r.Success {
			s.PassedTests++
		}
	}
	s.FailedTests = s.TotalTests - s.PassedTests
	if s.TotalTests > 0 {
		s.SuccessRate = float64(s.PassedTests) / float64(s.TotalTests) * 100
	}
	return s
}

// NewGroup builds the group for a finished check
func NewGroup(name string, results []TestResult, duration time.Duration) Group {
	g := Group{Name: name, Results: results, Duration: duration}
	for _, r := range results {
		if r.Success {
			g.PassedCount++
		} else {
			g.FailedCount++
		}
	}
	return g
}

// Flatten concatenates group results in execution order
func Flatten(groups []Group) []TestResult {
	var out []TestResult
	for _, g := range groups {
		out = append(out, g.Results...)
	}
	return out
}

// Reporter prints the end-of-run summary and persists the artifact
type Reporter struct {
	out    io.Writer
	styles styles
	log    logrus.FieldLogger
}

// NewReporter creates a reporter printing to out
func NewReporter(out io.Writer, logger logrus.FieldLogger) *Reporter {
	return &Reporter{out: out, styles: newStyles(out), log: logger}
}

// Print writes counts, the per-check table, then failed and passed tests
func (r *Reporter) Print(groups []Group) Summary {
	results := Flatten(groups)
	s := Summarize(results)
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(r.out, "\n%s\n%s\n%s\n", rule, r.styles.header.Render("🏁 TESTING SUMMARY"), rule)
	fmt.Fprintf(r.out, "Total Tests: %d\n", s.TotalTests)
	fmt.Fprintf(r.out, "✅ Passed: %d\n", s.PassedTests)
	fmt.Fprintf(r.out, "❌ Failed: %d\n", s.FailedTests)
	fmt.Fprintf(r.out, "Success Rate: %.1f%%\n\n", s.SuccessRate)

	if err := r.printTable(groups); err != nil {
		r.log.WithError(err).Warn("could not render check table")
	}

	if s.FailedTests > 0 {
		fmt.Fprintf(r.out, "\n%s\n", r.styles.fail.Render("❌ FAILED TESTS:"))
		for _, t := range results {
			if !t.Success {
				fmt.Fprintf(r.out, "  • %s: %s\n", t.Test, t.Message)
			}
		}
	}

	fmt.Fprintf(r.out, "\n%s\n", r.styles.pass.Render("✅ PASSED TESTS:"))
	for _, t := range results {
		if t.Success {
			fmt.Fprintf(r.out, "  • %s: %s\n", t.Test, t.Message)
		}
	}

	return s
}

func (r *Reporter) printTable(groups []Group) error {
	table := tablewriter.NewWriter(r.out)
	table.Header("Check", "Tests", "Passed", "Failed", "Duration")
	for _, g := range groups {
		row := []string{
			g.Name,
			strconv.Itoa(len(g.Results)),
			strconv.Itoa(g.PassedCount),
			strconv.Itoa(g.FailedCount),
			g.Duration.Round(time.Millisecond).String(),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// Save writes the artifact as indented JSON, creating parent directories
func (r *Reporter) Save(path string, artifact Artifact) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create directory for %s", path)
		}
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode results")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write results to %s", path)
	}

	fmt.Fprintf(r.out, "\n📄 Detailed results saved to: %s\n", path)
	return nil
}

// NewArtifact assembles the persisted document for a run
func NewArtifact(runID string, results []TestResult, at time.Time) Artifact {
	if results == nil {
		results = []TestResult{}
	}
	return Artifact{
		Summary:     Summarize(results),
		TestResults: results,
		Timestamp:   at.Format(TimestampFormat),
		RunID:       runID,
	}
}
