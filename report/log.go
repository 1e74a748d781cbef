package report

import (
	"fmt"
	"io"
	"time"
)

// Log records the results of one check and echoes each one as it happens
type Log struct {
	out     io.Writer
	styles  styles
	now     func() time.Time
	results []TestResult
}

// NewLog creates a log that prints to out
func NewLog(out io.Writer) *Log {
	return &Log{
		out:    out,
		styles: newStyles(out),
		now:    time.Now,
	}
}

// Section prints a check banner
func (l *Log) Section(title string) {
	fmt.Fprintf(l.out, "\n%s\n", l.styles.header.Render("=== "+title+" ==="))
}

// Record appends a result and prints its status line
func (l *Log) Record(test string, success bool, message string, details Details) {
	if details == nil {
		details = Details{}
	}
	l.results = append(l.results, TestResult{
		Test:      test,
		Success:   success,
		Message:   message,
		Timestamp: l.now().Format(TimestampFormat),
		Details:   details,
	})

	status := l.styles.pass.Render("✅ PASS")
	if !success {
		status = l.styles.fail.Render("❌ FAIL")
	}
	fmt.Fprintf(l.out, "%s - %s: %s\n", status, test, message)
	if !success && len(details) > 0 {
		fmt.Fprintf(l.out, "   %s\n", l.styles.details.Render(fmt.Sprintf("Details: %v", map[string]interface{}(details))))
	}
}

// Pass records a successful result
func (l *Log) Pass(test, message string, details Details) {
	l.Record(test, true, message, details)
}

// Fail records a failed result
func (l *Log) Fail(test, message string, details Details) {
	l.Record(test, false, message, details)
}

// Results returns the recorded results in execution order
func (l *Log) Results() []TestResult {
	out := make([]TestResult, len(l.results))
	copy(out, l.results)
	return out
}
