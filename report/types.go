package report

import "time"

// TimestampFormat is ISO-8601 with microseconds and zone offset
const TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"

// Details carries diagnostic data attached to a result
type Details map[string]interface{}

// TestResult represents the outcome of a single test case
type TestResult struct {
	Test      string  `json:"test"`
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	Details   Details `json:"details"`
}

// Summary is derived entirely from a result sequence
type Summary struct {
	TotalTests  int     `json:"total_tests"`
	PassedTests int     `json:"passed_tests"`
	FailedTests int     `json:"failed_tests"`
	SuccessRate float64 `json:"success_rate"`
}

// Group holds the results produced by one check
type Group struct {
	Name        string
	Results     []TestResult
	PassedCount int
	FailedCount int
	Duration    time.Duration
}

// Artifact is the document persisted at the end of a run
type Artifact struct {
	Summary     Summary      `json:"summary"`
	TestResults []TestResult `json:"test_results"`
	Timestamp   string       `json:"timestamp"`
	RunID       string       `json:"run_id"`
}
