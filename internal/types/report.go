package types

// CaseType classifies a single test case result.
type CaseType string

const (
	CaseTypePass    CaseType = "pass"
	CaseTypeFailure CaseType = "failure"
	CaseTypeError   CaseType = "error"
	CaseTypeSkipped CaseType = "skipped"
)

// IsFailing reports whether the case failed or errored.
func (t CaseType) IsFailing() bool {
	return t == CaseTypeFailure || t == CaseTypeError
}

// TestCase is one flattened test-case record from a structured test report.
type TestCase struct {
	Name      string   `json:"name,omitempty"`
	ClassName string   `json:"classname,omitempty"`
	File      string   `json:"file,omitempty"`
	Line      int      `json:"line,omitempty"` // 0 = unknown
	Type      CaseType `json:"type"`
	Messages  []string `json:"messages,omitempty"`
}

// TestSuiteReport is one report unit. Failures and Errors are the suite's own
// counters and are trusted over the per-case classification.
type TestSuiteReport struct {
	Name      string     `json:"name,omitempty"`
	Failures  int        `json:"failures"`
	Errors    int        `json:"errors"`
	TestCases []TestCase `json:"testCases,omitempty"`
}

// HasFailures reports whether the suite recorded any failure or error.
func (s TestSuiteReport) HasFailures() bool {
	return s.Failures > 0 || s.Errors > 0
}
