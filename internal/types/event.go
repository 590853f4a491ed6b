package types

// Status is the normalized outcome of a pipeline run.
type Status string

const (
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusOther     Status = "Other"
)

// Person is a human actor attached to a pipeline run (committer, approver).
type Person struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// PipelineEvent is the immutable snapshot of a single CI run outcome.
// It is built once at ingestion; the engine only ever sets FullyGreen and Failures.
type PipelineEvent struct {
	// Identity
	Name    string `json:"name"`
	Counter int    `json:"counter,omitempty"`
	Stage   string `json:"stage,omitempty"`
	URL     string `json:"url,omitempty"`

	// Outcome
	Status    Status `json:"status"`
	RawStatus string `json:"rawStatus,omitempty"`

	// People
	Committer Person  `json:"committer"`
	Approver  *Person `json:"approver,omitempty"`

	// Notify is the per-pipeline policy flag carried by the event itself.
	// nil means "no opinion"; the configured policy decides.
	Notify *bool `json:"notify,omitempty"`

	// Test reports either inlined in the payload or referenced by URL.
	Reports    []TestSuiteReport `json:"reports,omitempty"`
	ReportURLs []string          `json:"reportUrls,omitempty"`

	// Derived during processing.
	FullyGreen *bool    `json:"fullyGreen,omitempty"`
	Failures   []string `json:"failures,omitempty"`
}

// HasSucceeded reports whether the run finished successfully.
func (e *PipelineEvent) HasSucceeded() bool {
	return e.Status == StatusSucceeded
}

// ApproverEmail returns the approver's email, or "" when there is none.
func (e *PipelineEvent) ApproverEmail() string {
	if e.Approver == nil {
		return ""
	}
	return e.Approver.Email
}

// HasFailures reports whether a failure digest was attached.
func (e *PipelineEvent) HasFailures() bool {
	return len(e.Failures) > 0
}
