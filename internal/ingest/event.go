package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nemanjakrstic/snitch/internal/testreport"
	"github.com/nemanjakrstic/snitch/internal/types"
)

// ErrMalformedEvent is the sentinel for payloads that cannot become an event.
var ErrMalformedEvent = errors.New("malformed pipeline event")

// ValidationError names the field that made a payload unusable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMalformedEvent, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrMalformedEvent }

type wireBody struct {
	Pipeline *wirePipeline `json:"pipeline"`
}

type wirePipeline struct {
	Name       string            `json:"name"`
	Counter    json.RawMessage   `json:"counter"`
	Stage      string            `json:"stage"`
	URL        string            `json:"url"`
	Status     string            `json:"status"`
	Committer  wirePerson        `json:"committer"`
	Approver   *wirePerson       `json:"approver"`
	Notify     *bool             `json:"notify"`
	Reports    []json.RawMessage `json:"reports"`
	ReportURLs []string          `json:"reportUrls"`
}

type wirePerson struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ParseEvent decodes a webhook body into a PipelineEvent. Any failure wraps
// ErrMalformedEvent; missing or invalid fields are reported as *ValidationError.
func ParseEvent(data []byte) (*types.PipelineEvent, error) {
	var body wireBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	p := body.Pipeline
	if p == nil {
		return nil, &ValidationError{Field: "pipeline", Reason: "missing"}
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, &ValidationError{Field: "pipeline.name", Reason: "missing"}
	}
	if strings.TrimSpace(p.Status) == "" {
		return nil, &ValidationError{Field: "pipeline.status", Reason: "missing"}
	}
	committer := strings.TrimSpace(p.Committer.Email)
	if committer == "" {
		return nil, &ValidationError{Field: "pipeline.committer.email", Reason: "missing"}
	}
	counter, err := parseCounter(p.Counter)
	if err != nil {
		return nil, &ValidationError{Field: "pipeline.counter", Reason: err.Error()}
	}

	e := &types.PipelineEvent{
		Name:       name,
		Counter:    counter,
		Stage:      p.Stage,
		URL:        p.URL,
		Status:     NormalizeStatus(p.Status),
		RawStatus:  p.Status,
		Committer:  types.Person{Name: p.Committer.Name, Email: committer},
		Notify:     p.Notify,
		ReportURLs: nonEmpty(p.ReportURLs),
	}
	if p.Approver != nil && strings.TrimSpace(p.Approver.Email) != "" {
		e.Approver = &types.Person{Name: p.Approver.Name, Email: strings.TrimSpace(p.Approver.Email)}
	}

	for i, raw := range p.Reports {
		suites, err := testreport.DecodeBytes(raw)
		if err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("pipeline.reports[%d]", i), Reason: err.Error()}
		}
		e.Reports = append(e.Reports, suites...)
	}

	return e, nil
}

// NormalizeStatus maps the many spellings CI servers use onto Status.
func NormalizeStatus(raw string) types.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "passed", "success", "succeeded", "green":
		return types.StatusSucceeded
	case "failed", "failure", "failing":
		return types.StatusFailed
	default:
		return types.StatusOther
	}
}

// parseCounter accepts a JSON number or a numeric string; absent is zero.
func parseCounter(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	s := strings.Trim(string(raw), `"`)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("not a non-negative integer: %s", raw)
	}
	return n, nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
