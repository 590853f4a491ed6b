// Package testutil provides shared test helpers for the snitch project.
// Import this in test files to avoid duplicating fixture loading, event and report builders.
package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/nemanjakrstic/snitch/internal/types"
)

// LoadFixture reads a YAML or JSON file into out.
// Fails the test immediately if the file can't be read or parsed.
func LoadFixture(t *testing.T, path string, out any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read fixture %s", path)
	require.NoError(t, yaml.Unmarshal(data, out), "failed to parse fixture %s", path)
}

// MakeEvent creates a test PipelineEvent with the given status and committer.
func MakeEvent(name string, status types.Status, committer string) *types.PipelineEvent {
	return &types.PipelineEvent{
		Name:      name,
		Counter:   1,
		Status:    status,
		RawStatus: string(status),
		Committer: types.Person{Email: committer},
	}
}

// FailureCase creates a failing TestCase located in file at line.
func FailureCase(file string, line int, name string) types.TestCase {
	return types.TestCase{
		Name: name,
		File: file,
		Line: line,
		Type: types.CaseTypeFailure,
	}
}

// FailingCases creates n distinct failing cases in the same file.
func FailingCases(n int) []types.TestCase {
	cases := make([]types.TestCase, n)
	for i := range cases {
		cases[i] = FailureCase("src/Test.java", i+1, fmt.Sprintf("test%d", i+1))
	}
	return cases
}

// MakeSuite wraps cases in a suite whose counters reflect them.
func MakeSuite(name string, cases ...types.TestCase) types.TestSuiteReport {
	s := types.TestSuiteReport{Name: name, TestCases: cases}
	for _, tc := range cases {
		switch tc.Type {
		case types.CaseTypeFailure:
			s.Failures++
		case types.CaseTypeError:
			s.Errors++
		}
	}
	return s
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }
