package testreport

import (
	"iter"

	"github.com/nemanjakrstic/snitch/internal/types"
)

// FailingCases yields every test case that belongs to a suite whose own
// failure or error counter is nonzero, paired with that suite. Suites with
// clean counters contribute nothing, whatever their cases claim.
//
// The sequence walks the supplied reports once per iteration and never
// mutates them. Cases with nothing to identify them (no name, file or class
// name) are skipped.
func FailingCases(reports []types.TestSuiteReport) iter.Seq2[types.TestCase, types.TestSuiteReport] {
	return func(yield func(types.TestCase, types.TestSuiteReport) bool) {
		for _, suite := range reports {
			if !suite.HasFailures() {
				continue
			}
			for _, tc := range suite.TestCases {
				if !identifiable(tc) {
					continue
				}
				if !yield(tc, suite) {
					return
				}
			}
		}
	}
}

func identifiable(tc types.TestCase) bool {
	return tc.Name != "" || tc.File != "" || tc.ClassName != ""
}
