// Package testreport flattens structured test reports into the failing test
// cases the digest is built from.
//
// # Contract
//
//	func FailingCases(reports []types.TestSuiteReport) iter.Seq2[types.TestCase, types.TestSuiteReport]
//	func Decode(r io.Reader) ([]types.TestSuiteReport, error)
//
// Suite-level counters are the filter: a suite with zero failures and zero
// errors contributes no cases even if some of its cases are marked failing.
// Malformed suites or cases are dropped, never reported as errors.
package testreport
