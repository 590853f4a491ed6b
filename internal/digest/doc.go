// Package digest turns failing test cases into a short, deduplicated list of
// human-readable lines.
//
// # Contract
//
//	func Build(cases iter.Seq2[types.TestCase, types.TestSuiteReport], detail bool) Digest
//	func FormatCase(tc types.TestCase, detail bool) (string, bool)
//
// # Thresholds
//
// A digest is produced only when between 1 and MaxFailures (10) failing or
// erroring cases were surfaced. Otherwise Build returns an empty Digest and the
// caller attaches nothing.
//
// # Line format
//
// With a source file (low detail):
//
//	"Test.java Line: 42\n\n    testFoo\n"
//
// With a source file (detail): the header line followed by up to
// MaxMessageLines lines of every message, each indented by four spaces, then
// a blank line.
//
// Without a file, the class name is used verbatim. Identical lines collapse.
package digest
