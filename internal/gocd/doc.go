// Package gocd reads pipeline state from a GoCD server.
//
// IsEntirePipelineGreen backs the green check that gates success
// notifications. Reports downloads JUnit-JSON artifacts referenced by a
// pipeline event; failures there are skipped, never fatal.
package gocd
