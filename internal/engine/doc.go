// Package engine wires the per-event pipeline together.
//
// # Contract
//
// For each event, Handle:
//  1. Classifies it; a stop ends processing with Result.Stopped set
//  2. Merges inline reports with those fetched from the ReportSource
//  3. Builds the failure digest and attaches its lines to the event when
//     non-empty (1..10 failing cases)
//  4. Resolves recipients and dispatches once per recipient
//
// The digest is built for every event that passes the gate, including fully
// green successes, where it is empty.
package engine
