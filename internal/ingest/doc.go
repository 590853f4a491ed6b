// Package ingest turns raw pipeline webhook payloads into typed events.
//
// Malformed input is rejected here, before any classification happens:
// every error returned by ParseEvent satisfies errors.Is(err, ErrMalformedEvent).
package ingest
