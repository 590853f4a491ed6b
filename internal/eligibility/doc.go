// Package eligibility decides whether a pipeline event is worth notifying about.
//
// # Contract
//
//  1. The notify policy is consulted first. The event's own notify flag wins;
//     otherwise the first matching Rule, otherwise the configured default.
//     A "no" stops processing cleanly.
//  2. Succeeded runs are checked against the GreenChecker. The result is
//     recorded on the event (FullyGreen). Anything but a confirmed "fully
//     green" stops processing; checker errors fail closed.
//  3. Every other outcome proceeds.
package eligibility
