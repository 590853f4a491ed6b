// Package config loads snitch configuration.
//
// Precedence, lowest first: Default(), the YAML file named by --config or
// SNITCH_CONFIG, then SNITCH_* environment variables. Binaries apply their
// own flags on top and call Validate before wiring components.
//
// The debug recipient override only takes effect when debug.enabled is true
// (SNITCH_DEBUG=true) and debug.recipientId is set.
package config
