// Package driving provides interfaces for application entry points
// (primary/inbound ports).
//
// The CLI and task runner drive the core through these interfaces.
package driving
