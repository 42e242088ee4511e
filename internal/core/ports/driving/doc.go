// Package driving provides interfaces for application entry points
// (primary/inbound ports).
//
// The CLI (and any future transport layer) drives the core exclusively
// through these interfaces.
package driving
