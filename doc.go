// Package scxml implements the core of a W3C SCXML 1.0 reactive state
// machine runtime: the macrostep/microstep interpreter, hierarchical
// configuration manager, two-priority event system, executable-content
// interpreter, ECMAScript datamodel integration, invoke subsystem, history
// recording, and done-data/done-event generation (W3C SCXML Appendix D and
// §3-6).
//
// The document model in this package is produced by a parser external to
// this module (see internal/... for the runtime components that consume
// it) or assembled directly with DocumentBuilder for embedding and tests.
package scxml
