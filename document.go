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

import "github.com/comalice/scxml/internal/model"

// The document model (State, Transition, Action, Document, ...) is defined
// in internal/model and re-exported here as type aliases, so both this
// package's interpreter code and the internal/config, internal/selector,
// internal/exec, internal/invoke packages can share one vocabulary without
// an import cycle (those packages depend on internal/model directly; this
// package is free to depend on them in turn).
type (
	StateKind      = model.StateKind
	TransitionKind = model.TransitionKind
	ActionKind     = model.ActionKind

	Action     = model.Action
	IfBranch   = model.IfBranch
	Param      = model.Param
	Content    = model.Content
	DataItem   = model.DataItem
	DoneData   = model.DoneData
	Invoke     = model.Invoke
	Transition = model.Transition
	State      = model.State
	Document   = model.Document
)

const (
	Atomic         = model.Atomic
	Compound       = model.Compound
	Parallel       = model.Parallel
	Final          = model.Final
	HistoryShallow = model.HistoryShallow
	HistoryDeep    = model.HistoryDeep

	External           = model.External
	InternalTransition = model.InternalTransition

	ActionRaise   = model.ActionRaise
	ActionSend    = model.ActionSend
	ActionCancel  = model.ActionCancel
	ActionAssign  = model.ActionAssign
	ActionScript  = model.ActionScript
	ActionLog     = model.ActionLog
	ActionIf      = model.ActionIf
	ActionForeach = model.ActionForeach
)
