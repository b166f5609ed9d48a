// Package datamodel implements the Datamodel Bridge contract (spec §4.1):
// a per-session ECMAScript environment exposing SCXML system variables and
// user data, with deterministic expression/assignment/condition
// evaluation. Grounded on github.com/agentflare-ai/agentml-go's own
// dependency on github.com/dop251/goja for exactly this role in an
// SCXML-shaped engine (see DESIGN.md).
package datamodel

// EventSnapshot is the subset of events/Event the bridge needs to install
// as `_event` (spec §4.1 setEvent); kept decoupled from the events package
// to avoid an import cycle (events doesn't need to know about datamodels).
type EventSnapshot struct {
	Name       string
	Type       string // "internal" | "platform" | "external"
	SendID     string
	Origin     string
	OriginType string
	InvokeID   string
	Data       any
}

// IOProcessor describes one entry of `_ioprocessors` (spec §4.1
// createSession: "_ioprocessors (map of processor-uri -> object with
// location)").
type IOProcessor struct {
	Location string
}

// Bridge is the contract the interpreter core programs against (spec
// §4.1). Implementations MUST be single-writer per session (spec §5: "The
// datamodel context is single-writer (the interpreter thread)").
type Bridge interface {
	// CreateSession binds a fresh context for sessionID, installing
	// _sessionid, _name, _ioprocessors.
	CreateSession(sessionID, name string, ioProcessors map[string]IOProcessor) error
	// DestroySession releases the context. Idempotent.
	DestroySession(sessionID string)
	// SetEvent installs `_event` for the current transition's scope.
	SetEvent(sessionID string, event EventSnapshot) error
	// DeclareData binds a <data> item's initial value (expr, inline
	// content, or undefined) into the session's top-level scope.
	DeclareData(sessionID, id string, expr string, content any) error
	// EvaluateExpression evaluates expr and returns its value.
	EvaluateExpression(sessionID, expr string) (any, error)
	// EvaluateCondition evaluates a boolean guard; on failure it returns
	// false and the caller is responsible for raising error.execution
	// (spec §4.1 W3C 5.9.2 — kept as the caller's job so the error event
	// carries transition/action context the bridge doesn't have).
	EvaluateCondition(sessionID, expr string) (bool, error)
	// AssignLocation evaluates valueOrExpr if it's an expression string,
	// then assigns it to location. Assigning to an undeclared leftmost
	// identifier is an error (spec §4.1).
	AssignLocation(sessionID, location string, value any, isExpr bool) error
	// RunScript executes a statement sequence (no return value used).
	RunScript(sessionID, src string) error
	// SetIn installs the In(stateId) predicate, rebound each time the
	// configuration changes so it always reflects the live set.
	SetIn(sessionID string, isIn func(stateID string) bool) error
	// Snapshot returns a serializable copy of the session's top-level
	// bindings for persistence (spec §6 persisted state layout).
	Snapshot(sessionID string) (map[string]string, error)
}
