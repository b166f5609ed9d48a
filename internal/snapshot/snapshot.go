// Package snapshot defines the persisted-state layout (spec §6 "Persisted
// state layout") as a standalone data type so both the root session package
// and internal/production (JSON/YAML persisters) can depend on it without
// an import cycle.
package snapshot

// Session is the persisted-state layout: active configuration, history
// recordings, datamodel bindings, pending queues, and enough bookkeeping to
// resume a session without replaying onentry/oninvoke side effects.
// Renamed from the teacher's MachineSnapshot (internal/production/
// persister.go) to this project's Session-centric vocabulary.
type Session struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	Name      string `json:"name" yaml:"name"`

	// ActiveStateIDs is every currently-active state (atomic states and
	// their compound/parallel ancestors), independent of document order.
	ActiveStateIDs []string `json:"active_state_ids" yaml:"active_state_ids"`

	// History maps historyStateID -> its recorded atomic/child state ids
	// (spec §4.8).
	History map[string][]string `json:"history" yaml:"history"`

	// Datamodel is a snapshot of top-level bindings, each JSON-encoded
	// (internal/datamodel.Bridge.Snapshot).
	Datamodel map[string]string `json:"datamodel" yaml:"datamodel"`

	PendingInternal []Event `json:"pending_internal" yaml:"pending_internal"`
	PendingExternal []Event `json:"pending_external" yaml:"pending_external"`

	StepCount         uint64 `json:"step_count" yaml:"step_count"`
	LastTransitionIDs []int  `json:"last_transition_doc_orders" yaml:"last_transition_doc_orders"`

	// RunningInvokes carries each running child's own full snapshot, keyed
	// by its invoke id, so Session.Restore can restore them directly instead
	// of respawning and replaying onentry.
	RunningInvokes map[string]Session `json:"running_invokes" yaml:"running_invokes"`
}

// Event is the persisted form of a queued event.
type Event struct {
	Name       string `json:"name" yaml:"name"`
	Kind       int    `json:"kind" yaml:"kind"`
	SendID     string `json:"send_id,omitempty" yaml:"send_id,omitempty"`
	Origin     string `json:"origin,omitempty" yaml:"origin,omitempty"`
	OriginType string `json:"origin_type,omitempty" yaml:"origin_type,omitempty"`
	InvokeID   string `json:"invoke_id,omitempty" yaml:"invoke_id,omitempty"`
	// Data is the event's payload, carried as whatever JSON/YAML-codable
	// value it held (spec §6: persisted queues carry "name + serialized
	// data").
	Data any `json:"data,omitempty" yaml:"data,omitempty"`
}
