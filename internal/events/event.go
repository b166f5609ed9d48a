package events

import "time"

// Kind distinguishes the three event origins the W3C algorithm cares about.
type Kind int

const (
	Internal Kind = iota
	Platform
	External
)

// Priority orders queue selection: Internal events always drain before
// External ones (spec invariant I7).
type Priority int

const (
	PriorityInternal Priority = 0
	PriorityExternal Priority = 1
)

// Event is the runtime value carried through the queues, the datamodel's
// _event binding, and executable content (spec §3 "Event").
type Event struct {
	Name       string
	Data       any
	Kind       Kind
	SendID     string
	Origin     string
	OriginType string
	InvokeID   string
	Timestamp  time.Time
	Priority   Priority
	// Seq breaks ties between events with identical Timestamp (spec §5
	// "FIFO among events with identical execution instants").
	Seq uint64
}

// New builds an internal-priority event, the shape <raise> and
// internally-generated events (errors, done.*) use.
func New(name string, data any) Event {
	return Event{Name: name, Data: data, Kind: Internal, Priority: PriorityInternal}
}

// NewExternal builds an external-priority event, the shape <send> and
// I/O processors use when delivering across a session boundary.
func NewExternal(name string, data any) Event {
	return Event{Name: name, Data: data, Kind: External, Priority: PriorityExternal}
}

// MatchesDescriptor implements SCXML's space-separated, prefix-matching,
// `*`-wildcard event descriptor semantics (spec §3 Transition.event).
func MatchesDescriptor(descriptor, eventName string) bool {
	if descriptor == "" {
		return false
	}
	for _, tok := range splitFields(descriptor) {
		if tok == "*" {
			return true
		}
		if tok == eventName {
			return true
		}
		if len(eventName) > len(tok) && eventName[:len(tok)] == tok && eventName[len(tok)] == '.' {
			return true
		}
	}
	return false
}

func splitFields(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}
