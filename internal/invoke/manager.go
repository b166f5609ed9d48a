// Package invoke implements the Invoke Manager (spec §4.9): deferred
// spawn-at-macrostep-end semantics, autoforward, finalize, done.invoke
// events, and cancellation with a bounded late-event blacklist. Grounded on
// the teacher's internal/core/registry.go versioned-lookup contract
// (repurposed from "machine version history" to "child session handle"),
// and on the buffered-channel + uuid-keyed child-handle bookkeeping idiom
// from the pack's orchestrator example (see DESIGN.md).
package invoke

import (
	"container/list"
	"fmt"
	"sync"

	model "github.com/comalice/scxml/internal/model"
	"github.com/comalice/scxml/internal/snapshot"
)

// Child represents a spawned invoke's running child session.
type Child struct {
	InvokeID    string
	StateID     string
	Autoforward bool
	Invoke      *model.Invoke
	Cancel      func()
	// Forward, if non-nil, delivers a parent-received external event into
	// this child (spec §4.9 autoforward). nil for invoke types that don't
	// support forwarding.
	Forward func(name string, data any)
	// Snapshot, if non-nil, captures the child's own persisted-state layout
	// (spec §6 "restoreInvokes restores children from their own
	// snapshots"). nil for invoke types that aren't themselves sessions.
	Snapshot func() (snapshot.Session, error)
}

// Deferred is one <invoke> recorded at state-entry time, to be spawned only
// once its enclosing macrostep completes without having exited the
// invoking state (spec §4.9 "invokes are deferred to macrostep end").
type Deferred struct {
	StateID  string
	Invoke   *model.Invoke
	InvokeID string
}

const lateEventBlacklistLimit = 10000

// Manager tracks deferred invokes, running children, and a bounded
// blacklist of invoke ids whose late events must be discarded after
// cancellation (spec §4.9: "a bounded, documented limit — not a bug").
type Manager struct {
	mu        sync.Mutex
	deferred  []Deferred
	children  map[string]*Child // invokeID -> child
	blacklist map[string]*list.Element
	order     *list.List
}

// New constructs an empty Manager.
func New() *Manager {
	return &Manager{
		children:  make(map[string]*Child),
		blacklist: make(map[string]*list.Element),
		order:     list.New(),
	}
}

// Defer records an invoke to be spawned at the end of the current
// macrostep, provided stateID is still active then.
func (m *Manager) Defer(stateID string, inv *model.Invoke, invokeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deferred = append(m.deferred, Deferred{StateID: stateID, Invoke: inv, InvokeID: invokeID})
}

// TakeDeferred drains and returns all invokes deferred since the last call.
func (m *Manager) TakeDeferred() []Deferred {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.deferred
	m.deferred = nil
	return out
}

// Register records a spawned child.
func (m *Manager) Register(c *Child) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.children[c.InvokeID] = c
}

// Lookup returns the running child for invokeID.
func (m *Manager) Lookup(invokeID string) (*Child, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.children[invokeID]
	return c, ok
}

// All returns every currently registered child (spec §6 snapshotting: every
// running invoke must be captured, not just those under one state).
func (m *Manager) All() []*Child {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Child, 0, len(m.children))
	for _, c := range m.children {
		out = append(out, c)
	}
	return out
}

// ChildrenOf returns every running child invoked from stateID, for
// cancellation when that state is exited (spec §4.9 "all active invocations
// are canceled when exiting the invoking state").
func (m *Manager) ChildrenOf(stateID string) []*Child {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Child
	for _, c := range m.children {
		if c.StateID == stateID {
			out = append(out, c)
		}
	}
	return out
}

// Cancel stops and unregisters invokeID's child, calling its Cancel func if
// set, and adds it to the late-event blacklist so any event racing the
// cancellation is dropped instead of delivered (idempotent: P9).
func (m *Manager) Cancel(invokeID string) {
	m.mu.Lock()
	c, ok := m.children[invokeID]
	if ok {
		delete(m.children, invokeID)
	}
	m.blacklistLocked(invokeID)
	m.mu.Unlock()

	if ok && c.Cancel != nil {
		c.Cancel()
	}
}

func (m *Manager) blacklistLocked(invokeID string) {
	if _, already := m.blacklist[invokeID]; already {
		return
	}
	el := m.order.PushBack(invokeID)
	m.blacklist[invokeID] = el
	if m.order.Len() > lateEventBlacklistLimit {
		oldest := m.order.Front()
		m.order.Remove(oldest)
		delete(m.blacklist, oldest.Value.(string))
	}
}

// IsBlacklisted reports whether an event claiming to originate from
// invokeID should be discarded because that invoke was already canceled
// (bounded: entries older than lateEventBlacklistLimit cancellations age
// out, a documented limit rather than unbounded memory growth).
func (m *Manager) IsBlacklisted(invokeID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blacklist[invokeID]
	return ok
}

// AutoforwardTargets returns the invoke ids of every running, autoforward
// child, for routing external events (spec §4.9 autoforward).
func (m *Manager) AutoforwardTargets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, c := range m.children {
		if c.Autoforward {
			out = append(out, id)
		}
	}
	return out
}

// DoneEventName returns the done.invoke event name for an invoke id (spec
// §3 GLOSSARY "done.invoke.<id>").
func DoneEventName(invokeID string) string {
	return fmt.Sprintf("done.invoke.%s", invokeID)
}
