package scxml

import (
	"encoding/json"
	"fmt"

	"github.com/comalice/scxml/internal/events"
	"github.com/comalice/scxml/internal/invoke"
)

// Snapshot captures enough state to resume this session later without
// replaying onentry/oninvoke side effects (spec §6 "Persisted state
// layout"). Safe to call at any point after Start.
func (s *Session) Snapshot() (SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dm, err := s.bridge.Snapshot(s.id)
	if err != nil {
		return SessionSnapshot{}, fmt.Errorf("datamodel snapshot: %w", err)
	}

	active := make([]string, 0, len(s.active))
	for id := range s.active {
		active = append(active, id)
	}

	internal := s.queues.Internal.Items()
	external := s.queues.External.Items()
	pendingInternal := make([]SnapshotEvent, len(internal))
	for i, e := range internal {
		pendingInternal[i] = toSnapshotEvent(e)
	}
	pendingExternal := make([]SnapshotEvent, len(external))
	for i, e := range external {
		pendingExternal[i] = toSnapshotEvent(e)
	}

	running := make(map[string]SessionSnapshot)
	for _, c := range s.invokes.All() {
		if c.Snapshot == nil {
			continue
		}
		childSnap, err := c.Snapshot()
		if err != nil {
			return SessionSnapshot{}, fmt.Errorf("snapshot invoke %s: %w", c.InvokeID, err)
		}
		running[c.InvokeID] = childSnap
	}

	lastDocOrds := make([]int, len(s.lastDocOrds))
	copy(lastDocOrds, s.lastDocOrds)

	return SessionSnapshot{
		SessionID:         s.id,
		Name:              s.name,
		ActiveStateIDs:    active,
		History:           s.cm.HistorySnapshot(),
		Datamodel:         dm,
		PendingInternal:   pendingInternal,
		PendingExternal:   pendingExternal,
		StepCount:         s.stepCount,
		LastTransitionIDs: lastDocOrds,
		RunningInvokes:    running,
	}, nil
}

// Restore replaces this session's live state with a previously captured
// Snapshot, bypassing onentry actions for the restored active states and
// re-registering (but not re-invoking the onentry of) running invokes (spec
// §6: "RestoreActiveStates bypasses onentry", "RestoreInvokes respawns
// children without onentry side effects"). Call instead of Start.
func (s *Session) Restore(snap SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scxml: session %s already started", s.id)
	}
	s.started = true

	for id, raw := range snap.Datamodel {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return fmt.Errorf("restore datamodel %q: %w", id, err)
		}
		if err := s.bridge.DeclareData(s.id, id, "", v); err != nil {
			return fmt.Errorf("restore datamodel %q: %w", id, err)
		}
	}

	s.cm.RestoreHistory(snap.History)

	s.active = make(map[string]*State, len(snap.ActiveStateIDs))
	for _, id := range snap.ActiveStateIDs {
		st, ok := s.doc.ByID[id]
		if !ok {
			return fmt.Errorf("restore: %w %q", ErrUnknownState, id)
		}
		s.active[id] = st
	}

	for _, e := range snap.PendingInternal {
		s.queues.Internal.PushAll([]events.Event{fromSnapshotEvent(e)})
	}
	for _, e := range snap.PendingExternal {
		s.queues.External.PushAll([]events.Event{fromSnapshotEvent(e)})
	}

	s.stepCount = snap.StepCount
	s.lastDocOrds = append(s.lastDocOrds[:0], snap.LastTransitionIDs...)

	if err := s.restoreInvokesLocked(snap.RunningInvokes); err != nil {
		return err
	}

	return nil
}

// restoreInvokesLocked respawns every running invoke recorded in a
// snapshot, restoring each child from its own captured snapshot instead of
// Start()ing it (spec §6 "restoreInvokes restores children from their own
// snapshots, no onentry side effects").
func (s *Session) restoreInvokesLocked(running map[string]SessionSnapshot) error {
	claimed := make(map[string]bool, len(running))
	for _, st := range s.active {
		for _, inv := range st.Invokes {
			for invokeID, childSnap := range running {
				if claimed[invokeID] || !(invokeID == inv.ID || inv.ID == "") {
					continue
				}
				claimed[invokeID] = true
				spawned, err := restoreInvokeChild(s, inv, invokeID, childSnap)
				if err != nil {
					return fmt.Errorf("restore invoke %s: %w", invokeID, err)
				}
				s.invokes.Register(&invoke.Child{
					InvokeID:    invokeID,
					StateID:     st.ID,
					Autoforward: inv.Autoforward,
					Invoke:      inv,
					Cancel:      spawned.Cancel,
					Forward:     spawned.Forward,
					Snapshot:    spawned.Snapshot,
				})
				break
			}
		}
	}
	return nil
}
