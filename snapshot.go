package scxml

import (
	"github.com/comalice/scxml/internal/events"
	"github.com/comalice/scxml/internal/snapshot"
)

// SessionSnapshot is the persisted-state layout (spec §6). Defined in
// internal/snapshot so internal/production can depend on the shape without
// importing this package, and aliased here for a
// pleasant public API: scxml.SessionSnapshot.
type SessionSnapshot = snapshot.Session

// SnapshotEvent is the persisted form of an events.Event.
type SnapshotEvent = snapshot.Event

func toSnapshotEvent(e events.Event) SnapshotEvent {
	return SnapshotEvent{
		Name:       e.Name,
		Kind:       int(e.Kind),
		SendID:     e.SendID,
		Origin:     e.Origin,
		OriginType: e.OriginType,
		InvokeID:   e.InvokeID,
		Data:       e.Data,
	}
}

func fromSnapshotEvent(s SnapshotEvent) events.Event {
	e := events.New(s.Name, s.Data)
	e.Kind = events.Kind(s.Kind)
	e.SendID = s.SendID
	e.Origin = s.Origin
	e.OriginType = s.OriginType
	e.InvokeID = s.InvokeID
	return e
}
