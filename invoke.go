package scxml

import (
	"context"
	"fmt"

	"github.com/comalice/scxml/internal/datamodel"
	"github.com/comalice/scxml/internal/events"
	"github.com/comalice/scxml/internal/invoke"
)

// defaultInvokeSpawner supports only inline-content invokes (spec §1
// "external document loading (parser) is out of scope" — src-based
// <invoke src="..."> therefore has no default handler). A child Document
// embedded directly as an invoke's <content> is spawned as a nested
// Session sharing the parent's registry, wired for #_parent routing (spec
// §4.9). Its own run loop raises done.invoke.<id> back into the parent when
// it reaches a final configuration on its own, never when the parent
// canceled it (spec §4.9 item v).
func defaultInvokeSpawner(parent *Session, stateID string, inv *Invoke, invokeID string) (*SpawnedInvoke, error) {
	child, err := newInvokeChildSession(parent, inv, invokeID)
	if err != nil {
		return nil, err
	}
	return runInvokeChild(parent, child, invokeID, func() error { return child.Start() }), nil
}

// restoreInvokeChild spawns a child session for a running invoke recovered
// from a SessionSnapshot, restoring it from its own captured snapshot
// instead of Start()ing it, so no onentry side effects replay (spec §6
// "restoreInvokes restores children from their own snapshots").
func restoreInvokeChild(parent *Session, inv *Invoke, invokeID string, childSnap SessionSnapshot) (*SpawnedInvoke, error) {
	child, err := newInvokeChildSession(parent, inv, invokeID)
	if err != nil {
		return nil, err
	}
	return runInvokeChild(parent, child, invokeID, func() error { return child.Restore(childSnap) }), nil
}

// newInvokeChildSession builds (but does not start) a nested Session for an
// inline-content invoke (spec §1 "external document loading is out of
// scope" — src-based <invoke src="..."> has no default handler).
func newInvokeChildSession(parent *Session, inv *Invoke, invokeID string) (*Session, error) {
	if inv.Type != "" && inv.Type != "scxml" && inv.Type != "http://www.w3.org/TR/scxml/" {
		return nil, fmt.Errorf("invoke: no default handler for type %q", inv.Type)
	}
	if inv.Content == nil {
		return nil, fmt.Errorf("invoke: no default handler for src-based invoke (document loading is out of scope)")
	}
	childDoc, ok := inv.Content.Body.(*Document)
	if !ok || childDoc == nil {
		return nil, fmt.Errorf("invoke: default spawner requires <content> to embed a *scxml.Document")
	}

	opts := []Option{
		WithParentSession(parent.id),
		WithSessionID(invokeID),
		WithDatamodel(datamodel.NewGojaBridge()),
		WithLogger(parent.logger),
	}
	if parent.registry != nil {
		opts = append(opts, WithRegistry(parent.registry))
	}

	child, err := New(childDoc, opts...)
	if err != nil {
		return nil, fmt.Errorf("spawn child session: %w", err)
	}
	return child, nil
}

// runInvokeChild starts child's run loop via enter (Start or Restore) and
// wires the lifecycle handle the invoke manager needs: cancellation,
// autoforward delivery, snapshotting, and done.invoke notification on
// natural completion (spec §4.9 items iv and v).
func runInvokeChild(parent *Session, child *Session, invokeID string, enter func() error) *SpawnedInvoke {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := enter(); err != nil {
			return
		}
		runErr := child.Run(ctx)
		if ctx.Err() != nil || runErr != nil {
			// Parent-initiated cancellation (exiting the invoking state,
			// or session Stop): no done.invoke notification.
			return
		}
		notifyInvokeDone(parent, invokeID, child.FinalDoneData())
	}()

	return &SpawnedInvoke{
		Cancel: func() {
			cancel()
			child.Stop()
		},
		Forward: func(name string, data any) {
			child.SendExternal(name, data)
		},
		Snapshot: func() (SessionSnapshot, error) {
			return child.Snapshot()
		},
	}
}

// notifyInvokeDone delivers done.invoke.<id> into parent's external queue
// (spec §4.9 item v, S5: events from an invoked child arrive like any other
// outside event, via the external queue, with _event.invokeid bound),
// unless the invoke was already canceled — the blacklist check closes a
// race between natural completion and a concurrent Cancel.
func notifyInvokeDone(parent *Session, invokeID string, data any) {
	if parent.invokes.IsBlacklisted(invokeID) {
		return
	}
	e := events.NewExternal(invoke.DoneEventName(invokeID), data)
	e.InvokeID = invokeID
	parent.mu.Lock()
	defer parent.mu.Unlock()
	parent.queues.Send(e)
}
