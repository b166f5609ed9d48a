package scxml

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/scxml/internal/config"
	"github.com/comalice/scxml/internal/datamodel"
	"github.com/comalice/scxml/internal/events"
	"github.com/comalice/scxml/internal/invoke"
	"github.com/comalice/scxml/internal/selector"
)

// Start runs the document's top-level <script>, declares early-bound data,
// enters the initial configuration, and runs eventless transitions to a
// stable configuration (spec §4.7 "enter the initial configuration").
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scxml: session %s already started", s.id)
	}
	s.started = true

	for _, a := range s.doc.Script {
		if err := s.bridge.RunScript(s.id, a.Src); err != nil {
			return fmt.Errorf("top-level script: %w", err)
		}
	}

	if s.doc.Binding == "early" {
		s.declareAllDataLocked(s.doc.Root)
	}

	entry, defaults := s.cm.InitialEntrySet()
	s.enterStatesLocked(entry, defaults)
	s.finishMacrostepLocked()
	s.checkTerminationLocked()
	return nil
}

func (s *Session) declareAllDataLocked(state *State) {
	for _, d := range state.Data {
		if _, already := s.active[state.ID]; already {
			continue
		}
		_ = s.bridge.DeclareData(s.id, d.ID, d.Expr, d.Content)
	}
	for _, c := range state.Children {
		s.declareAllDataLocked(c)
	}
}

// IsFinal reports whether the document's root compound state has reached a
// final child (the whole session is done, spec §4.7 termination).
func (s *Session) IsFinal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topLevelFinalLocked() != nil
}

// topLevelFinalLocked returns the active final child of the root, if any.
func (s *Session) topLevelFinalLocked() *State {
	for _, c := range s.doc.Root.Children {
		if _, ok := s.active[c.ID]; ok && c.Kind == Final {
			return c
		}
	}
	return nil
}

// Terminated reports whether the session stopped processing (final or
// explicitly Stop()ped).
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

// FinalDoneData returns the <donedata> evaluated when the session's root
// reached a final configuration (spec §4.9 "the done.invoke event's data
// comes from the invoked child's top-level final state"), or nil if the
// session hasn't terminated that way.
func (s *Session) FinalDoneData() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalDoneData
}

// Configuration returns the ids of every currently active state, in
// document order.
func (s *Session) Configuration() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*State, 0, len(s.active))
	for _, st := range s.active {
		out = append(out, st)
	}
	sortStatesByDocOrder(out)
	ids := make([]string, len(out))
	for i, st := range out {
		ids[i] = st.ID
	}
	return ids
}

func sortStatesByDocOrder(states []*State) {
	for i := 1; i < len(states); i++ {
		for j := i; j > 0 && states[j-1].DocOrder > states[j].DocOrder; j-- {
			states[j-1], states[j] = states[j], states[j-1]
		}
	}
}

// Step processes exactly one pending event (internal-priority first) as a
// full macrostep, then drains eventless transitions to a stable
// configuration. Returns false if the session is idle or terminated.
func (s *Session) Step() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked()
}

func (s *Session) stepLocked() (bool, error) {
	if s.terminated {
		return false, ErrSessionTerminated
	}
	e, ok := s.queues.Next()
	if !ok {
		return false, nil
	}
	if e.InvokeID != "" && s.invokes.IsBlacklisted(e.InvokeID) {
		return true, nil
	}
	s.processEventLocked(e)
	s.finishMacrostepLocked()
	s.checkTerminationLocked()
	return true, nil
}

// finishMacrostepLocked drains eventless transitions and any events raised
// internally as a side effect (onentry/onexit <raise>, done.state, error
// events, finalize-generated events), looping until both the eventless
// selector and the internal queue are exhausted. Only then is the macrostep
// actually over (spec §4.7: "a macrostep is complete only once the internal
// event queue is also empty") and deferred invokes may spawn — spawning
// them after draining only eventless transitions let an invoke spawn one
// Step() call too early whenever onentry raised an event that immediately
// transitioned back out of the invoking state.
func (s *Session) finishMacrostepLocked() {
	s.runToStableConfigurationLocked()
	for s.queues.HasInternal() {
		e, ok := s.queues.Next()
		if !ok {
			break
		}
		if e.InvokeID != "" && s.invokes.IsBlacklisted(e.InvokeID) {
			continue
		}
		s.processEventLocked(e)
		s.runToStableConfigurationLocked()
	}
	s.spawnDeferredInvokesLocked()
}

// Tick polls the scheduler for due cooperative-mode sends, then drains the
// queues (spec §5 deployment B: "Poll(now) called between microsteps, no
// timer goroutine"). Reaching termination mid-drain ends the tick cleanly
// rather than surfacing ErrSessionTerminated, which is reserved for a
// caller invoking Step directly on an already-terminated session.
func (s *Session) Tick(now time.Time) error {
	s.scheduler.Poll(now)
	for {
		more, err := s.Step()
		if errors.Is(err, ErrSessionTerminated) {
			return nil
		}
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// RunUntilIdle drains every pending event (useful in Threaded scheduler
// mode, or right after Start/SendExternal in a synchronous test). Like
// Tick, termination reached while draining ends the call cleanly instead
// of propagating ErrSessionTerminated.
func (s *Session) RunUntilIdle() error {
	for {
		more, err := s.Step()
		if errors.Is(err, ErrSessionTerminated) {
			return nil
		}
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Run drives the session until ctx is canceled or the session terminates,
// blocking between events instead of busy-polling (used by invoked child
// sessions and long-lived Threaded-mode top-level sessions).
func (s *Session) Run(ctx context.Context) error {
	notify := s.queues.NotifyChannel()
	for {
		if err := s.RunUntilIdle(); err != nil {
			return err
		}
		if s.Terminated() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
		}
	}
}

// Stop halts processing and cancels every running invoke and scheduled
// send (spec §4.7 "termination cleanup").
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.terminated {
		return
	}
	s.terminated = true
	s.scheduler.CancelForSession(s.id)
	for _, st := range s.active {
		for _, c := range s.invokes.ChildrenOf(st.ID) {
			s.invokes.Cancel(c.InvokeID)
		}
	}
	s.bridge.DestroySession(s.id)
	if s.registry != nil {
		s.registry.Unregister(s.id)
	}
}

func (s *Session) checkTerminationLocked() {
	if !s.terminated && s.topLevelFinalLocked() != nil {
		s.finalDoneData = s.rootDoneDataLocked()
		s.stopLocked()
	}
}

// rootDoneDataLocked evaluates the <donedata> of the final state that
// completed the root configuration, for done.invoke notification to a
// parent session (spec §4.9 item v).
func (s *Session) rootDoneDataLocked() any {
	for _, st := range s.active {
		if st.Kind == Final {
			return s.evalDoneDataLocked(st.DoneData)
		}
	}
	return nil
}

func (s *Session) processEventLocked(e events.Event) {
	s.bridge.SetIn(s.id, func(id string) bool {
		st, ok := s.active[id]
		return ok && st != nil
	})
	_ = s.bridge.SetEvent(s.id, eventSnapshot(e))

	if e.Kind == events.External {
		s.autoforwardLocked(e)
	}

	if e.InvokeID != "" {
		if child, ok := s.invokes.Lookup(e.InvokeID); ok && child.Invoke != nil && len(child.Invoke.Finalize) > 0 {
			s.runner.RunBlock(s.id, child.Invoke.Finalize)
		}
	}

	enabled := selector.SelectTransitions(s.cm, s.active, e.Name, s.evalCond)
	if len(enabled) > 0 {
		s.microstepLocked(enabled)
	}
}

// autoforwardLocked replays an externally-received event into every running
// autoforward="true" invoked child's external queue (spec §4.9 item iv).
func (s *Session) autoforwardLocked(e events.Event) {
	for _, id := range s.invokes.AutoforwardTargets() {
		child, ok := s.invokes.Lookup(id)
		if !ok || child.Forward == nil {
			continue
		}
		child.Forward(e.Name, e.Data)
	}
}

func (s *Session) runToStableConfigurationLocked() {
	for {
		_ = s.bridge.SetIn(s.id, func(id string) bool {
			st, ok := s.active[id]
			return ok && st != nil
		})
		enabled := selector.SelectEventlessTransitions(s.cm, s.active, s.evalCond)
		if len(enabled) == 0 {
			return
		}
		s.microstepLocked(enabled)
	}
}

func (s *Session) evalCond(t *Transition) bool {
	if t.Cond == "" {
		return true
	}
	ok, err := s.bridge.EvaluateCondition(s.id, t.Cond)
	if err != nil {
		s.RaiseError("error.execution", fmt.Errorf("transition cond %q: %w", t.Cond, err))
		return false
	}
	return ok
}

func (s *Session) microstepLocked(transitions []*Transition) {
	exitSet := s.cm.ComputeExitSet(transitions, s.active)
	s.cm.RecordHistory(exitSet, s.active)
	s.exitStatesLocked(exitSet)

	s.lastDocOrds = s.lastDocOrds[:0]
	for _, t := range transitions {
		s.lastDocOrds = append(s.lastDocOrds, t.DocOrder)
		s.runner.RunBlock(s.id, t.Actions)
	}

	entrySet, defaults := s.cm.ComputeEntrySet(transitions)
	s.enterStatesLocked(entrySet, defaults)
	s.stepCount++
}

func (s *Session) exitStatesLocked(exitSet []*State) {
	for _, st := range exitSet {
		for _, c := range s.invokes.ChildrenOf(st.ID) {
			s.invokes.Cancel(c.InvokeID)
		}
		for _, block := range st.ExitBlocks {
			s.runner.RunBlock(s.id, block)
		}
		delete(s.active, st.ID)
	}
}

func (s *Session) enterStatesLocked(entrySet []*State, defaults map[string][]Action) {
	for _, st := range entrySet {
		s.active[st.ID] = st
		if s.doc.Binding != "early" {
			for _, d := range st.Data {
				_ = s.bridge.DeclareData(s.id, d.ID, d.Expr, d.Content)
			}
		}
		if da, ok := defaults[st.ID]; ok {
			s.runner.RunBlock(s.id, da)
		}
		for _, block := range st.EntryBlocks {
			s.runner.RunBlock(s.id, block)
		}
		for _, inv := range st.Invokes {
			id := s.resolveInvokeID(inv)
			s.invokes.Defer(st.ID, inv, id)
		}
	}
	s.afterEntryLocked(entrySet)
}

func (s *Session) resolveInvokeID(inv *Invoke) string {
	if inv.ID != "" {
		return inv.ID
	}
	id := uuid.NewString()
	if inv.IDLocation != "" {
		_ = s.bridge.AssignLocation(s.id, inv.IDLocation, id, false)
	}
	return id
}

func (s *Session) afterEntryLocked(entered []*State) {
	for _, st := range entered {
		if st.Kind == Final && st.Parent != nil {
			data := s.evalDoneDataLocked(st.DoneData)
			s.Raise(fmt.Sprintf("done.state.%s", st.Parent.ID), data)
		}
	}
	checked := make(map[string]bool)
	for _, st := range entered {
		for p := st.Parent; p != nil; p = p.Parent {
			if p.Kind != Parallel || checked[p.ID] {
				continue
			}
			checked[p.ID] = true
			if config.IsInFinalState(p, s.active) {
				s.Raise(fmt.Sprintf("done.state.%s", p.ID), nil)
			}
		}
	}
}

func (s *Session) evalDoneDataLocked(dd *DoneData) any {
	if dd == nil {
		return nil
	}
	out := make(map[string]any)
	for _, p := range dd.Params {
		if p.Expr != "" {
			if v, err := s.bridge.EvaluateExpression(s.id, p.Expr); err == nil {
				out[p.Name] = v
			}
		} else if p.Location != "" {
			if v, err := s.bridge.EvaluateExpression(s.id, p.Location); err == nil {
				out[p.Name] = v
			}
		}
	}
	if dd.Content != nil {
		if dd.Content.Expr != "" {
			if v, err := s.bridge.EvaluateExpression(s.id, dd.Content.Expr); err == nil {
				return v
			}
		} else if dd.Content.Body != nil {
			return dd.Content.Body
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s *Session) spawnDeferredInvokesLocked() {
	for _, d := range s.invokes.TakeDeferred() {
		if _, stillActive := s.active[d.StateID]; !stillActive {
			continue
		}
		spawned, err := s.spawner(s, d.StateID, d.Invoke, d.InvokeID)
		if err != nil {
			s.RaiseError("error.execution", fmt.Errorf("invoke %s: %w", d.InvokeID, err))
			continue
		}
		s.invokes.Register(&invoke.Child{
			InvokeID:    d.InvokeID,
			StateID:     d.StateID,
			Autoforward: d.Invoke.Autoforward,
			Invoke:      d.Invoke,
			Cancel:      spawned.Cancel,
			Forward:     spawned.Forward,
			Snapshot:    spawned.Snapshot,
		})
	}
}

func eventSnapshot(e events.Event) datamodel.EventSnapshot {
	typ := "external"
	switch e.Kind {
	case events.Internal:
		typ = "internal"
	case events.Platform:
		typ = "platform"
	}
	return datamodel.EventSnapshot{
		Name:       e.Name,
		Type:       typ,
		SendID:     e.SendID,
		Origin:     e.Origin,
		OriginType: e.OriginType,
		InvokeID:   e.InvokeID,
		Data:       e.Data,
	}
}
