package config

import (
	"sort"

	model "github.com/comalice/scxml/internal/model"
)

// Manager computes entry/exit sets and tracks history recordings for a
// single Document (spec §4.4 Configuration Manager, §4.8 history). It holds
// no notion of "current" configuration itself — callers own the active set
// and pass it in, matching the interpreter's ownership of configuration
// state (spec §4.7).
type Manager struct {
	doc     *model.Document
	history map[string][]string // historyStateID -> recorded state ids
}

// New constructs a Manager for doc.
func New(doc *model.Document) *Manager {
	return &Manager{doc: doc, history: make(map[string][]string)}
}

// HistorySnapshot returns a copy of every recorded history entry, keyed by
// history pseudo-state id (spec §6 persisted-state layout).
func (m *Manager) HistorySnapshot() map[string][]string {
	out := make(map[string][]string, len(m.history))
	for k, v := range m.history {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// RestoreHistory replaces recorded history entries wholesale (used when
// resuming a session from a SessionSnapshot).
func (m *Manager) RestoreHistory(h map[string][]string) {
	m.history = make(map[string][]string, len(h))
	for k, v := range h {
		cp := make([]string, len(v))
		copy(cp, v)
		m.history[k] = cp
	}
}

// IsDescendant reports whether s is a proper descendant of ancestor.
func IsDescendant(s, ancestor *model.State) bool {
	if s == nil || ancestor == nil {
		return false
	}
	for p := s.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// IsOrIsDescendant reports s == ancestor || IsDescendant(s, ancestor).
func IsOrIsDescendant(s, ancestor *model.State) bool {
	return s == ancestor || IsDescendant(s, ancestor)
}

// ProperAncestors returns state's ancestor chain (parent first, root last),
// stopping before stop if stop is non-nil and an ancestor.
func ProperAncestors(state, stop *model.State) []*model.State {
	var out []*model.State
	for p := state.Parent; p != nil && p != stop; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// FindLCCA returns the least common compound ancestor of states: the
// nearest proper ancestor (compound, or the document root) of which every
// state in states is a descendant (spec §4.6, W3C Appendix D findLCCA).
func (m *Manager) FindLCCA(states []*model.State) *model.State {
	if len(states) == 0 {
		return m.doc.Root
	}
	candidates := ProperAncestors(states[0], nil)
	candidates = append(candidates, m.doc.Root)
	for _, anc := range candidates {
		if anc.Kind != model.Compound && anc != m.doc.Root {
			continue
		}
		all := true
		for _, s := range states {
			if !IsDescendant(s, anc) {
				all = false
				break
			}
		}
		if all {
			return anc
		}
	}
	return m.doc.Root
}

// GetEffectiveTargetStates resolves a transition's Targets into concrete
// atomic/compound/parallel states, substituting any history target with its
// recorded set (or its default transition's targets on first entry, spec
// §4.8).
func (m *Manager) GetEffectiveTargetStates(t *model.Transition) []*model.State {
	seen := make(map[string]bool)
	var out []*model.State
	for _, id := range t.Targets {
		s, ok := m.doc.FindState(id)
		if !ok {
			continue
		}
		if s.IsHistory() {
			for _, r := range m.historyTargets(s) {
				if !seen[r.ID] {
					seen[r.ID] = true
					out = append(out, r)
				}
			}
			continue
		}
		if !seen[s.ID] {
			seen[s.ID] = true
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) historyTargets(h *model.State) []*model.State {
	if ids, ok := m.history[h.ID]; ok {
		var out []*model.State
		for _, id := range ids {
			if s, ok := m.doc.FindState(id); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	if h.HistoryDefault != nil {
		return m.GetEffectiveTargetStates(h.HistoryDefault)
	}
	return nil
}

// GetTransitionDomain returns the domain of a transition: the source itself
// for an internal transition whose targets are all proper descendants, else
// the LCCA of source and every effective target (spec §3, W3C Appendix D
// getTransitionDomain).
func (m *Manager) GetTransitionDomain(t *model.Transition) *model.State {
	targets := m.GetEffectiveTargetStates(t)
	if len(targets) == 0 {
		return t.Source
	}
	if t.Kind == model.InternalTransition && t.Source.IsCompoundLike() {
		allDescendants := true
		for _, tgt := range targets {
			if !IsDescendant(tgt, t.Source) {
				allDescendants = false
				break
			}
		}
		if allDescendants {
			return t.Source
		}
	}
	all := append([]*model.State{t.Source}, targets...)
	return m.FindLCCA(all)
}

// ComputeExitSet returns the states that must be exited for the given set of
// transitions, given the current active configuration, ordered child-before-
// parent (deepest first) for correct exit-action ordering (spec §4.4).
func (m *Manager) ComputeExitSet(transitions []*model.Transition, active map[string]*model.State) []*model.State {
	set := make(map[string]*model.State)
	for _, t := range transitions {
		if len(t.Targets) == 0 {
			continue
		}
		domain := m.GetTransitionDomain(t)
		for _, s := range active {
			if IsDescendant(s, domain) {
				set[s.ID] = s
			}
		}
	}
	return sortByDocOrderDesc(set)
}

// ComputeEntrySet returns (entryStates, defaultActions) for the given
// transitions: the full set of states to enter in document order, plus any
// history-default actions and initial-transition actions to run as part of
// entry (spec §4.4, W3C Appendix D computeEntrySet family).
func (m *Manager) ComputeEntrySet(transitions []*model.Transition) (entry []*model.State, defaultActions map[string][]model.Action) {
	set := make(map[string]*model.State)
	defaultActions = make(map[string][]model.Action)

	for _, t := range transitions {
		targets := m.GetEffectiveTargetStates(t)
		for _, tgt := range targets {
			m.addDescendantStatesToEnter(tgt, set, defaultActions)
		}
		domain := m.GetTransitionDomain(t)
		for _, tgt := range targets {
			m.addAncestorStatesToEnter(tgt, domain, set, defaultActions)
		}
	}
	return sortByDocOrderAsc(set), defaultActions
}

func (m *Manager) addDescendantStatesToEnter(state *model.State, set map[string]*model.State, defaultActions map[string][]model.Action) {
	if state.IsHistory() {
		if ids, ok := m.history[state.ID]; ok && len(ids) > 0 {
			for _, id := range ids {
				if s, ok := m.doc.FindState(id); ok {
					m.addDescendantStatesToEnter(s, set, defaultActions)
					m.addAncestorStatesToEnter(s, state.Parent, set, defaultActions)
				}
			}
			return
		}
		if state.HistoryDefault != nil {
			if len(state.HistoryDefault.Actions) > 0 {
				defaultActions[state.ID] = state.HistoryDefault.Actions
			}
			for _, tgt := range m.GetEffectiveTargetStates(state.HistoryDefault) {
				m.addDescendantStatesToEnter(tgt, set, defaultActions)
				m.addAncestorStatesToEnter(tgt, state.Parent, set, defaultActions)
			}
		}
		return
	}

	set[state.ID] = state

	switch state.Kind {
	case model.Compound:
		if state.InitialTransition != nil {
			if len(state.InitialTransition.Actions) > 0 {
				defaultActions[state.ID] = state.InitialTransition.Actions
			}
			for _, tgt := range m.GetEffectiveTargetStates(state.InitialTransition) {
				m.addDescendantStatesToEnter(tgt, set, defaultActions)
				m.addAncestorStatesToEnter(tgt, state, set, defaultActions)
			}
		} else if state.InitialState != "" {
			if child, ok := m.doc.FindState(state.InitialState); ok {
				m.addDescendantStatesToEnter(child, set, defaultActions)
			}
		}
	case model.Parallel:
		for _, child := range state.Children {
			if !hasDescendantInSet(child, set) {
				m.addDescendantStatesToEnter(child, set, defaultActions)
			}
		}
	}
}

func (m *Manager) addAncestorStatesToEnter(state, ancestorBound *model.State, set map[string]*model.State, defaultActions map[string][]model.Action) {
	for _, anc := range ProperAncestors(state, ancestorBound) {
		set[anc.ID] = anc
		if anc.Kind == model.Parallel {
			for _, child := range anc.Children {
				if !hasDescendantInSet(child, set) {
					m.addDescendantStatesToEnter(child, set, defaultActions)
				}
			}
		}
	}
}

func hasDescendantInSet(state *model.State, set map[string]*model.State) bool {
	if _, ok := set[state.ID]; ok {
		return true
	}
	for _, c := range state.Children {
		if hasDescendantInSet(c, set) {
			return true
		}
	}
	return false
}

// InitialEntrySet computes the document's default entry set on startup
// (spec §4.7 "enter the initial configuration").
func (m *Manager) InitialEntrySet() (entry []*model.State, defaultActions map[string][]model.Action) {
	set := make(map[string]*model.State)
	defaultActions = make(map[string][]model.Action)
	m.addDescendantStatesToEnter(m.doc.Root, set, defaultActions)
	return sortByDocOrderAsc(set), defaultActions
}

// IsInFinalState reports whether state is "done" under active: a final
// state is done iff it is active; a compound state is done iff its active
// child is a final state; a parallel state is done iff every region is done
// (spec §3 invariant, "parallel done when all children done").
func IsInFinalState(state *model.State, active map[string]*model.State) bool {
	switch state.Kind {
	case model.Final:
		_, ok := active[state.ID]
		return ok
	case model.Compound:
		for _, c := range state.Children {
			if _, ok := active[c.ID]; ok {
				return IsInFinalState(c, active)
			}
		}
		return false
	case model.Parallel:
		for _, c := range state.Children {
			if !IsInFinalState(c, active) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// RecordHistory snapshots, for every history pseudo-state whose parent is in
// exitSet, the relevant descendants of active (direct children for shallow,
// full atomic-descendant set for deep) — spec §4.8.
func (m *Manager) RecordHistory(exitSet []*model.State, active map[string]*model.State) {
	for _, s := range exitSet {
		for _, child := range s.Children {
			if !child.IsHistory() {
				continue
			}
			var recorded []string
			if child.Kind == model.HistoryShallow {
				for _, active := range active {
					if active.Parent == s {
						recorded = append(recorded, active.ID)
					}
				}
			} else {
				for _, active := range active {
					if active.IsAtomic() && IsDescendant(active, s) {
						recorded = append(recorded, active.ID)
					}
				}
			}
			sort.Strings(recorded)
			m.history[child.ID] = recorded
		}
	}
}

func sortByDocOrderAsc(set map[string]*model.State) []*model.State {
	out := make([]*model.State, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocOrder < out[j].DocOrder })
	return out
}

func sortByDocOrderDesc(set map[string]*model.State) []*model.State {
	out := make([]*model.State, 0, len(set))
	for _, s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocOrder > out[j].DocOrder })
	return out
}
