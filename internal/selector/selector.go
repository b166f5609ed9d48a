package selector

import (
	"sort"

	model "github.com/comalice/scxml/internal/model"
	"github.com/comalice/scxml/internal/config"
)

// CondEvaluator reports whether a transition's guard (if any) currently
// holds; called only for transitions whose event descriptor already
// matched (or for eventless transitions, unconditionally considered).
type CondEvaluator func(t *model.Transition) bool

// SelectTransitions computes the enabled, conflict-resolved transition set
// for eventName against the active configuration (spec §4.6 W3C Appendix D
// selectTransitions).
func SelectTransitions(cm *config.Manager, active map[string]*model.State, eventName string, evalCond CondEvaluator) []*model.Transition {
	return selectMatching(cm, active, func(t *model.Transition) bool {
		return t.HasEvents() && t.MatchesEvent(eventName) && evalCond(t)
	})
}

// SelectEventlessTransitions computes the enabled set of transitions with no
// event descriptor (spec §4.6 W3C Appendix D selectEventlessTransitions).
func SelectEventlessTransitions(cm *config.Manager, active map[string]*model.State, evalCond CondEvaluator) []*model.Transition {
	return selectMatching(cm, active, func(t *model.Transition) bool {
		return !t.HasEvents() && evalCond(t)
	})
}

func selectMatching(cm *config.Manager, active map[string]*model.State, match func(*model.Transition) bool) []*model.Transition {
	atomic := atomicStatesSorted(active)

	var enabled []*model.Transition
	seen := make(map[*model.Transition]bool)

	for _, state := range atomic {
		chain := append([]*model.State{state}, config.ProperAncestors(state, nil)...)
		for _, s := range chain {
			found := false
			// Document order within a single state's transition list.
			sorted := append([]*model.Transition(nil), s.Transitions...)
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].DocOrder < sorted[j].DocOrder })
			for _, t := range sorted {
				if match(t) {
					if !seen[t] {
						seen[t] = true
						enabled = append(enabled, t)
					}
					found = true
					break
				}
			}
			if found {
				break
			}
		}
	}

	return removeConflicting(cm, active, enabled)
}

func atomicStatesSorted(active map[string]*model.State) []*model.State {
	var out []*model.State
	for _, s := range active {
		if s.IsAtomic() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocOrder < out[j].DocOrder })
	return out
}

// removeConflicting applies the W3C preemption rule: two transitions
// conflict if their exit sets intersect; the one rooted in the more deeply
// nested (descendant) source state wins (spec §4.6 descendant preemption,
// resolved with integer document-order indices per spec §9).
func removeConflicting(cm *config.Manager, active map[string]*model.State, enabledTransitions []*model.Transition) []*model.Transition {
	var filtered []*model.Transition

	for _, t1 := range enabledTransitions {
		preempted := false
		var toRemove []*model.Transition
		exit1 := exitSetOf(cm, active, t1)

		for _, t2 := range filtered {
			exit2 := exitSetOf(cm, active, t2)
			if !intersects(exit1, exit2) {
				continue
			}
			if config.IsDescendant(t1.Source, t2.Source) {
				toRemove = append(toRemove, t2)
			} else {
				preempted = true
				break
			}
		}

		if preempted {
			continue
		}
		if len(toRemove) > 0 {
			remove := make(map[*model.Transition]bool, len(toRemove))
			for _, r := range toRemove {
				remove[r] = true
			}
			var next []*model.Transition
			for _, f := range filtered {
				if !remove[f] {
					next = append(next, f)
				}
			}
			filtered = next
		}
		filtered = append(filtered, t1)
	}

	return filtered
}

func exitSetOf(cm *config.Manager, active map[string]*model.State, t *model.Transition) map[string]bool {
	set := make(map[string]bool)
	for _, s := range cm.ComputeExitSet([]*model.Transition{t}, active) {
		set[s.ID] = true
	}
	return set
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}
