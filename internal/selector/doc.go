// Package selector implements the Transition Selector (spec §4.6): the W3C
// SCXML Appendix D algorithm for computing the enabled-transition set for an
// event (or the eventless pass), with conflict resolution by exit-set
// intersection and document-order descendant preemption. Grounded on the
// teacher's internal/core/machine.go processEvent candidate-collection/
// priority-sort logic and statechart.go findEnabledTransition's ancestor
// walk, generalized from the teacher's flat single-target model to the full
// W3C algorithm (see DESIGN.md).
package selector
