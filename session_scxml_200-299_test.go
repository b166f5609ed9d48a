package scxml

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// P1: a compound state has exactly one active child at a time.
func TestPropertyCompoundSingleActiveChild(t *testing.T) {
	b := NewDocumentBuilder("root", "a")
	b.State("a").Transition("go", "", []string{"b"})
	b.State("b")
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())
	require.Len(t, sess.Configuration(), 2) // root, a

	sess.SendExternal("go", nil)
	require.NoError(t, sess.RunUntilIdle())
	require.Len(t, sess.Configuration(), 2) // root, b
}

// P2: every region of a parallel state is active simultaneously, not just
// one of them.
func TestPropertyParallelAllRegionsActive(t *testing.T) {
	b := NewDocumentBuilder("root", "p")
	p := b.State("p").Parallel()
	p.State("r1")
	p.State("r2")
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())
	require.ElementsMatch(t, []string{"root", "p", "r1", "r2"}, sess.Configuration())
}

// P3: a history pseudo-state is never itself part of the active
// configuration, even immediately after a transition targets it.
func TestPropertyHistoryStateNeverActive(t *testing.T) {
	b := NewDocumentBuilder("root", "outer")
	outer := b.State("outer").Compound("x")
	outer.State("x").Transition("go", "", []string{"y"})
	outer.State("y")
	outer.State("hist").History(false, "x")
	outer.Transition("leave", "", []string{"away"})
	b.State("away").Transition("back", "", []string{"hist"})
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())
	require.False(t, contains(sess.Configuration(), "hist"))

	sess.SendExternal("go", nil)
	require.NoError(t, sess.RunUntilIdle())
	require.ElementsMatch(t, []string{"root", "outer", "y"}, sess.Configuration())
	require.False(t, contains(sess.Configuration(), "hist"))

	sess.SendExternal("leave", nil)
	require.NoError(t, sess.RunUntilIdle())
	require.ElementsMatch(t, []string{"root", "away"}, sess.Configuration())

	sess.SendExternal("back", nil)
	require.NoError(t, sess.RunUntilIdle())
	require.ElementsMatch(t, []string{"root", "outer", "y"}, sess.Configuration())
	require.False(t, contains(sess.Configuration(), "hist"))
}

// P4: an event raised internally during onentry is fully processed,
// including its own transition, before a sibling send to the external
// queue is ever looked at.
func TestPropertyInternalQueueDrainsBeforeExternal(t *testing.T) {
	b := NewDocumentBuilder("root", "start")
	b.State("start").
		Entry(Raise("x"), Send("y", "", "")).
		Transition("x", "", []string{"X"})
	b.State("X").Transition("y", "", []string{"Y"})
	b.State("Y")
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())
	require.ElementsMatch(t, []string{"root", "X"}, sess.Configuration())
}

// P5: the _event system variable reflects the event actually driving the
// current microstep's transition, not a stale one from an earlier step.
func TestPropertyEventVariableMatchesCurrentMicrostep(t *testing.T) {
	b := NewDocumentBuilder("root", "a")
	b.State("a").Transition("x", "", []string{"b"}, Assign("seen", "_event.name"))
	b.State("b").Data(DataItem{ID: "seen", Expr: `""`}).Transition("y", "", []string{"c"}, Assign("seen", "_event.name"))
	b.State("c")
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())

	sess.SendExternal("x", nil)
	require.NoError(t, sess.RunUntilIdle())
	sess.SendExternal("y", nil)
	require.NoError(t, sess.RunUntilIdle())

	v, err := sess.bridge.EvaluateExpression(sess.id, "seen")
	require.NoError(t, err)
	require.Equal(t, "y", v)
}

// P6: when a descendant and an ancestor both have a transition matching the
// same event, the descendant's transition is selected, never the
// ancestor's.
func TestPropertyDescendantTransitionPreemptsAncestor(t *testing.T) {
	b := NewDocumentBuilder("root", "outer")
	outer := b.State("outer").Compound("inner")
	outer.Transition("go", "", []string{"outerTarget"})
	outer.State("inner").Transition("go", "", []string{"innerTarget"})
	b.State("outerTarget")
	b.State("innerTarget")
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())

	sess.SendExternal("go", nil)
	require.NoError(t, sess.RunUntilIdle())
	require.ElementsMatch(t, []string{"root", "innerTarget"}, sess.Configuration())
}

// P7: a restored session resolves history targets exactly as the original
// would have, proving the recorded history round-trips through Snapshot.
func TestPropertyHistoryRoundTripsThroughSnapshot(t *testing.T) {
	b := NewDocumentBuilder("root", "outer")
	outer := b.State("outer").Compound("x")
	outer.State("x").Transition("go", "", []string{"y"})
	outer.State("y")
	outer.State("hist").History(false, "x")
	outer.Transition("leave", "", []string{"away"})
	b.State("away").Transition("back", "", []string{"hist"})
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())
	sess.SendExternal("go", nil)
	require.NoError(t, sess.RunUntilIdle())
	sess.SendExternal("leave", nil)
	require.NoError(t, sess.RunUntilIdle())
	require.ElementsMatch(t, []string{"root", "away"}, sess.Configuration())

	snap, err := sess.Snapshot()
	require.NoError(t, err)

	restored, err := New(doc, WithSessionID(snap.SessionID))
	require.NoError(t, err)
	require.NoError(t, restored.Restore(snap))
	require.ElementsMatch(t, []string{"root", "away"}, restored.Configuration())

	restored.SendExternal("back", nil)
	require.NoError(t, restored.RunUntilIdle())
	require.ElementsMatch(t, []string{"root", "outer", "y"}, restored.Configuration())
}

// P8: <foreach> over a non-array expression still declares the item
// variable (as undefined) instead of leaving it unset, even though the
// loop body never runs.
func TestPropertyForeachDeclaresItemOnInvalidArray(t *testing.T) {
	b := NewDocumentBuilder("root", "s")
	b.State("s").Entry(Foreach("null", "it", "i", Raise("unreached")))
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())

	_, err = sess.bridge.EvaluateExpression(sess.id, "it")
	require.NoError(t, err, "item variable must be declared even when the array expression is invalid")
	require.Empty(t, sess.queues.Internal.Items(), "the raise after the invalid foreach must not run (block isolation)")
}

// P9: cancelling a send id, or stopping a session, more than once is a
// no-op the second time, never a panic or error.
func TestPropertyCancelAndStopAreIdempotent(t *testing.T) {
	b := NewDocumentBuilder("root", "s")
	b.State("s")
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())

	require.NotPanics(t, func() {
		sess.Cancel("never-scheduled")
		sess.Cancel("never-scheduled")
	})
	require.NotPanics(t, func() {
		sess.Stop()
		sess.Stop()
	})
	require.True(t, sess.Terminated())
}

// P10: once a session reaches its top-level final state, it stays
// terminated and refuses further steps.
func TestPropertyTerminationStopsFurtherSteps(t *testing.T) {
	b := NewDocumentBuilder("root", "a")
	b.State("a").Transition("go", "", []string{"done"})
	b.State("done").Final(nil)
	doc, err := b.Build()
	require.NoError(t, err)

	sess, err := New(doc)
	require.NoError(t, err)
	require.NoError(t, sess.Start())
	require.False(t, sess.Terminated())

	sess.SendExternal("go", nil)
	require.NoError(t, sess.RunUntilIdle())
	require.True(t, sess.Terminated())

	_, err = sess.Step()
	require.ErrorIs(t, err, ErrSessionTerminated)
}
