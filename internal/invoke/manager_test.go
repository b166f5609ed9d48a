package invoke

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeferAndTakeDrains(t *testing.T) {
	m := New()
	m.Defer("s1", nil, "inv1")
	m.Defer("s1", nil, "inv2")

	got := m.TakeDeferred()
	require.Len(t, got, 2)
	require.Empty(t, m.TakeDeferred())
}

func TestRegisterLookupChildrenOf(t *testing.T) {
	m := New()
	m.Register(&Child{InvokeID: "i1", StateID: "s1"})
	m.Register(&Child{InvokeID: "i2", StateID: "s1"})
	m.Register(&Child{InvokeID: "i3", StateID: "s2"})

	c, ok := m.Lookup("i1")
	require.True(t, ok)
	require.Equal(t, "s1", c.StateID)

	require.Len(t, m.ChildrenOf("s1"), 2)
	require.Len(t, m.ChildrenOf("s2"), 1)
}

func TestCancelIsIdempotentAndBlacklists(t *testing.T) {
	m := New()
	calls := 0
	m.Register(&Child{InvokeID: "i1", StateID: "s1", Cancel: func() { calls++ }})

	m.Cancel("i1")
	m.Cancel("i1")

	require.Equal(t, 1, calls)
	require.True(t, m.IsBlacklisted("i1"))
	_, ok := m.Lookup("i1")
	require.False(t, ok)
}

func TestAutoforwardTargets(t *testing.T) {
	m := New()
	m.Register(&Child{InvokeID: "i1", StateID: "s1", Autoforward: true})
	m.Register(&Child{InvokeID: "i2", StateID: "s1", Autoforward: false})

	targets := m.AutoforwardTargets()
	require.Len(t, targets, 1)
	require.Equal(t, "i1", targets[0])
}

func TestBlacklistBounded(t *testing.T) {
	m := New()
	for i := 0; i < lateEventBlacklistLimit+10; i++ {
		m.Cancel(fmt.Sprintf("inv-%d", i))
	}
	require.LessOrEqual(t, m.order.Len(), lateEventBlacklistLimit)
}
