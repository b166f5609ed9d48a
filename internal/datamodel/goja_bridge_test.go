package datamodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGojaBridgeDeclareAndEvaluate(t *testing.T) {
	b := NewGojaBridge()
	require.NoError(t, b.CreateSession("s1", "machine", nil))
	defer b.DestroySession("s1")

	require.NoError(t, b.DeclareData("s1", "x", "1 + 1", nil))
	v, err := b.EvaluateExpression("s1", "x")
	require.NoError(t, err)
	require.EqualValues(t, 2, v)
}

func TestGojaBridgeEvaluateCondition(t *testing.T) {
	b := NewGojaBridge()
	require.NoError(t, b.CreateSession("s1", "machine", nil))
	defer b.DestroySession("s1")

	require.NoError(t, b.DeclareData("s1", "flag", "true", nil))
	ok, err := b.EvaluateCondition("s1", "flag")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.EvaluateCondition("s1", "")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGojaBridgeAssignLocation(t *testing.T) {
	b := NewGojaBridge()
	require.NoError(t, b.CreateSession("s1", "machine", nil))
	defer b.DestroySession("s1")

	require.NoError(t, b.DeclareData("s1", "counter", "0", nil))
	require.NoError(t, b.AssignLocation("s1", "counter", "counter + 1", true))
	v, err := b.EvaluateExpression("s1", "counter")
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	err = b.AssignLocation("s1", "undeclaredVar", 5, false)
	require.Error(t, err)
}

func TestGojaBridgeSetEventAndIn(t *testing.T) {
	b := NewGojaBridge()
	require.NoError(t, b.CreateSession("s1", "machine", nil))
	defer b.DestroySession("s1")

	require.NoError(t, b.SetEvent("s1", EventSnapshot{Name: "foo.bar", Type: "platform"}))
	v, err := b.EvaluateExpression("s1", "_event.name")
	require.NoError(t, err)
	require.Equal(t, "foo.bar", v)

	require.NoError(t, b.SetIn("s1", func(id string) bool { return id == "active" }))
	v, err = b.EvaluateExpression("s1", "In('active')")
	require.NoError(t, err)
	require.Equal(t, true, v)
}

func TestGojaBridgeRunScriptAndSnapshot(t *testing.T) {
	b := NewGojaBridge()
	require.NoError(t, b.CreateSession("s1", "machine", nil))
	defer b.DestroySession("s1")

	require.NoError(t, b.RunScript("s1", "var y = 42;"))
	snap, err := b.Snapshot("s1")
	require.NoError(t, err)
	require.Contains(t, snap, "y")
}

func TestGojaBridgeUnknownSession(t *testing.T) {
	b := NewGojaBridge()
	_, err := b.EvaluateExpression("missing", "1")
	require.Error(t, err)
}
