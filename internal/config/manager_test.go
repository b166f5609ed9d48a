package config

import (
	"testing"

	scxml "github.com/comalice/scxml/internal/model"
	"github.com/stretchr/testify/require"
)

// buildDoc constructs:
// root(compound, initial=a)
//   a (compound, initial=a1) {a1}
func buildDoc(t *testing.T) *scxml.Document {
	t.Helper()
	b := scxml.NewDocumentBuilder("root", "a")
	b.State("a").Compound("a1").
		State("a1")
	doc, err := b.Build()
	require.NoError(t, err)
	return doc
}

func TestFindLCCARoot(t *testing.T) {
	doc := buildDoc(t)
	m := New(doc)
	a, _ := doc.FindState("a")
	b := &scxml.State{ID: "b", Parent: doc.Root, DocOrder: 99}
	lcca := m.FindLCCA([]*scxml.State{a, b})
	require.Equal(t, doc.Root, lcca)
}

func TestInitialEntrySet(t *testing.T) {
	doc := buildDoc(t)
	m := New(doc)
	entry, _ := m.InitialEntrySet()
	ids := make([]string, 0, len(entry))
	for _, s := range entry {
		ids = append(ids, s.ID)
	}
	require.Contains(t, ids, "root")
	require.Contains(t, ids, "a")
	require.Contains(t, ids, "a1")
}

func TestIsInFinalStateParallel(t *testing.T) {
	root := &scxml.State{ID: "root", Kind: scxml.Parallel}
	f1 := &scxml.State{ID: "f1", Kind: scxml.Final, Parent: root}
	f2 := &scxml.State{ID: "f2", Kind: scxml.Final, Parent: root}
	root.Children = []*scxml.State{f1, f2}

	active := map[string]*scxml.State{"f1": f1, "f2": f2}
	require.True(t, IsInFinalState(root, active))

	active2 := map[string]*scxml.State{"f1": f1}
	require.False(t, IsInFinalState(root, active2))
}

func TestRecordAndRestoreShallowHistory(t *testing.T) {
	root := &scxml.State{ID: "root", Kind: scxml.Compound}
	p := &scxml.State{ID: "p", Kind: scxml.Compound, Parent: root, InitialState: "a1"}
	a1 := &scxml.State{ID: "a1", Kind: scxml.Atomic, Parent: p}
	a2 := &scxml.State{ID: "a2", Kind: scxml.Atomic, Parent: p}
	hist := &scxml.State{ID: "h", Kind: scxml.HistoryShallow, Parent: p,
		HistoryDefault: &scxml.Transition{Targets: []string{"a1"}}}
	p.Children = []*scxml.State{a1, a2, hist}
	root.Children = []*scxml.State{p}

	doc := &scxml.Document{Root: root, ByID: map[string]*scxml.State{
		"root": root, "p": p, "a1": a1, "a2": a2, "h": hist,
	}}
	m := New(doc)

	active := map[string]*scxml.State{"root": root, "p": p, "a2": a2}
	m.RecordHistory([]*scxml.State{p}, active)

	targets := m.historyTargets(hist)
	require.Len(t, targets, 1)
	require.Equal(t, "a2", targets[0].ID)
}

func TestHistoryDefaultWhenNoRecording(t *testing.T) {
	root := &scxml.State{ID: "root", Kind: scxml.Compound}
	hist := &scxml.State{ID: "h", Kind: scxml.HistoryShallow, Parent: root,
		HistoryDefault: &scxml.Transition{Targets: []string{"a1"}}}
	a1 := &scxml.State{ID: "a1", Kind: scxml.Atomic, Parent: root}
	root.Children = []*scxml.State{a1, hist}
	doc := &scxml.Document{Root: root, ByID: map[string]*scxml.State{
		"root": root, "a1": a1, "h": hist,
	}}
	m := New(doc)

	targets := m.historyTargets(hist)
	require.Len(t, targets, 1)
	require.Equal(t, "a1", targets[0].ID)
}
