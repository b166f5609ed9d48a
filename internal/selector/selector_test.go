package selector

import (
	"testing"

	scxml "github.com/comalice/scxml/internal/model"
	"github.com/comalice/scxml/internal/config"
	"github.com/stretchr/testify/require"
)

func alwaysTrue(*scxml.Transition) bool { return true }

func TestSelectTransitionsFirstMatchPerState(t *testing.T) {
	root := &scxml.State{ID: "root", Kind: scxml.Compound, DocOrder: 1}
	child := &scxml.State{ID: "child", Kind: scxml.Atomic, Parent: root, DocOrder: 2}
	root.Children = []*scxml.State{child}

	t1 := &scxml.Transition{Source: child, Events: []string{"go"}, Targets: []string{"root"}, DocOrder: 1}
	t2 := &scxml.Transition{Source: child, Events: []string{"go"}, Targets: []string{"root"}, DocOrder: 2}
	child.Transitions = []*scxml.Transition{t1, t2}

	doc := &scxml.Document{Root: root, ByID: map[string]*scxml.State{"root": root, "child": child}}
	cm := config.New(doc)
	active := map[string]*scxml.State{"root": root, "child": child}

	got := SelectTransitions(cm, active, "go", alwaysTrue)
	require.Len(t, got, 1)
	require.Same(t, t1, got[0])
}

func TestSelectEventlessTransitionsIgnoresEvented(t *testing.T) {
	root := &scxml.State{ID: "root", Kind: scxml.Compound, DocOrder: 1}
	child := &scxml.State{ID: "child", Kind: scxml.Atomic, Parent: root, DocOrder: 2}
	root.Children = []*scxml.State{child}
	evented := &scxml.Transition{Source: child, Events: []string{"go"}, Targets: []string{"root"}, DocOrder: 1}
	eventless := &scxml.Transition{Source: child, Targets: []string{"root"}, DocOrder: 2}
	child.Transitions = []*scxml.Transition{evented, eventless}

	doc := &scxml.Document{Root: root, ByID: map[string]*scxml.State{"root": root, "child": child}}
	cm := config.New(doc)
	active := map[string]*scxml.State{"root": root, "child": child}

	got := SelectEventlessTransitions(cm, active, alwaysTrue)
	require.Len(t, got, 1)
	require.Same(t, eventless, got[0])
}

func TestDescendantPreemption(t *testing.T) {
	root := &scxml.State{ID: "root", Kind: scxml.Compound, DocOrder: 1}
	parent := &scxml.State{ID: "parent", Kind: scxml.Compound, Parent: root, DocOrder: 2, InitialState: "child"}
	child := &scxml.State{ID: "child", Kind: scxml.Atomic, Parent: parent, DocOrder: 3}
	root.Children = []*scxml.State{parent}
	parent.Children = []*scxml.State{child}

	tParent := &scxml.Transition{Source: parent, Events: []string{"go"}, Targets: []string{"root"}, DocOrder: 1}
	tChild := &scxml.Transition{Source: child, Events: []string{"go"}, Targets: []string{"root"}, DocOrder: 1}
	parent.Transitions = []*scxml.Transition{tParent}
	child.Transitions = []*scxml.Transition{tChild}

	doc := &scxml.Document{Root: root, ByID: map[string]*scxml.State{
		"root": root, "parent": parent, "child": child,
	}}
	cm := config.New(doc)
	active := map[string]*scxml.State{"root": root, "parent": parent, "child": child}

	got := SelectTransitions(cm, active, "go", alwaysTrue)
	require.Len(t, got, 1)
	require.Same(t, tChild, got[0])
}
