package model

// DocumentBuilder provides a fluent API for constructing a Document,
// standing in for the external parser (spec §1 "out of scope") when
// embedding documents directly or building test fixtures. Adapted from
// the teacher's MachineBuilder/StateBuilder (builder.go,
// internal/primitives/machinebuilder.go) generalized from a flat,
// StateID-keyed config to the full SCXML tree (typed kinds, document
// order, action blocks, invokes, done-data).
type DocumentBuilder struct {
	byID    map[string]*State
	root    *State
	initial string
	docSeq  int
	binding string
	script  []Action
}

// NewDocumentBuilder starts a new document with the given root compound
// state id and its initial child.
func NewDocumentBuilder(rootID, initial string) *DocumentBuilder {
	b := &DocumentBuilder{byID: make(map[string]*State), binding: "early"}
	b.root = &State{ID: rootID, Kind: Compound, InitialState: initial}
	b.byID[rootID] = b.root
	b.initial = initial
	b.docSeq++
	b.root.DocOrder = b.docSeq
	return b
}

// WithBinding sets "early" (default) or "late" datamodel binding (spec §4.7).
func (b *DocumentBuilder) WithBinding(binding string) *DocumentBuilder {
	b.binding = binding
	return b
}

// WithScript appends a top-level <script> action, run once at document
// load time (spec §4.7 "Run any top-level <script> at document load time").
func (b *DocumentBuilder) WithScript(a Action) *DocumentBuilder {
	b.script = append(b.script, a)
	return b
}

// State starts a StateBuilder for a new child of the root.
func (b *DocumentBuilder) State(id string) *StateBuilder {
	return b.addChild(b.root, id, Atomic)
}

// Build finalizes and validates the Document, computing Path for every
// state (DocOrder and Parent backlinks are already set during
// construction).
func (b *DocumentBuilder) Build() (*Document, error) {
	doc := &Document{
		Root:      b.root,
		Initial:   b.initial,
		ByID:      b.byID,
		Datamodel: "ecmascript",
		Binding:   b.binding,
		Script:    b.script,
	}
	assignPaths(b.root, "")
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

func assignPaths(s *State, prefix string) {
	if prefix == "" {
		s.Path = s.ID
	} else {
		s.Path = prefix + "." + s.ID
	}
	for _, c := range s.Children {
		assignPaths(c, s.Path)
	}
}

func (b *DocumentBuilder) addChild(parent *State, id string, kind StateKind) *StateBuilder {
	b.docSeq++
	s := &State{ID: id, Kind: kind, Parent: parent, DocOrder: b.docSeq}
	parent.Children = append(parent.Children, s)
	b.byID[id] = s
	return &StateBuilder{b: b, state: s}
}

// StateBuilder configures one State fluently.
type StateBuilder struct {
	b     *DocumentBuilder
	state *State
}

// Compound converts this state to a compound state with the given
// initial child id (to be added via nested State/Compound/Parallel calls).
func (sb *StateBuilder) Compound(initial string) *StateBuilder {
	sb.state.Kind = Compound
	sb.state.InitialState = initial
	return sb
}

// Parallel converts this state to a parallel state.
func (sb *StateBuilder) Parallel() *StateBuilder {
	sb.state.Kind = Parallel
	return sb
}

// Final marks this state as final, with optional done-data.
func (sb *StateBuilder) Final(data *DoneData) *StateBuilder {
	sb.state.Kind = Final
	sb.state.DoneData = data
	return sb
}

// History marks this state as a shallow or deep history pseudo-state with
// the given default-transition target (spec §4.8).
func (sb *StateBuilder) History(deep bool, defaultTarget string) *StateBuilder {
	if deep {
		sb.state.Kind = HistoryDeep
	} else {
		sb.state.Kind = HistoryShallow
	}
	sb.state.HistoryDefault = &Transition{Source: sb.state, Targets: []string{defaultTarget}}
	return sb
}

// State adds a child atomic state (upgrade it further with Compound/
// Parallel/Final/History as needed).
func (sb *StateBuilder) State(id string) *StateBuilder {
	return sb.b.addChild(sb.state, id, Atomic)
}

// Entry appends a new entry-action block (spec block-isolation semantics:
// each call to Entry starts a new independently-failing block).
func (sb *StateBuilder) Entry(actions ...Action) *StateBuilder {
	sb.state.EntryBlocks = append(sb.state.EntryBlocks, actions)
	return sb
}

// Exit appends a new exit-action block.
func (sb *StateBuilder) Exit(actions ...Action) *StateBuilder {
	sb.state.ExitBlocks = append(sb.state.ExitBlocks, actions)
	return sb
}

// Data adds a <data> item scoped to this state.
func (sb *StateBuilder) Data(item DataItem) *StateBuilder {
	sb.state.Data = append(sb.state.Data, item)
	return sb
}

// Invoke adds an <invoke> descriptor to this state.
func (sb *StateBuilder) Invoke(inv Invoke) *StateBuilder {
	sb.state.Invokes = append(sb.state.Invokes, &inv)
	return sb
}

// Transition adds an external transition triggered by the given event
// descriptor (space-separated tokens, "" for eventless) to targets, guarded
// by cond (empty = unconditional), running actions in order.
func (sb *StateBuilder) Transition(event, cond string, targets []string, actions ...Action) *StateBuilder {
	sb.b.docSeq++
	t := &Transition{
		Source:   sb.state,
		Events:   splitEventDescriptor(event),
		Cond:     cond,
		Targets:  targets,
		Actions:  actions,
		Kind:     External,
		DocOrder: sb.b.docSeq,
	}
	sb.state.Transitions = append(sb.state.Transitions, t)
	return sb
}

// InternalTransition adds a targetless-or-descendant-only internal
// transition (spec §3: domain is the source itself).
func (sb *StateBuilder) InternalTransition(event, cond string, targets []string, actions ...Action) *StateBuilder {
	sb.b.docSeq++
	t := &Transition{
		Source:   sb.state,
		Events:   splitEventDescriptor(event),
		Cond:     cond,
		Targets:  targets,
		Actions:  actions,
		Kind:     InternalTransition,
		DocOrder: sb.b.docSeq,
	}
	sb.state.Transitions = append(sb.state.Transitions, t)
	return sb
}

// InitialTransition sets the compound state's initial transition, whose
// actions run between parent entry and child entry (spec §3).
func (sb *StateBuilder) InitialTransition(targets []string, actions ...Action) *StateBuilder {
	sb.b.docSeq++
	sb.state.InitialTransition = &Transition{
		Source:   sb.state,
		Targets:  targets,
		Actions:  actions,
		Kind:     External,
		DocOrder: sb.b.docSeq,
	}
	return sb
}

func splitEventDescriptor(event string) []string {
	if event == "" {
		return nil
	}
	var out []string
	start := -1
	for i, r := range event {
		if r == ' ' {
			if start >= 0 {
				out = append(out, event[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, event[start:])
	}
	return out
}

// Action constructors — small, direct, matching spec §4.5 one-to-one.

func Raise(event string) Action                 { return Action{Kind: ActionRaise, Event: event} }
func Log(label, expr string) Action             { return Action{Kind: ActionLog, Label: label, Expr: expr} }
func Assign(location, expr string) Action        { return Action{Kind: ActionAssign, Location: location, Expr: expr} }
func Script(src string) Action                   { return Action{Kind: ActionScript, Src: src} }
func Cancel(sendID string) Action                { return Action{Kind: ActionCancel, SendID: sendID} }

func Send(event, target, delay string) Action {
	return Action{Kind: ActionSend, Event: event, Target: target, Delay: delay}
}

func If(branches ...IfBranch) Action {
	return Action{Kind: ActionIf, Branches: branches}
}

func Foreach(array, item, index string, body ...Action) Action {
	return Action{Kind: ActionForeach, Array: array, Item: item, Index: index, Body: body}
}
