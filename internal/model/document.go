// Package model defines the parsed SCXML document tree (spec §3): State,
// Transition, Action and friends, plus DocumentBuilder for assembling one
// directly. Kept as a leaf package with no dependency on the root scxml
// package or any of the runtime components (internal/config, internal/
// selector, internal/exec, internal/invoke) so those components — and the
// root package itself — can all import it without an import cycle; the
// root package re-exports every type here as a type alias for a single
// public vocabulary (scxml.State, scxml.Document, ...).
package model

// StateKind enumerates the state flavors spec §3 requires (atomic,
// compound, parallel, final, and the two history pseudo-state kinds).
type StateKind int

const (
	Atomic StateKind = iota
	Compound
	Parallel
	Final
	HistoryShallow
	HistoryDeep
)

func (k StateKind) String() string {
	switch k {
	case Atomic:
		return "atomic"
	case Compound:
		return "compound"
	case Parallel:
		return "parallel"
	case Final:
		return "final"
	case HistoryShallow:
		return "history-shallow"
	case HistoryDeep:
		return "history-deep"
	default:
		return "unknown"
	}
}

// TransitionKind distinguishes internal transitions (whose exit set may be
// empty when all targets are proper descendants of the source) from
// external transitions (spec §3).
type TransitionKind int

const (
	External TransitionKind = iota
	InternalTransition
)

// ActionKind tags the executable-content variant (spec §9 "Deep
// inheritance over action nodes" re-architecture: a flat tagged union
// instead of a class hierarchy).
type ActionKind int

const (
	ActionRaise ActionKind = iota
	ActionSend
	ActionCancel
	ActionAssign
	ActionScript
	ActionLog
	ActionIf
	ActionForeach
)

// Action is one executable-content node. Exactly the fields relevant to
// Kind are populated; construction helpers (Raise, Send, ...) enforce this.
type Action struct {
	Kind ActionKind

	// raise / send event name
	Event     string
	EventExpr string

	// send
	TargetExpr string
	Target     string
	TypeExpr   string
	Type       string
	IDLocation string
	ID         string
	DelayExpr  string
	Delay      string
	Namelist   []string
	Params     []Param
	Content    *Content

	// cancel
	SendID     string
	SendIDExpr string

	// assign
	Location string
	Expr     string

	// script
	Src string

	// log
	Label string

	// if/elseif/else: each branch has an optional Cond (empty = else)
	// and its own action block.
	Branches []IfBranch

	// foreach
	Array string
	Item  string
	Index string
	Body  []Action
}

// IfBranch is one arm of an <if>/<elseif>/<else> chain.
type IfBranch struct {
	Cond    string // empty for the trailing <else>
	Actions []Action
}

// Param is a name/value(expr|location) pair used by <send> and invoke
// (spec §4.5 send, §4.9 invoke params).
type Param struct {
	Name     string
	Expr     string
	Location string
}

// Content represents <content> for send/invoke/done-data (spec §4.5).
type Content struct {
	Expr string
	Body any
}

// DataItem is one <data> element (spec §3 DataItem).
type DataItem struct {
	ID      string
	Expr    string
	Src     string
	Content any
}

// DoneData is the payload evaluated when a final state is entered,
// carried on done.state.{id} / done.invoke.{id} (spec §3, GLOSSARY).
type DoneData struct {
	Params  []Param
	Content *Content
}

// Invoke is one <invoke> descriptor (spec §4.9).
type Invoke struct {
	ID         string
	IDLocation string
	Type       string
	TypeExpr   string
	Src        string
	SrcExpr    string
	Content    *Content
	Namelist   []string
	Params     []Param
	Autoforward bool
	Finalize    []Action
}

// Transition is one outgoing edge of a State (spec §3 Transition).
type Transition struct {
	Source   *State   `json:"-"`
	Events   []string // space-separated descriptor tokens, already split
	Cond     string
	Targets  []string // state ids; empty == targetless
	Actions  []Action
	Kind     TransitionKind
	DocOrder int
}

// HasEvents reports whether this is an evented (vs. eventless) transition.
func (t *Transition) HasEvents() bool {
	return len(t.Events) > 0
}

// MatchesEvent reports whether name satisfies one of the transition's
// event descriptors (spec §3 prefix-match + `*` wildcard semantics).
func (t *Transition) MatchesEvent(name string) bool {
	for _, d := range t.Events {
		if matchesDescriptorToken(d, name) {
			return true
		}
	}
	return false
}

func matchesDescriptorToken(tok, name string) bool {
	if tok == "*" {
		return true
	}
	if tok == name {
		return true
	}
	return len(name) > len(tok) && name[:len(tok)] == tok && name[len(tok)] == '.'
}

// State is one node in the Document tree (spec §3 State).
type State struct {
	ID       string
	Kind     StateKind
	Children []*State
	Parent   *State `json:"-"`

	// EntryBlocks/ExitBlocks: ordered list of blocks, each an ordered
	// sequence of actions; a failing action aborts only its own block
	// (spec §3.8/3.9 block isolation).
	EntryBlocks [][]Action
	ExitBlocks  [][]Action

	Transitions []*Transition

	// Initial designator: either InitialState (a child id) or
	// InitialTransition (whose actions run between parent entry and
	// child entry, spec §3).
	InitialState      string
	InitialTransition *Transition

	Invokes  []*Invoke
	DoneData *DoneData
	Data     []DataItem

	// HistoryDefault is the history pseudo-state's own default
	// transition, taken when no recording exists (spec §4.8).
	HistoryDefault *Transition

	// DocOrder is assigned at Document construction time and used for
	// deterministic conflict-resolution tie-breaks (spec §9: prefer
	// integer document-order indices over string comparisons).
	DocOrder int

	// Path is the dot-joined ancestor chain from the document root to
	// this state, e.g. "root.a.b". Computed at Document construction.
	Path string
}

// IsCompoundLike reports whether the state can own a single active child
// (compound/final-bearing) as opposed to a parallel state, which owns all
// children simultaneously (invariants I1/I2).
func (s *State) IsCompoundLike() bool {
	return s.Kind == Compound
}

// IsAtomic reports leaf-ness (no children, not a history pseudo-state).
func (s *State) IsAtomic() bool {
	return s.Kind == Atomic || s.Kind == Final
}

// IsHistory reports either history kind.
func (s *State) IsHistory() bool {
	return s.Kind == HistoryShallow || s.Kind == HistoryDeep
}

// Document is the immutable, parsed SCXML tree (spec §3 "Document
// (immutable after load)"). Produced by an external parser or by
// DocumentBuilder.
type Document struct {
	Root     *State
	Initial  string // initial top-level state id
	ByID     map[string]*State
	Name     string
	Datamodel string // "ecmascript" (only supported model, spec §1 Non-goals)
	Script   []Action // top-level <script>, run once at load time (spec 4.7)
	Binding  string   // "early" | "late"
}

// FindState resolves a state by id.
func (d *Document) FindState(id string) (*State, bool) {
	s, ok := d.ByID[id]
	return s, ok
}
