package scxml

import "github.com/comalice/scxml/internal/model"

// DocumentBuilder and StateBuilder are aliases of internal/model's fluent
// builder types (see document.go for why the document model lives there).
// Every method on them (Compound, Parallel, Final, History, State,
// Transition, Entry, Exit, Data, Invoke, Script, Build, ...) is inherited
// unchanged since these are the same underlying types, not copies.
type (
	DocumentBuilder = model.DocumentBuilder
	StateBuilder    = model.StateBuilder
)

// NewDocumentBuilder starts a new document with the given root compound
// state id and its initial child.
func NewDocumentBuilder(rootID, initial string) *DocumentBuilder {
	return model.NewDocumentBuilder(rootID, initial)
}

// Action constructors — small, direct, matching spec §4.5 one-to-one.

func Raise(event string) Action          { return model.Raise(event) }
func Log(label, expr string) Action      { return model.Log(label, expr) }
func Assign(location, expr string) Action { return model.Assign(location, expr) }
func Script(src string) Action           { return model.Script(src) }
func Cancel(sendID string) Action        { return model.Cancel(sendID) }

func Send(event, target, delay string) Action {
	return model.Send(event, target, delay)
}

func If(branches ...IfBranch) Action {
	return model.If(branches...)
}

func Foreach(array, item, index string, body ...Action) Action {
	return model.Foreach(array, item, index, body...)
}
