package datamodel

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// GojaBridge is the default Bridge implementation (spec §6 "Default
// engine: an embeddable JS evaluator"): one goja.Runtime per session,
// never touched from more than one goroutine (the interpreter owns it
// exclusively, per spec §5's single-writer rule).
type GojaBridge struct {
	mu       sync.Mutex
	sessions map[string]*goja.Runtime
}

// NewGojaBridge constructs an empty, session-less bridge.
func NewGojaBridge() *GojaBridge {
	return &GojaBridge{sessions: make(map[string]*goja.Runtime)}
}

func (b *GojaBridge) vm(sessionID string) (*goja.Runtime, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	vm, ok := b.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("datamodel: no session %q", sessionID)
	}
	return vm, nil
}

// CreateSession implements Bridge.
func (b *GojaBridge) CreateSession(sessionID, name string, ioProcessors map[string]IOProcessor) error {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	if err := vm.Set("_sessionid", sessionID); err != nil {
		return err
	}
	if err := vm.Set("_name", name); err != nil {
		return err
	}
	procs := make(map[string]map[string]string, len(ioProcessors))
	for uri, p := range ioProcessors {
		procs[uri] = map[string]string{"location": p.Location}
	}
	if err := vm.Set("_ioprocessors", procs); err != nil {
		return err
	}
	if err := vm.Set("In", func(stateID string) bool { return false }); err != nil {
		return err
	}

	b.mu.Lock()
	b.sessions[sessionID] = vm
	b.mu.Unlock()
	return nil
}

// DestroySession implements Bridge. Idempotent.
func (b *GojaBridge) DestroySession(sessionID string) {
	b.mu.Lock()
	delete(b.sessions, sessionID)
	b.mu.Unlock()
}

// SetIn implements Bridge, rebinding the In() predicate against the
// current configuration closure.
func (b *GojaBridge) SetIn(sessionID string, isIn func(stateID string) bool) error {
	vm, err := b.vm(sessionID)
	if err != nil {
		return err
	}
	return vm.Set("In", func(stateID string) bool { return isIn(stateID) })
}

// SetEvent implements Bridge, installing `_event` with the fields spec
// §3/§4.1 require.
func (b *GojaBridge) SetEvent(sessionID string, event EventSnapshot) error {
	vm, err := b.vm(sessionID)
	if err != nil {
		return err
	}
	obj := map[string]any{
		"name":       event.Name,
		"type":       event.Type,
		"sendid":     event.SendID,
		"origin":     event.Origin,
		"origintype": event.OriginType,
		"invokeid":   event.InvokeID,
		"data":       event.Data,
	}
	return vm.Set("_event", obj)
}

// DeclareData implements Bridge.
func (b *GojaBridge) DeclareData(sessionID, id, expr string, content any) error {
	vm, err := b.vm(sessionID)
	if err != nil {
		return err
	}
	if expr != "" {
		v, err := vm.RunString(expr)
		if err != nil {
			return fmt.Errorf("data %q: %w", id, err)
		}
		return vm.Set(id, v.Export())
	}
	if content != nil {
		return vm.Set(id, content)
	}
	return vm.Set(id, goja.Undefined())
}

// EvaluateExpression implements Bridge.
func (b *GojaBridge) EvaluateExpression(sessionID, expr string) (any, error) {
	vm, err := b.vm(sessionID)
	if err != nil {
		return nil, err
	}
	v, err := vm.RunString(expr)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

// EvaluateCondition implements Bridge. On evaluation failure it returns
// (false, err); spec §4.1 makes raising error.execution the caller's job.
func (b *GojaBridge) EvaluateCondition(sessionID, expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	v, err := b.EvaluateExpression(sessionID, expr)
	if err != nil {
		return false, err
	}
	truthy, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not evaluate to boolean, got %T", expr, v)
	}
	return truthy, nil
}

// AssignLocation implements Bridge. Assigning to an undeclared leftmost
// identifier is an error (spec §4.1).
func (b *GojaBridge) AssignLocation(sessionID, location string, value any, isExpr bool) error {
	vm, err := b.vm(sessionID)
	if err != nil {
		return err
	}

	root := leftmostIdentifier(location)
	if root == "" {
		return fmt.Errorf("invalid location %q", location)
	}
	if _, err := vm.RunString(root); err != nil {
		return fmt.Errorf("assign to undeclared location %q: %w", location, err)
	}

	if isExpr {
		exprStr, _ := value.(string)
		v, err := vm.RunString(exprStr)
		if err != nil {
			return fmt.Errorf("assign %q: %w", location, err)
		}
		if err := vm.Set("__scxml_assign_tmp", v); err != nil {
			return err
		}
	} else {
		if err := vm.Set("__scxml_assign_tmp", value); err != nil {
			return err
		}
	}
	defer vm.GlobalObject().Delete("__scxml_assign_tmp")

	stmt := location + " = __scxml_assign_tmp;"
	if _, err := vm.RunString(stmt); err != nil {
		return fmt.Errorf("assign %q: %w", location, err)
	}
	return nil
}

// RunScript implements Bridge.
func (b *GojaBridge) RunScript(sessionID, src string) error {
	vm, err := b.vm(sessionID)
	if err != nil {
		return err
	}
	_, err = vm.RunString(src)
	return err
}

// Snapshot implements Bridge, returning every global own-property as its
// JSON-serialized form (best-effort; functions and symbols are skipped).
func (b *GojaBridge) Snapshot(sessionID string) (map[string]string, error) {
	vm, err := b.vm(sessionID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	global := vm.GlobalObject()
	for _, key := range global.Keys() {
		v := global.Get(key)
		if v == nil || goja.IsUndefined(v) {
			continue
		}
		data, err := json.Marshal(v.Export())
		if err != nil {
			continue
		}
		out[key] = string(data)
	}
	return out, nil
}

// leftmostIdentifier extracts the root identifier of a dotted/bracketed
// location expression, e.g. "a.b.c" -> "a", "a[0].b" -> "a".
func leftmostIdentifier(location string) string {
	for i, r := range location {
		if r == '.' || r == '[' {
			return location[:i]
		}
	}
	return location
}
