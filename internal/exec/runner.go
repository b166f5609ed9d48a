package exec

import (
	"fmt"
	"time"

	model "github.com/comalice/scxml/internal/model"
	"github.com/comalice/scxml/internal/datamodel"
)

// SendRequest is a fully-resolved <send> (spec §4.5): every expr has
// already been evaluated against the session's datamodel.
type SendRequest struct {
	ID         string
	IDLocation string
	Event      string
	Target     string
	Type       string
	Delay      time.Duration
	Data       map[string]any
}

// Host is the side-effecting surface exec needs from its caller (the
// interpreter core): raising internal events, dispatching sends, canceling
// scheduled sends, and emitting log lines. Kept as a narrow interface so
// this package never imports internal/events or the root scxml package
// (spec §4.5 is pure content interpretation; delivery is the host's job).
type Host interface {
	Raise(eventName string, data any)
	Send(req SendRequest) error
	Cancel(sendID string)
	Log(label, message string)
	// RaiseError raises error.execution/error.communication per spec §7,
	// with the offending action's context folded into errType.
	RaiseError(errType string, cause error)
}

// Runner executes Action blocks against a datamodel.Bridge, matching spec
// §4.5's action-by-action semantics one-to-one (flat tagged-union dispatch
// instead of a class hierarchy, spec §9).
type Runner struct {
	bridge datamodel.Bridge
	host   Host
}

// New constructs a Runner.
func New(bridge datamodel.Bridge, host Host) *Runner {
	return &Runner{bridge: bridge, host: host}
}

// RunBlock executes actions in order. A single action failing aborts only
// this block (spec §3.8/3.9 block isolation) — the caller is responsible
// for invoking RunBlock once per independently-failing block.
func (r *Runner) RunBlock(sessionID string, actions []model.Action) {
	for _, a := range actions {
		if err := r.run(sessionID, a); err != nil {
			r.host.RaiseError("error.execution", err)
			return
		}
	}
}

func (r *Runner) run(sessionID string, a model.Action) error {
	switch a.Kind {
	case model.ActionRaise:
		r.host.Raise(a.Event, nil)
		return nil

	case model.ActionSend:
		return r.runSend(sessionID, a)

	case model.ActionCancel:
		id := a.SendID
		if id == "" && a.SendIDExpr != "" {
			v, err := r.bridge.EvaluateExpression(sessionID, a.SendIDExpr)
			if err != nil {
				return fmt.Errorf("cancel sendidexpr: %w", err)
			}
			id = fmt.Sprint(v)
		}
		r.host.Cancel(id)
		return nil

	case model.ActionAssign:
		return r.bridge.AssignLocation(sessionID, a.Location, a.Expr, true)

	case model.ActionScript:
		return r.bridge.RunScript(sessionID, a.Src)

	case model.ActionLog:
		var msg string
		if a.Expr != "" {
			v, err := r.bridge.EvaluateExpression(sessionID, a.Expr)
			if err != nil {
				return fmt.Errorf("log expr: %w", err)
			}
			msg = fmt.Sprint(v)
		}
		r.host.Log(a.Label, msg)
		return nil

	case model.ActionIf:
		for _, branch := range a.Branches {
			if branch.Cond == "" {
				r.RunBlock(sessionID, branch.Actions)
				return nil
			}
			ok, err := r.bridge.EvaluateCondition(sessionID, branch.Cond)
			if err != nil {
				return fmt.Errorf("if cond: %w", err)
			}
			if ok {
				r.RunBlock(sessionID, branch.Actions)
				return nil
			}
		}
		return nil

	case model.ActionForeach:
		return r.runForeach(sessionID, a)

	default:
		return fmt.Errorf("exec: unknown action kind %v", a.Kind)
	}
}

func (r *Runner) runForeach(sessionID string, a model.Action) error {
	v, err := r.bridge.EvaluateExpression(sessionID, a.Array)
	if err != nil {
		return fmt.Errorf("foreach array: %w", err)
	}
	items, ok := v.([]any)
	if !ok {
		// Non-array values still declare the item variable once with an
		// empty body run, matching spec's "declare item var even on
		// empty/invalid arrays" edge case (P8).
		if err := r.bridge.DeclareData(sessionID, a.Item, "", nil); err != nil {
			return err
		}
		return fmt.Errorf("foreach: array expression %q is not an array", a.Array)
	}
	if len(items) == 0 {
		return r.bridge.DeclareData(sessionID, a.Item, "", nil)
	}
	for i, item := range items {
		if err := r.bridge.DeclareData(sessionID, a.Item, "", item); err != nil {
			return err
		}
		if a.Index != "" {
			if err := r.bridge.DeclareData(sessionID, a.Index, "", i); err != nil {
				return err
			}
		}
		r.RunBlock(sessionID, a.Body)
	}
	return nil
}

func (r *Runner) runSend(sessionID string, a model.Action) error {
	event := a.Event
	if event == "" && a.EventExpr != "" {
		v, err := r.bridge.EvaluateExpression(sessionID, a.EventExpr)
		if err != nil {
			return fmt.Errorf("send eventexpr: %w", err)
		}
		event = fmt.Sprint(v)
	}

	target := a.Target
	if target == "" && a.TargetExpr != "" {
		v, err := r.bridge.EvaluateExpression(sessionID, a.TargetExpr)
		if err != nil {
			return fmt.Errorf("send targetexpr: %w", err)
		}
		target = fmt.Sprint(v)
	}

	sendType := a.Type
	if sendType == "" && a.TypeExpr != "" {
		v, err := r.bridge.EvaluateExpression(sessionID, a.TypeExpr)
		if err != nil {
			return fmt.Errorf("send typeexpr: %w", err)
		}
		sendType = fmt.Sprint(v)
	}

	delay := time.Duration(0)
	delayStr := a.Delay
	if delayStr == "" && a.DelayExpr != "" {
		v, err := r.bridge.EvaluateExpression(sessionID, a.DelayExpr)
		if err != nil {
			return fmt.Errorf("send delayexpr: %w", err)
		}
		delayStr = fmt.Sprint(v)
	}
	if delayStr != "" {
		d, err := time.ParseDuration(delayStr)
		if err != nil {
			return fmt.Errorf("send delay %q: %w", delayStr, err)
		}
		delay = d
	}

	data := make(map[string]any)
	for _, name := range a.Namelist {
		v, err := r.bridge.EvaluateExpression(sessionID, name)
		if err != nil {
			return fmt.Errorf("send namelist %q: %w", name, err)
		}
		data[name] = v
	}
	for _, p := range a.Params {
		if p.Expr != "" {
			v, err := r.bridge.EvaluateExpression(sessionID, p.Expr)
			if err != nil {
				return fmt.Errorf("send param %q: %w", p.Name, err)
			}
			addParam(data, p.Name, v)
			continue
		}
		if p.Location != "" {
			v, err := r.bridge.EvaluateExpression(sessionID, p.Location)
			if err != nil {
				return fmt.Errorf("send param %q: %w", p.Name, err)
			}
			addParam(data, p.Name, v)
		}
	}
	if a.Content != nil {
		if a.Content.Expr != "" {
			v, err := r.bridge.EvaluateExpression(sessionID, a.Content.Expr)
			if err != nil {
				return fmt.Errorf("send content: %w", err)
			}
			data["__content"] = v
		} else if a.Content.Body != nil {
			data["__content"] = a.Content.Body
		}
	}

	return r.host.Send(SendRequest{
		ID:         a.ID,
		IDLocation: a.IDLocation,
		Event:      event,
		Target:     target,
		Type:       sendType,
		Delay:      delay,
		Data:       data,
	})
}

// addParam accumulates a <param>'s value under name, preserving duplicates
// as a list instead of letting the last one silently win (spec §4.5 "values
// for repeated param names are preserved as a list").
func addParam(data map[string]any, name string, value any) {
	existing, ok := data[name]
	if !ok {
		data[name] = value
		return
	}
	if list, ok := existing.([]any); ok {
		data[name] = append(list, value)
		return
	}
	data[name] = []any{existing, value}
}
