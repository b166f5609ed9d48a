package scxml

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/comalice/scxml/internal/config"
	"github.com/comalice/scxml/internal/datamodel"
	"github.com/comalice/scxml/internal/events"
	"github.com/comalice/scxml/internal/exec"
	"github.com/comalice/scxml/internal/invoke"
	"github.com/comalice/scxml/internal/registry"
	"github.com/comalice/scxml/internal/selector"
)

// HTTPSender is the subset of ioproc.BasicHTTP the session needs, kept as
// an interface so the root package doesn't import internal/ioproc directly
// (a concrete processor is wired in through WithHTTPProcessor).
type HTTPSender interface {
	Send(ctx context.Context, target, origin, eventName string, data map[string]any) error
}

// Session is an SCXML interpreter instance bound to one Document (spec §4.7
// "Interpreter Core" + the facade the rest of the component table hangs
// off). Modeled on the teacher's root-level Runtime/Machine type
// (statechart.go), generalized from a flat path-indexed machine to the
// full configuration/selector/exec pipeline SPEC_FULL.md requires.
type Session struct {
	id   string
	name string
	doc  *Document

	bridge    datamodel.Bridge
	cm        *config.Manager
	runner    *exec.Runner
	queues    *events.Queues
	scheduler *events.Scheduler
	invokes   *invoke.Manager
	registry  *registry.Registry
	logger    *slog.Logger
	http      HTTPSender

	parentSessionID string
	ioProcessors    map[string]datamodel.IOProcessor

	mu            sync.Mutex
	active        map[string]*State
	started       bool
	terminated    bool
	stepCount     uint64
	lastDocOrds   []int
	finalDoneData any

	spawner InvokeSpawner
}

// InvokeSpawner creates and runs a child session for an <invoke>, returning
// its lifecycle handle. Kept pluggable (spec §4.9): the default spawns a
// nested scxml.Session when Invoke.Type is "scxml" or empty; callers can
// register other invoke types (e.g. an external process) via
// WithInvokeSpawner.
type InvokeSpawner func(parent *Session, stateID string, inv *Invoke, invokeID string) (*SpawnedInvoke, error)

// SpawnedInvoke is the handle an InvokeSpawner hands back for a running
// child: a way to cancel it (spec §4.9 "exiting the invoking state cancels
// all its invocations") and, if the invoke type supports it, a way to
// forward an externally-received event into it (spec §4.9 autoforward).
// Forward may be nil for invoke types that don't accept forwarded events.
type SpawnedInvoke struct {
	Cancel   func()
	Forward  func(name string, data any)
	Snapshot func() (SessionSnapshot, error)
}

// Option configures a Session at construction time (functional-options
// pattern, matching the teacher's existing Runtime construction style).
type Option func(*Session)

// WithDatamodel overrides the default GojaBridge.
func WithDatamodel(b datamodel.Bridge) Option { return func(s *Session) { s.bridge = b } }

// WithSchedulerMode selects Threaded (per-send timer goroutine) or
// Cooperative (externally polled) delayed-send delivery (spec §5).
func WithSchedulerMode(mode events.Mode) Option {
	return func(s *Session) { s.scheduler = events.NewScheduler(mode) }
}

// WithLogger overrides the default slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.logger = l } }

// WithRegistry shares a Registry across sessions for #_parent/#_invokeID
// routing (spec §6).
func WithRegistry(r *registry.Registry) Option { return func(s *Session) { s.registry = r } }

// WithSessionID pins the session id instead of minting a uuid.
func WithSessionID(id string) Option { return func(s *Session) { s.id = id } }

// WithParentSession marks this as a child session invoked by parentID.
func WithParentSession(parentID string) Option {
	return func(s *Session) { s.parentSessionID = parentID }
}

// WithHTTPProcessor wires the optional BasicHTTP I/O processor for http(s)
// send targets.
func WithHTTPProcessor(h HTTPSender) Option { return func(s *Session) { s.http = h } }

// WithInvokeSpawner overrides the default nested-session invoke spawner.
func WithInvokeSpawner(sp InvokeSpawner) Option { return func(s *Session) { s.spawner = sp } }

// New constructs a Session for doc, validating it first.
func New(doc *Document, opts ...Option) (*Session, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	s := &Session{
		doc:     doc,
		name:    doc.Name,
		queues:  events.NewQueues(),
		invokes: invoke.New(),
		logger:  slog.Default(),
		active:  make(map[string]*State),
		spawner: defaultInvokeSpawner,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.bridge == nil {
		s.bridge = datamodel.NewGojaBridge()
	}
	if s.scheduler == nil {
		s.scheduler = events.NewScheduler(events.Threaded)
	}
	s.cm = config.New(doc)
	s.runner = exec.New(s.bridge, s)

	ioProcs := map[string]datamodel.IOProcessor{
		"http://www.w3.org/TR/scxml/#SCXMLEventProcessor": {Location: "#_scxml_" + s.id},
	}
	if s.http != nil {
		ioProcs["http://www.w3.org/TR/scxml/#BasicHTTPEventProcessor"] = datamodel.IOProcessor{}
	}
	s.ioProcessors = ioProcs

	if err := s.bridge.CreateSession(s.id, s.name, ioProcs); err != nil {
		return nil, fmt.Errorf("datamodel create session: %w", err)
	}

	if s.registry != nil {
		s.registry.Register(s.id, &registryHandle{session: s}, s.parentSessionID)
	}

	return s, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Document returns the bound document.
func (s *Session) Document() *Document { return s.doc }

// registryHandle adapts Session to registry.Handle without colliding with
// exec.Host's differently-shaped Send/Raise methods.
type registryHandle struct{ session *Session }

func (h *registryHandle) Deliver(name string, data any, origin, originType, invokeID string) {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	e := events.NewExternal(name, data)
	e.Origin = origin
	e.OriginType = originType
	e.InvokeID = invokeID
	h.session.queues.Send(e)
}

// schedulerTarget adapts Session to events.Target for delayed sends.
type schedulerTarget struct{ session *Session }

func (t *schedulerTarget) Deliver(e events.Event) {
	t.session.mu.Lock()
	defer t.session.mu.Unlock()
	t.session.queues.Send(e)
}

// SendExternal enqueues an externally-originated event (spec §6 "External
// interfaces"), e.g. from a host application or another thread.
func (s *Session) SendExternal(name string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues.Send(events.NewExternal(name, data))
}

// --- exec.Host -------------------------------------------------------

// Raise implements exec.Host: push an internal event (spec §4.5 <raise>).
func (s *Session) Raise(name string, data any) {
	s.queues.Raise(events.New(name, data))
}

// Cancel implements exec.Host: cancel a pending delayed send.
func (s *Session) Cancel(sendID string) {
	s.scheduler.Cancel(s.id, sendID)
}

// Log implements exec.Host: message is the slog message, with the label (if
// any) and the session id as attributes.
func (s *Session) Log(label, message string) {
	if label != "" {
		s.logger.Info(message, slog.String("label", label), slog.String("session_id", s.id))
		return
	}
	s.logger.Info(message, slog.String("session_id", s.id))
}

// RaiseError implements exec.Host (spec §7: error taxonomy as internal
// events, not Go panics).
func (s *Session) RaiseError(errType string, cause error) {
	s.logger.Warn("execution error", slog.String("type", errType), slog.String("session_id", s.id), slog.Any("err", cause))
	s.queues.Raise(events.New(errType, map[string]any{"message": cause.Error()}))
}

// Send implements exec.Host: route a resolved <send> to its target.
func (s *Session) Send(req exec.SendRequest) error {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	if req.IDLocation != "" {
		_ = s.bridge.AssignLocation(s.id, req.IDLocation, id, false)
	}

	switch {
	case req.Target == "" || req.Target == "#_internal":
		ev := events.NewExternal(req.Event, req.Data)
		ev.Origin = "#_internal"
		if req.Delay > 0 {
			s.scheduler.Schedule(s.id, &schedulerTarget{session: s}, ev, req.Delay, id)
			return nil
		}
		s.queues.Send(ev)
		return nil

	case req.Target == "#_parent":
		if s.registry == nil || s.parentSessionID == "" {
			return fmt.Errorf("send #_parent: no parent session registered")
		}
		return s.deliverRemote(s.parentSessionID, req, id)

	case strings.HasPrefix(req.Target, "#_scxml_"):
		sessionID := strings.TrimPrefix(req.Target, "#_scxml_")
		if s.registry == nil {
			return fmt.Errorf("send %s: no registry configured", req.Target)
		}
		return s.deliverRemote(sessionID, req, id)

	case strings.HasPrefix(req.Target, "#_"):
		invokeID := strings.TrimPrefix(req.Target, "#_")
		if s.registry == nil {
			return fmt.Errorf("send %s: no registry configured", req.Target)
		}
		return s.deliverRemote(invokeID, req, id)

	case strings.HasPrefix(req.Target, "http://") || strings.HasPrefix(req.Target, "https://"):
		if s.http == nil {
			return fmt.Errorf("send %s: no http io processor configured", req.Target)
		}
		return s.http.Send(context.Background(), req.Target, s.id, req.Event, req.Data)

	default:
		if s.registry == nil {
			return fmt.Errorf("send %s: no registry configured", req.Target)
		}
		return s.deliverRemote(req.Target, req, id)
	}
}

func (s *Session) deliverRemote(targetSessionID string, req exec.SendRequest, sendID string) error {
	if req.Delay > 0 {
		s.scheduler.Schedule(s.id, remoteTarget{registry: s.registry, sessionID: targetSessionID, origin: s.id}, events.NewExternal(req.Event, req.Data), req.Delay, sendID)
		return nil
	}
	return s.registry.Deliver(targetSessionID, req.Event, req.Data, s.id, "scxml", "")
}

type remoteTarget struct {
	registry  *registry.Registry
	sessionID string
	origin    string
}

func (t remoteTarget) Deliver(e events.Event) {
	_ = t.registry.Deliver(t.sessionID, e.Name, e.Data, t.origin, "scxml", "")
}
