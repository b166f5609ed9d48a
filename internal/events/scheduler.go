package events

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mode selects the deployment variant a Scheduler compiles to (spec §5:
// "The design MUST compile to either at the factory boundary").
type Mode int

const (
	// Threaded runs a dedicated timer goroutine per pending send.
	Threaded Mode = iota
	// Cooperative requires the caller to invoke Poll between microsteps;
	// no timer goroutine exists, matching single-threaded host runtimes
	// (spec §5 deployment B).
	Cooperative
)

// Target is anything that can accept a delivered Event; Session satisfies
// it via its external-queue Deliver method. Kept as an interface here so
// the scheduler package has no dependency on the session package.
type Target interface {
	Deliver(Event)
}

type pending struct {
	sendID    string
	sessionID string
	target    Target
	event     Event
	fireAt    time.Time
	seq       uint64
	timer     *time.Timer // only set in Threaded mode
}

// Scheduler stores time-ordered delayed sends keyed by sendid (spec §4.3).
// Its store is shared with the timer worker (Threaded mode) and MUST be
// protected by a lock (spec §5); sync.RWMutex below satisfies that.
type Scheduler struct {
	mode    Mode
	mu      sync.RWMutex
	byID    map[string]*pending // sendID -> pending
	bySess  map[string]map[string]*pending
	seq     uint64
}

// NewScheduler constructs a Scheduler in the given deployment mode.
func NewScheduler(mode Mode) *Scheduler {
	return &Scheduler{
		mode:   mode,
		byID:   make(map[string]*pending),
		bySess: make(map[string]map[string]*pending),
	}
}

// Schedule stores a delayed send and, in Threaded mode, arms a timer.
// Returns the sendid (generated via uuid when the caller didn't supply
// one through idlocation).
func (s *Scheduler) Schedule(sessionID string, target Target, event Event, delay time.Duration, sendID string) string {
	if sendID == "" {
		sendID = uuid.NewString()
	}
	s.mu.Lock()
	s.seq++
	p := &pending{
		sendID:    sendID,
		sessionID: sessionID,
		target:    target,
		event:     event,
		fireAt:    time.Now().Add(delay),
		seq:       s.seq,
	}
	s.byID[sendID] = p
	if s.bySess[sessionID] == nil {
		s.bySess[sessionID] = make(map[string]*pending)
	}
	s.bySess[sessionID][sendID] = p
	mode := s.mode
	s.mu.Unlock()

	if mode == Threaded {
		p.timer = time.AfterFunc(delay, func() { s.fire(p) })
	}
	return sendID
}

func (s *Scheduler) fire(p *pending) {
	s.mu.Lock()
	// Already cancelled between timer fire and lock acquisition.
	if _, ok := s.byID[p.sendID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byID, p.sendID)
	if m := s.bySess[p.sessionID]; m != nil {
		delete(m, p.sendID)
	}
	s.mu.Unlock()
	p.target.Deliver(p.event)
}

// Cancel removes a pending send if present; a no-op otherwise (spec §4.3,
// idempotent per property P9). Session-scoped: a sendid from a different
// session cannot be cancelled.
func (s *Scheduler) Cancel(sessionID, sendID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[sendID]
	if !ok || p.sessionID != sessionID {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	delete(s.byID, sendID)
	if m := s.bySess[sessionID]; m != nil {
		delete(m, sendID)
	}
}

// CancelForSession cancels every pending send belonging to sessionID
// (invoked on session termination, spec §4.3/§5).
func (s *Scheduler) CancelForSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sendID, p := range s.bySess[sessionID] {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(s.byID, sendID)
		delete(s.bySess[sessionID], sendID)
	}
	delete(s.bySess, sessionID)
}

// Count returns the number of pending sends for a session (used by
// property P10, scheduledCount(session)==0 after termination).
func (s *Scheduler) Count(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bySess[sessionID])
}

// Poll delivers every send whose fireAt has passed, in execution-time
// order with sequence-number tie-breaking (spec §5 "simultaneous fires
// preserve insertion order"). Only meaningful in Cooperative mode; called
// by the interpreter loop between microsteps.
func (s *Scheduler) Poll(now time.Time) {
	s.mu.Lock()
	var due []*pending
	for _, p := range s.byID {
		if !p.fireAt.After(now) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].fireAt.Equal(due[j].fireAt) {
			return due[i].seq < due[j].seq
		}
		return due[i].fireAt.Before(due[j].fireAt)
	})
	for _, p := range due {
		delete(s.byID, p.sendID)
		if m := s.bySess[p.sessionID]; m != nil {
			delete(m, p.sendID)
		}
	}
	s.mu.Unlock()

	for _, p := range due {
		p.target.Deliver(p.event)
	}
}
