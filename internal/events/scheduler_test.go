package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	received chan Event
}

func newRecordingTarget() *recordingTarget {
	return &recordingTarget{received: make(chan Event, 16)}
}

func (r *recordingTarget) Deliver(e Event) {
	r.received <- e
}

func TestSchedulerCancelIdempotent(t *testing.T) {
	s := NewScheduler(Cooperative)
	target := newRecordingTarget()
	id := s.Schedule("sess1", target, New("late", nil), time.Hour, "")

	s.Cancel("sess1", id)
	s.Cancel("sess1", id) // property P9: cancel twice == cancel once

	require.Equal(t, 0, s.Count("sess1"))
}

func TestSchedulerCancelWrongSessionIsNoop(t *testing.T) {
	s := NewScheduler(Cooperative)
	target := newRecordingTarget()
	id := s.Schedule("sess1", target, New("late", nil), time.Hour, "s1")

	s.Cancel("sess2", id)
	require.Equal(t, 1, s.Count("sess1"))
}

func TestSchedulerCooperativePollDeliversDueSends(t *testing.T) {
	s := NewScheduler(Cooperative)
	target := newRecordingTarget()
	s.Schedule("sess1", target, New("fire-me", nil), -time.Millisecond, "")

	s.Poll(time.Now())

	select {
	case e := <-target.received:
		require.Equal(t, "fire-me", e.Name)
	default:
		t.Fatal("expected delivery")
	}
	require.Equal(t, 0, s.Count("sess1"))
}

func TestSchedulerCancelForSession(t *testing.T) {
	s := NewScheduler(Cooperative)
	target := newRecordingTarget()
	s.Schedule("sess1", target, New("a", nil), time.Hour, "")
	s.Schedule("sess1", target, New("b", nil), time.Hour, "")
	s.Schedule("sess2", target, New("c", nil), time.Hour, "")

	s.CancelForSession("sess1")

	require.Equal(t, 0, s.Count("sess1"))
	require.Equal(t, 1, s.Count("sess2"))
}

func TestSchedulerThreadedDelivers(t *testing.T) {
	s := NewScheduler(Threaded)
	target := newRecordingTarget()
	s.Schedule("sess1", target, New("hi", nil), 5*time.Millisecond, "")

	select {
	case e := <-target.received:
		require.Equal(t, "hi", e.Name)
	case <-time.After(time.Second):
		t.Fatal("threaded scheduler did not deliver")
	}
}
