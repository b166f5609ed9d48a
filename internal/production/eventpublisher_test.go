// Tests for ChannelPublisher delivery and LoggingPublisher decoration.
package production

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/comalice/scxml/internal/events"
)

func TestChannelPublisher_Delivery(t *testing.T) {
	ch := make(chan PublishedEvent, 10)
	p := NewChannelPublisher(ch)

	event := events.New("test-event", "data")
	meta := SessionMetadata{SessionID: "test-session", Name: "s1 -> s2", StepCount: 3}

	ctx := context.Background()
	err := p.Publish(ctx, event, meta)
	if err != nil {
		t.Errorf("Publish failed: %v", err)
	}

	select {
	case got := <-ch:
		if got.Event.Name != event.Name {
			t.Errorf("Event name mismatch: got %q, want %q", got.Event.Name, event.Name)
		}
		if got.Metadata.SessionID != meta.SessionID {
			t.Errorf("Metadata SessionID mismatch: got %q, want %q", got.Metadata.SessionID, meta.SessionID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No event delivered")
	}
}

func TestChannelPublisher_BackpressureDrop(t *testing.T) {
	ch := make(chan PublishedEvent, 1)
	p := NewChannelPublisher(ch)
	ch <- PublishedEvent{} // Fill buffer

	event := events.New("drop-test", nil)
	meta := SessionMetadata{SessionID: "test"}

	ctx := context.Background()
	err := p.Publish(ctx, event, meta)
	if err != nil {
		t.Errorf("Publish on full channel failed: %v", err)
	}
	// Should drop silently
}

func TestChannelPublisher_Close(t *testing.T) {
	ch := make(chan PublishedEvent, 1)
	p := NewChannelPublisher(ch)

	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestLoggingPublisher_LogsAndForwards(t *testing.T) {
	ch := make(chan PublishedEvent, 10)
	inner := NewChannelPublisher(ch)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewLoggingPublisher(inner, logger)

	event := events.New("TRANSITION", nil)
	meta := SessionMetadata{SessionID: "integration-test", Name: "green -> yellow"}

	ctx := context.Background()
	if err := p.Publish(ctx, event, meta); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-ch:
		if got.Event.Name != "TRANSITION" {
			t.Errorf("event name mismatch: got %q", got.Event.Name)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No published event received")
	}

	if buf.Len() == 0 {
		t.Error("expected logging output, got none")
	}
}
