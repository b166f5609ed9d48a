package production

import (
	"context"
	"log/slog"

	"github.com/comalice/scxml/internal/events"
)

// SessionMetadata identifies the session an event was published from.
type SessionMetadata struct {
	SessionID string
	Name      string
	StepCount uint64
}

// PublishedEvent bundles an event with its session metadata for publishing.
type PublishedEvent struct {
	Event    events.Event
	Metadata SessionMetadata
}

// Publisher is the event-publishing contract (kept from the teacher's
// ChannelPublisher-shaped usage).
type Publisher interface {
	Publish(ctx context.Context, event events.Event, metadata SessionMetadata) error
}

// ChannelPublisher is a stdlib-only implementation that forwards events to a
// Go channel. Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch chan<- PublishedEvent
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- PublishedEvent) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, event events.Event, metadata SessionMetadata) error {
	select {
	case p.ch <- PublishedEvent{Event: event, Metadata: metadata}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil // Non-blocking drop
	}
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}

// LoggingPublisher decorates a Publisher with structured slog output,
// generalizing the teacher's LoggingActionRunner decorator
// (internal/extensibility/actionrunner.go) from action logging to event
// publication logging.
type LoggingPublisher struct {
	next   Publisher
	logger *slog.Logger
}

// NewLoggingPublisher wraps next, logging every published event at Debug
// level before forwarding.
func NewLoggingPublisher(next Publisher, logger *slog.Logger) *LoggingPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPublisher{next: next, logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event events.Event, metadata SessionMetadata) error {
	p.logger.Debug("event published",
		slog.String("session_id", metadata.SessionID),
		slog.String("event", event.Name),
		slog.Int("kind", int(event.Kind)),
		slog.Uint64("step", metadata.StepCount),
	)
	if p.next == nil {
		return nil
	}
	return p.next.Publish(ctx, event, metadata)
}
