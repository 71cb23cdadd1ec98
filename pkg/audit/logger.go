package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type logger struct {
	storage            Storage
	requestIDExtractor func(context.Context) (string, bool)
}

// Option configures Logger behavior during initialization.
type Option func(*logger)

// WithRequestIDExtractor teaches the logger to pull the request ID from
// context so events can be correlated with request logs.
func WithRequestIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *logger) {
		l.requestIDExtractor = fn
	}
}

// NewLogger creates an audit logger backed by the given storage.
// Panics on a nil storage: running admin mutations without an audit trail
// is a misconfiguration that must not survive startup.
func NewLogger(storage Storage, opts ...Option) Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &logger{storage: storage}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *logger) Log(ctx context.Context, actorID, action string, opts ...EventOption) error {
	event := l.newEvent(ctx, actorID, action)
	event.Result = ResultSuccess

	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, event)
}

func (l *logger) LogError(ctx context.Context, actorID, action string, actionErr error, opts ...EventOption) error {
	event := l.newEvent(ctx, actorID, action)
	event.Result = ResultFailure
	if actionErr != nil {
		event.Error = actionErr.Error()
	}

	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, event)
}

func (l *logger) newEvent(ctx context.Context, actorID, action string) Event {
	event := Event{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	if l.requestIDExtractor != nil {
		if requestID, ok := l.requestIDExtractor(ctx); ok {
			event.RequestID = requestID
		}
	}
	return event
}

// WithTarget sets the principal the action was performed on.
func WithTarget(targetID string) EventOption {
	return func(e *Event) {
		e.TargetID = targetID
	}
}

// WithResource sets the resource type and ID.
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

// WithReason records the human-supplied reason for a grant or revocation.
func WithReason(reason string) EventOption {
	return func(e *Event) {
		e.Reason = reason
	}
}

// WithMetadata adds a metadata entry to the event.
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}
