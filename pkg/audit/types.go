package audit

import (
	"context"
	"fmt"
	"time"
)

// Result represents the outcome of an audited action.
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Event is a single audit trail entry.
type Event struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	TargetID   string         `json:"target_id,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource,omitempty"`
	ResourceID string         `json:"resource_id,omitempty"`
	Result     Result         `json:"result"`
	Error      string         `json:"error,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Validate checks that the event carries the required fields.
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.ActorID == "" {
		return fmt.Errorf("%w: actor is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies optional fields to an Event during creation.
type EventOption func(*Event)

// Logger records audit events.
type Logger interface {
	// Log records a successful action.
	Log(ctx context.Context, actorID, action string, opts ...EventOption) error

	// LogError records a failed action together with the failure cause.
	LogError(ctx context.Context, actorID, action string, err error, opts ...EventOption) error
}

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
}

// Criteria narrows audit queries for the back-office event browser.
type Criteria struct {
	ActorID  string
	TargetID string
	Action   string
	Resource string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}
