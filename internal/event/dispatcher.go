package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v65/github"
)

// HandlerFunc is the pluggable business-logic boundary. It receives the
// verified payload and a client authenticated as the installation the event
// came from.
type HandlerFunc func(ctx context.Context, payload *Payload, client *github.Client) error

// HandlerError wraps a failure inside a handler, keeping it distinct from
// the authentication failures that precede dispatch.
type HandlerError struct {
	Event  string
	Action string
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s.%s failed: %v", e.Event, e.Action, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// handlerKey is the enumerated (event, action) pair handlers register under.
// Routing is an exact map lookup on this key — attacker-controlled header
// strings can only ever select from what was explicitly registered.
type handlerKey struct {
	event  string
	action string
}

// Dispatcher routes (eventType, action) pairs to at most one handler.
// Register all handlers at startup; the registry is not safe for concurrent
// mutation, only for concurrent Dispatch.
type Dispatcher struct {
	handlers map[handlerKey]HandlerFunc
	logger   *slog.Logger
}

// NewDispatcher returns an empty registry.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[handlerKey]HandlerFunc),
		logger:   logger,
	}
}

// Register binds fn to the exact (eventType, action) pair. Events with no
// action (e.g. "ping") register with an empty action.
func (d *Dispatcher) Register(eventType, action string, fn HandlerFunc) {
	d.handlers[handlerKey{event: eventType, action: action}] = fn
}

// Dispatch invokes the matching handler synchronously. An unmatched pair is
// a no-op success: the webhook is still acknowledged. Handler failures are
// wrapped in *HandlerError and never silently swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, payload *Payload, client *github.Client) (bool, error) {
	fn, ok := d.handlers[handlerKey{event: eventType, action: payload.Action}]
	if !ok {
		d.logger.Debug("no handler registered",
			"event", eventType,
			"action", payload.Action,
		)
		return false, nil
	}

	if err := fn(ctx, payload, client); err != nil {
		return true, &HandlerError{Event: eventType, Action: payload.Action, Err: err}
	}
	return true, nil
}
