package stream

import (
	"context"
	"errors"
)

// Kind tags an event.
type Kind string

// Lifecycle kinds.
const (
	KindStdout    Kind = "stdout"
	KindStderr    Kind = "stderr"
	KindComplete  Kind = "complete"
	KindError     Kind = "error"
	KindCancelled Kind = "cancelled"
)

// Content kinds.
const (
	KindThinkingStart Kind = "thinking_start"
	KindThinkingDelta Kind = "thinking_delta"
	KindTextDelta     Kind = "text_delta"
	KindBlockStop     Kind = "block_stop"
)

// LifecycleEvent reports process-level activity for a correlation id.
type LifecycleEvent struct {
	CorrelationID string `json:"process_id"`
	Kind          Kind   `json:"event_type"`
	Text          string `json:"data"`
}

// ContentEvent carries model output for a correlation id.
type ContentEvent struct {
	CorrelationID string `json:"process_id"`
	Kind          Kind   `json:"event_type"`
	Text          string `json:"text"`
}

// Command is an external command to run under a correlation id. Stdin is
// piped to the process when non-empty.
type Command struct {
	Name          string
	Args          []string
	Stdin         string
	CorrelationID string
}

// Launcher starts and cancels external commands.
type Launcher interface {
	// Start dispatches cmd and returns the confirmed correlation id.
	Start(ctx context.Context, cmd Command) (string, error)
	// Cancel asks the host to terminate the command. Unknown ids are not an
	// error.
	Cancel(ctx context.Context, correlationID string) error
}

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

// Events fans out events for all running commands to every subscriber.
type Events interface {
	OnLifecycle(fn func(LifecycleEvent)) Unsubscribe
	OnContent(fn func(ContentEvent)) Unsubscribe
}

var (
	// ErrCancelled is the failure reported when a session is cancelled.
	ErrCancelled = errors.New("review cancelled by user")
	// ErrDispatch wraps failures to start the external command.
	ErrDispatch = errors.New("failed to start AI command")
)
