package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is a session's position in its lifecycle.
type State int32

const (
	StateStarting State = iota
	StateOpen
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateOpen:
		return "open"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s >= StateCompleted
}

// Callbacks receive a session's progress. OnComplete or OnError is called
// exactly once; the others may be nil.
type Callbacks struct {
	OnThinkingStart func()
	// OnDelta receives thinking_delta and text_delta text as it arrives.
	OnDelta     func(kind Kind, text string)
	OnBlockStop func()
	OnComplete  func(output string)
	OnError     func(err error)
}

// Session follows one external invocation from dispatch to a terminal
// outcome. Events for a session are expected on a single logical sequence
// (Bus guarantees this); Cancel may race with them and the finalize guard
// makes that benign. A session is single-use.
type Session struct {
	launcher Launcher
	events   Events
	cmd      Command
	cb       Callbacks
	id       string

	state     atomic.Int32
	started   atomic.Bool
	finalized atomic.Bool

	output      strings.Builder
	diagnostics strings.Builder

	unsubLifecycle Unsubscribe
	unsubContent   Unsubscribe
}

// NewSession prepares a session for cmd. When cmd has no correlation id a
// new UUID is assigned.
func NewSession(launcher Launcher, events Events, cmd Command, cb Callbacks) *Session {
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.NewString()
	}
	return &Session{
		launcher: launcher,
		events:   events,
		cmd:      cmd,
		cb:       cb,
		id:       cmd.CorrelationID,
	}
}

// ID returns the correlation id the session filters on.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return State(s.state.Load()) }

// Start subscribes to both event classes and dispatches the command. If
// dispatch fails the session moves straight to failed: OnError fires and the
// error is also returned.
func (s *Session) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("session %s already started", s.id)
	}
	if s.finalized.Load() {
		return ErrCancelled
	}

	s.unsubLifecycle = s.events.OnLifecycle(s.handleLifecycle)
	s.unsubContent = s.events.OnContent(s.handleContent)

	if _, err := s.launcher.Start(ctx, s.cmd); err != nil {
		err = fmt.Errorf("%w %s: %w", ErrDispatch, s.cmd.Name, err)
		s.finalize(StateFailed, "", err)
		return err
	}

	s.state.CompareAndSwap(int32(StateStarting), int32(StateOpen))
	return nil
}

// Cancel asks the host to stop the process and finalizes the session as
// cancelled. A failing cancel request is ignored: the session stops
// observing either way.
func (s *Session) Cancel(ctx context.Context) {
	if s.finalized.Load() {
		return
	}
	_ = s.launcher.Cancel(ctx, s.id)
	s.finalize(StateCancelled, "", ErrCancelled)
}

// Output returns the text accumulated so far.
func (s *Session) Output() string { return s.output.String() }

func (s *Session) handleContent(ev ContentEvent) {
	if ev.CorrelationID != s.id || s.finalized.Load() {
		return
	}
	switch ev.Kind {
	case KindThinkingStart:
		if s.cb.OnThinkingStart != nil {
			s.cb.OnThinkingStart()
		}
	case KindThinkingDelta, KindTextDelta:
		s.output.WriteString(ev.Text)
		if s.cb.OnDelta != nil {
			s.cb.OnDelta(ev.Kind, ev.Text)
		}
	case KindBlockStop:
		if s.cb.OnBlockStop != nil {
			s.cb.OnBlockStop()
		}
	}
}

func (s *Session) handleLifecycle(ev LifecycleEvent) {
	if ev.CorrelationID != s.id || s.finalized.Load() {
		return
	}
	switch ev.Kind {
	case KindStdout:
	case KindStderr:
		s.diagnostics.WriteString(ev.Text)
		s.diagnostics.WriteString("\n")
	case KindComplete:
		s.finalize(StateCompleted, s.output.String(), nil)
	case KindError:
		s.finalize(StateFailed, "", errors.New(s.failureMessage(ev.Text)))
	case KindCancelled:
		s.finalize(StateCancelled, "", ErrCancelled)
	}
}

// failureMessage prefers the event text, then captured stderr, then output.
func (s *Session) failureMessage(msg string) string {
	if msg == "" {
		msg = "AI process failed"
	}
	if d := strings.TrimSpace(s.diagnostics.String()); d != "" {
		return msg + "\n\nStderr:\n" + d
	}
	if o := strings.TrimSpace(s.output.String()); o != "" {
		return msg + "\n\nOutput:\n" + o
	}
	return msg
}

// finalize runs at most once: it records the terminal state, tears down both
// subscriptions and invokes a single outcome callback.
func (s *Session) finalize(state State, output string, err error) {
	if !s.finalized.CompareAndSwap(false, true) {
		return
	}
	s.state.Store(int32(state))

	if s.unsubLifecycle != nil {
		s.unsubLifecycle()
	}
	if s.unsubContent != nil {
		s.unsubContent()
	}

	if err != nil {
		if s.cb.OnError != nil {
			s.cb.OnError(err)
		}
		return
	}
	if s.cb.OnComplete != nil {
		s.cb.OnComplete(output)
	}
}
