package session

import (
	"context"

	"github.com/niels/mock-api-server/pkg/editor"
)

// Event is something the session reacts to on its event loop
type Event interface {
	apply(ctx context.Context, s *Session)
}

// CommandEvent runs a command. The outcome is sent on Result when it is set.
type CommandEvent struct {
	ID     string
	Result chan<- error
}

func (e CommandEvent) apply(ctx context.Context, s *Session) {
	err := s.ExecuteCommand(ctx, e.ID)
	if e.Result != nil {
		e.Result <- err
	}
}

// ActiveEditorChangedEvent signals that focus moved to another document
type ActiveEditorChangedEvent struct{}

func (ActiveEditorChangedEvent) apply(_ context.Context, s *Session) {
	s.ActiveEditorChanged()
}

// DocumentChangedEvent signals that a document was modified
type DocumentChangedEvent struct {
	Document editor.Document
}

func (e DocumentChangedEvent) apply(ctx context.Context, s *Session) {
	s.DocumentChanged(ctx, e.Document)
}

// FuncEvent runs a function on the event loop
type FuncEvent func(ctx context.Context, s *Session)

func (f FuncEvent) apply(ctx context.Context, s *Session) {
	f(ctx, s)
}
