// Package session wires editor commands and notifications to the mock
// server, the file store and the status indicator.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/niels/mock-api-server/pkg/editor"
	"github.com/niels/mock-api-server/pkg/memfs"
	"github.com/niels/mock-api-server/pkg/routes"
	"github.com/niels/mock-api-server/pkg/server"
	"github.com/niels/mock-api-server/pkg/status"
	"github.com/rs/zerolog"
)

// Command IDs
const (
	CommandStart = "mockApiServer.start"
	CommandStop  = "mockApiServer.stop"
)

// Messages shown to the user
const (
	MessageInvalidJSON = "Invalid JSON file"
	MessageStopped     = "Mock API Server stopped."
	MessageNoDocument  = "Open a JSON file to start the Mock API Server."
)

// Common errors
var (
	ErrNoDocument      = errors.New("no active document")
	ErrNotJSONDocument = errors.New("active document is not a JSON document")
	ErrInvalidJSON     = errors.New("invalid JSON file")
	ErrUnknownCommand  = errors.New("unknown command")
)

// Options configures a Session
type Options struct {
	Logger zerolog.Logger
	// RestartOnSave starts the server again when the served document changes
	RestartOnSave bool
	// StopTimeout bounds the final stop when the event loop exits
	StopTimeout time.Duration
}

// Snapshot is the observable state of a Session
type Snapshot struct {
	Running    bool
	ActiveFile string
	Instance   *server.Instance
}

// Session is the process wide state of the extension: the file store, the
// server and the name of the document last served.
type Session struct {
	host      editor.Host
	store     *memfs.FS
	manager   *server.Manager
	indicator *status.Indicator
	opts      Options
	logger    zerolog.Logger

	mu         sync.Mutex
	activeFile string
}

// New creates a new Session
func New(host editor.Host, store *memfs.FS, manager *server.Manager, indicator *status.Indicator, opts Options) *Session {
	if opts.StopTimeout == 0 {
		opts.StopTimeout = 5 * time.Second
	}
	return &Session{
		host:      host,
		store:     store,
		manager:   manager,
		indicator: indicator,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// Activate draws the status indicator for the first time
func (s *Session) Activate() {
	s.refresh(nil)
}

// ActiveFile returns the name of the document last served
func (s *Session) ActiveFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeFile
}

// Snapshot returns the current state
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Running:    s.manager.Running(),
		ActiveFile: s.ActiveFile(),
		Instance:   s.manager.Instance(),
	}
}

// Start serves the focused document. A document that is not valid JSON is
// reported to the user and leaves the server as it was.
func (s *Session) Start(ctx context.Context) error {
	doc, ok := s.host.ActiveDocument()
	if !ok {
		s.host.ShowInformationMessage(MessageNoDocument)
		return ErrNoDocument
	}
	if !s.indicator.Matches(doc) {
		s.host.ShowInformationMessage(fmt.Sprintf("%s is not a JSON file.", doc.Name()))
		return ErrNotJSONDocument
	}

	data, err := s.host.ReadDocument(ctx, doc.Path)
	if err != nil {
		s.host.ShowErrorMessage(err.Error())
		return err
	}

	entries, err := routes.Build(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("file", doc.Path).Msg("Rejected document")
		s.host.ShowErrorMessage(MessageInvalidJSON)
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	table, err := routes.Encode(entries)
	if err != nil {
		s.host.ShowErrorMessage(err.Error())
		return err
	}

	name := doc.Name()
	path := server.DocumentPath(name)
	previous, readErr := s.store.ReadFile(path)

	err = s.store.WriteFile(path, table, memfs.WriteOptions{Create: true, Overwrite: true})
	if err != nil {
		s.host.ShowErrorMessage(err.Error())
		return err
	}

	inst, err := s.manager.Start(ctx, name)
	if err != nil {
		s.logger.Error().Err(err).Str("file", name).Msg("Failed to start mock server")
		s.restoreTable(path, previous, readErr == nil)
		s.host.ShowErrorMessage(err.Error())
		s.refresh(nil)
		return err
	}

	s.host.MarkServed(doc.Path)

	s.mu.Lock()
	s.activeFile = name
	s.mu.Unlock()

	s.refresh(nil)
	s.host.ShowInformationMessage(fmt.Sprintf("Running %s on %s with active routes :: %s",
		name, inst.URL(), strings.Join(inst.Routes, ", ")))

	return nil
}

// Stop shuts the server down. Stopping a stopped server still confirms.
func (s *Session) Stop(ctx context.Context) error {
	if err := s.manager.Stop(ctx); err != nil {
		s.host.ShowErrorMessage(err.Error())
		return err
	}

	s.refresh(nil)
	s.host.ShowInformationMessage(MessageStopped)
	return nil
}

// ActiveEditorChanged refreshes the indicator for the newly focused document
func (s *Session) ActiveEditorChanged() {
	s.refresh(nil)
}

// DocumentChanged refreshes the indicator after doc was edited. With
// RestartOnSave the server is started again when doc is the one it serves.
func (s *Session) DocumentChanged(ctx context.Context, doc editor.Document) {
	active, ok := s.host.ActiveDocument()
	if !ok || active.Path != doc.Path {
		s.refresh(nil)
		return
	}

	s.refresh(&doc)

	if !s.opts.RestartOnSave || !s.manager.Running() || doc.Name() != s.ActiveFile() {
		return
	}

	s.logger.Info().Str("file", doc.Path).Msg("Served document changed, restarting")
	if err := s.Start(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Restart failed")
	}
}

// ExecuteCommand runs the command registered under id
func (s *Session) ExecuteCommand(ctx context.Context, id string) error {
	switch id {
	case CommandStart:
		return s.Start(ctx)
	case CommandStop:
		return s.Stop(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
}

// Run handles events one at a time until ctx is done or events is closed,
// then stops the server.
func (s *Session) Run(ctx context.Context, events <-chan Event) error {
	defer s.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			ev.apply(ctx, s)
		}
	}
}

// restoreTable puts back the route table a rejected start replaced
func (s *Session) restoreTable(path string, previous []byte, existed bool) {
	var err error
	if existed {
		err = s.store.WriteFile(path, previous, memfs.WriteOptions{Overwrite: true})
	} else {
		err = s.store.Remove(path)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Failed to restore route table")
	}
}

func (s *Session) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.StopTimeout)
	defer cancel()

	if err := s.manager.Stop(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to stop mock server on exit")
	}
}

// refresh redraws the indicator, using doc in place of the focused document
// when given.
func (s *Session) refresh(doc *editor.Document) {
	if doc == nil {
		if active, ok := s.host.ActiveDocument(); ok {
			doc = &active
		}
	}
	s.indicator.Refresh(doc, s.ActiveFile(), s.manager.Running())
}
