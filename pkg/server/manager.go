package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/niels/mock-api-server/pkg/memfs"
	"github.com/niels/mock-api-server/pkg/retry"
	"github.com/niels/mock-api-server/pkg/routes"
	"github.com/rs/zerolog"
)

// DefaultAddress is the listen address used when none is configured
const DefaultAddress = ":9000"

// State is the lifecycle state of the mock listener.
//
// stopped  -> starting
// starting -> running | stopped
// running  -> stopping
// stopping -> stopped
//
// Start on a running manager passes through stopping and stopped before
// starting again, so at most one listener is ever bound.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Common errors
var (
	ErrBusy = errors.New("server is starting or stopping")
)

// ParseError reports a document whose persisted route table cannot be used
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// BindError reports a listener that could not be bound
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to listen on %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// Options configures the mock listener
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	Retry             retry.Options
	Logger            zerolog.Logger
	LogRequests       bool
}

// Instance describes one bound listener
type Instance struct {
	ID        string
	Addr      string
	File      string
	Routes    []string
	StartedAt time.Time
}

// URL returns the base URL of the listener, using localhost for wildcard hosts
func (i *Instance) URL() string {
	host, port, err := net.SplitHostPort(i.Addr)
	if err != nil {
		return "http://" + i.Addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// DocumentPath is the store path holding the route table of a document
func DocumentPath(fileKey string) string {
	return memfs.Join("documents", fileKey)
}

// RoutePath is the store path holding the response of a route
func RoutePath(route string) string {
	return memfs.Join("routes", route)
}

// Manager owns at most one mock listener and binds it to the route table of
// a document in the store.
type Manager struct {
	store  *memfs.FS
	opts   Options
	logger zerolog.Logger

	// op serialises transitions; a request that finds it held gets ErrBusy
	op sync.Mutex

	mu       sync.RWMutex
	state    State
	srv      *http.Server
	done     chan struct{}
	instance *Instance
}

// NewManager creates a stopped manager reading route tables from store
func NewManager(store *memfs.FS, opts Options) *Manager {
	if store == nil {
		panic("server.NewManager: store is nil")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	return &Manager{
		store:  store,
		opts:   opts,
		logger: opts.Logger,
		state:  StateStopped,
	}
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Running reports whether a listener is accepting connections
func (m *Manager) Running() bool {
	return m.State() == StateRunning
}

// Instance returns the running listener, or nil when stopped
func (m *Manager) Instance() *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.instance == nil {
		return nil
	}
	inst := *m.instance
	inst.Routes = append([]string(nil), m.instance.Routes...)
	return &inst
}

// Addr returns the configured listen address
func (m *Manager) Addr() string {
	return m.opts.Addr
}

// Start serves the route table stored for fileKey. A running listener is
// shut down, and its termination awaited, before the new one binds. When the
// route table cannot be read or parsed the current listener is left alone.
func (m *Manager) Start(ctx context.Context, fileKey string) (*Instance, error) {
	if !m.op.TryLock() {
		return nil, ErrBusy
	}
	defer m.op.Unlock()

	data, err := m.store.ReadFile(DocumentPath(fileKey))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileKey, err)
	}

	entries, err := routes.Decode(data)
	if err != nil {
		return nil, &ParseError{File: fileKey, Err: err}
	}

	id := uuid.NewString()
	router, err := m.buildRouter(id, entries)
	if err != nil {
		return nil, &ParseError{File: fileKey, Err: err}
	}

	if err := m.shutdown(ctx); err != nil {
		return nil, err
	}

	m.setState(StateStarting)

	if err := m.storeResponses(entries); err != nil {
		m.setState(StateStopped)
		return nil, err
	}

	ln, err := m.listen(ctx)
	if err != nil {
		m.setState(StateStopped)
		return nil, err
	}

	inst := &Instance{
		ID:        id,
		Addr:      ln.Addr().String(),
		File:      fileKey,
		Routes:    routes.Keys(entries),
		StartedAt: time.Now(),
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: m.opts.ReadHeaderTimeout,
		WriteTimeout:      m.opts.WriteTimeout,
		IdleTimeout:       m.opts.IdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.Background()
		},
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Str("addr", inst.Addr).Msg("Serve failed")
		}
	}()

	m.mu.Lock()
	m.srv = srv
	m.done = done
	m.instance = inst
	m.state = StateRunning
	m.mu.Unlock()

	m.logger.Info().
		Str("instance", inst.ID).
		Str("addr", inst.Addr).
		Str("file", fileKey).
		Strs("routes", inst.Routes).
		Msg("Mock server started")

	return m.Instance(), nil
}

// Stop shuts the running listener down and waits for it to terminate.
// Stopping a stopped manager does nothing.
func (m *Manager) Stop(ctx context.Context) error {
	if !m.op.TryLock() {
		return ErrBusy
	}
	defer m.op.Unlock()

	return m.shutdown(ctx)
}

// shutdown must be called with op held
func (m *Manager) shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return nil
	}
	srv, done, inst := m.srv, m.done, m.instance
	m.state = StateStopping
	m.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, m.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		m.logger.Warn().Err(err).Str("instance", inst.ID).Msg("Graceful shutdown failed, closing connections")
		if closeErr := srv.Close(); closeErr != nil {
			m.logger.Error().Err(closeErr).Msg("Close failed")
		}
	}
	<-done

	m.mu.Lock()
	m.srv = nil
	m.done = nil
	m.instance = nil
	m.state = StateStopped
	m.mu.Unlock()

	m.logger.Info().Str("instance", inst.ID).Str("addr", inst.Addr).Msg("Mock server stopped")
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// buildRouter registers a GET handler per route. HEAD is answered like GET
// and a trailing slash is ignored. chi panics on malformed patterns; that is
// reported as an error.
func (m *Manager) buildRouter(id string, entries []routes.Entry) (router http.Handler, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid route: %v", r)
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(instanceHeaders(id))
	if m.opts.LogRequests {
		r.Use(requestLogger(m.logger.With().Str("instance", id).Logger()))
	}
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "Cannot "+req.Method+" "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	for _, e := range entries {
		r.Get(routes.Pattern(e.Route), m.handleRoute(RoutePath(e.Route)))
	}

	return r, nil
}

// storeResponses must run after the previous listener is gone, since both
// listeners read the same store paths.
func (m *Manager) storeResponses(entries []routes.Entry) error {
	for _, e := range entries {
		err := m.store.WriteFile(RoutePath(e.Route), e.Response, memfs.WriteOptions{Create: true, Overwrite: true})
		if err != nil {
			return fmt.Errorf("failed to store response for %s: %w", e.Route, err)
		}
	}
	return nil
}

func (m *Manager) listen(ctx context.Context) (net.Listener, error) {
	opts := m.opts.Retry
	opts.RetryableErrors = nil
	opts.IsRetryableFunc = isAddrInUse
	opts.Logger = func(format string, args ...interface{}) {
		m.logger.Debug().Msgf(format, args...)
	}

	var ln net.Listener
	var lc net.ListenConfig
	err := retry.Do(ctx, func(int) error {
		var err error
		ln, err = lc.Listen(ctx, "tcp", m.opts.Addr)
		return err
	}, opts)
	if err != nil {
		return nil, &BindError{Addr: m.opts.Addr, Err: err}
	}
	return ln, nil
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
