package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/niels/mock-api-server/pkg/config"
	"github.com/niels/mock-api-server/pkg/editor"
	"github.com/niels/mock-api-server/pkg/logging"
	"github.com/niels/mock-api-server/pkg/memfs"
	"github.com/niels/mock-api-server/pkg/output"
	"github.com/niels/mock-api-server/pkg/routes"
	"github.com/niels/mock-api-server/pkg/server"
	"github.com/niels/mock-api-server/pkg/session"
	"github.com/niels/mock-api-server/pkg/status"
	"github.com/niels/mock-api-server/pkg/watch"
	"github.com/spf13/cobra"
)

const replHelp = `Commands:
  open <file>   focus a document
  start         serve the focused document
  stop          stop the server
  status        show the server state
  routes        list the routes being served
  files         list the in-memory store
  help          show this help
  quit          stop the server and exit
`

func newServeCmd() *cobra.Command {
	var port int
	var host string
	var startNow bool

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Run the mock server interactively",
		Long: `Run the mock server interactively.

Commands are read from stdin, one per line. Type help for a list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newServeApp(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			defer app.close()

			if len(args) == 1 {
				app.open(ctx, args[0])
			}
			if startNow {
				app.command(ctx, session.CommandStart)
			}

			return app.repl(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 9000, "Port to listen on")
	cmd.Flags().StringVar(&host, "host", "", "Host to listen on (all interfaces when empty)")
	cmd.Flags().BoolVar(&startNow, "start", false, "Start serving the given file immediately")

	return cmd
}

// lockedWriter lets the event loop, the watcher and the prompt share a terminal
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type serveApp struct {
	out       io.Writer
	store     *memfs.FS
	workspace *editor.Workspace
	widget    *status.TerminalWidget
	session   *session.Session
	watcher   *watch.Watcher
	formatter *output.TerminalFormatter

	events  chan session.Event
	cancel  context.CancelFunc
	loopErr chan error
	wg      sync.WaitGroup
}

func newServeApp(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config) (*serveApp, error) {
	out := &lockedWriter{w: stdout}
	errOut := out
	if stderr != stdout {
		errOut = &lockedWriter{w: stderr}
	}

	store := memfs.New()
	manager := server.NewManager(store, server.OptionsFromConfig(cfg, logging.WithComponent("server")))

	widget := status.NewTerminalWidget(session.CommandStart).WithWriter(errOut).WithColor(useColor)
	indicator, err := status.NewIndicator(widget, cfg.Documents.Patterns)
	if err != nil {
		return nil, err
	}

	workspace := editor.NewWorkspace(out)
	workspace.SetColor(useColor)

	sess := session.New(workspace, store, manager, indicator, session.Options{
		Logger:        logging.WithComponent("session"),
		RestartOnSave: cfg.Documents.RestartOnSave,
		StopTimeout:   config.Millis(cfg.Server.ShutdownTimeout),
	})

	loopCtx, cancel := context.WithCancel(ctx)
	app := &serveApp{
		out:       out,
		store:     store,
		workspace: workspace,
		widget:    widget,
		session:   sess,
		formatter: output.NewTerminalFormatter(useColor),
		events:    make(chan session.Event),
		cancel:    cancel,
		loopErr:   make(chan error, 1),
	}

	if cfg.Documents.WatchEnabled() {
		app.watcher, err = watch.NewWatcher(config.Millis(cfg.Documents.Debounce), logging.WithComponent("watch"))
		if err != nil {
			cancel()
			return nil, err
		}
		app.wg.Add(1)
		go app.forwardChanges(loopCtx)
	}

	sess.Activate()
	go func() {
		app.loopErr <- sess.Run(loopCtx, app.events)
	}()

	logging.InfoWith("Mock API Server ready", map[string]interface{}{
		"addr": cfg.Server.Addr(),
	})

	return app, nil
}

// close stops the event loop, which stops the server, and the watcher
func (a *serveApp) close() {
	a.cancel()
	if err := <-a.loopErr; err != nil && !errors.Is(err, context.Canceled) {
		logging.ErrorWith("Event loop failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			logging.WarnWith("Failed to close watcher", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	a.wg.Wait()
	a.widget.Hide()
}

// send hands ev to the event loop, giving up when ctx is done
func (a *serveApp) send(ctx context.Context, ev session.Event) bool {
	select {
	case a.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// call runs fn on the event loop and waits for it to finish
func (a *serveApp) call(ctx context.Context, fn func(ctx context.Context, s *session.Session)) {
	done := make(chan struct{})
	ok := a.send(ctx, session.FuncEvent(func(ctx context.Context, s *session.Session) {
		defer close(done)
		fn(ctx, s)
	}))
	if !ok {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (a *serveApp) command(ctx context.Context, id string) {
	result := make(chan error, 1)
	if !a.send(ctx, session.CommandEvent{ID: id, Result: result}) {
		return
	}
	select {
	case err := <-result:
		if err != nil {
			logging.DebugWith("Command failed", map[string]interface{}{
				"command": id,
				"error":   err.Error(),
			})
		}
	case <-ctx.Done():
	}
}

func (a *serveApp) open(ctx context.Context, path string) {
	a.call(ctx, func(_ context.Context, s *session.Session) {
		doc, err := a.workspace.Open(path)
		if err != nil {
			a.workspace.ShowErrorMessage(err.Error())
			return
		}
		if a.watcher != nil {
			if err := a.watcher.Add(doc.Path); err != nil {
				logging.WarnWith("Failed to watch document", map[string]interface{}{
					"file":  doc.Path,
					"error": err.Error(),
				})
			}
		}
		s.ActiveEditorChanged()
	})
}

// forwardChanges turns file system notifications into document changes
func (a *serveApp) forwardChanges(ctx context.Context) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-a.watcher.Events():
			if !ok {
				return
			}
			doc, _, err := a.workspace.Refresh(path)
			if err != nil {
				logging.DebugWith("Changed document is gone", map[string]interface{}{
					"file":  path,
					"error": err.Error(),
				})
				continue
			}
			if !a.send(ctx, session.DocumentChangedEvent{Document: doc}) {
				return
			}
		case err, ok := <-a.watcher.Errors():
			if !ok {
				return
			}
			logging.WarnWith("Watcher error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

// repl reads commands until quit, end of input or ctx is done
func (a *serveApp) repl(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := a.exec(ctx, line); quit {
				return nil
			}
			a.widget.Redraw()
		}
	}
}

func (a *serveApp) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "open":
		if len(fields) != 2 {
			a.printf("usage: open <file>\n")
			return false
		}
		a.open(ctx, fields[1])
	case "start":
		a.command(ctx, session.CommandStart)
	case "stop":
		a.command(ctx, session.CommandStop)
	case "status":
		a.printStatus(ctx)
	case "routes":
		a.printRoutes(ctx)
	case "files":
		paths := a.store.List("/")
		if len(paths) == 0 {
			a.printf("The store is empty.\n")
		}
		for _, p := range paths {
			a.printf("%s\n", p)
		}
	case "help", "?":
		a.printf("%s", replHelp)
	case "quit", "exit":
		return true
	default:
		a.printf("Unknown command %q. Type help for a list of commands.\n", fields[0])
	}
	return false
}

func (a *serveApp) printStatus(ctx context.Context) {
	a.call(ctx, func(_ context.Context, s *session.Session) {
		snap := s.Snapshot()
		if !snap.Running {
			msg := "Mock API Server is stopped."
			if snap.ActiveFile != "" {
				msg = fmt.Sprintf("Mock API Server is stopped. Last served %s.", snap.ActiveFile)
			}
			a.printf("%s\n", a.formatter.FormatMessage(msg, false))
			return
		}
		inst := snap.Instance
		a.printf("%s\n", a.formatter.FormatMessage(
			fmt.Sprintf("Serving %s on %s since %s (instance %s)",
				inst.File, inst.URL(), inst.StartedAt.Format("15:04:05"), inst.ID), true))
	})
}

func (a *serveApp) printRoutes(ctx context.Context) {
	a.call(ctx, func(_ context.Context, s *session.Session) {
		inst := s.Snapshot().Instance
		if inst == nil {
			a.printf("Mock API Server is not running.\n")
			return
		}

		data, err := a.store.ReadFile(server.DocumentPath(inst.File))
		if err != nil {
			a.workspace.ShowErrorMessage(err.Error())
			return
		}
		entries, err := routes.Decode(data)
		if err != nil {
			a.workspace.ShowErrorMessage(err.Error())
			return
		}
		a.printf("%s", a.formatter.FormatRoutes(inst.File, inst.URL(), entries))
	})
}

func (a *serveApp) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
