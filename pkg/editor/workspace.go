package editor

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
)

// Workspace is a terminal host. The focused document is chosen with Open
// and read from disk. A document is dirty when its bytes on disk differ
// from the bytes last marked as served.
type Workspace struct {
	mu        sync.Mutex
	out       io.Writer
	focused   string
	pending   map[string][sha256.Size]byte
	snapshots map[string][sha256.Size]byte

	info *color.Color
	err  *color.Color
}

// NewWorkspace creates a new Workspace writing messages to out
func NewWorkspace(out io.Writer) *Workspace {
	return &Workspace{
		out:       out,
		pending:   make(map[string][sha256.Size]byte),
		snapshots: make(map[string][sha256.Size]byte),
		info:      color.New(color.FgCyan),
		err:       color.New(color.FgRed, color.Bold),
	}
}

// SetColor enables or disables coloured messages
func (w *Workspace) SetColor(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if enabled {
		w.info.EnableColor()
		w.err.EnableColor()
	} else {
		w.info.DisableColor()
		w.err.DisableColor()
	}
}

// Open gives focus to the document at path
func (w *Workspace) Open(path string) (Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to access document: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Document{}, fmt.Errorf("not a regular file: %s", absPath)
	}

	w.mu.Lock()
	w.focused = absPath
	w.mu.Unlock()

	return w.document(absPath), nil
}

// Focused returns the path of the focused document, or "" when none is open
func (w *Workspace) Focused() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

// ActiveDocument implements Host
func (w *Workspace) ActiveDocument() (Document, bool) {
	path := w.Focused()
	if path == "" {
		return Document{}, false
	}
	return w.document(path), true
}

// Refresh recomputes the dirty state of the document at path. The boolean
// reports whether the document is the focused one.
func (w *Workspace) Refresh(path string) (Document, bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Document{}, false, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return Document{}, false, fmt.Errorf("failed to access document: %w", err)
	}

	return w.document(absPath), absPath == w.Focused(), nil
}

// ReadDocument implements Host. The bytes read become the reference the
// dirty state is computed against once MarkServed is called for path.
func (w *Workspace) ReadDocument(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	w.mu.Lock()
	w.pending[absPath] = sha256.Sum256(data)
	w.mu.Unlock()

	return DecodeDocument(data)
}

// MarkServed implements Host
func (w *Workspace) MarkServed(path string) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if sum, ok := w.pending[absPath]; ok {
		w.snapshots[absPath] = sum
		delete(w.pending, absPath)
	}
}

// ShowInformationMessage implements Host
func (w *Workspace) ShowInformationMessage(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s %s\n", w.info.Sprint("info:"), msg)
}

// ShowErrorMessage implements Host
func (w *Workspace) ShowErrorMessage(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s %s\n", w.err.Sprint("error:"), msg)
}

func (w *Workspace) document(path string) Document {
	doc := Document{Path: path}

	w.mu.Lock()
	snapshot, served := w.snapshots[path]
	w.mu.Unlock()
	if !served {
		return doc
	}

	data, err := os.ReadFile(path)
	if err != nil {
		// A document that vanished has certainly changed
		doc.Dirty = true
		return doc
	}
	doc.Dirty = sha256.Sum256(data) != snapshot
	return doc
}
