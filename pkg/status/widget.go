package status

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// TerminalWidget draws the status item as a single line on a terminal.
// Every update clears the line and redraws it in place.
type TerminalWidget struct {
	mu      sync.Mutex
	writer  io.Writer
	command string
	text    string
	visible bool
	colors  bool
}

// NewTerminalWidget creates a new terminal widget bound to command
func NewTerminalWidget(command string) *TerminalWidget {
	return &TerminalWidget{
		writer:  os.Stderr,
		command: command,
		colors:  !color.NoColor,
	}
}

// WithWriter sets the writer for the terminal widget
func (w *TerminalWidget) WithWriter(writer io.Writer) *TerminalWidget {
	w.writer = writer
	return w
}

// WithColor enables or disables colour output
func (w *TerminalWidget) WithColor(enabled bool) *TerminalWidget {
	w.colors = enabled
	return w
}

// SetText implements Widget
func (w *TerminalWidget) SetText(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.text = text
	if w.visible {
		w.draw()
	}
}

// Show implements Widget
func (w *TerminalWidget) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.visible = true
	w.draw()
}

// Hide implements Widget
func (w *TerminalWidget) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.visible {
		fmt.Fprint(w.writer, "\r\033[K")
	}
	w.visible = false
}

// Redraw draws the line again, after other output has scrolled it away
func (w *TerminalWidget) Redraw() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.visible {
		w.draw()
	}
}

// Text returns the current label and whether it is shown
func (w *TerminalWidget) Text() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.text, w.visible
}

func (w *TerminalWidget) draw() {
	line := Render(w.text, w.colors)
	if w.command != "" {
		hint := "(" + w.command + ")"
		if w.colors {
			hint = color.New(color.Faint).Sprint(hint)
		}
		line += " " + hint
	}
	fmt.Fprint(w.writer, "\r\033[K"+line)
}

// Render replaces codicons in text with terminal glyphs
func Render(text string, colors bool) string {
	glyph := func(s string, attrs ...color.Attribute) string {
		if !colors {
			return s
		}
		c := color.New(attrs...)
		c.EnableColor()
		return c.Sprint(s)
	}

	return strings.NewReplacer(
		IconReady, glyph("▶", color.FgCyan),
		IconActive, glyph("🚀", color.FgGreen),
		IconModified, glyph("●", color.FgYellow),
		IconUp, glyph("↑", color.FgGreen),
		IconDown, glyph("↓", color.FgRed),
	).Replace(text)
}

// RecordingWidget is a Widget that remembers what it was asked to display
type RecordingWidget struct {
	mu      sync.Mutex
	text    string
	visible bool
	updates int
}

// NewRecordingWidget creates a new hidden RecordingWidget
func NewRecordingWidget() *RecordingWidget {
	return &RecordingWidget{}
}

// SetText implements Widget
func (w *RecordingWidget) SetText(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.text = text
	w.updates++
}

// Show implements Widget
func (w *RecordingWidget) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = true
	w.updates++
}

// Hide implements Widget
func (w *RecordingWidget) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
	w.updates++
}

// Text returns the last label and whether the widget is shown
func (w *RecordingWidget) Text() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.text, w.visible
}

// Updates returns the number of calls made on the widget
func (w *RecordingWidget) Updates() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updates
}
