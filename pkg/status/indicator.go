package status

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"
	"github.com/niels/mock-api-server/pkg/editor"
)

// DefaultPatterns are the document names the indicator is shown for
var DefaultPatterns = []string{"*.json"}

// Widget is a single status bar item
type Widget interface {
	SetText(text string)
	Show()
	Hide()
}

// Indicator keeps a Widget in sync with the focused document and the server
type Indicator struct {
	mu       sync.Mutex
	widget   Widget
	patterns []glob.Glob
}

// NewIndicator creates a new Indicator. Patterns are globs matched against
// the base name of a document; DefaultPatterns is used when none are given.
func NewIndicator(widget Widget, patterns []string) (*Indicator, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid document pattern %q: %w", p, err)
		}
		compiled = append(compiled, g)
	}

	return &Indicator{
		widget:   widget,
		patterns: compiled,
	}, nil
}

// Matches reports whether doc is a document the server can be started from
func (i *Indicator) Matches(doc editor.Document) bool {
	name := doc.Name()
	for _, g := range i.patterns {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Refresh recomputes the label for the focused document. With no focused
// document the widget keeps whatever it showed last.
func (i *Indicator) Refresh(doc *editor.Document, activeFile string, running bool) {
	if doc == nil {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.Matches(*doc) {
		i.widget.Hide()
		return
	}

	i.widget.SetText(Label(doc.Name(), activeFile, running, doc.Dirty))
	i.widget.Show()
}
