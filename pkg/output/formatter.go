// Package output renders route tables for people and other programs.
package output

import (
	"fmt"
	"strings"

	"github.com/niels/mock-api-server/pkg/routes"
	"github.com/tidwall/pretty"
)

// Output formats
const (
	FormatTerminal = "terminal"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Formatter renders the routes of a document
type Formatter interface {
	FormatRoutes(file, baseURL string, entries []routes.Entry) string
}

// NewFormatter returns the formatter registered under format
func NewFormatter(format string, useColor bool) (Formatter, error) {
	switch strings.ToLower(format) {
	case FormatTerminal, "":
		return NewTerminalFormatter(useColor), nil
	case FormatMarkdown, "md":
		return NewMarkdownFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected %s, %s or %s)",
			format, FormatTerminal, FormatMarkdown, FormatJSON)
	}
}

// JSONFormatter renders the persisted route table, indented
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// FormatRoutes implements Formatter
func (f *JSONFormatter) FormatRoutes(_, _ string, entries []routes.Entry) string {
	data, err := routes.Encode(entries)
	if err != nil {
		return "[]\n"
	}
	return string(pretty.Pretty(data))
}

// envelope is the body a route responds with, indented
func envelope(response []byte) []byte {
	body, err := routes.Envelope(response)
	if err != nil {
		body = response
	}
	return pretty.PrettyOptions(body, &pretty.Options{Width: 80, Indent: "  "})
}
