package output

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/quick"
	"github.com/niels/mock-api-server/pkg/routes"
)

// ANSI color codes
const (
	ColorReset = "\033[0m"
	ColorRed   = "\033[31m"
	ColorGreen = "\033[32m"
	ColorCyan  = "\033[36m"

	ColorBoldBlue    = "\033[1;34m"
	ColorBoldMagenta = "\033[1;35m"
	ColorBoldCyan    = "\033[1;36m"
)

// Default width for all terminal output elements
const DefaultWidth = 90

// TerminalFormatter formats route tables for terminal output
type TerminalFormatter struct {
	useColor bool
	width    int
}

// NewTerminalFormatter creates a new terminal formatter
func NewTerminalFormatter(useColor bool) *TerminalFormatter {
	return &TerminalFormatter{
		useColor: useColor,
		width:    DefaultWidth,
	}
}

// FormatRoutes lists every route with the body it responds with
func (f *TerminalFormatter) FormatRoutes(file, baseURL string, entries []routes.Entry) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s: %d routes", file, len(entries))
	if len(entries) == 1 {
		header = fmt.Sprintf("%s: 1 route", file)
	}
	sb.WriteString(f.colorizeText(header, ColorBoldBlue))
	sb.WriteString("\n")
	sb.WriteString(f.colorizeText(strings.Repeat("=", min(len(header), f.width)), ColorBoldBlue))
	sb.WriteString("\n\n")

	if len(entries) == 0 {
		sb.WriteString("No routes defined.\n")
		return sb.String()
	}

	for _, e := range entries {
		sb.WriteString(f.colorizeText("GET", ColorBoldMagenta))
		sb.WriteString(" ")
		sb.WriteString(f.colorizeText(baseURL+e.Route, ColorBoldCyan))
		sb.WriteString("\n")
		sb.WriteString(f.indentText(f.HighlightJSON(string(envelope(e.Response))), 2))
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// HighlightJSON colours JSON with Chroma. Without colour, or if Chroma
// fails, the text is returned as is.
func (f *TerminalFormatter) HighlightJSON(source string) string {
	source = strings.TrimRight(source, "\n")
	if !f.useColor {
		return source
	}

	var sb strings.Builder
	if err := quick.Highlight(&sb, source, "json", "terminal256", "monokai"); err != nil {
		return source
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatMessage prints a one line message, green for success and red otherwise
func (f *TerminalFormatter) FormatMessage(msg string, ok bool) string {
	if ok {
		return f.colorizeText(msg, ColorGreen)
	}
	return f.colorizeText(msg, ColorRed)
}

// colorizeText adds color to text if color is enabled
func (f *TerminalFormatter) colorizeText(text string, colorCode string) string {
	if !f.useColor || colorCode == "" {
		return text
	}
	return fmt.Sprintf("%s%s%s", colorCode, text, ColorReset)
}

// indentText indents each line of text by the specified number of spaces
func (f *TerminalFormatter) indentText(text string, spaces int) string {
	if text == "" {
		return ""
	}

	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		lines[i] = indent + line
	}

	return strings.Join(lines, "\n")
}
