package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/niels/mock-api-server/pkg/routes"
)

// MarkdownFormatter formats route tables as markdown
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// FormatRoutes renders a summary table followed by one section per route
func (f *MarkdownFormatter) FormatRoutes(file, baseURL string, entries []routes.Entry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Mock API: %s\n\n", file))
	if baseURL != "" {
		sb.WriteString(fmt.Sprintf("Base URL: `%s`\n\n", baseURL))
	}

	if len(entries) == 0 {
		sb.WriteString("No routes defined.\n")
		return sb.String()
	}

	sb.WriteString("| Method | Route | Response |\n")
	sb.WriteString("|--------|-------|----------|\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("| GET | `%s` | `%s` |\n", escapeCell(e.Route), escapeCell(f.summarize(e.Response))))
	}
	sb.WriteString("\n")

	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("## GET %s\n\n", e.Route))
		sb.WriteString("```json\n")
		sb.Write(envelope(e.Response))
		sb.WriteString("```\n\n")
	}

	return sb.String()
}

// WriteToFile writes the formatted route table to a file
func (f *MarkdownFormatter) WriteToFile(file, baseURL string, entries []routes.Entry, outputPath string) error {
	markdown := f.FormatRoutes(file, baseURL, entries)

	// Create the directory if it doesn't exist
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return nil
}

// summarize shortens a response for the table
func (f *MarkdownFormatter) summarize(response []byte) string {
	const maxLen = 40
	s := string(response)
	if len([]rune(s)) > maxLen {
		s = string([]rune(s)[:maxLen-3]) + "..."
	}
	return s
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "`", "'")
}
