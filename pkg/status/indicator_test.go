package status

import (
	"bytes"
	"strings"
	"testing"

	"github.com/niels/mock-api-server/pkg/editor"
)

func TestIndicatorRefresh(t *testing.T) {
	widget := NewRecordingWidget()
	indicator, err := NewIndicator(widget, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	doc := &editor.Document{Path: "/work/mock.json"}
	indicator.Refresh(doc, "mock.json", true)

	text, visible := widget.Text()
	if !visible || text != "$(rocket) mock.json $(arrow-up)" {
		t.Errorf("Expected active label shown, got %q visible=%v", text, visible)
	}

	// Going dirty swaps the icon without touching the running arrow
	doc.Dirty = true
	indicator.Refresh(doc, "mock.json", true)
	text, _ = widget.Text()
	if text != "$(run) mock.json $(circle-filled) $(arrow-up)" {
		t.Errorf("Expected modified label, got %q", text)
	}

	indicator.Refresh(&editor.Document{Path: "/work/main.go"}, "mock.json", true)
	if _, visible := widget.Text(); visible {
		t.Error("Expected widget hidden for a non-JSON document")
	}

	// No focused document leaves the widget alone
	updates := widget.Updates()
	indicator.Refresh(nil, "mock.json", true)
	if widget.Updates() != updates {
		t.Error("Expected no widget update without a focused document")
	}
}

func TestIndicatorPatterns(t *testing.T) {
	indicator, err := NewIndicator(NewRecordingWidget(), []string{"*.json", "*.mock"})
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]bool{
		"/a/api.json":  true,
		"/a/api.mock":  true,
		"/a/api.JSON":  false,
		"/a/api.json5": false,
		"/a/json":      false,
	}
	for path, want := range tests {
		if got := indicator.Matches(editor.Document{Path: path}); got != want {
			t.Errorf("Matches(%s): expected %v, got %v", path, want, got)
		}
	}

	if _, err := NewIndicator(NewRecordingWidget(), []string{"[unclosed"}); err == nil {
		t.Error("Expected error for an invalid pattern")
	}
}

func TestTerminalWidget(t *testing.T) {
	var buf bytes.Buffer
	widget := NewTerminalWidget("mockApiServer.start").WithWriter(&buf).WithColor(false)

	widget.SetText("$(rocket) mock.json $(arrow-up)")
	if buf.Len() != 0 {
		t.Errorf("Expected nothing drawn while hidden, got %q", buf.String())
	}

	widget.Show()
	want := "\r\033[K🚀 mock.json ↑ (mockApiServer.start)"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}

	buf.Reset()
	widget.Hide()
	if buf.String() != "\r\033[K" {
		t.Errorf("Expected line cleared, got %q", buf.String())
	}

	buf.Reset()
	widget.Redraw()
	if buf.Len() != 0 {
		t.Errorf("Expected no redraw while hidden, got %q", buf.String())
	}

	text, visible := widget.Text()
	if visible || !strings.Contains(text, "mock.json") {
		t.Errorf("Unexpected widget state %q visible=%v", text, visible)
	}
}

func TestRender(t *testing.T) {
	got := Render("$(run) a.json $(circle-filled) $(arrow-down)", false)
	if got != "▶ a.json ● ↓" {
		t.Errorf("Unexpected render: %q", got)
	}

	colored := Render("$(arrow-up)", true)
	if !strings.Contains(colored, "↑") || !strings.Contains(colored, "\x1b[") {
		t.Errorf("Expected coloured glyph, got %q", colored)
	}
}
