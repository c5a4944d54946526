package editor

import (
	"context"
	"errors"
	"io/fs"
	"testing"
)

func TestMockHost(t *testing.T) {
	host := NewMockHost()

	if _, ok := host.ActiveDocument(); ok {
		t.Error("Expected no active document")
	}

	host.Focus("/tmp/mock.json", []byte(`{}`))
	host.SetDirty(true)

	doc, ok := host.ActiveDocument()
	if !ok || doc.Name() != "mock.json" || !doc.Dirty {
		t.Errorf("Unexpected active document: %+v", doc)
	}

	data, err := host.ReadDocument(context.Background(), "/tmp/mock.json")
	if err != nil || string(data) != `{}` {
		t.Errorf("Unexpected read result %q, %v", data, err)
	}
	if _, err := host.ReadDocument(context.Background(), "/tmp/missing.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got: %v", err)
	}

	host.MarkServed("/tmp/mock.json")
	if served := host.Served(); len(served) != 1 || served[0] != "/tmp/mock.json" {
		t.Errorf("Unexpected served documents: %v", served)
	}

	host.ShowInformationMessage("hello")
	host.ShowErrorMessage("oops")
	if msgs := host.InformationMessages(); len(msgs) != 1 || msgs[0] != "hello" {
		t.Errorf("Unexpected information messages: %v", msgs)
	}
	if msgs := host.ErrorMessages(); len(msgs) != 1 || msgs[0] != "oops" {
		t.Errorf("Unexpected error messages: %v", msgs)
	}

	host.Blur()
	if _, ok := host.ActiveDocument(); ok {
		t.Error("Expected no active document after blur")
	}
}
