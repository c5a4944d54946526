package editor

import (
	"context"
	"path/filepath"
)

// Document is the document that has focus in the host
type Document struct {
	// Path is the absolute path of the document
	Path string
	// Dirty is true when the document has changes the running server has not seen
	Dirty bool
}

// Name returns the base name of the document
func (d Document) Name() string {
	return filepath.Base(d.Path)
}

// Ext returns the file extension of the document, including the dot
func (d Document) Ext() string {
	return filepath.Ext(d.Path)
}

// Host is the editor the mock server runs inside
type Host interface {
	// ActiveDocument returns the focused document, if any
	ActiveDocument() (Document, bool)
	// ReadDocument returns the contents of a document as UTF-8
	ReadDocument(ctx context.Context, path string) ([]byte, error)
	// MarkServed records that the contents last read from path are being served
	MarkServed(path string)
	// ShowInformationMessage shows a message to the user
	ShowInformationMessage(msg string)
	// ShowErrorMessage shows an error to the user
	ShowErrorMessage(msg string)
}
