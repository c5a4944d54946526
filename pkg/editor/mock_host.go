package editor

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
)

// MockHost is a mock implementation of Host for testing purposes
type MockHost struct {
	mu sync.Mutex

	// Active is the focused document, nil when nothing has focus
	Active *Document
	// Documents maps a path to the bytes ReadDocument returns
	Documents map[string][]byte
	// ReadDocumentError is returned from ReadDocument when set
	ReadDocumentError error

	infos  []string
	errors []string
	served []string
}

// NewMockHost creates a new MockHost with no focused document
func NewMockHost() *MockHost {
	return &MockHost{
		Documents: make(map[string][]byte),
	}
}

// Focus stores content under path and gives the document focus
func (m *MockHost) Focus(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Documents[path] = content
	m.Active = &Document{Path: path}
}

// SetDirty marks the focused document as modified or saved
func (m *MockHost) SetDirty(dirty bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Active != nil {
		m.Active.Dirty = dirty
	}
}

// Blur removes focus from every document
func (m *MockHost) Blur() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Active = nil
}

// ActiveDocument implements the Host interface
func (m *MockHost) ActiveDocument() (Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Active == nil {
		return Document{}, false
	}
	return *m.Active, true
}

// ReadDocument implements the Host interface
func (m *MockHost) ReadDocument(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadDocumentError != nil {
		return nil, m.ReadDocumentError
	}
	data, ok := m.Documents[path]
	if !ok {
		return nil, fmt.Errorf("failed to read document: %w", fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// MarkServed implements the Host interface
func (m *MockHost) MarkServed(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.served = append(m.served, path)
}

// Served returns the paths passed to MarkServed so far
func (m *MockHost) Served() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.served...)
}

// ShowInformationMessage implements the Host interface
func (m *MockHost) ShowInformationMessage(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

// ShowErrorMessage implements the Host interface
func (m *MockHost) ShowErrorMessage(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

// InformationMessages returns the information messages shown so far
func (m *MockHost) InformationMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.infos...)
}

// ErrorMessages returns the error messages shown so far
func (m *MockHost) ErrorMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errors...)
}
