package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Common errors
var (
	ErrInvalidJSON  = errors.New("invalid JSON")
	ErrNotObject    = errors.New("route definitions must be a JSON object")
	ErrInvalidTable = errors.New("invalid route table")
)

// Entry pairs a route with the JSON value it responds with
type Entry struct {
	Route    string          `json:"route"`
	Response json.RawMessage `json:"response"`
}

// SyntaxError reports where a document stops being valid JSON
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidJSON, e.Msg)
	}
	return fmt.Sprintf("%s at line %d, column %d: %s", ErrInvalidJSON, e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrInvalidJSON
}

// ValidationError reports a route table element with the wrong shape.
// Index is -1 when the table itself is malformed.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidTable, e.Reason)
	}
	return fmt.Sprintf("%s: entry %d: %s", ErrInvalidTable, e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTable
}

// Build turns a JSON object of route -> response into an ordered route table.
// Keys keep the order they have in the document. A repeated key keeps the
// position of its first occurrence and the value of its last.
func Build(data []byte) ([]Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, locateSyntaxError(data)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, ErrNotObject
	}

	entries := []Entry{}
	index := make(map[string]int)
	var err error

	doc.ForEach(func(key, value gjson.Result) bool {
		var response json.RawMessage
		response, err = compact(value.Raw)
		if err != nil {
			return false
		}

		route := key.String()
		if i, ok := index[route]; ok {
			entries[i].Response = response
			return true
		}
		index[route] = len(entries)
		entries = append(entries, Entry{Route: route, Response: response})
		return true
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Encode serialises a route table into its persisted form: an array of
// {"route": ..., "response": ...} objects.
func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode route table: %w", err)
	}
	return data, nil
}

// Decode parses a persisted route table. Every element must be an object
// with a string "route" beginning with "/" and a "response" value.
func Decode(data []byte) ([]Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, locateSyntaxError(data)
	}

	table := gjson.ParseBytes(data)
	if !table.IsArray() {
		return nil, &ValidationError{Index: -1, Reason: "expected an array"}
	}

	entries := []Entry{}
	var err error
	i := 0

	table.ForEach(func(_, element gjson.Result) bool {
		defer func() { i++ }()

		if !element.IsObject() {
			err = &ValidationError{Index: i, Reason: "expected an object"}
			return false
		}

		route := element.Get("route")
		if route.Type != gjson.String {
			err = &ValidationError{Index: i, Reason: `"route" must be a string`}
			return false
		}
		if !strings.HasPrefix(route.String(), "/") {
			err = &ValidationError{Index: i, Reason: fmt.Sprintf("route %q must begin with /", route.String())}
			return false
		}

		response := element.Get("response")
		if !response.Exists() {
			err = &ValidationError{Index: i, Reason: `missing "response"`}
			return false
		}

		var raw json.RawMessage
		raw, err = compact(response.Raw)
		if err != nil {
			return false
		}
		entries = append(entries, Entry{Route: route.String(), Response: raw})
		return true
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Envelope wraps a response in the body a route answers with: {"data": response}
func Envelope(response []byte) ([]byte, error) {
	body, err := sjson.SetRawBytes([]byte(`{}`), "data", response)
	if err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return body, nil
}

// Keys returns the routes of a table in order
func Keys(entries []Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Route)
	}
	return keys
}

// Pattern converts an express-style route ("/users/:id/") into a chi
// pattern ("/users/{id}"). A trailing slash is dropped since requests have
// theirs stripped before routing.
func Pattern(route string) string {
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
		if route == "" {
			route = "/"
		}
	}
	if !strings.Contains(route, ":") {
		return route
	}

	segments := strings.Split(route, "/")
	for i, seg := range segments {
		if len(seg) > 1 && seg[0] == ':' {
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

func compact(raw string) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}
	return json.RawMessage(buf.Bytes()), nil
}

// locateSyntaxError re-parses data with encoding/json to find the offset of
// the first syntax error and converts it to a line and column.
func locateSyntaxError(data []byte) error {
	var v interface{}
	err := json.Unmarshal(data, &v)

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := position(data, syntaxErr.Offset)
		return &SyntaxError{Line: line, Column: col, Msg: syntaxErr.Error()}
	}
	if err != nil {
		return &SyntaxError{Msg: err.Error()}
	}
	return &SyntaxError{Msg: "document is not valid JSON"}
}

func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line = 1
	col = 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
