package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotObject is returned when a JSON payload is valid but its top level is
// not an object.
var ErrNotObject = errors.New("content must be a JSON object")

// Document is the untyped editable-content blob: top-level keys map to
// arbitrary JSON values. Numbers are kept as json.Number so they round-trip
// without float rounding.
type Document map[string]any

// Merge returns a new document holding every key of d, with each top-level
// key of partial replacing the same key of d. Nested values are replaced
// wholesale, never merged.
func (d Document) Merge(partial Document) Document {
	out := make(Document, len(d)+len(partial))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Decode parses raw JSON into a Document. An empty input is an error so the
// caller can decide how to recover; a literal null decodes to an empty document.
func Decode(raw []byte) (Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty document")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	// a stray closing delimiter after the value is not reported by More
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode content: trailing data after document")
	}
	switch m := v.(type) {
	case nil:
		return Document{}, nil
	case map[string]any:
		return Document(m), nil
	default:
		return nil, ErrNotObject
	}
}

// Encode renders the document as two-space indented JSON without HTML
// escaping and without a trailing newline.
func Encode(d Document) ([]byte, error) {
	if d == nil {
		d = Document{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any(d)); err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
