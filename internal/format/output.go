package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// Texter is implemented by payloads that have a human-readable rendering.
type Texter interface {
	WriteText(w io.Writer) error
}

// Formats accepted by Write.
const (
	JSON = "json"
	EDN  = "edn"
	Text = "text"
)

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - edn
// - text (falls back to pretty JSON for values without a text rendering)
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", JSON:
		return WriteJSON(w, v, pretty)
	case EDN:
		return WriteEDN(w, v, pretty)
	case Text:
		if t, ok := v.(Texter); ok {
			return t.WriteText(w)
		}
		return WriteJSON(w, v, true)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// Valid reports whether format is accepted by Write.
func Valid(format string) bool {
	switch format {
	case "", JSON, EDN, Text:
		return true
	}
	return false
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}
