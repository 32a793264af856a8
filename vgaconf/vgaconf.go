// Package vgaconf handles configuration documents for the visualization host.
//
// A document is opaque at this layer: it is validated as a JSON object and
// carried as bytes. Only two optional top-level fields are read, pageTitle and
// favicon, for display in the recents list.
package vgaconf

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"
)

// Extension and MIMEType identify configuration files for the file picker and
// the launch queue.
const (
	Extension = ".vgaconf"
	MIMEType  = "application/json"
)

var errNotObject = errors.New("configuration must be a JSON object")

// ParseError reports a configuration whose content is not a JSON object.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration from %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Document is a parsed configuration. The zero value means "no configuration".
type Document struct {
	raw   json.RawMessage
	title string
	icon  string
}

// Parse validates data as a configuration read from source. Comments and
// trailing commas are stripped first; the stored bytes are compact JSON.
func Parse(source string, data []byte) (Document, error) {
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return Document{}, &ParseError{Source: source, Err: errors.New("empty document")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(stripped, &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			err = errNotObject
		}
		return Document{}, &ParseError{Source: source, Err: err}
	}
	if fields == nil {
		// Literal null.
		return Document{}, &ParseError{Source: source, Err: errNotObject}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, stripped); err != nil {
		return Document{}, &ParseError{Source: source, Err: err}
	}
	return Document{
		raw:   compact.Bytes(),
		title: stringField(fields, "pageTitle"),
		icon:  stringField(fields, "favicon"),
	}, nil
}

// stringField returns fields[name] when it is a JSON string.
func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// IsZero reports whether no configuration is held.
func (d Document) IsZero() bool { return len(d.raw) == 0 }

// Bytes returns the compact JSON encoding. Callers must not modify it.
func (d Document) Bytes() []byte { return d.raw }

// Title is the document's pageTitle, or "".
func (d Document) Title() string { return d.title }

// Icon is the document's favicon, or "".
func (d Document) Icon() string { return d.icon }

// Digest is the hex BLAKE3-256 hash of the compact encoding.
func (d Document) Digest() string {
	sum := blake3.Sum256(d.raw)
	return hex.EncodeToString(sum[:])
}

func (d Document) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return d.raw, nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*d = Document{}
		return nil
	}
	parsed, err := Parse("", data)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// BaseURL derives the base URL the host resolves relative resources against:
// the directory of source. data:, blob: and root-relative sources have no
// base, and neither does anything that is not an absolute URL.
func BaseURL(source string) (string, bool) {
	if source == "" || strings.HasPrefix(source, "/") {
		return "", false
	}
	u, err := url.Parse(source)
	if err != nil || !u.IsAbs() {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "data", "blob":
		return "", false
	}
	return u.ResolveReference(&url.URL{Path: "./"}).String(), true
}
