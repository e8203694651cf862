package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ContentFormat discriminates the Content union.
type ContentFormat string

const (
	FormatJSON ContentFormat = "JSON"
	FormatHTML ContentFormat = "HTML"
)

// ParseContentFormat normalizes a format name. Empty input yields "".
func ParseContentFormat(s string) (ContentFormat, error) {
	switch f := ContentFormat(strings.ToUpper(strings.TrimSpace(s))); f {
	case "", FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported content format %q", s)
	}
}

// Content is the body of a topic version: either a JSON document or an HTML
// string, never both.
type Content struct {
	Format ContentFormat
	JSON   JSON
	HTML   string
}

// JSONContent builds a JSON-format body.
func JSONContent(doc JSON) Content {
	return Content{Format: FormatJSON, JSON: doc}
}

// HTMLContent builds an HTML-format body.
func HTMLContent(html string) Content {
	return Content{Format: FormatHTML, HTML: html}
}

// DecodeContent builds a Content from a payload's format and raw content
// value. With no explicit format a JSON string is read as HTML and anything
// else as a JSON document.
func DecodeContent(format ContentFormat, raw json.RawMessage) (Content, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Content{}, fmt.Errorf("content is required")
	}
	isString := trimmed[0] == '"'

	if format == "" {
		format = FormatJSON
		if isString {
			format = FormatHTML
		}
	}

	switch format {
	case FormatHTML:
		if !isString {
			return Content{}, fmt.Errorf("HTML content must be a string")
		}
		var html string
		if err := json.Unmarshal(trimmed, &html); err != nil {
			return Content{}, fmt.Errorf("invalid HTML content: %w", err)
		}
		if strings.TrimSpace(html) == "" {
			return Content{}, fmt.Errorf("content is required")
		}
		return HTMLContent(html), nil
	case FormatJSON:
		if !json.Valid(trimmed) {
			return Content{}, fmt.Errorf("content is not valid JSON")
		}
		if isString {
			var s string
			_ = json.Unmarshal(trimmed, &s)
			if strings.TrimSpace(s) == "" {
				return Content{}, fmt.Errorf("content is required")
			}
		}
		return JSONContent(append(JSON(nil), trimmed...)), nil
	default:
		return Content{}, fmt.Errorf("unsupported content format %q", format)
	}
}

// StoredContent rebuilds a Content from its stored columns.
func StoredContent(format string, raw string) Content {
	if ContentFormat(format) == FormatHTML {
		return HTMLContent(raw)
	}
	return JSONContent(JSON(raw))
}

// Raw returns the column text the body is stored as.
func (c Content) Raw() string {
	if c.Format == FormatHTML {
		return c.HTML
	}
	return string(c.JSON)
}

// IsZero reports whether the body is absent, e.g. elided from a listing.
func (c Content) IsZero() bool {
	if c.Format == FormatHTML {
		return c.HTML == ""
	}
	return c.JSON.IsZero()
}

// MarshalJSON emits the JSON document verbatim or the HTML as a JSON string.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsZero() {
		return []byte("null"), nil
	}
	if c.Format == FormatHTML {
		return json.Marshal(c.HTML)
	}
	return c.JSON.MarshalJSON()
}
