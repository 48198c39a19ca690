// Package frontmatter separates the YAML header of a page template from its body.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the page opened a YAML header but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter opening delimiter found but closing delimiter is missing")

// Page is a page template split into its header fields and template body.
type Page struct {
	Fields map[string]any
	Body   []byte
	// Had reports whether the source carried a header at all.
	Had bool
}

// Layout returns the layout named by the header, or fallback when unset.
func (p Page) Layout(fallback string) string {
	if v, ok := p.Fields["layout"].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Parse splits content and decodes the header into Fields. Fields is never nil.
func Parse(content []byte) (Page, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Page{}, err
	}
	fields, err := ParseYAML(raw)
	if err != nil {
		return Page{}, fmt.Errorf("parse front matter: %w", err)
	}
	return Page{Fields: fields, Body: body, Had: had}, nil
}

// Split separates a `---` delimited header from the body. Without an opening
// delimiter, had is false and body is the full input.
func Split(content []byte) (header []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A header closed at EOF without a trailing newline.
		tail := []byte(nl + "---")
		if bytes.HasSuffix(content, tail) {
			return content[start : len(content)-len("---")], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start : start+idx+len(nl)], content[start+idx+len(closeSeq):], true, nil
}

// ParseYAML decodes a raw header (without delimiters) into a map.
func ParseYAML(header []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(header)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
