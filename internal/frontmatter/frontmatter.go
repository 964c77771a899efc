// Package frontmatter splits YAML front matter from page, post, layout and
// template files.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a front
// matter delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a parsed file: its front matter fields and the remaining body.
type Document struct {
	Fields map[string]any
	Body   []byte
	// Had is true when the file started with a front matter block, even an empty one.
	Had bool
}

// Split separates a `---` delimited YAML block from the body.
//
// If the content does not start with a delimiter line, had is false and body
// is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := newline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}
	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}

	closing := []byte(nl + "---")
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	frontmatter = rest[:idx+len(nl)]
	body = rest[idx+len(closing):]
	// The closing delimiter must end its line.
	switch {
	case len(body) == 0:
	case bytes.HasPrefix(body, []byte(nl)):
		body = body[len(nl):]
	default:
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return frontmatter, body, true, nil
}

// ParseYAML parses raw YAML front matter (without delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Parse splits and decodes content in one step.
func Parse(content []byte) (Document, error) {
	fm, body, had, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	fields, err := ParseYAML(fm)
	if err != nil {
		return Document{}, err
	}
	return Document{Fields: fields, Body: body, Had: had}, nil
}

func newline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
