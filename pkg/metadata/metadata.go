// Package metadata parses the YAML frontmatter header of skill documents.
// A skill document begins with a delimited header block ("---" lines)
// containing at least the name and description fields, followed by the
// free-form documentation body. Parsing is tolerant: unknown fields are
// retained but never rejected, so newer documents stay readable by older
// tools.
package metadata

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const delimiter = "---"

// Metadata holds the parsed frontmatter of a skill document.
type Metadata struct {
	Name        string
	Description string
	// Extra holds any frontmatter fields beyond name/description.
	// They are accepted and ignored by every tool.
	Extra map[string]string
}

// Document is a fully parsed skill document: its metadata plus the
// markdown body with the header stripped.
type Document struct {
	Meta *Metadata
	Body string
}

// Parse reads and parses the skill document at path.
func Parse(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skill document %s", path)
	}

	doc, err := ParseBytes(content)
	if err != nil {
		attachPath(err, path)
		return nil, err
	}
	return doc, nil
}

// ParseBytes parses a skill document from memory. It returns a typed error
// (MissingHeaderError, MalformedHeaderError, MissingFieldError) when the
// header block violates the document contract.
func ParseBytes(content []byte) (*Document, error) {
	lines := strings.Split(string(content), "\n")

	open := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.TrimRight(line, " \t\r") == delimiter {
			open = i
		}
		break
	}
	if open == -1 {
		return nil, &MissingHeaderError{}
	}

	closing := -1
	for i := open + 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t\r") == delimiter {
			closing = i
			break
		}
	}
	if closing == -1 {
		return nil, &MalformedHeaderError{}
	}

	fields, err := parseHeader(strings.Join(lines[open:closing+1], "\n") + "\n")
	if err != nil {
		return nil, err
	}

	m := &Metadata{Extra: make(map[string]string)}
	for key, value := range fields {
		switch key {
		case "name":
			m.Name = value
		case "description":
			m.Description = value
		default:
			m.Extra[key] = value
		}
	}

	if m.Name == "" {
		return nil, &MissingFieldError{Field: "name"}
	}
	if m.Description == "" {
		return nil, &MissingFieldError{Field: "description"}
	}

	body := strings.TrimLeft(strings.Join(lines[closing+1:], "\n"), "\n")

	return &Document{Meta: m, Body: body}, nil
}

// parseHeader runs the delimited block through goldmark's frontmatter
// extension and flattens the result into trimmed string values.
func parseHeader(header string) (map[string]string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert([]byte(header), &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse frontmatter")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, &MalformedHeaderError{}
	}

	fields := make(map[string]string, len(metaData))
	for key, value := range metaData {
		if value == nil {
			fields[key] = ""
			continue
		}
		fields[key] = strings.TrimSpace(fmt.Sprint(value))
	}

	return fields, nil
}

func attachPath(err error, path string) {
	switch e := err.(type) {
	case *MissingHeaderError:
		e.Path = path
	case *MalformedHeaderError:
		e.Path = path
	case *MissingFieldError:
		e.Path = path
	}
}
