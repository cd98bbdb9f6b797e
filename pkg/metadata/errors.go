package metadata

import "fmt"

// MissingHeaderError indicates the document does not begin with the opening
// frontmatter delimiter.
type MissingHeaderError struct {
	Path string
}

func (e *MissingHeaderError) Error() string {
	if e.Path == "" {
		return "document does not start with a frontmatter header"
	}
	return fmt.Sprintf("%s: document does not start with a frontmatter header", e.Path)
}

// MalformedHeaderError indicates the opening delimiter was found but no
// closing delimiter exists before end-of-file.
type MalformedHeaderError struct {
	Path string
}

func (e *MalformedHeaderError) Error() string {
	if e.Path == "" {
		return "frontmatter header is not closed"
	}
	return fmt.Sprintf("%s: frontmatter header is not closed", e.Path)
}

// MissingFieldError indicates a required frontmatter field is absent.
type MissingFieldError struct {
	Path  string
	Field string
}

func (e *MissingFieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("required frontmatter field %q is missing", e.Field)
	}
	return fmt.Sprintf("%s: required frontmatter field %q is missing", e.Path, e.Field)
}
