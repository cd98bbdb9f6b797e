package skills

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/freshtechbro/skillstack/pkg/metadata"
)

// ViolationCode identifies a validation rule breach
type ViolationCode string

// Validation rule codes, in evaluation order
const (
	ViolationNameFormat         ViolationCode = "name-format"
	ViolationNameMismatch       ViolationCode = "name-mismatch"
	ViolationDescriptionEmpty   ViolationCode = "description-empty"
	ViolationDescriptionTooLong ViolationCode = "description-too-long"
	ViolationForbiddenCharacter ViolationCode = "forbidden-character"
)

// MaxDescriptionLength is the upper bound on skill descriptions.
const MaxDescriptionLength = 1024

var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Violation describes a single broken validation rule
type Violation struct {
	Code    ViolationCode
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// Validate applies the skill naming and content rules to parsed metadata.
// It is total: every failure is an entry in the returned list, and an empty
// list means the skill is valid. Rules are checked in a fixed order and all
// of them are evaluated.
func Validate(meta *metadata.Metadata, dirName string) []Violation {
	var violations []Violation

	if len(meta.Name) < 1 || len(meta.Name) > 40 || !namePattern.MatchString(meta.Name) {
		violations = append(violations, Violation{
			Code:    ViolationNameFormat,
			Message: fmt.Sprintf("name %q must be 1-40 hyphen-separated lowercase alphanumeric characters", meta.Name),
		})
	}

	if meta.Name != dirName {
		violations = append(violations, Violation{
			Code:    ViolationNameMismatch,
			Message: fmt.Sprintf("name %q does not match directory name %q", meta.Name, dirName),
		})
	}

	if meta.Description == "" {
		violations = append(violations, Violation{
			Code:    ViolationDescriptionEmpty,
			Message: "description must not be empty",
		})
	}

	// The limit counts characters, not bytes; multi-byte descriptions must
	// not be penalized for their encoding.
	if descLen := utf8.RuneCountInString(meta.Description); descLen > MaxDescriptionLength {
		violations = append(violations, Violation{
			Code:    ViolationDescriptionTooLong,
			Message: fmt.Sprintf("description is %d characters, maximum is %d", descLen, MaxDescriptionLength),
		})
	}

	if strings.ContainsAny(meta.Description, "<>") {
		violations = append(violations, Violation{
			Code:    ViolationForbiddenCharacter,
			Message: "description must not contain '<' or '>'",
		})
	}

	return violations
}

// FormatViolations renders a violation list as a single human-readable string
func FormatViolations(violations []Violation) string {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}
