package skills

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtechbro/skillstack/pkg/metadata"
)

func codes(violations []Violation) []ViolationCode {
	var result []ViolationCode
	for _, v := range violations {
		result = append(result, v.Code)
	}
	return result
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		meta     *metadata.Metadata
		dirName  string
		expected []ViolationCode
	}{
		{
			name:     "valid skill",
			meta:     &metadata.Metadata{Name: "foo-bar", Description: "Does things"},
			dirName:  "foo-bar",
			expected: nil,
		},
		{
			name:     "directory case mismatch",
			meta:     &metadata.Metadata{Name: "foo-bar", Description: "Does things"},
			dirName:  "FooBar",
			expected: []ViolationCode{ViolationNameMismatch},
		},
		{
			name:     "html in description",
			meta:     &metadata.Metadata{Name: "foo-bar", Description: "Runs <script> tags"},
			dirName:  "foo-bar",
			expected: []ViolationCode{ViolationForbiddenCharacter},
		},
		{
			name:     "uppercase name",
			meta:     &metadata.Metadata{Name: "FooBar", Description: "Does things"},
			dirName:  "FooBar",
			expected: []ViolationCode{ViolationNameFormat},
		},
		{
			name:     "leading hyphen",
			meta:     &metadata.Metadata{Name: "-foo", Description: "Does things"},
			dirName:  "-foo",
			expected: []ViolationCode{ViolationNameFormat},
		},
		{
			name:     "consecutive hyphens",
			meta:     &metadata.Metadata{Name: "foo--bar", Description: "Does things"},
			dirName:  "foo--bar",
			expected: []ViolationCode{ViolationNameFormat},
		},
		{
			name:     "name too long",
			meta:     &metadata.Metadata{Name: strings.Repeat("a", 41), Description: "Does things"},
			dirName:  strings.Repeat("a", 41),
			expected: []ViolationCode{ViolationNameFormat},
		},
		{
			name:     "name at the length limit",
			meta:     &metadata.Metadata{Name: strings.Repeat("a", 40), Description: "Does things"},
			dirName:  strings.Repeat("a", 40),
			expected: nil,
		},
		{
			name:     "empty description",
			meta:     &metadata.Metadata{Name: "foo-bar", Description: ""},
			dirName:  "foo-bar",
			expected: []ViolationCode{ViolationDescriptionEmpty},
		},
		{
			name:     "description too long",
			meta:     &metadata.Metadata{Name: "foo-bar", Description: strings.Repeat("x", 1025)},
			dirName:  "foo-bar",
			expected: []ViolationCode{ViolationDescriptionTooLong},
		},
		{
			name:     "description at the length limit",
			meta:     &metadata.Metadata{Name: "foo-bar", Description: strings.Repeat("x", 1024)},
			dirName:  "foo-bar",
			expected: nil,
		},
		{
			name:     "multi-byte description counted in characters",
			meta:     &metadata.Metadata{Name: "foo-bar", Description: strings.Repeat("é", 600)},
			dirName:  "foo-bar",
			expected: nil,
		},
		{
			name:     "multi-byte description at the length limit",
			meta:     &metadata.Metadata{Name: "foo-bar", Description: strings.Repeat("é", 1024)},
			dirName:  "foo-bar",
			expected: nil,
		},
		{
			name:     "multi-byte description over the length limit",
			meta:     &metadata.Metadata{Name: "foo-bar", Description: strings.Repeat("é", 1025)},
			dirName:  "foo-bar",
			expected: []ViolationCode{ViolationDescriptionTooLong},
		},
		{
			name:    "multiple failures reported together",
			meta:    &metadata.Metadata{Name: "Foo", Description: "<bad>"},
			dirName: "foo",
			expected: []ViolationCode{
				ViolationNameFormat,
				ViolationNameMismatch,
				ViolationForbiddenCharacter,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := Validate(tt.meta, tt.dirName)
			assert.Equal(t, tt.expected, codes(violations))
		})
	}
}

func TestFormatViolations(t *testing.T) {
	violations := Validate(&metadata.Metadata{Name: "Foo", Description: ""}, "foo")
	require.NotEmpty(t, violations)

	formatted := FormatViolations(violations)
	assert.Contains(t, formatted, string(ViolationNameFormat))
	assert.Contains(t, formatted, string(ViolationDescriptionEmpty))
	assert.Contains(t, formatted, "; ")
}
