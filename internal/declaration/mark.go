package declaration

import (
	"regexp"
	"strings"
)

// Mark is a task section header taken from a `// MARK: - Name -` comment or
// synthesized for constrained extensions. Sibling declarations share one
// *Mark; merging compares pointers.
type Mark struct {
	Name         string `json:"name,omitempty"`
	HasStartDash bool   `json:"has_start_dash,omitempty"`
	HasEndDash   bool   `json:"has_end_dash,omitempty"`
}

// ParseMark reads `MARK: - Name -`; the prefix and both dashes are optional.
func ParseMark(text string) *Mark {
	content := strings.TrimPrefix(text, "MARK: ")
	m := &Mark{}
	switch content {
	case "":
		return m
	case "-":
		m.HasStartDash = true
		return m
	}
	m.HasStartDash = strings.HasPrefix(content, "- ")
	m.HasEndDash = strings.HasSuffix(content, " -")
	start, end := 0, len(content)
	if m.HasStartDash {
		start = 2
	}
	if m.HasEndDash {
		end -= 2
	}
	if end > start {
		m.Name = content[start:end]
	}
	return m
}

var requirementTermRE = regexp.MustCompile(`\b([^=:]\S*)\b`)

// GenericRequirementsMark titles the members of a constrained extension.
func GenericRequirementsMark(requirements string) *Mark {
	return ParseMark("Available where " + requirementTermRE.ReplaceAllString(requirements, "`${1}`"))
}

// Empty reports a mark with neither a name nor dashes.
func (m *Mark) Empty() bool {
	return m == nil || (m.Name == "" && !m.HasStartDash && !m.HasEndDash)
}

// CopyFrom overwrites m with other's contents.
func (m *Mark) CopyFrom(other *Mark) {
	if other == nil {
		*m = Mark{}
		return
	}
	*m = *other
}

// CanMerge reports whether other's contents fit under m.
func (m *Mark) CanMerge(other *Mark) bool {
	return other.Empty() || other.Name == m.Name
}
