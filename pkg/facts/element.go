package facts

import (
	"sort"

	"github.com/codeatlas/codeatlas/pkg/errors"
)

// Kind classifies a code element.
type Kind string

// Element kinds produced by the parsing pipeline.
const (
	KindFunction           Kind = "function"
	KindClass              Kind = "class"
	KindImport             Kind = "import"
	KindStatementBlock     Kind = "statement_block"
	KindVariableDefinition Kind = "variable_definition"
	KindCommentBlock       Kind = "comment_block"
	KindOther              Kind = "other"
)

// knownKinds is the set of kinds this layer understands.
var knownKinds = map[Kind]bool{
	KindFunction:           true,
	KindClass:              true,
	KindImport:             true,
	KindStatementBlock:     true,
	KindVariableDefinition: true,
	KindCommentBlock:       true,
	KindOther:              true,
}

// Normalize maps unknown kinds to KindOther. Parsers emit language-specific
// kinds (e.g. "event_listener", "dom_element_definition") that this layer
// treats uniformly.
func (k Kind) Normalize() Kind {
	if knownKinds[k] {
		return k
	}
	return KindOther
}

// CodeElement is a named, line-ranged unit of source with an optional parent
// reference for nesting. ParentID is a weak back-reference, never an
// ownership link: a dangling ParentID is tolerated downstream (the element
// becomes a root).
type CodeElement struct {
	ID        int64          `json:"id" bson:"id"`
	ParentID  *int64         `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Kind      Kind           `json:"kind" bson:"kind"`
	Name      string         `json:"name" bson:"name"`
	StartLine int            `json:"start_line" bson:"start_line"`
	EndLine   int            `json:"end_line" bson:"end_line"`
	Metadata  map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// SpanLines returns the number of source lines the element covers.
// A malformed range (EndLine < StartLine) counts as a single line.
func (e CodeElement) SpanLines() int {
	if e.EndLine < e.StartLine {
		return 1
	}
	return e.EndLine - e.StartLine + 1
}

// FileDetails is the per-file payload from the parsing pipeline.
type FileDetails struct {
	Content  string        `json:"content" bson:"content"`
	Elements []CodeElement `json:"elements" bson:"elements"`
}

// SortByStartLine sorts elements by ascending start line, breaking ties by
// id so repeated sorts are stable across runs.
func SortByStartLine(elements []CodeElement) {
	sort.SliceStable(elements, func(i, j int) bool {
		if elements[i].StartLine != elements[j].StartLine {
			return elements[i].StartLine < elements[j].StartLine
		}
		return elements[i].ID < elements[j].ID
	})
}

// ValidateElements rejects fundamentally broken element records. Malformed
// domain data (bad ranges, dangling parents, unknown kinds) is not an error
// here - the layout layer degrades gracefully on those. Only contract
// violations fail: a non-positive id or a non-positive start line means the
// producer is broken, not the data.
func ValidateElements(elements []CodeElement) error {
	for i, e := range elements {
		if e.ID <= 0 {
			return errors.New(errors.ErrCodeInvalidElement, "element %d: non-positive id %d", i, e.ID)
		}
		if e.StartLine <= 0 {
			return errors.New(errors.ErrCodeInvalidElement, "element %d (id %d): non-positive start line %d", i, e.ID, e.StartLine)
		}
	}
	return nil
}
