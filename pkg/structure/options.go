package structure

import (
	"github.com/codeatlas/codeatlas/pkg/errors"
)

// DisplayMode selects how elements are grouped into columns.
type DisplayMode string

// Supported display modes.
const (
	// ModeByKind groups root elements into one column per element kind,
	// columns ordered alphabetically by kind name.
	ModeByKind DisplayMode = "by-kind"

	// ModeByPosition flattens every element (all depths) into one column
	// ordered by start line, ignoring nesting for layout purposes.
	ModeByPosition DisplayMode = "by-position"
)

// ValidModes is the set of supported display modes.
var ValidModes = map[DisplayMode]bool{
	ModeByKind:     true,
	ModeByPosition: true,
}

// Default layout values, shared by CLI, API, and tests.
const (
	DefaultLineHeight     = 14.0
	DefaultIndentStep     = 16.0
	DefaultIndentCap      = 96.0
	DefaultMinHeight      = 18.0
	DefaultHeightScale    = 22.0
	DefaultMargin         = 10.0
	DefaultColumnPadding  = 24.0
	DefaultColumnGap      = 32.0
	DefaultLabelCharWidth = 7.2
	DefaultMinColumnWidth = 120.0
)

// Options configures the file-view layout.
type Options struct {
	// Mode selects the grouping strategy. Default: ModeByKind.
	Mode DisplayMode `json:"mode,omitempty"`

	// LineHeight is the vertical size of one source line in user units.
	// Nested elements are pinned at (start_line-1) * LineHeight.
	LineHeight float64 `json:"line_height,omitempty"`

	// IndentStep is the horizontal indentation added per nesting level.
	IndentStep float64 `json:"indent_step,omitempty"`

	// IndentCap bounds total indentation so deep nesting never consumes
	// the full column width.
	IndentCap float64 `json:"indent_cap,omitempty"`

	// MinHeight is the hard floor for element heights, keeping single-line
	// elements legible and clickable.
	MinHeight float64 `json:"min_height,omitempty"`

	// HeightScale multiplies log2(lineCount+1) to give elements a
	// sub-linear height.
	HeightScale float64 `json:"height_scale,omitempty"`

	// Margin is the vertical gap between sibling slots.
	Margin float64 `json:"margin,omitempty"`

	// ColumnPadding is the horizontal padding inside a column, applied on
	// both sides of the widest label.
	ColumnPadding float64 `json:"column_padding,omitempty"`

	// ColumnGap is the horizontal gap between columns.
	ColumnGap float64 `json:"column_gap,omitempty"`

	// LabelCharWidth approximates the rendered width of one label cell.
	LabelCharWidth float64 `json:"label_char_width,omitempty"`

	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks option values and fills zero fields with
// defaults. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Mode == "" {
		o.Mode = ModeByKind
	}
	if !ValidModes[o.Mode] {
		return errors.New(errors.ErrCodeInvalidMode, "invalid display mode: %q (must be by-kind or by-position)", o.Mode)
	}

	defaults := []struct {
		field *float64
		value float64
		name  string
	}{
		{&o.LineHeight, DefaultLineHeight, "line_height"},
		{&o.IndentStep, DefaultIndentStep, "indent_step"},
		{&o.IndentCap, DefaultIndentCap, "indent_cap"},
		{&o.MinHeight, DefaultMinHeight, "min_height"},
		{&o.HeightScale, DefaultHeightScale, "height_scale"},
		{&o.Margin, DefaultMargin, "margin"},
		{&o.ColumnPadding, DefaultColumnPadding, "column_padding"},
		{&o.ColumnGap, DefaultColumnGap, "column_gap"},
		{&o.LabelCharWidth, DefaultLabelCharWidth, "label_char_width"},
	}
	for _, d := range defaults {
		if *d.field == 0 {
			*d.field = d.value
		}
		if *d.field < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be non-negative, got %v", d.name, *d.field)
		}
	}

	o.validated = true
	return nil
}
