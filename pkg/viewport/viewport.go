// Package viewport computes the fit transform that maps a computed layout's
// coordinate space into a bounded display area.
//
// The calculator is polymorphic over both layout engines' outputs: anything
// that can report points or rectangles contributes to a Bounds, and Fit
// derives the scale and translation that centers the padded bounding box in
// the available area. All degenerate inputs (zero-sized container, empty
// node set, single node) fall back to the identity transform - never a
// division by zero, never a NaN.
package viewport

import "math"

// Transform is a uniform scale plus translation.
type Transform struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

// Identity returns the no-op transform.
func Identity() Transform {
	return Transform{Scale: 1}
}

// IsIdentity reports whether t is the identity transform.
func (t Transform) IsIdentity() bool {
	return t.Scale == 1 && t.TranslateX == 0 && t.TranslateY == 0
}

// Apply maps a layout-space point into display space.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.TranslateX, y*t.Scale + t.TranslateY
}

// Bounds accumulates the extent of a positioned node set.
// The zero value is empty; Add points or rects to grow it.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64

	empty bool
	init  bool
}

// NewBounds returns an empty Bounds.
func NewBounds() Bounds {
	return Bounds{empty: true}
}

// AddPoint grows the bounds to include a point.
func (b *Bounds) AddPoint(x, y float64) {
	if !b.init || b.empty {
		b.MinX, b.MaxX = x, x
		b.MinY, b.MaxY = y, y
		b.empty = false
		b.init = true
		return
	}
	b.MinX = math.Min(b.MinX, x)
	b.MaxX = math.Max(b.MaxX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxY = math.Max(b.MaxY, y)
}

// AddRect grows the bounds to include a rectangle.
func (b *Bounds) AddRect(x, y, w, h float64) {
	b.AddPoint(x, y)
	b.AddPoint(x+w, y+h)
}

// Empty reports whether no point was ever added.
func (b Bounds) Empty() bool {
	return !b.init || b.empty
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Default fit values.
const (
	DefaultPadX    = 40.0
	DefaultPadY    = 24.0
	DefaultShrink  = 0.9
	DefaultMinZoom = 0.08
	DefaultMaxZoom = 2.5
)

// Options configures the fit computation. Asymmetric padding is deliberate:
// the axis carrying text labels needs more room.
type Options struct {
	PadX    float64 `json:"pad_x,omitempty"`
	PadY    float64 `json:"pad_y,omitempty"`
	Shrink  float64 `json:"shrink,omitempty"`
	MinZoom float64 `json:"min_zoom,omitempty"`
	MaxZoom float64 `json:"max_zoom,omitempty"`

	validated bool `json:"-"`
}

// ValidateAndSetDefaults fills zero fields with defaults. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.PadX == 0 {
		o.PadX = DefaultPadX
	}
	if o.PadY == 0 {
		o.PadY = DefaultPadY
	}
	if o.Shrink == 0 {
		o.Shrink = DefaultShrink
	}
	if o.MinZoom == 0 {
		o.MinZoom = DefaultMinZoom
	}
	if o.MaxZoom == 0 {
		o.MaxZoom = DefaultMaxZoom
	}
	o.validated = true
	return nil
}

// Fit computes the transform that places the padded bounds centered inside a
// width x height display area.
//
// Degenerate inputs short-circuit to the identity transform: empty bounds, a
// zero or negative extent on either axis (single node), or a container that
// is not yet visible (zero-sized). Otherwise the scale is
// min(w/extentX, h/extentY) * shrink, clamped to [MinZoom, MaxZoom], and the
// translation centers the padded box at that scale.
func Fit(b Bounds, width, height float64, opts Options) Transform {
	_ = opts.ValidateAndSetDefaults()

	if b.Empty() || width <= 0 || height <= 0 {
		return Identity()
	}

	extentX := b.Width() + 2*opts.PadX
	extentY := b.Height() + 2*opts.PadY
	if b.Width() <= 0 || b.Height() <= 0 {
		return Identity()
	}

	scale := math.Min(width/extentX, height/extentY) * opts.Shrink
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return Identity()
	}
	if scale < opts.MinZoom {
		scale = opts.MinZoom
	}
	if scale > opts.MaxZoom {
		scale = opts.MaxZoom
	}

	centerX := (b.MinX + b.MaxX) / 2
	centerY := (b.MinY + b.MaxY) / 2

	return Transform{
		Scale:      scale,
		TranslateX: width/2 - centerX*scale,
		TranslateY: height/2 - centerY*scale,
	}
}
