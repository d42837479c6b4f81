package viewport

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestFitZeroContainerIsIdentity(t *testing.T) {
	// A container size of (0,0) leaves the default identity
	// transform in place, no exception.
	b := NewBounds()
	b.AddRect(0, 0, 100, 50)

	got := Fit(b, 0, 0, Options{})
	if !got.IsIdentity() {
		t.Errorf("zero container should yield identity, got %+v", got)
	}
}

func TestFitEmptyBoundsIsIdentity(t *testing.T) {
	got := Fit(NewBounds(), 800, 600, Options{})
	if !got.IsIdentity() {
		t.Errorf("empty bounds should yield identity, got %+v", got)
	}
}

func TestFitSinglePointIsIdentity(t *testing.T) {
	b := NewBounds()
	b.AddPoint(42, 17)

	got := Fit(b, 800, 600, Options{})
	if !got.IsIdentity() {
		t.Errorf("zero extent should yield identity, got %+v", got)
	}
}

func TestFitScaleWithinZoomRange(t *testing.T) {
	tests := []struct {
		name          string
		w, h          float64
		width, height float64
	}{
		{"tiny layout zooms capped", 1.0, 1.0, 1920, 1080},
		{"huge layout zooms floored", 1e6, 1e6, 400, 300},
		{"ordinary", 800, 400, 1000, 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBounds()
			b.AddRect(0, 0, tt.w, tt.h)
			got := Fit(b, tt.width, tt.height, Options{})

			if got.Scale < DefaultMinZoom || got.Scale > DefaultMaxZoom {
				t.Errorf("scale %v outside [%v, %v]", got.Scale, DefaultMinZoom, DefaultMaxZoom)
			}
		})
	}
}

func TestFitCentersBounds(t *testing.T) {
	b := NewBounds()
	b.AddRect(100, 200, 300, 100)

	tr := Fit(b, 900, 600, Options{})

	cx, cy := tr.Apply((b.MinX+b.MaxX)/2, (b.MinY+b.MaxY)/2)
	if math.Abs(cx-450) > 1e-9 || math.Abs(cy-300) > 1e-9 {
		t.Errorf("layout center maps to (%v,%v), want (450,300)", cx, cy)
	}
}

func TestFitNeverNaN(t *testing.T) {
	b := NewBounds()
	b.AddRect(-10, -10, 20, 20)

	for _, dims := range [][2]float64{{0, 0}, {0, 100}, {100, 0}, {1, 1}, {1e12, 1e12}} {
		tr := Fit(b, dims[0], dims[1], Options{})
		if math.IsNaN(tr.Scale) || math.IsNaN(tr.TranslateX) || math.IsNaN(tr.TranslateY) {
			t.Errorf("NaN transform for container %v", dims)
		}
	}
}

func TestFitContainmentProp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewBounds()
		x := rapid.Float64Range(-1e4, 1e4).Draw(t, "x")
		y := rapid.Float64Range(-1e4, 1e4).Draw(t, "y")
		w := rapid.Float64Range(1, 1e4).Draw(t, "w")
		h := rapid.Float64Range(1, 1e4).Draw(t, "h")
		b.AddRect(x, y, w, h)

		width := rapid.Float64Range(100, 4000).Draw(t, "width")
		height := rapid.Float64Range(100, 4000).Draw(t, "height")

		opts := Options{}
		tr := Fit(b, width, height, opts)
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatal(err)
		}

		if tr.Scale < opts.MinZoom-1e-12 || tr.Scale > opts.MaxZoom+1e-12 {
			t.Fatalf("scale %v outside zoom range", tr.Scale)
		}

		// Unless the clamp forced the scale, the transformed padded box
		// fits inside the container on both axes.
		unclamped := math.Min(width/(b.Width()+2*opts.PadX), height/(b.Height()+2*opts.PadY)) * opts.Shrink
		if unclamped >= opts.MinZoom && unclamped <= opts.MaxZoom {
			x0, y0 := tr.Apply(b.MinX, b.MinY)
			x1, y1 := tr.Apply(b.MaxX, b.MaxY)
			const eps = 1e-6
			if x0 < -eps || y0 < -eps || x1 > width+eps || y1 > height+eps {
				t.Fatalf("transformed box [%v,%v]-[%v,%v] escapes %vx%v", x0, y0, x1, y1, width, height)
			}
		}
	})
}

func TestBoundsAccumulation(t *testing.T) {
	b := NewBounds()
	b.AddPoint(5, -3)
	b.AddPoint(-2, 8)
	b.AddRect(0, 0, 10, 1)

	if b.MinX != -2 || b.MaxX != 10 || b.MinY != -3 || b.MaxY != 8 {
		t.Errorf("bounds = (%v,%v)-(%v,%v)", b.MinX, b.MinY, b.MaxX, b.MaxY)
	}
	if b.Empty() {
		t.Error("bounds with points should not be empty")
	}
}
