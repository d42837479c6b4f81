package blocks

import (
	apperrors "github.com/codeatlas/codeatlas/pkg/errors"
	"github.com/codeatlas/codeatlas/pkg/viz"
)

// JSON renders a structure layout as its canonical serialization.
func JSON(l viz.Layout) ([]byte, error) {
	if !l.IsStructure() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidVizType, "blocks sink needs a structure layout, got %q", l.VizType)
	}
	return viz.MarshalLayout(l)
}
