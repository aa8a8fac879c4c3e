package viewer

import (
	"fmt"

	"cogentcore.org/core/math32/minmax"
)

// BoundingBox is an axis-aligned box in scene space.
type BoundingBox struct {
	Min    Vec3
	Max    Vec3
	Center Vec3
}

// Extent returns max - min per axis
func (b BoundingBox) Extent() Vec3 {
	return Vec3{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// Union returns the box covering both b and o
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	var axes [3]minmax.F64
	for d := range axes {
		axes[d].Set(b.Min[d], b.Max[d])
		axes[d].FitValInRange(o.Min[d])
		axes[d].FitValInRange(o.Max[d])
	}
	return boxFromAxes(axes)
}

func boxFromAxes(axes [3]minmax.F64) BoundingBox {
	var b BoundingBox
	for d := range axes {
		b.Min[d] = axes[d].Min
		b.Max[d] = axes[d].Max
		b.Center[d] = axes[d].Midpoint()
	}
	return b
}

// Minimum index counts for the derived operations of ComputeBounds
const (
	minCenterIndices = 1
	minZoomIndices   = 2
)

// ComputeBounds scans the given vertices of s once. At least minIndices
// indices are required; zoom-to needs two for a non-degenerate extent,
// center-on-point accepts one.
func ComputeBounds(s *Series, indices []int, minIndices int) (BoundingBox, error) {
	if minIndices < 1 {
		minIndices = 1
	}
	if len(indices) < minIndices {
		return BoundingBox{}, fmt.Errorf("%w: got %d, need at least %d", ErrInvalidIndexSetSize, len(indices), minIndices)
	}

	var axes [3]minmax.F64
	for d := range axes {
		axes[d].SetInfinity()
	}
	n := s.Len()
	for _, i := range indices {
		if i < 0 || i >= n {
			return BoundingBox{}, fmt.Errorf("%w: %s has no vertex %d", ErrVertexOutOfRange, s.Name, i)
		}
		axes[0].FitValInRange(s.X[i])
		axes[1].FitValInRange(s.Y[i])
		axes[2].FitValInRange(s.Z[i])
	}
	return boxFromAxes(axes), nil
}

// seriesBounds covers every vertex of s. Empty series yield a zero box.
func seriesBounds(s *Series) BoundingBox {
	if s.Len() == 0 {
		return BoundingBox{}
	}
	var axes [3]minmax.F64
	for d := range axes {
		axes[d].SetInfinity()
	}
	for i := 0; i < s.Len(); i++ {
		axes[0].FitValInRange(s.X[i])
		axes[1].FitValInRange(s.Y[i])
		axes[2].FitValInRange(s.Z[i])
	}
	return boxFromAxes(axes)
}
