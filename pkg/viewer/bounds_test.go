package viewer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() *Series {
	return &Series{
		Name: "tri",
		X:    []float64{0, 10, 5},
		Y:    []float64{0, 0, 10},
		Z:    []float64{0, 0, 0},
	}
}

func TestComputeBounds(t *testing.T) {
	b, err := ComputeBounds(triangle(), []int{0, 1, 2}, minZoomIndices)
	require.NoError(t, err)
	assert.Equal(t, Vec3{0, 0, 0}, b.Min)
	assert.Equal(t, Vec3{10, 10, 0}, b.Max)
	assert.Equal(t, Vec3{5, 5, 0}, b.Center)
	assert.Equal(t, Vec3{10, 10, 0}, b.Extent())
}

func TestComputeBoundsSubset(t *testing.T) {
	b, err := ComputeBounds(triangle(), []int{2, 1}, minZoomIndices)
	require.NoError(t, err)
	assert.Equal(t, Vec3{5, 0, 0}, b.Min)
	assert.Equal(t, Vec3{10, 10, 0}, b.Max)
	assert.Equal(t, Vec3{7.5, 5, 0}, b.Center)
}

func TestComputeBoundsTooFewIndices(t *testing.T) {
	_, err := ComputeBounds(triangle(), []int{1}, minZoomIndices)
	assert.True(t, errors.Is(err, ErrInvalidIndexSetSize))

	_, err = ComputeBounds(triangle(), nil, minCenterIndices)
	assert.ErrorIs(t, err, ErrInvalidIndexSetSize)

	b, err := ComputeBounds(triangle(), []int{1}, minCenterIndices)
	require.NoError(t, err)
	assert.Equal(t, Vec3{10, 0, 0}, b.Center)
}

func TestComputeBoundsOutOfRange(t *testing.T) {
	_, err := ComputeBounds(triangle(), []int{0, 3}, minZoomIndices)
	assert.ErrorIs(t, err, ErrVertexOutOfRange)

	_, err = ComputeBounds(triangle(), []int{-1, 0}, minZoomIndices)
	assert.ErrorIs(t, err, ErrVertexOutOfRange)
}

func TestBoundingBoxUnion(t *testing.T) {
	a := BoundingBox{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	b := BoundingBox{Min: Vec3{-1, 2, 0.5}, Max: Vec3{0.5, 3, 4}}
	u := a.Union(b)
	assert.Equal(t, Vec3{-1, 0, 0}, u.Min)
	assert.Equal(t, Vec3{1, 3, 4}, u.Max)
	assert.Equal(t, Vec3{0, 1.5, 2}, u.Center)
}

func TestSeriesBoundsEmpty(t *testing.T) {
	assert.Equal(t, BoundingBox{}, seriesBounds(&Series{Name: "empty"}))
}
