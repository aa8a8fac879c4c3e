package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterWatcherDeliversOnce(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 10, true))
	require.NoError(t, err)

	var calls [][]VertexInfo
	err = f.viewer.RegisterWatcher("DATA", "w", []int{3, 7}, func(vs []VertexInfo) {
		calls = append(calls, vs)
	})
	require.NoError(t, err)

	require.Len(t, calls, 1)
	require.Len(t, calls[0], 2)
	assert.Equal(t, 3, calls[0][0].Index)
	assert.Equal(t, 7, calls[0][1].Index)
	assert.Equal(t, 3.0, calls[0][0].X)
	assert.Equal(t, 14.0, calls[0][1].Y)
	assert.Equal(t, gray(7), calls[0][1].Color)
}

func TestWatchersFollowCamera(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 4, true))
	require.NoError(t, err)

	var last []VertexInfo
	n := 0
	require.NoError(t, f.viewer.RegisterWatcher("DATA", "w", []int{2}, func(vs []VertexInfo) {
		last = vs
		n++
	}))

	f.camera.SetZoom(3)
	assert.Equal(t, 2, n)
	assert.Equal(t, 6.0, last[0].X)
	assert.Equal(t, 12.0, last[0].Y)
}

func TestRegisterWatcherReplaces(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 4, true))
	require.NoError(t, err)

	first, second := 0, 0
	require.NoError(t, f.viewer.RegisterWatcher("DATA", "w", []int{0}, func([]VertexInfo) { first++ }))
	require.NoError(t, f.viewer.RegisterWatcher("DATA", "w", []int{1}, func([]VertexInfo) { second++ }))

	f.viewer.Sync()
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
	assert.Equal(t, 1, f.viewer.Watchers().Len())

	idx, ok := f.viewer.Watchers().Indices("DATA", "w")
	require.True(t, ok)
	assert.Equal(t, []int{1}, idx)
}

func TestRemoveUnknownWatcher(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 4, true))
	require.NoError(t, err)

	assert.NotPanics(t, func() { f.viewer.RemoveWatcher("DATA", "missing") })
	assert.NotPanics(t, func() { f.viewer.RemoveWatcher("nope", "missing") })
	assert.False(t, f.viewer.Watchers().Unregister("DATA", "missing"))
}

func TestRegisterWatcherUnknownSeries(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 4, true))
	require.NoError(t, err)
	assert.ErrorIs(t, f.viewer.RegisterWatcher("other", "w", []int{0}, nil), ErrUnknownSeries)
}

func TestWatcherOnNonInteractiveSeries(t *testing.T) {
	f, err := newFixture(nil, testSeries("bg", 4, false))
	require.NoError(t, err)

	var got []VertexInfo
	require.NoError(t, f.viewer.RegisterWatcher("bg", "w", []int{1}, func(vs []VertexInfo) { got = vs }))
	assert.Equal(t, ScreenPoint{X: 1, Y: 2}, ScreenPoint{X: got[0].X, Y: got[0].Y})

	err = f.viewer.RegisterWatcher("bg", "bad", []int{9}, nil)
	assert.ErrorIs(t, err, ErrVertexOutOfRange)
}

func TestWatchersDeliveredInRegistrationOrder(t *testing.T) {
	f, err := newFixture(nil, testSeries("a", 2, true), testSeries("b", 2, true))
	require.NoError(t, err)

	var order []string
	for _, w := range []struct {
		series SeriesID
		name   string
	}{{"b", "x"}, {"a", "y"}, {"b", "z"}} {
		name := w.name
		require.NoError(t, f.viewer.RegisterWatcher(w.series, name, []int{0}, func([]VertexInfo) {
			order = append(order, name)
		}))
	}
	order = nil
	f.viewer.Sync()
	assert.Equal(t, []string{"x", "y", "z"}, order)
	assert.Equal(t, []string{"x", "z"}, f.viewer.Watchers().Names("b"))
}

func TestWatcherRemovedDuringPass(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 2, true))
	require.NoError(t, err)

	second := 0
	require.NoError(t, f.viewer.RegisterWatcher("DATA", "first", []int{0}, func([]VertexInfo) {
		f.viewer.RemoveWatcher("DATA", "second")
	}))
	require.NoError(t, f.viewer.RegisterWatcher("DATA", "second", []int{0}, func([]VertexInfo) { second++ }))
	assert.Equal(t, 1, second)

	f.viewer.Sync()
	assert.Equal(t, 1, second)
	assert.Equal(t, 1, f.viewer.Watchers().Len())
}

func TestRecomputeAllReturnsFirstError(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 2, true))
	require.NoError(t, err)

	ok := 0
	require.NoError(t, f.viewer.RegisterWatcher("DATA", "ok", []int{0}, func([]VertexInfo) { ok++ }))
	f.indices["DATA"].err = errFake
	assert.Equal(t, errFake, f.viewer.Watchers().RecomputeAll())

	f.indices["DATA"].err = nil
	require.NoError(t, f.viewer.Watchers().RecomputeAll())
	assert.Equal(t, 2, ok)
}
