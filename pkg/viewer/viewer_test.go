package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesBindings(t *testing.T) {
	cam := newFakeCamera()
	s := testSeries("DATA", 3, true)

	_, err := New(cam, nil, []Binding{{Series: s, Points: newFakePoints(3)}}, nil)
	assert.ErrorIs(t, err, ErrInvalidSeries)

	bad := testSeries("DATA", 3, false)
	bad.Y = bad.Y[:2]
	_, err = New(cam, nil, []Binding{{Series: bad, Points: newFakePoints(3)}}, nil)
	assert.ErrorIs(t, err, ErrInvalidSeries)

	a, b := testSeries("x", 1, false), testSeries("x", 1, false)
	_, err = New(cam, nil, []Binding{{Series: a, Points: newFakePoints(1)}, {Series: b, Points: newFakePoints(1)}}, nil)
	assert.ErrorIs(t, err, ErrInvalidSeries)
}

func TestNewAppliesFirstVariant(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 3, true))
	require.NoError(t, err)
	assert.Equal(t, gray(2), f.points["DATA"].colors[2])
	assert.Equal(t, Variant(0), func() Variant { c, _ := f.viewer.Colors("DATA"); return c.Variant() }())
	assert.Equal(t, []SeriesID{"DATA"}, f.viewer.SeriesIDs())
}

func TestClickSelectsAndNotifies(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 5, true))
	require.NoError(t, err)

	var clicks []VertexInfo
	f.viewer.OnVertexClick(func(vi VertexInfo) { clicks = append(clicks, vi) })

	f.viewer.HandleClick(ClickEvent{Series: "DATA", Index: 2, Found: true, Screen: ScreenPoint{X: 2, Y: 4}})
	f.viewer.HandleClick(ClickEvent{Series: "DATA", Index: 4, Found: true, Screen: ScreenPoint{X: 4, Y: 8}})

	require.Len(t, clicks, 2)
	assert.Equal(t, VertexInfo{X: 4, Y: 8, Index: 4, Color: gray(4)}, clicks[1])
	assert.Equal(t, []string{"add 2", "add 4"}, f.indices["DATA"].calls)

	// clicking a selected vertex focuses it
	f.viewer.HandleClick(ClickEvent{Series: "DATA", Index: 2, Found: true, Screen: ScreenPoint{X: 2, Y: 4}})
	require.Len(t, clicks, 3)
	assert.Equal(t, 2, clicks[2].Index)
	assert.Len(t, f.viewer.Selection(), 2)
	pos, it, ok := f.viewer.CurrentSelection()
	require.True(t, ok)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 2, it.Index)
	assert.Len(t, f.indices["DATA"].calls, 2)

	// misses are ignored
	f.viewer.HandleClick(ClickEvent{Series: "DATA"})
	assert.Len(t, clicks, 3)
}

func TestClickCallbackLastWins(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 3, true))
	require.NoError(t, err)

	first, second := 0, 0
	f.viewer.OnVertexClick(func(VertexInfo) { first++ })
	f.viewer.OnVertexClick(func(VertexInfo) { second++ })
	require.NoError(t, f.viewer.Select("DATA", 1))
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestSelectInsideClickCallback(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 5, true))
	require.NoError(t, err)

	nested := false
	f.viewer.OnVertexClick(func(vi VertexInfo) {
		if nested {
			return
		}
		nested = true
		require.NoError(t, f.viewer.Select("DATA", 1))
		require.NoError(t, f.viewer.Select("DATA", 3))
	})
	f.viewer.HandleClick(ClickEvent{Series: "DATA", Index: 1, Found: true})

	items := f.viewer.Selection()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Index)
	assert.Equal(t, 3, items[1].Index)
}

func TestDeselectAndClear(t *testing.T) {
	f, err := newFixture(nil, testSeries("a", 5, true), testSeries("b", 5, true))
	require.NoError(t, err)

	var clicks []int
	f.viewer.OnVertexClick(func(vi VertexInfo) { clicks = append(clicks, vi.Index) })

	require.NoError(t, f.viewer.Select("a", 1))
	require.NoError(t, f.viewer.Select("b", 2))
	require.NoError(t, f.viewer.Select("a", 3))

	require.NoError(t, f.viewer.Deselect("a", 3))
	assert.False(t, f.viewer.IsSelected("a", 3))
	assert.Equal(t, []int{1, 2, 3, 2}, clicks)
	assert.Contains(t, f.indices["a"].calls, "remove 3")

	// deselecting an unselected vertex does nothing
	require.NoError(t, f.viewer.Deselect("a", 4))
	assert.Len(t, clicks, 4)

	require.NoError(t, f.viewer.ClearSeriesSelection("b"))
	assert.Len(t, f.viewer.Selection(), 1)
	assert.Equal(t, []int{1, 2, 3, 2, 1}, clicks)

	f.viewer.ClearSelection()
	assert.Empty(t, f.viewer.Selection())
	assert.Empty(t, f.annot.lastIndicators())
	assert.Equal(t, "clear", f.indices["a"].calls[len(f.indices["a"].calls)-1])
}

func TestSelectErrors(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 3, true), testSeries("bg", 3, false))
	require.NoError(t, err)

	assert.ErrorIs(t, f.viewer.Select("nope", 0), ErrUnknownSeries)
	assert.ErrorIs(t, f.viewer.Select("bg", 0), ErrNotInteractive)

	f.indices["DATA"].err = errFake
	assert.Equal(t, errFake, f.viewer.Select("DATA", 0))
	assert.Empty(t, f.viewer.Selection())
}

func TestCycleSelection(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 5, true))
	require.NoError(t, err)

	clicks := 0
	f.viewer.OnVertexClick(func(VertexInfo) { clicks++ })
	for _, i := range []int{0, 2, 4} {
		require.NoError(t, f.viewer.Select("DATA", i))
	}
	clicks = 0

	for i := 0; i < 4; i++ {
		f.viewer.CycleSelection(Forward)
	}
	pos, _, _ := f.viewer.CurrentSelection()
	assert.Equal(t, 0, pos)
	assert.True(t, f.annot.lastIndicators()[0].Current)

	f.viewer.CycleSelection(Backward)
	pos, it, _ := f.viewer.CurrentSelection()
	assert.Equal(t, 2, pos)
	assert.Equal(t, 4, it.Index)
	assert.Equal(t, 0, clicks)
}

func TestHover(t *testing.T) {
	f, err := newFixture(&Options{DevicePixelRatio: 2}, testSeries("DATA", 4, true))
	require.NoError(t, err)

	var started []VertexInfo
	ended := 0
	f.viewer.OnVertexHoverStart(func(vi VertexInfo) { started = append(started, vi) })
	f.viewer.OnVertexHoverEnd(func() { ended++ })

	f.viewer.HandleHover(HoverEvent{Series: "DATA", Index: 3, Found: true, Screen: ScreenPoint{X: 3, Y: 6}})

	require.Len(t, started, 1)
	assert.Equal(t, 3, started[0].Index)
	hp, ok := f.viewer.Hovered()
	require.True(t, ok)
	assert.Equal(t, []string{"item3", "group1"}, hp.FullLabel)
	assert.Equal(t, "item3", hp.Label)
	assert.Equal(t, "group1", hp.Title)
	require.NotNil(t, f.annot.hover)
	assert.Equal(t, 0.5, f.annot.hoverInd.Size)

	require.NoError(t, f.viewer.ChangeVariant("DATA", 1))
	f.viewer.HandleHover(HoverEvent{Series: "DATA", Index: 3, Found: true})
	hp, _ = f.viewer.Hovered()
	assert.Equal(t, "group1", hp.Label)
	assert.Equal(t, "item3", hp.Title)

	f.viewer.HandleHover(HoverEvent{Series: "DATA"})
	_, ok = f.viewer.Hovered()
	assert.False(t, ok)
	assert.Equal(t, 1, ended)
	assert.Nil(t, f.annot.hover)
}

func TestHoverErrorStrict(t *testing.T) {
	f, err := newFixture(&Options{Strict: true}, testSeries("DATA", 4, true))
	require.NoError(t, err)
	assert.Panics(t, func() {
		f.viewer.HandleHover(HoverEvent{Series: "DATA", Index: 10, Found: true})
	})

	lax, err := newFixture(nil, testSeries("DATA", 4, true))
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		lax.viewer.HandleHover(HoverEvent{Series: "DATA", Index: 10, Found: true})
	})
	_, ok := lax.viewer.Hovered()
	assert.False(t, ok)
}

func TestVertexColors(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 4, true))
	require.NoError(t, err)

	require.NoError(t, f.viewer.SetVertexColor("DATA", 1, RGB{255, 0, 0}, true))
	c, err := f.viewer.VertexColor("DATA", 1)
	require.NoError(t, err)
	assert.Equal(t, RGB{255, 0, 0}.Normalize(), c)

	require.NoError(t, f.viewer.ResetVertexColors("DATA"))
	c, _ = f.viewer.VertexColor("DATA", 1)
	assert.Equal(t, gray(1), c)

	assert.ErrorIs(t, f.viewer.SetVertexColor("x", 0, RGB{}, false), ErrUnknownSeries)
	assert.ErrorIs(t, f.viewer.ChangeVariant("DATA", 5), ErrVariantOutOfRange)
}

func TestZoomTo(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 5, true))
	require.NoError(t, err)

	require.NoError(t, f.viewer.ZoomTo("DATA", []int{1, 3}, -1))
	assert.Equal(t, Vec3{2, 4, 0}, f.camera.lookAt)
	require.Len(t, f.camera.extents, 1)
	assert.Equal(t, [3]float64{2, 4, DefaultZoomPadding}, f.camera.extents[0])

	err = f.viewer.ZoomTo("DATA", []int{1}, 0)
	assert.ErrorIs(t, err, ErrInvalidIndexSetSize)
	assert.Len(t, f.camera.extents, 1)
}

func TestZoomToBatchesCameraUpdates(t *testing.T) {
	cam := batchCamera{newFakeCamera()}
	s := testSeries("DATA", 5, true)
	v, err := New(cam, nil, []Binding{{Series: s, Points: newFakePoints(5), Index: newFakeIndex(s, cam.fakeCamera)}}, nil)
	require.NoError(t, err)

	require.NoError(t, v.ZoomTo("DATA", []int{0, 4}, 0))
	assert.Equal(t, 1, cam.updates)
	assert.Equal(t, uint64(1), v.SyncPasses())
}

func TestZoomToFitAndScene(t *testing.T) {
	f, err := newFixture(nil, testSeries("a", 3, true), testSeries("b", 5, false))
	require.NoError(t, err)

	require.NoError(t, f.viewer.ZoomToFit("a", 0))
	assert.Equal(t, Vec3{1, 2, 0}, f.camera.lookAt)
	assert.Equal(t, [3]float64{2, 4, 0}, f.camera.extents[0])

	f.viewer.ZoomToScene(0.2)
	assert.Equal(t, Vec3{2, 4, 0}, f.camera.lookAt)
	assert.Equal(t, [3]float64{4, 8, 0.2}, f.camera.extents[1])
}

func TestCenterOnAndZoom(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 5, true))
	require.NoError(t, err)

	require.NoError(t, f.viewer.CenterOn("DATA", 3))
	assert.Equal(t, Vec3{3, 6, 0}, f.camera.lookAt)
	assert.ErrorIs(t, f.viewer.CenterOn("DATA", 9), ErrVertexOutOfRange)

	f.viewer.SetZoom(4)
	assert.Equal(t, 4.0, f.viewer.Zoom())
	f.viewer.ResetZoom()
	assert.Equal(t, 1.0, f.viewer.Zoom())
}

func TestBounds(t *testing.T) {
	f, err := newFixture(nil, testSeries("DATA", 5, true))
	require.NoError(t, err)

	b, err := f.viewer.Bounds("DATA", []int{4})
	require.NoError(t, err)
	assert.Equal(t, Vec3{4, 8, 0}, b.Center)

	sb, err := f.viewer.SeriesBounds("DATA")
	require.NoError(t, err)
	assert.Equal(t, Vec3{4, 8, 0}, sb.Max)
	assert.Equal(t, sb, f.viewer.SceneBounds())
}
