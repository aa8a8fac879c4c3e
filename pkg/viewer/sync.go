package viewer

import "math"

type syncState int

const (
	syncIdle syncState = iota
	syncRunning
	syncPending
)

// minIndicatorSize is the smallest selection marker, in device pixels
const minIndicatorSize = 10.0

// ViewportSyncController recomputes everything that depends on the camera.
// It is subscribed to the camera's "updated" notification. A notification
// raised while a pass is running (for example by a watcher callback that
// moves the camera) is not nested; it causes exactly one more pass after
// the running one.
type ViewportSyncController struct {
	v      *Viewer
	state  syncState
	passes uint64
}

// Handle runs the update passes for one camera notification. A pass that
// panics still returns the controller to idle, so the next notification
// runs normally.
func (c *ViewportSyncController) Handle() {
	if c.state != syncIdle {
		c.state = syncPending
		return
	}
	defer func() { c.state = syncIdle }()
	for {
		c.state = syncRunning
		c.pass()
		if c.state != syncPending {
			break
		}
	}
}

// Passes returns the number of completed update passes
func (c *ViewportSyncController) Passes() uint64 {
	return c.passes
}

func (c *ViewportSyncController) pass() {
	v := c.v
	v.placeLabel(LabelTitle)
	v.placeLabel(LabelYAxis)
	v.placeLabel(LabelXAxis)
	v.updateIndicators()
	if err := v.watchers.RecomputeAll(); err != nil {
		v.fail(err, "watcher recompute")
	}
	c.passes++
}

// labelAnchor returns the scene position a label is attached to
func (v *Viewer) labelAnchor(kind LabelKind) Vec3 {
	b := v.scene
	switch kind {
	case LabelYAxis:
		return Vec3{b.Min[0], b.Center[1], b.Center[2]}
	default:
		return Vec3{b.Center[0], b.Min[1], b.Center[2]}
	}
}

func (v *Viewer) placeLabel(kind LabelKind) {
	v.annot.PlaceLabel(kind, v.camera.ProjectToScreen(v.labelAnchor(kind)))
}

// indicatorSize converts a point size in device pixels to the size of a
// selection marker in canvas pixels
func (v *Viewer) indicatorSize(pointSize float64) float64 {
	dpr := v.opts.DevicePixelRatio
	return math.Max(pointSize/dpr, minIndicatorSize/dpr) * 1.25
}

// updateIndicators repositions the marker of every selected vertex
func (v *Viewer) updateIndicators() {
	indicators := make([]Indicator, 0, v.selection.Len())
	current := v.selection.Current()
	for i := 0; i < v.selection.Len(); i++ {
		it := v.selection.At(i)
		e := v.series[it.Series]
		p, err := e.index.ScreenPosition(it.Index)
		if err != nil {
			v.fail(err, "selection indicator")
			continue
		}
		v.selection.setScreen(i, p)
		indicators = append(indicators, Indicator{
			Series:  it.Series,
			Index:   it.Index,
			Center:  p,
			Size:    v.indicatorSize(e.points.PointSize()),
			Current: i == current,
		})
	}
	v.annot.PlaceIndicators(indicators)
}
