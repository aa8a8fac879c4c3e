package viewer

import "github.com/lucasb-eyer/go-colorful"

// Camera is the rendering host's camera.
//
// OnUpdated subscribes to the host's "view changed" notification, raised once
// per change after zoom, pan or rotate. The host delivers it synchronously.
type Camera interface {
	OnUpdated(fn func()) (unsubscribe func())
	ProjectToScreen(p Vec3) ScreenPoint
	SetLookAt(center Vec3)
	SetZoom(zoom float64)
	Zoom() float64
	ZoomToExtent(width, height, padding float64)
}

// Batcher is implemented by cameras that can coalesce several changes into a
// single "updated" notification.
type Batcher interface {
	Batch(fn func())
}

// SpatialIndex is the picking structure of one interactive series.
//
// AddSelected, RemoveSelected and ClearSelected only change what the index
// highlights; they must not raise selection notifications. Notifications reach
// the viewer through HandleHover and HandleClick.
type SpatialIndex interface {
	ScreenPosition(index int) (ScreenPoint, error)
	AddSelected(index int) error
	RemoveSelected(index int) error
	ClearSelected()
}

// PointStore holds the live per-vertex colors and sizes of one series.
// Colors are 0..1 floats.
type PointStore interface {
	Color(index int) (colorful.Color, error)
	SetColor(index int, c colorful.Color) error
	SetColors(colors []colorful.Color) error
	SetSize(size float64)
	SetSizes(sizes []float64) error
	PointSize() float64
}

// Annotator is the presentation layer: it places DOM (or terminal) elements
// at the screen positions computed by the viewer.
type Annotator interface {
	PlaceLabel(kind LabelKind, anchor ScreenPoint)
	PlaceIndicators(indicators []Indicator)
	ShowHover(ind Indicator, point HoverPoint)
	HideHover()
}

// NopAnnotator discards all annotations
type NopAnnotator struct{}

func (NopAnnotator) PlaceLabel(LabelKind, ScreenPoint) {}
func (NopAnnotator) PlaceIndicators([]Indicator) {}
func (NopAnnotator) ShowHover(Indicator, HoverPoint) {}
func (NopAnnotator) HideHover() {}

// Binding ties a series to its collaborators. Index is required for
// interactive series and ignored otherwise.
type Binding struct {
	Series *Series
	Points PointStore
	Index  SpatialIndex
}
