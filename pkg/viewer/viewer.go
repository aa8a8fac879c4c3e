package viewer

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
)

// ClickEvent is a click reported by a spatial index. Found is false when the
// click hit no vertex.
type ClickEvent struct {
	Series SeriesID
	Index  int
	Found  bool
	Screen ScreenPoint
}

// HoverEvent is a hover change reported by a spatial index. Found is false
// when the pointer left the last hovered vertex.
type HoverEvent struct {
	Series SeriesID
	Index  int
	Found  bool
	Screen ScreenPoint
}

type seriesEntry struct {
	series *Series
	points PointStore
	index  SpatialIndex
	colors *ColorStateStore
	bounds BoundingBox
	camera Camera
}

func (e *seriesEntry) screenPosition(i int) (ScreenPoint, error) {
	if e.index != nil {
		return e.index.ScreenPosition(i)
	}
	if i < 0 || i >= e.series.Len() {
		return ScreenPoint{}, fmt.Errorf("%w: %s has no vertex %d", ErrVertexOutOfRange, e.series.Name, i)
	}
	return e.camera.ProjectToScreen(e.series.Position(i)), nil
}

func (e *seriesEntry) color(i int) (colorful.Color, error) {
	return e.points.Color(i)
}

// Viewer is the orchestration context of one visualization instance. It is
// not safe for concurrent use: every method, and every collaborator
// notification, must be delivered from the same event loop.
type Viewer struct {
	opts   Options
	log    zerolog.Logger
	camera Camera
	annot  Annotator

	series map[SeriesID]*seriesEntry
	order  []SeriesID
	scene  BoundingBox

	selection *SelectionModel
	watchers  *WatcherRegistry
	sync      *ViewportSyncController

	hover *HoverPoint

	// single-slot callbacks, the last registration wins
	onClick      func(VertexInfo)
	onHoverStart func(VertexInfo)
	onHoverEnd   func()

	export    *ExportToken
	exportSeq uint64

	unsubscribe func()
}

// New builds a viewer over the given series and subscribes it to the
// camera. Every series' point store is initialised from its first variant.
func New(camera Camera, annot Annotator, bindings []Binding, opts *Options) (*Viewer, error) {
	o := opts.withDefaults()
	if annot == nil {
		annot = NopAnnotator{}
	}

	v := &Viewer{
		opts:      o,
		log:       o.Logger.With().Str("component", "viewer").Logger(),
		camera:    camera,
		annot:     annot,
		series:    make(map[SeriesID]*seriesEntry, len(bindings)),
		selection: NewSelectionModel(),
	}

	sources := make(map[SeriesID]vertexSource, len(bindings))
	first := true
	for _, b := range bindings {
		if b.Series == nil || b.Points == nil {
			return nil, fmt.Errorf("%w: binding without series or point store", ErrInvalidSeries)
		}
		s := b.Series
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := v.series[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate series %s", ErrInvalidSeries, s.Name)
		}
		if s.Interactive && b.Index == nil {
			return nil, fmt.Errorf("%w: interactive series %s has no spatial index", ErrInvalidSeries, s.Name)
		}

		e := &seriesEntry{
			series: s,
			points: b.Points,
			colors: newColorStateStore(s, b.Points),
			bounds: seriesBounds(s),
			camera: camera,
		}
		if s.Interactive {
			e.index = b.Index
		}
		if err := e.colors.ChangeVariant(0); err != nil {
			return nil, err
		}

		v.series[s.Name] = e
		v.order = append(v.order, s.Name)
		sources[s.Name] = e

		if s.Len() > 0 {
			if first {
				v.scene = e.bounds
				first = false
			} else {
				v.scene = v.scene.Union(e.bounds)
			}
		}
	}

	v.watchers = newWatcherRegistry(sources)
	v.sync = &ViewportSyncController{v: v}
	v.unsubscribe = camera.OnUpdated(v.sync.Handle)

	v.log.Debug().Int("series", len(v.order)).Msg("viewer ready")
	return v, nil
}

// Close detaches the viewer from the camera
func (v *Viewer) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
}

// Sync runs one update pass as if the camera had changed. Presentation
// layers call it once their elements exist.
func (v *Viewer) Sync() {
	v.sync.Handle()
}

// SyncPasses returns the number of update passes run so far
func (v *Viewer) SyncPasses() uint64 {
	return v.sync.Passes()
}

// SeriesIDs returns the series names in registration order
func (v *Viewer) SeriesIDs() []SeriesID {
	return append([]SeriesID(nil), v.order...)
}

// Series returns the data of a series
func (v *Viewer) Series(id SeriesID) (*Series, bool) {
	e, ok := v.series[id]
	if !ok {
		return nil, false
	}
	return e.series, true
}

func (v *Viewer) entry(id SeriesID) (*seriesEntry, error) {
	e, ok := v.series[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeries, id)
	}
	return e, nil
}

func (v *Viewer) interactive(id SeriesID) (*seriesEntry, error) {
	e, err := v.entry(id)
	if err != nil {
		return nil, err
	}
	if e.index == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInteractive, id)
	}
	return e, nil
}

// fail reports a collaborator error raised while handling an event
func (v *Viewer) fail(err error, during string) {
	if v.opts.Strict {
		panic(fmt.Errorf("%s: %w", during, err))
	}
	v.log.Error().Err(err).Str("during", during).Msg("collaborator error")
}

// OnVertexClick sets the click callback, replacing any previous one.
func (v *Viewer) OnVertexClick(fn func(VertexInfo)) {
	v.onClick = fn
}

// OnVertexHoverStart sets the hover callback, replacing any previous one.
func (v *Viewer) OnVertexHoverStart(fn func(VertexInfo)) {
	v.onHoverStart = fn
}

// OnVertexHoverEnd sets the hover-end callback, replacing any previous one.
func (v *Viewer) OnVertexHoverEnd(fn func()) {
	v.onHoverEnd = fn
}

func (v *Viewer) notifyClick(it SelectionItem) {
	if v.onClick != nil {
		v.onClick(VertexInfo{X: it.Screen.X, Y: it.Screen.Y, Index: it.Index, Color: it.Color})
	}
}

func (v *Viewer) notifyLast() {
	if last, ok := v.selection.Last(); ok {
		v.notifyClick(last)
	}
}

// Selection returns the selected items in order
func (v *Viewer) Selection() []SelectionItem {
	return v.selection.Items()
}

// CurrentSelection returns the focused selection slot and its item
func (v *Viewer) CurrentSelection() (int, SelectionItem, bool) {
	it, ok := v.selection.CurrentItem()
	return v.selection.Current(), it, ok
}

// IsSelected reports whether a vertex is selected
func (v *Viewer) IsSelected(series SeriesID, index int) bool {
	return v.selection.Contains(series, index)
}

// Select adds a vertex to the selection, or focuses it when already selected.
func (v *Viewer) Select(series SeriesID, index int) error {
	e, err := v.interactive(series)
	if err != nil {
		return err
	}
	p, err := e.index.ScreenPosition(index)
	if err != nil {
		return err
	}
	it, err := v.selectAt(e, index, p)
	if err != nil {
		return err
	}
	v.updateIndicators()
	v.notifyClick(it)
	return nil
}

// selectAt updates the index and the model without recomputing indicators.
// It returns the item that became current.
func (v *Viewer) selectAt(e *seriesEntry, index int, p ScreenPoint) (SelectionItem, error) {
	name := e.series.Name
	if i := v.selection.IndexOf(name, index); i >= 0 {
		v.selection.Focus(i)
		return v.selection.At(i), nil
	}
	c, err := e.points.Color(index)
	if err != nil {
		return SelectionItem{}, err
	}
	if err := e.index.AddSelected(index); err != nil {
		return SelectionItem{}, err
	}
	it := SelectionItem{Series: name, Index: index, Screen: p, Color: c}
	v.selection.Select(it)
	return it, nil
}

// Deselect removes a vertex from the selection. Unselected vertices are ignored.
func (v *Viewer) Deselect(series SeriesID, index int) error {
	e, err := v.interactive(series)
	if err != nil {
		return err
	}
	if !v.selection.Contains(series, index) {
		return nil
	}
	if err := e.index.RemoveSelected(index); err != nil {
		return err
	}
	v.selection.Deselect(series, index)
	v.updateIndicators()
	v.notifyLast()
	return nil
}

// ClearSelection deselects everything in every series
func (v *Viewer) ClearSelection() {
	for _, id := range v.order {
		if e := v.series[id]; e.index != nil {
			e.index.ClearSelected()
		}
	}
	v.selection.Clear()
	v.updateIndicators()
}

// ClearSeriesSelection deselects every vertex of one series
func (v *Viewer) ClearSeriesSelection(series SeriesID) error {
	e, err := v.interactive(series)
	if err != nil {
		return err
	}
	e.index.ClearSelected()
	if v.selection.removeSeries(series) {
		v.updateIndicators()
		v.notifyLast()
	}
	return nil
}

// CycleSelection moves the focus to the next or previous selected vertex
func (v *Viewer) CycleSelection(d Direction) {
	if v.selection.Len() == 0 {
		return
	}
	v.selection.Cycle(d)
	v.updateIndicators()
}

// HandleClick processes a click reported by a spatial index. A click on an
// already selected vertex focuses it instead of selecting it twice.
func (v *Viewer) HandleClick(ev ClickEvent) {
	if !ev.Found {
		return
	}
	e, err := v.interactive(ev.Series)
	if err != nil {
		v.fail(err, "click")
		return
	}
	it, err := v.selectAt(e, ev.Index, ev.Screen)
	if err != nil {
		v.fail(err, "click")
		return
	}
	v.updateIndicators()
	v.notifyClick(it)
}

// HandleHover processes a hover change reported by a spatial index.
func (v *Viewer) HandleHover(ev HoverEvent) {
	if !ev.Found {
		v.hover = nil
		v.annot.HideHover()
		if v.onHoverEnd != nil {
			v.onHoverEnd()
		}
		return
	}

	e, err := v.entry(ev.Series)
	if err != nil {
		v.fail(err, "hover")
		return
	}
	c, err := e.points.Color(ev.Index)
	if err != nil {
		v.fail(err, "hover")
		return
	}

	hp := v.hoverPoint(e, ev.Index, ev.Screen, c)
	v.hover = &hp

	size := e.points.PointSize() / v.opts.DevicePixelRatio
	v.annot.ShowHover(Indicator{Series: ev.Series, Index: ev.Index, Center: ev.Screen, Size: size}, hp)

	if v.onHoverStart != nil {
		v.onHoverStart(VertexInfo{X: ev.Screen.X, Y: ev.Screen.Y, Index: ev.Index, Color: c})
	}
}

func (v *Viewer) hoverPoint(e *seriesEntry, index int, p ScreenPoint, c colorful.Color) HoverPoint {
	variant := e.series.Variants[e.colors.Variant()]
	hp := HoverPoint{
		Series:     e.series.Name,
		Index:      index,
		Screen:     p,
		Color:      c,
		LabelIndex: variant.LabelIndex,
		TitleIndex: variant.TitleIndex,
	}
	if e.series.Labels != nil && index >= 0 && index < len(e.series.Labels) {
		hp.FullLabel = strings.Split(e.series.Labels[index], "__")
		if variant.LabelIndex >= 0 && variant.LabelIndex < len(hp.FullLabel) {
			hp.Label = hp.FullLabel[variant.LabelIndex]
		}
		if variant.TitleIndex >= 0 && variant.TitleIndex < len(hp.FullLabel) {
			hp.Title = hp.FullLabel[variant.TitleIndex]
		}
	}
	return hp
}

// Hovered returns the vertex under the pointer
func (v *Viewer) Hovered() (HoverPoint, bool) {
	if v.hover == nil {
		return HoverPoint{}, false
	}
	return *v.hover, true
}

// RegisterWatcher registers (or replaces) a named watcher on a series and
// delivers its current state once before returning.
func (v *Viewer) RegisterWatcher(series SeriesID, name string, indices []int, fn WatchFunc) error {
	return v.watchers.Register(series, name, indices, fn)
}

// RemoveWatcher removes a watcher. Unknown names are ignored.
func (v *Viewer) RemoveWatcher(series SeriesID, name string) {
	v.watchers.Unregister(series, name)
}

// Watchers returns the registry, mainly for inspection
func (v *Viewer) Watchers() *WatcherRegistry {
	return v.watchers
}

// SetVertexColor overrides the color of a vertex
func (v *Viewer) SetVertexColor(series SeriesID, index int, rgb RGB, backup bool) error {
	e, err := v.entry(series)
	if err != nil {
		return err
	}
	return e.colors.SetColor(index, rgb, backup)
}

// VertexColor returns the live color of a vertex
func (v *Viewer) VertexColor(series SeriesID, index int) (colorful.Color, error) {
	e, err := v.entry(series)
	if err != nil {
		return colorful.Color{}, err
	}
	return e.colors.Color(index)
}

// ResetVertexColors restores every backed-up vertex color of a series
func (v *Viewer) ResetVertexColors(series SeriesID) error {
	e, err := v.entry(series)
	if err != nil {
		return err
	}
	return e.colors.ResetAll()
}

// Colors returns the color state of a series
func (v *Viewer) Colors(series SeriesID) (*ColorStateStore, error) {
	e, err := v.entry(series)
	if err != nil {
		return nil, err
	}
	return e.colors, nil
}

// ChangeVariant switches the color/size variant of a series
func (v *Viewer) ChangeVariant(series SeriesID, variant Variant) error {
	e, err := v.entry(series)
	if err != nil {
		return err
	}
	return e.colors.ChangeVariant(variant)
}

// Bounds computes the bounding box of a set of vertices
func (v *Viewer) Bounds(series SeriesID, indices []int) (BoundingBox, error) {
	e, err := v.entry(series)
	if err != nil {
		return BoundingBox{}, err
	}
	return ComputeBounds(e.series, indices, minCenterIndices)
}

// SeriesBounds returns the cached bounds of a whole series
func (v *Viewer) SeriesBounds(series SeriesID) (BoundingBox, error) {
	e, err := v.entry(series)
	if err != nil {
		return BoundingBox{}, err
	}
	return e.bounds, nil
}

// SceneBounds returns the bounds over all series
func (v *Viewer) SceneBounds() BoundingBox {
	return v.scene
}

// cameraBatch groups camera changes so they raise one notification when the
// camera supports it
func (v *Viewer) cameraBatch(fn func()) {
	if b, ok := v.camera.(Batcher); ok {
		b.Batch(fn)
		return
	}
	fn()
}

func (v *Viewer) zoomToBox(b BoundingBox, padding float64) {
	ext := b.Extent()
	v.cameraBatch(func() {
		v.camera.SetLookAt(b.Center)
		v.camera.ZoomToExtent(ext[0], ext[1], padding)
	})
}

// ZoomTo centers the camera on the given vertices and zooms so their extent
// fills the view. It needs at least two indices. A negative padding selects
// the default.
func (v *Viewer) ZoomTo(series SeriesID, indices []int, padding float64) error {
	e, err := v.entry(series)
	if err != nil {
		return err
	}
	b, err := ComputeBounds(e.series, indices, minZoomIndices)
	if err != nil {
		return err
	}
	if padding < 0 {
		padding = v.opts.ZoomPadding
	}
	v.zoomToBox(b, padding)
	return nil
}

// ZoomToFit fits the whole series into the view
func (v *Viewer) ZoomToFit(series SeriesID, padding float64) error {
	e, err := v.entry(series)
	if err != nil {
		return err
	}
	if padding < 0 {
		padding = 0
	}
	v.zoomToBox(e.bounds, padding)
	return nil
}

// ZoomToScene fits every series into the view
func (v *Viewer) ZoomToScene(padding float64) {
	if padding < 0 {
		padding = 0
	}
	v.zoomToBox(v.scene, padding)
}

// CenterOn moves the camera to look at a single vertex without zooming
func (v *Viewer) CenterOn(series SeriesID, index int) error {
	e, err := v.entry(series)
	if err != nil {
		return err
	}
	b, err := ComputeBounds(e.series, []int{index}, minCenterIndices)
	if err != nil {
		return err
	}
	v.camera.SetLookAt(b.Center)
	return nil
}

// SetZoom sets the camera zoom
func (v *Viewer) SetZoom(zoom float64) {
	v.camera.SetZoom(zoom)
}

// Zoom returns the camera zoom
func (v *Viewer) Zoom() float64 {
	return v.camera.Zoom()
}

// ResetZoom restores a zoom of 1
func (v *Viewer) ResetZoom() {
	v.camera.SetZoom(1.0)
}
