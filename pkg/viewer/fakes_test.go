package viewer

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

var errFake = errors.New("fake collaborator failure")

// fakeCamera projects x*zoom + look-at offset, y likewise, ignoring z
type fakeCamera struct {
	zoom      float64
	lookAt    Vec3
	listeners map[int]func()
	nextID    int
	batching  int
	dirty     bool
	updates   int
	extents   [][3]float64
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{zoom: 1, listeners: make(map[int]func())}
}

func (c *fakeCamera) OnUpdated(fn func()) func() {
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

func (c *fakeCamera) fire() {
	if c.batching > 0 {
		c.dirty = true
		return
	}
	c.updates++
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			fn()
		}
	}
}

func (c *fakeCamera) ProjectToScreen(p Vec3) ScreenPoint {
	return ScreenPoint{X: (p[0] - c.lookAt[0]) * c.zoom, Y: (p[1] - c.lookAt[1]) * c.zoom}
}

func (c *fakeCamera) SetLookAt(center Vec3) {
	c.lookAt = center
	c.fire()
}

func (c *fakeCamera) SetZoom(z float64) {
	c.zoom = z
	c.fire()
}

func (c *fakeCamera) Zoom() float64 { return c.zoom }

func (c *fakeCamera) ZoomToExtent(w, h, padding float64) {
	c.extents = append(c.extents, [3]float64{w, h, padding})
	c.fire()
}

// batchCamera adds Batch to fakeCamera
type batchCamera struct {
	*fakeCamera
}

func (c batchCamera) Batch(fn func()) {
	c.batching++
	fn()
	c.batching--
	if c.batching == 0 && c.dirty {
		c.dirty = false
		c.fire()
	}
}

type fakePoints struct {
	colors []colorful.Color
	sizes  []float64
	size   float64
	err    error
}

func newFakePoints(n int) *fakePoints {
	return &fakePoints{colors: make([]colorful.Color, n), size: 4}
}

func (p *fakePoints) check(i int) error {
	if p.err != nil {
		return p.err
	}
	if i < 0 || i >= len(p.colors) {
		return fmt.Errorf("fake points: %d out of range", i)
	}
	return nil
}

func (p *fakePoints) Color(i int) (colorful.Color, error) {
	if err := p.check(i); err != nil {
		return colorful.Color{}, err
	}
	return p.colors[i], nil
}

func (p *fakePoints) SetColor(i int, c colorful.Color) error {
	if err := p.check(i); err != nil {
		return err
	}
	p.colors[i] = c
	return nil
}

func (p *fakePoints) SetColors(cs []colorful.Color) error {
	p.colors = append(p.colors[:0:0], cs...)
	return nil
}

func (p *fakePoints) SetSize(s float64) {
	p.sizes = nil
	p.size = s
}

func (p *fakePoints) SetSizes(s []float64) error {
	p.sizes = append([]float64(nil), s...)
	return nil
}

func (p *fakePoints) PointSize() float64 { return p.size }

type fakeIndex struct {
	series   *Series
	camera   *fakeCamera
	selected map[int]bool
	calls    []string
	err      error
}

func newFakeIndex(s *Series, c *fakeCamera) *fakeIndex {
	return &fakeIndex{series: s, camera: c, selected: make(map[int]bool)}
}

func (x *fakeIndex) ScreenPosition(i int) (ScreenPoint, error) {
	if x.err != nil {
		return ScreenPoint{}, x.err
	}
	if i < 0 || i >= x.series.Len() {
		return ScreenPoint{}, fmt.Errorf("fake index: %d out of range", i)
	}
	return x.camera.ProjectToScreen(x.series.Position(i)), nil
}

func (x *fakeIndex) AddSelected(i int) error {
	x.calls = append(x.calls, fmt.Sprintf("add %d", i))
	x.selected[i] = true
	return nil
}

func (x *fakeIndex) RemoveSelected(i int) error {
	x.calls = append(x.calls, fmt.Sprintf("remove %d", i))
	delete(x.selected, i)
	return nil
}

func (x *fakeIndex) ClearSelected() {
	x.calls = append(x.calls, "clear")
	x.selected = make(map[int]bool)
}

type placedLabel struct {
	kind   LabelKind
	anchor ScreenPoint
}

type recordingAnnotator struct {
	labels     []placedLabel
	indicators [][]Indicator
	hover      *HoverPoint
	hoverInd   Indicator
	hides      int
}

func (a *recordingAnnotator) PlaceLabel(kind LabelKind, anchor ScreenPoint) {
	a.labels = append(a.labels, placedLabel{kind, anchor})
}

func (a *recordingAnnotator) PlaceIndicators(ind []Indicator) {
	a.indicators = append(a.indicators, append([]Indicator(nil), ind...))
}

func (a *recordingAnnotator) ShowHover(ind Indicator, p HoverPoint) {
	a.hoverInd = ind
	a.hover = &p
}

func (a *recordingAnnotator) HideHover() {
	a.hover = nil
	a.hides++
}

func (a *recordingAnnotator) lastIndicators() []Indicator {
	if len(a.indicators) == 0 {
		return nil
	}
	return a.indicators[len(a.indicators)-1]
}

func gray(v uint8) colorful.Color {
	return RGB{v, v, v}.Normalize()
}

// testSeries builds n vertices at (i, 2i, 0) with two variants
func testSeries(name SeriesID, n int, interactive bool) *Series {
	s := &Series{Name: name, Interactive: interactive}
	v0 := VariantData{Title: "first", LabelIndex: 0, TitleIndex: 1}
	v1 := VariantData{Title: "second", LabelIndex: 1, TitleIndex: 0}
	for i := 0; i < n; i++ {
		s.X = append(s.X, float64(i))
		s.Y = append(s.Y, float64(2*i))
		s.Z = append(s.Z, 0)
		s.Labels = append(s.Labels, fmt.Sprintf("item%d__group%d", i, i%2))
		v0.Colors = append(v0.Colors, gray(uint8(i)))
		v1.Colors = append(v1.Colors, gray(uint8(200-i)))
		v1.Sizes = append(v1.Sizes, float64(i+1))
	}
	s.Variants = []VariantData{v0, v1}
	return s
}

type fixture struct {
	viewer  *Viewer
	camera  *fakeCamera
	annot   *recordingAnnotator
	points  map[SeriesID]*fakePoints
	indices map[SeriesID]*fakeIndex
}

func newFixture(opts *Options, series ...*Series) (*fixture, error) {
	f := &fixture{
		camera:  newFakeCamera(),
		annot:   &recordingAnnotator{},
		points:  make(map[SeriesID]*fakePoints),
		indices: make(map[SeriesID]*fakeIndex),
	}
	var bindings []Binding
	for _, s := range series {
		p := newFakePoints(s.Len())
		f.points[s.Name] = p
		b := Binding{Series: s, Points: p}
		if s.Interactive {
			x := newFakeIndex(s, f.camera)
			f.indices[s.Name] = x
			b.Index = x
		}
		bindings = append(bindings, b)
	}
	v, err := New(f.camera, f.annot, bindings, opts)
	if err != nil {
		return nil, err
	}
	f.viewer = v
	return f, nil
}
