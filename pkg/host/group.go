package host

import "github.com/recera/tmapview/pkg/viewer"

// DefaultPickRadius is the pick radius in canvas pixels
const DefaultPickRadius = 8.0

// EventSink receives joined pointer events. *viewer.Viewer implements it.
type EventSink interface {
	HandleHover(ev viewer.HoverEvent)
	HandleClick(ev viewer.ClickEvent)
}

type hovered struct {
	series viewer.SeriesID
	index  int
}

// Group joins the pickers of several series so that pointer events across
// all of them form one hover stream: the nearest vertex of any series wins.
type Group struct {
	Radius float64

	pickers []*Picker
	sink    EventSink
	hover   *hovered
}

// NewGroup creates a group forwarding to sink
func NewGroup(sink EventSink, pickers ...*Picker) *Group {
	return &Group{Radius: DefaultPickRadius, pickers: pickers, sink: sink}
}

// SetSink replaces the event sink
func (g *Group) SetSink(sink EventSink) {
	g.sink = sink
}

// Add joins another picker
func (g *Group) Add(p *Picker) {
	g.pickers = append(g.pickers, p)
}

// Picker returns the picker of a series
func (g *Group) Picker(series viewer.SeriesID) (*Picker, bool) {
	for _, p := range g.pickers {
		if p.series.Name == series {
			return p, true
		}
	}
	return nil, false
}

// Pick returns the nearest vertex under s across all series
func (g *Group) Pick(s viewer.ScreenPoint) (viewer.SeriesID, int, bool) {
	var (
		best     viewer.SeriesID
		bestIdx  int
		bestDist float64
		found    bool
	)
	for _, p := range g.pickers {
		i, d, ok := p.Nearest(s, g.Radius)
		if ok && (!found || d < bestDist) {
			best, bestIdx, bestDist, found = p.series.Name, i, d, true
		}
	}
	return best, bestIdx, found
}

// Hover reports the pointer position. The sink only hears about changes:
// a new vertex under the pointer or the pointer leaving the last one.
func (g *Group) Hover(x, y float64) {
	s := viewer.ScreenPoint{X: x, Y: y}
	series, index, ok := g.Pick(s)
	if !ok {
		if g.hover != nil {
			last := g.hover
			g.hover = nil
			g.emitHover(viewer.HoverEvent{Series: last.series, Index: last.index, Screen: s})
		}
		return
	}
	if g.hover != nil && g.hover.series == series && g.hover.index == index {
		return
	}
	g.hover = &hovered{series: series, index: index}
	p, _ := g.Picker(series)
	pos, _ := p.ScreenPosition(index)
	g.emitHover(viewer.HoverEvent{Series: series, Index: index, Found: true, Screen: pos})
}

// Leave reports that the pointer left the canvas
func (g *Group) Leave() {
	if g.hover == nil {
		return
	}
	last := g.hover
	g.hover = nil
	g.emitHover(viewer.HoverEvent{Series: last.series, Index: last.index})
}

// Click reports a click. A click that hits nothing is still forwarded with
// Found unset.
func (g *Group) Click(x, y float64) {
	s := viewer.ScreenPoint{X: x, Y: y}
	series, index, ok := g.Pick(s)
	if !ok {
		g.emitClick(viewer.ClickEvent{Screen: s})
		return
	}
	p, _ := g.Picker(series)
	pos, _ := p.ScreenPosition(index)
	g.emitClick(viewer.ClickEvent{Series: series, Index: index, Found: true, Screen: pos})
}

func (g *Group) emitHover(ev viewer.HoverEvent) {
	if g.sink != nil {
		g.sink.HandleHover(ev)
	}
}

func (g *Group) emitClick(ev viewer.ClickEvent) {
	if g.sink != nil {
		g.sink.HandleClick(ev)
	}
}

// Close detaches every picker from the camera
func (g *Group) Close() {
	for _, p := range g.pickers {
		p.Close()
	}
}
