package host

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/peterstace/simplefeatures/rtree"

	"github.com/recera/tmapview/pkg/viewer"
)

var errStopSearch = errors.New("stop")

// Picker is the spatial index of one interactive series. It keeps an r-tree
// of projected vertex positions that is rebuilt lazily after the camera
// changes.
type Picker struct {
	series *viewer.Series
	camera *Camera

	tree  *rtree.RTree
	dirty bool

	selected map[int]struct{}

	unsubscribe func()
}

// NewPicker creates a picker for s, projected through camera
func NewPicker(s *viewer.Series, camera *Camera) *Picker {
	p := &Picker{
		series:   s,
		camera:   camera,
		dirty:    true,
		selected: make(map[int]struct{}),
	}
	p.unsubscribe = camera.OnUpdated(func() { p.dirty = true })
	return p
}

// Close detaches the picker from the camera
func (p *Picker) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

// Series returns the picked series
func (p *Picker) Series() *viewer.Series {
	return p.series
}

func (p *Picker) rebuild() {
	n := p.series.Len()
	items := make([]rtree.BulkItem, 0, n)
	for i := 0; i < n; i++ {
		s := p.camera.ProjectToScreen(p.series.Position(i))
		items = append(items, rtree.BulkItem{
			Box:      rtree.Box{MinX: s.X, MinY: s.Y, MaxX: s.X, MaxY: s.Y},
			RecordID: i,
		})
	}
	p.tree = rtree.BulkLoad(items)
	p.dirty = false
}

// Nearest returns the vertex closest to screen position s, if it lies within
// radius canvas pixels.
func (p *Picker) Nearest(s viewer.ScreenPoint, radius float64) (index int, dist float64, found bool) {
	if p.dirty || p.tree == nil {
		p.rebuild()
	}
	query := rtree.Box{MinX: s.X, MinY: s.Y, MaxX: s.X, MaxY: s.Y}
	index, found = p.tree.Nearest(query)
	if !found {
		return 0, 0, false
	}
	dist = p.distance(index, s)
	if dist > radius {
		return 0, 0, false
	}
	return index, dist, true
}

// Within returns every vertex within radius canvas pixels of s, nearest first
func (p *Picker) Within(s viewer.ScreenPoint, radius float64) []int {
	if p.dirty || p.tree == nil {
		p.rebuild()
	}
	var hits []int
	query := rtree.Box{MinX: s.X, MinY: s.Y, MaxX: s.X, MaxY: s.Y}
	_ = p.tree.PrioritySearch(query, func(id int) error {
		if p.distance(id, s) > radius {
			return errStopSearch
		}
		hits = append(hits, id)
		return nil
	})
	return hits
}

func (p *Picker) distance(index int, s viewer.ScreenPoint) float64 {
	v := p.camera.ProjectToScreen(p.series.Position(index))
	return math.Hypot(v.X-s.X, v.Y-s.Y)
}

// ScreenPosition projects one vertex through the current camera
func (p *Picker) ScreenPosition(index int) (viewer.ScreenPoint, error) {
	if index < 0 || index >= p.series.Len() {
		return viewer.ScreenPoint{}, fmt.Errorf("%w: %s has no vertex %d", ErrOutOfRange, p.series.Name, index)
	}
	return p.camera.ProjectToScreen(p.series.Position(index)), nil
}

// AddSelected highlights a vertex
func (p *Picker) AddSelected(index int) error {
	if index < 0 || index >= p.series.Len() {
		return fmt.Errorf("%w: %s has no vertex %d", ErrOutOfRange, p.series.Name, index)
	}
	p.selected[index] = struct{}{}
	return nil
}

// RemoveSelected removes a highlight
func (p *Picker) RemoveSelected(index int) error {
	if index < 0 || index >= p.series.Len() {
		return fmt.Errorf("%w: %s has no vertex %d", ErrOutOfRange, p.series.Name, index)
	}
	delete(p.selected, index)
	return nil
}

// ClearSelected removes every highlight
func (p *Picker) ClearSelected() {
	p.selected = make(map[int]struct{})
}

// Selected returns the highlighted vertices in ascending order
func (p *Picker) Selected() []int {
	out := make([]int, 0, len(p.selected))
	for i := range p.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// IsSelected reports whether a vertex is highlighted
func (p *Picker) IsSelected(index int) bool {
	_, ok := p.selected[index]
	return ok
}
