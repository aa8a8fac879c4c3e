package viewer

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// WatchFunc receives the current screen position and color of every watched
// vertex, in the order the indices were registered.
type WatchFunc func(vertices []VertexInfo)

// vertexSource resolves live screen positions and colors of one series
type vertexSource interface {
	screenPosition(index int) (ScreenPoint, error)
	color(index int) (colorful.Color, error)
}

type watcherKey struct {
	series SeriesID
	name   string
}

type watcher struct {
	key      watcherKey
	indices  []int
	callback WatchFunc
}

// WatcherRegistry holds named vertex subscriptions per series.
type WatcherRegistry struct {
	sources map[SeriesID]vertexSource
	entries []*watcher
}

func newWatcherRegistry(sources map[SeriesID]vertexSource) *WatcherRegistry {
	return &WatcherRegistry{sources: sources}
}

// Register stores the watcher, replacing one with the same series and name,
// and immediately delivers its current state once. The watcher stays
// registered even when that first delivery fails.
func (r *WatcherRegistry) Register(series SeriesID, name string, indices []int, fn WatchFunc) error {
	if _, ok := r.sources[series]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSeries, series)
	}
	w := &watcher{
		key:      watcherKey{series: series, name: name},
		indices:  append([]int(nil), indices...),
		callback: fn,
	}
	if i := r.find(w.key); i >= 0 {
		r.entries[i] = w
	} else {
		r.entries = append(r.entries, w)
	}
	return r.deliver(w)
}

// Unregister removes the watcher. Unknown names are ignored.
func (r *WatcherRegistry) Unregister(series SeriesID, name string) bool {
	i := r.find(watcherKey{series: series, name: name})
	if i < 0 {
		return false
	}
	r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
	return true
}

// RecomputeAll delivers every watcher once. A watcher whose vertices cannot
// be resolved is skipped; the first such collaborator error is returned
// unchanged after all other watchers have been delivered.
func (r *WatcherRegistry) RecomputeAll() error {
	snapshot := append([]*watcher(nil), r.entries...)

	var firstErr error
	for _, w := range snapshot {
		// a callback earlier in this pass may have removed or replaced it
		if i := r.find(w.key); i < 0 || r.entries[i] != w {
			continue
		}
		if err := r.deliver(w); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Len returns the number of registered watchers
func (r *WatcherRegistry) Len() int {
	return len(r.entries)
}

// Names returns the watcher names of a series in registration order
func (r *WatcherRegistry) Names(series SeriesID) []string {
	var names []string
	for _, w := range r.entries {
		if w.key.series == series {
			names = append(names, w.key.name)
		}
	}
	return names
}

// Indices returns a copy of a watcher's index set
func (r *WatcherRegistry) Indices(series SeriesID, name string) ([]int, bool) {
	i := r.find(watcherKey{series: series, name: name})
	if i < 0 {
		return nil, false
	}
	return append([]int(nil), r.entries[i].indices...), true
}

func (r *WatcherRegistry) find(key watcherKey) int {
	for i, w := range r.entries {
		if w.key == key {
			return i
		}
	}
	return -1
}

func (r *WatcherRegistry) deliver(w *watcher) error {
	src := r.sources[w.key.series]

	vertices := make([]VertexInfo, 0, len(w.indices))
	for _, index := range w.indices {
		p, err := src.screenPosition(index)
		if err != nil {
			return err
		}
		c, err := src.color(index)
		if err != nil {
			return err
		}
		vertices = append(vertices, VertexInfo{X: p.X, Y: p.Y, Index: index, Color: c})
	}

	if w.callback != nil {
		w.callback(vertices)
	}
	return nil
}
