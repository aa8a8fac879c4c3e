package host

import "github.com/recera/tmapview/pkg/viewer"

// Scene wires a viewer to in-process collaborators
type Scene struct {
	Camera *Camera
	Points map[viewer.SeriesID]*Points
	Group  *Group
	Viewer *viewer.Viewer
}

// NewScene builds a camera of the given size, a point store for each series
// and a picker for each interactive one, and joins the pickers into a group
// that forwards to the new viewer.
func NewScene(series []*viewer.Series, width, height float64, annot viewer.Annotator, opts *viewer.Options) (*Scene, error) {
	sc := &Scene{
		Camera: NewCamera(width, height),
		Points: make(map[viewer.SeriesID]*Points, len(series)),
	}
	sc.Group = NewGroup(nil)

	bindings := make([]viewer.Binding, 0, len(series))
	for _, s := range series {
		pts := NewPoints(s.Len())
		sc.Points[s.Name] = pts
		b := viewer.Binding{Series: s, Points: pts}
		if s.Interactive {
			p := NewPicker(s, sc.Camera)
			sc.Group.Add(p)
			b.Index = p
		}
		bindings = append(bindings, b)
	}

	v, err := viewer.New(sc.Camera, annot, bindings, opts)
	if err != nil {
		sc.Group.Close()
		return nil, err
	}
	sc.Viewer = v
	sc.Group.SetSink(v)
	return sc, nil
}

// Close detaches the viewer and the pickers from the camera
func (sc *Scene) Close() {
	sc.Viewer.Close()
	sc.Group.Close()
}
