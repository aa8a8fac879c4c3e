// Package host provides in-process reference implementations of the
// collaborators a viewer.Viewer needs: an orthographic camera, point stores
// and screen-space pickers. The live server and the terminal inspector run
// on them.
package host

import (
	"math"

	"github.com/recera/tmapview/pkg/reactive"
	"github.com/recera/tmapview/pkg/viewer"
)

// Camera is an orthographic camera looking down the z axis. Screen y grows
// downwards. Every change raises one "updated" notification; use Batch to
// combine several changes.
type Camera struct {
	lookAt viewer.Vec3
	zoom   float64
	width  float64
	height float64

	updated *reactive.Signal
}

// NewCamera creates a camera for a viewport of width x height canvas pixels
func NewCamera(width, height float64) *Camera {
	return &Camera{
		zoom:    1,
		width:   width,
		height:  height,
		updated: reactive.NewSignal(),
	}
}

// OnUpdated subscribes to camera changes
func (c *Camera) OnUpdated(fn func()) (unsubscribe func()) {
	return c.updated.Subscribe(fn)
}

// Batch runs fn and raises at most one notification for all its changes
func (c *Camera) Batch(fn func()) {
	c.updated.Batch(fn)
}

// ProjectToScreen maps a scene position to canvas pixels
func (c *Camera) ProjectToScreen(p viewer.Vec3) viewer.ScreenPoint {
	return viewer.ScreenPoint{
		X: c.width*0.5 + (p[0]-c.lookAt[0])*c.zoom,
		Y: c.height*0.5 - (p[1]-c.lookAt[1])*c.zoom,
	}
}

// Unproject maps canvas pixels back to the z=lookAt plane
func (c *Camera) Unproject(s viewer.ScreenPoint) viewer.Vec3 {
	return viewer.Vec3{
		c.lookAt[0] + (s.X-c.width*0.5)/c.zoom,
		c.lookAt[1] - (s.Y-c.height*0.5)/c.zoom,
		c.lookAt[2],
	}
}

func (c *Camera) SetLookAt(center viewer.Vec3) {
	c.lookAt = center
	c.updated.Notify()
}

func (c *Camera) LookAt() viewer.Vec3 {
	return c.lookAt
}

// SetZoom sets the scale in canvas pixels per scene unit. Non-positive
// values are ignored.
func (c *Camera) SetZoom(zoom float64) {
	if zoom <= 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return
	}
	c.zoom = zoom
	c.updated.Notify()
}

func (c *Camera) Zoom() float64 {
	return c.zoom
}

// Pan moves the camera by a screen-space delta
func (c *Camera) Pan(dx, dy float64) {
	c.lookAt[0] -= dx / c.zoom
	c.lookAt[1] += dy / c.zoom
	c.updated.Notify()
}

// ZoomToExtent picks the zoom at which a scene extent of width x height,
// grown by padding on each side, fills the viewport.
func (c *Camera) ZoomToExtent(width, height, padding float64) {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	grow := 1 + 2*padding
	sx := c.width / (width * grow)
	sy := c.height / (height * grow)
	s := sx
	if sy < s {
		s = sy
	}
	if s <= 0 {
		s = 1
	}
	c.SetZoom(s)
}

// SetViewport resizes the canvas
func (c *Camera) SetViewport(width, height float64) {
	c.width, c.height = width, height
	c.updated.Notify()
}

// Viewport returns the canvas size
func (c *Camera) Viewport() (width, height float64) {
	return c.width, c.height
}
