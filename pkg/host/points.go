package host

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrOutOfRange is returned for vertex indices outside a store or picker
var ErrOutOfRange = errors.New("host: vertex index out of range")

// DefaultPointSize is the base point size in device pixels
const DefaultPointSize = 5.0

// Points is an in-memory point store. Sizes are relative and multiplied by
// the base point size.
type Points struct {
	colors []colorful.Color
	sizes  []float64
	size   float64
	base   float64
}

// NewPoints creates a store for n vertices, all black with size 1
func NewPoints(n int) *Points {
	return &Points{
		colors: make([]colorful.Color, n),
		size:   1,
		base:   DefaultPointSize,
	}
}

func (p *Points) check(index int) error {
	if index < 0 || index >= len(p.colors) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, len(p.colors))
	}
	return nil
}

func (p *Points) Len() int {
	return len(p.colors)
}

func (p *Points) Color(index int) (colorful.Color, error) {
	if err := p.check(index); err != nil {
		return colorful.Color{}, err
	}
	return p.colors[index], nil
}

func (p *Points) SetColor(index int, c colorful.Color) error {
	if err := p.check(index); err != nil {
		return err
	}
	p.colors[index] = c.Clamped()
	return nil
}

// SetColors replaces every color at once
func (p *Points) SetColors(colors []colorful.Color) error {
	if len(colors) != len(p.colors) {
		return fmt.Errorf("host: %d colors for %d points", len(colors), len(p.colors))
	}
	for i, c := range colors {
		p.colors[i] = c.Clamped()
	}
	return nil
}

// SetSize sets one relative size for all points and drops per-point sizes
func (p *Points) SetSize(size float64) {
	p.size = size
	p.sizes = nil
}

// SetSizes sets per-point relative sizes
func (p *Points) SetSizes(sizes []float64) error {
	if len(sizes) != len(p.colors) {
		return fmt.Errorf("host: %d sizes for %d points", len(sizes), len(p.colors))
	}
	p.sizes = append(p.sizes[:0], sizes...)
	return nil
}

// Size returns the relative size of one point
func (p *Points) Size(index int) float64 {
	if p.sizes != nil && index >= 0 && index < len(p.sizes) {
		return p.sizes[index]
	}
	return p.size
}

// SetBaseSize sets the point size in device pixels
func (p *Points) SetBaseSize(px float64) {
	if px > 0 {
		p.base = px
	}
}

// PointSize returns the rendered point size in device pixels
func (p *Points) PointSize() float64 {
	return p.base * p.size
}
