package viewer

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/recera/tmapview/pkg/reactive"
)

// ColorStateStore tracks per-vertex color overrides of one series on top of
// its active variant. Overrides win until ResetAll, including across variant
// switches.
type ColorStateStore struct {
	series *Series
	points PointStore

	backup map[int]colorful.Color
	order  []int

	variant *reactive.State[Variant]
}

func newColorStateStore(s *Series, p PointStore) *ColorStateStore {
	return &ColorStateStore{
		series:  s,
		points:  p,
		backup:  make(map[int]colorful.Color),
		variant: reactive.NewState(Variant(0)),
	}
}

// SetColor sets the live color of a vertex. With backup, the color it had
// before its first override since the last reset is remembered.
func (c *ColorStateStore) SetColor(index int, rgb RGB, backup bool) error {
	return c.set(index, rgb.Normalize(), backup)
}

func (c *ColorStateStore) set(index int, col colorful.Color, backup bool) error {
	if backup {
		if _, ok := c.backup[index]; !ok {
			orig, err := c.points.Color(index)
			if err != nil {
				return err
			}
			c.backup[index] = orig
			c.order = append(c.order, index)
		}
	}
	return c.points.SetColor(index, col)
}

// Color returns the live color of a vertex
func (c *ColorStateStore) Color(index int) (colorful.Color, error) {
	return c.points.Color(index)
}

// ResetAll restores every overridden vertex and forgets the backups.
// Calling it again without new overrides does nothing.
func (c *ColorStateStore) ResetAll() error {
	var firstErr error
	for _, index := range c.order {
		if err := c.set(index, c.backup[index], false); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.backup = make(map[int]colorful.Color)
	c.order = nil
	return firstErr
}

// Overridden reports whether the vertex has a backed-up original color
func (c *ColorStateStore) Overridden(index int) bool {
	_, ok := c.backup[index]
	return ok
}

// Overrides returns the number of backed-up vertices
func (c *ColorStateStore) Overrides() int {
	return len(c.order)
}

// ChangeVariant replaces all live colors, and sizes when the series has
// any, with those of variant v. Backups are left alone.
func (c *ColorStateStore) ChangeVariant(v Variant) error {
	if _, err := c.series.Variant(int(v)); err != nil {
		return err
	}
	data := c.series.Variants[v]
	if err := c.points.SetColors(data.Colors); err != nil {
		return err
	}
	if data.Sizes != nil {
		if err := c.points.SetSizes(data.Sizes); err != nil {
			return err
		}
	} else if c.series.hasSizes() {
		c.points.SetSize(1.0)
	}
	c.variant.Set(v)
	return nil
}

// Variant returns the active variant
func (c *ColorStateStore) Variant() Variant {
	return c.variant.Get()
}

// OnVariantChange subscribes to variant switches, e.g. to re-render a legend
func (c *ColorStateStore) OnVariantChange(fn func(Variant)) (unsubscribe func()) {
	return c.variant.Subscribe(fn)
}
