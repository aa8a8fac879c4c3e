package ui

import "github.com/recera/tmapview/pkg/viewer"

// annotations keeps the latest placement of every annotation for the view
type annotations struct {
	labels     map[viewer.LabelKind]viewer.ScreenPoint
	indicators []viewer.Indicator
	hover      *viewer.HoverPoint
}

func newAnnotations() *annotations {
	return &annotations{labels: make(map[viewer.LabelKind]viewer.ScreenPoint)}
}

func (a *annotations) PlaceLabel(kind viewer.LabelKind, anchor viewer.ScreenPoint) {
	a.labels[kind] = anchor
}

func (a *annotations) PlaceIndicators(indicators []viewer.Indicator) {
	a.indicators = append(a.indicators[:0], indicators...)
}

func (a *annotations) ShowHover(_ viewer.Indicator, p viewer.HoverPoint) {
	a.hover = &p
}

func (a *annotations) HideHover() {
	a.hover = nil
}
