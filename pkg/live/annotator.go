package live

import "github.com/recera/tmapview/pkg/viewer"

// annotator turns viewer annotations into outbound messages. Labels are
// buffered and sent together with the indicators that end every update pass.
type annotator struct {
	s      *Session
	labels []Label
}

func (a *annotator) PlaceLabel(kind viewer.LabelKind, anchor viewer.ScreenPoint) {
	a.labels = append(a.labels, Label{Kind: kind.String(), X: anchor.X, Y: anchor.Y})
}

func (a *annotator) PlaceIndicators(indicators []viewer.Indicator) {
	if len(a.labels) > 0 {
		a.s.sendJSON(Outbound{Type: MsgLabels, Labels: a.labels})
		a.labels = nil
	}
	out := make([]IndicatorMsg, len(indicators))
	for i, ind := range indicators {
		out[i] = indicatorMsg(ind)
	}
	a.s.sendJSON(Outbound{Type: MsgIndicators, Indicators: out})
}

func (a *annotator) ShowHover(ind viewer.Indicator, p viewer.HoverPoint) {
	marker := indicatorMsg(ind)
	a.s.sendJSON(Outbound{
		Type:  MsgHover,
		Hover: &marker,
		Vertex: &VertexMsg{
			Series: string(p.Series),
			Index:  p.Index,
			X:      p.Screen.X,
			Y:      p.Screen.Y,
			Color:  p.Color.Hex(),
			Label:  p.Label,
			Title:  p.Title,
			Fields: p.FullLabel,
		},
	})
}

func (a *annotator) HideHover() {
	a.s.sendJSON(Outbound{Type: MsgHoverEnd})
}

func indicatorMsg(ind viewer.Indicator) IndicatorMsg {
	return IndicatorMsg{
		Series:  string(ind.Series),
		Index:   ind.Index,
		X:       ind.Center.X,
		Y:       ind.Center.Y,
		Size:    ind.Size,
		Current: ind.Current,
	}
}
