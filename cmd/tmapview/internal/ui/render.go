package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/recera/tmapview/pkg/viewer"
)

// Style definitions
var (
	// Colors
	primaryColor = lipgloss.Color("#3b82f6")
	mutedColor   = lipgloss.Color("#94a3b8")
	errorColor   = lipgloss.Color("#ef4444")
	successColor = lipgloss.Color("#10b981")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	selectedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Reverse(true)

	plainStyle = lipgloss.NewStyle()

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// Glyphs drawn in the plot
const (
	glyphPoint    = '•'
	glyphSelected = '◆'
	glyphCurrent  = '◉'
	glyphAnchor   = '+'
	glyphEmpty    = ' '
)

type cell struct {
	glyph rune
	style lipgloss.Style
}

// cellAt converts a canvas position to a cell, reporting whether it is
// inside the plot. The right and bottom edges belong to the last cell.
func (m *Model) cellAt(p viewer.ScreenPoint) (col, row int, ok bool) {
	w, h := float64(m.cols)*cellWidth, float64(m.rows)*cellHeight
	if p.X < 0 || p.Y < 0 || p.X > w || p.Y > h {
		return 0, 0, false
	}
	col = min(int(p.X/cellWidth), m.cols-1)
	row = min(int(p.Y/cellHeight), m.rows-1)
	return col, row, true
}

func (m *Model) plot() [][]cell {
	grid := make([][]cell, m.rows)
	for r := range grid {
		grid[r] = make([]cell, m.cols)
		for c := range grid[r] {
			grid[r][c] = cell{glyph: glyphEmpty, style: plainStyle}
		}
	}

	for _, anchor := range m.annot.labels {
		if c, r, ok := m.cellAt(anchor); ok {
			grid[r][c] = cell{glyph: glyphAnchor, style: mutedStyle}
		}
	}

	v := m.scene.Viewer
	for _, id := range v.SeriesIDs() {
		s, _ := v.Series(id)
		for i := 0; i < s.Len(); i++ {
			c, r, ok := m.cellAt(m.scene.Camera.ProjectToScreen(s.Position(i)))
			if !ok {
				continue
			}
			col, err := v.VertexColor(id, i)
			if err != nil {
				continue
			}
			grid[r][c] = cell{
				glyph: glyphPoint,
				style: lipgloss.NewStyle().Foreground(lipgloss.Color(col.Hex())),
			}
		}
	}

	for _, ind := range m.annot.indicators {
		c, r, ok := m.cellAt(ind.Center)
		if !ok {
			continue
		}
		glyph := glyphSelected
		if ind.Current {
			glyph = glyphCurrent
		}
		grid[r][c] = cell{glyph: glyph, style: selectedStyle}
	}
	return grid
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := m.data.Title
	if title == "" {
		title = "tmapview"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  zoom %.3g", m.scene.Viewer.Zoom())))
	b.WriteByte('\n')

	grid := m.plot()
	for r, line := range grid {
		for c, cl := range line {
			style := cl.style
			if r == m.cursorRow && c == m.cursorCol {
				style = cursorStyle
			}
			b.WriteString(style.Render(string(cl.glyph)))
		}
		b.WriteByte('\n')
	}

	b.WriteString(m.renderStatus())
	b.WriteByte('\n')
	b.WriteString(m.renderWatch())
	b.WriteByte('\n')
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderStatus() string {
	var lines []string

	v := m.scene.Viewer
	sel := fmt.Sprintf("%d selected", len(v.Selection()))
	if pos, it, ok := v.CurrentSelection(); ok {
		sel += fmt.Sprintf(", current %d: %s #%d", pos+1, it.Series, it.Index)
	}
	lines = append(lines, sel)

	if hp, ok := v.Hovered(); ok {
		lines = append(lines, selectedStyle.Render(fmt.Sprintf("%s #%d  %s  %s", hp.Series, hp.Index, hp.Label, hp.Title)))
	} else {
		lines = append(lines, "")
	}

	switch {
	case m.searching:
		lines = append(lines, m.search.View())
	case m.err != nil:
		lines = append(lines, errorStyle.Render(m.err.Error()))
	default:
		lines = append(lines, successStyle.Render(m.status))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderWatch() string {
	if !m.watching {
		return mutedStyle.Render("no watcher")
	}
	parts := make([]string, 0, len(m.watched))
	for _, vi := range m.watched {
		parts = append(parts, fmt.Sprintf("#%d (%.0f,%.0f)", vi.Index, vi.X, vi.Y))
	}
	return fmt.Sprintf("watch %s: %s", m.watchSeries, strings.Join(parts, " "))
}

func (m *Model) renderHelp() string {
	bindings := []key.Binding{m.keys.Select, m.keys.Next, m.keys.Search, m.keys.ZoomSel, m.keys.ZoomFit, m.keys.Help, m.keys.Quit}
	if m.showHelp {
		bindings = []key.Binding{
			m.keys.Up, m.keys.Down, m.keys.Left, m.keys.Right,
			m.keys.Select, m.keys.Deselect, m.keys.Next, m.keys.Prev, m.keys.Clear,
			m.keys.Search, m.keys.ZoomSel, m.keys.ZoomFit, m.keys.ZoomIn, m.keys.ZoomOut, m.keys.Reset,
			m.keys.Color, m.keys.Uncolor, m.keys.Variant, m.keys.Watch, m.keys.Help, m.keys.Quit,
		}
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, fmt.Sprintf("%s %s", h.Key, h.Desc))
	}
	return helpStyle.Width(max(m.width, 1)).Render(strings.Join(parts, " • "))
}
