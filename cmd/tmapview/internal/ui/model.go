package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/recera/tmapview/pkg/dataset"
	"github.com/recera/tmapview/pkg/host"
	"github.com/recera/tmapview/pkg/viewer"
)

// A terminal cell stands for this many canvas pixels
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// Lines taken by the header, status, watch panel and help
const (
	headerLines = 1
	footerLines = 6
)

// WatcherName is the name of the inspector's watcher
const WatcherName = "inspector"

// highlight is the override color applied with the color key
var highlight = viewer.RGB{255, 64, 64}

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Deselect key.Binding
	Next     key.Binding
	Prev     key.Binding
	Clear    key.Binding
	Search   key.Binding
	ZoomSel  key.Binding
	ZoomFit  key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Reset    key.Binding
	Color    key.Binding
	Uncolor  key.Binding
	Variant  key.Binding
	Watch    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "right"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "select"),
	),
	Deselect: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "deselect"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	ZoomSel: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "zoom to selection"),
	),
	ZoomFit: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fit"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "zoom out"),
	),
	Reset: key.NewBinding(
		key.WithKeys("0"),
		key.WithHelp("0", "reset zoom"),
	),
	Color: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "highlight"),
	),
	Uncolor: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset colors"),
	),
	Variant: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "next variant"),
	),
	Watch: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "watch selection"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model represents the inspector state. It owns a scene whose viewer is
// only touched from bubbletea's update loop.
type Model struct {
	scene *host.Scene
	data  *dataset.Dataset
	annot *annotations
	keys  KeyMap

	// Window and plot dimensions in cells
	width  int
	height int
	cols   int
	rows   int
	fitted bool

	// padding used when fitting the scene
	padding float64

	cursorCol int
	cursorRow int

	search    textinput.Model
	searching bool

	watchSeries viewer.SeriesID
	watching    bool
	watched     []viewer.VertexInfo
	clicked     *viewer.VertexInfo

	showHelp bool
	quitting bool
	status   string
	err      error
}

// NewModel builds a scene over the dataset
func NewModel(d *dataset.Dataset, opts *viewer.Options) (*Model, error) {
	annot := newAnnotations()
	sc, err := host.NewScene(d.Series, 80*cellWidth, 24*cellHeight, annot, opts)
	if err != nil {
		return nil, err
	}
	if d.PointScale > 0 {
		for _, p := range sc.Points {
			p.SetBaseSize(d.PointScale)
		}
	}
	// one cell is the natural pick target
	sc.Group.Radius = cellHeight

	ti := textinput.New()
	ti.Placeholder = "label regexp"
	ti.Prompt = "/"
	ti.CharLimit = 128

	m := &Model{
		scene:   sc,
		data:    d,
		annot:   annot,
		keys:    DefaultKeyMap,
		search:  ti,
		padding: viewer.DefaultZoomPadding,
	}
	if opts != nil && opts.ZoomPadding > 0 {
		m.padding = opts.ZoomPadding
	}
	sc.Viewer.OnVertexClick(func(vi viewer.VertexInfo) {
		m.clicked = &vi
	})
	m.resize(80, 24)
	return m, nil
}

// Close releases the scene
func (m *Model) Close() {
	m.scene.Close()
}

// Viewer exposes the inspected viewer
func (m *Model) Viewer() *viewer.Viewer {
	return m.scene.Viewer
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m, m.handleSearchKeys(msg)
		}
		return m, m.handleKeys(msg)
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.cols = max(width, 1)
	m.rows = max(height-headerLines-footerLines, 1)
	m.cursorCol = min(m.cursorCol, m.cols-1)
	m.cursorRow = min(m.cursorRow, m.rows-1)

	m.scene.Camera.SetViewport(float64(m.cols)*cellWidth, float64(m.rows)*cellHeight)
	if !m.fitted {
		m.fit()
		m.cursorCol, m.cursorRow = m.cols/2, m.rows/2
		m.fitted = true
	}
	m.hover()
}

// cursorScreen returns the canvas position at the center of the cursor cell
func (m *Model) cursorScreen() (x, y float64) {
	return (float64(m.cursorCol) + 0.5) * cellWidth, (float64(m.cursorRow) + 0.5) * cellHeight
}

// fit zooms to the whole scene, keeping its outermost vertices off the
// plot's edges
func (m *Model) fit() {
	m.scene.Viewer.ZoomToScene(m.padding)
}

func (m *Model) hover() {
	m.scene.Group.Hover(m.cursorScreen())
}

func (m *Model) moveCursor(dc, dr int) {
	m.cursorCol = min(max(m.cursorCol+dc, 0), m.cols-1)
	m.cursorRow = min(max(m.cursorRow+dr, 0), m.rows-1)
	m.hover()
}

func (m *Model) setError(err error) {
	m.err = err
	m.status = ""
}

func (m *Model) setStatus(format string, args ...any) {
	m.err = nil
	m.status = fmt.Sprintf(format, args...)
}

func (m *Model) handleKeys(msg tea.KeyMsg) tea.Cmd {
	v := m.scene.Viewer

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1, 0)

	case key.Matches(msg, m.keys.Select):
		m.scene.Group.Click(m.cursorScreen())
		if _, it, ok := v.CurrentSelection(); ok {
			m.setStatus("selected %s #%d", it.Series, it.Index)
		}

	case key.Matches(msg, m.keys.Deselect):
		if _, it, ok := v.CurrentSelection(); ok {
			if err := v.Deselect(it.Series, it.Index); err != nil {
				m.setError(err)
			}
		}

	case key.Matches(msg, m.keys.Next):
		v.CycleSelection(viewer.Forward)
	case key.Matches(msg, m.keys.Prev):
		v.CycleSelection(viewer.Backward)

	case key.Matches(msg, m.keys.Clear):
		v.ClearSelection()
		m.setStatus("selection cleared")

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue("")
		return m.search.Focus()

	case key.Matches(msg, m.keys.ZoomSel):
		m.zoomToSelection()
	case key.Matches(msg, m.keys.ZoomFit):
		m.fit()
	case key.Matches(msg, m.keys.ZoomIn):
		v.SetZoom(v.Zoom() * 1.25)
	case key.Matches(msg, m.keys.ZoomOut):
		v.SetZoom(v.Zoom() / 1.25)
	case key.Matches(msg, m.keys.Reset):
		v.ResetZoom()

	case key.Matches(msg, m.keys.Color):
		m.highlightTarget()
	case key.Matches(msg, m.keys.Uncolor):
		for _, id := range v.SeriesIDs() {
			if err := v.ResetVertexColors(id); err != nil {
				m.setError(err)
				return nil
			}
		}
		m.setStatus("colors reset")

	case key.Matches(msg, m.keys.Variant):
		m.nextVariant()

	case key.Matches(msg, m.keys.Watch):
		m.toggleWatch()
	}
	return nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		term := m.search.Value()
		n, err := m.scene.Viewer.SelectMatches(term)
		if err != nil {
			m.setError(err)
			return nil
		}
		m.setStatus("%d vertices match %q", n, term)
		return nil

	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd
}

// selectedIn returns the selected indices of one series in selection order
func (m *Model) selectedIn(series viewer.SeriesID) []int {
	var indices []int
	for _, it := range m.scene.Viewer.Selection() {
		if it.Series == series {
			indices = append(indices, it.Index)
		}
	}
	return indices
}

func (m *Model) zoomToSelection() {
	v := m.scene.Viewer
	_, current, ok := v.CurrentSelection()
	if !ok {
		m.setStatus("nothing selected")
		return
	}
	indices := m.selectedIn(current.Series)
	var err error
	if len(indices) < 2 {
		err = v.CenterOn(current.Series, current.Index)
	} else {
		err = v.ZoomTo(current.Series, indices, -1)
	}
	if err != nil {
		m.setError(err)
	}
}

// highlightTarget overrides the color of the hovered vertex, or of the
// current selection when nothing is hovered
func (m *Model) highlightTarget() {
	v := m.scene.Viewer
	series, index := viewer.SeriesID(""), -1
	if hp, ok := v.Hovered(); ok {
		series, index = hp.Series, hp.Index
	} else if _, it, ok := v.CurrentSelection(); ok {
		series, index = it.Series, it.Index
	}
	if index < 0 {
		m.setStatus("nothing to highlight")
		return
	}
	if err := v.SetVertexColor(series, index, highlight, true); err != nil {
		m.setError(err)
		return
	}
	m.setStatus("highlighted %s #%d", series, index)
}

func (m *Model) nextVariant() {
	v := m.scene.Viewer
	for _, id := range v.SeriesIDs() {
		s, _ := v.Series(id)
		colors, err := v.Colors(id)
		if err != nil {
			m.setError(err)
			return
		}
		next, err := s.Variant((int(colors.Variant()) + 1) % len(s.Variants))
		if err != nil {
			m.setError(err)
			return
		}
		if err := v.ChangeVariant(id, next); err != nil {
			m.setError(err)
			return
		}
	}
}

func (m *Model) toggleWatch() {
	v := m.scene.Viewer
	if m.watching {
		v.RemoveWatcher(m.watchSeries, WatcherName)
		m.watching = false
		m.watched = nil
		m.setStatus("watcher removed")
		return
	}

	_, current, ok := v.CurrentSelection()
	if !ok {
		m.setStatus("select vertices to watch")
		return
	}
	err := v.RegisterWatcher(current.Series, WatcherName, m.selectedIn(current.Series), func(vs []viewer.VertexInfo) {
		m.watched = append(m.watched[:0], vs...)
	})
	// the watcher stays registered even when its first delivery fails
	m.watching = true
	m.watchSeries = current.Series
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus("watching %d vertices of %s", len(m.watched), current.Series)
}
