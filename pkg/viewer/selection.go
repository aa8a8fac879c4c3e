package viewer

// Direction steps the current selection forward or backward
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// SelectionModel is the ordered list of selected vertices across all
// interactive series. A (series, index) pair appears at most once.
type SelectionModel struct {
	items   []SelectionItem
	current int
}

// NewSelectionModel creates an empty selection
func NewSelectionModel() *SelectionModel {
	return &SelectionModel{current: -1}
}

// Select appends item unless its pair is already selected, in which case the
// existing slot becomes current. Returns the slot position and whether it was
// appended.
func (m *SelectionModel) Select(item SelectionItem) (pos int, added bool) {
	if i := m.IndexOf(item.Series, item.Index); i >= 0 {
		m.current = i
		return i, false
	}
	m.items = append(m.items, item)
	m.current = len(m.items) - 1
	return m.current, true
}

// Deselect removes the pair if present. The last remaining item becomes current.
func (m *SelectionModel) Deselect(series SeriesID, index int) bool {
	i := m.IndexOf(series, index)
	if i < 0 {
		return false
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	m.current = len(m.items) - 1
	return true
}

// Clear empties the selection
func (m *SelectionModel) Clear() {
	m.items = nil
	m.current = -1
}

// Cycle moves current one slot in direction d, wrapping around.
func (m *SelectionModel) Cycle(d Direction) {
	n := len(m.items)
	if n == 0 || d == 0 {
		return
	}
	step := 1
	if d < 0 {
		step = -1
	}
	m.current = ((m.current+step)%n + n) % n
}

// Focus makes slot i current. Out-of-range positions are ignored.
func (m *SelectionModel) Focus(i int) {
	if i >= 0 && i < len(m.items) {
		m.current = i
	}
}

// IndexOf returns the slot holding the pair, or -1
func (m *SelectionModel) IndexOf(series SeriesID, index int) int {
	for i, it := range m.items {
		if it.Series == series && it.Index == index {
			return i
		}
	}
	return -1
}

// Contains reports whether the pair is selected
func (m *SelectionModel) Contains(series SeriesID, index int) bool {
	return m.IndexOf(series, index) >= 0
}

// Len returns the number of selected items
func (m *SelectionModel) Len() int {
	return len(m.items)
}

// Items returns a copy of the selection in order
func (m *SelectionModel) Items() []SelectionItem {
	out := make([]SelectionItem, len(m.items))
	copy(out, m.items)
	return out
}

// Current returns the slot position of the current item, -1 when empty
func (m *SelectionModel) Current() int {
	return m.current
}

// CurrentItem returns the current item
func (m *SelectionModel) CurrentItem() (SelectionItem, bool) {
	if m.current < 0 || m.current >= len(m.items) {
		return SelectionItem{}, false
	}
	return m.items[m.current], true
}

// Last returns the most recently appended item still selected
func (m *SelectionModel) Last() (SelectionItem, bool) {
	if len(m.items) == 0 {
		return SelectionItem{}, false
	}
	return m.items[len(m.items)-1], true
}

// At returns the item in slot i
func (m *SelectionModel) At(i int) SelectionItem {
	return m.items[i]
}

// setScreen records the last known screen position of slot i
func (m *SelectionModel) setScreen(i int, p ScreenPoint) {
	m.items[i].Screen = p
}

// removeSeries drops every item of one series
func (m *SelectionModel) removeSeries(series SeriesID) bool {
	kept := m.items[:0]
	for _, it := range m.items {
		if it.Series != series {
			kept = append(kept, it)
		}
	}
	changed := len(kept) != len(m.items)
	for i := len(kept); i < len(m.items); i++ {
		m.items[i] = SelectionItem{}
	}
	m.items = kept
	if changed {
		m.current = len(m.items) - 1
	}
	return changed
}
