package viewer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(series SeriesID, index int) SelectionItem {
	return SelectionItem{Series: series, Index: index}
}

func TestSelectionModel_SelectAppends(t *testing.T) {
	m := NewSelectionModel()
	assert.Equal(t, -1, m.Current())

	pos, added := m.Select(item("DATA", 3))
	assert.True(t, added)
	assert.Equal(t, 0, pos)

	pos, added = m.Select(item("DATA", 7))
	assert.True(t, added)
	assert.Equal(t, 1, pos)
	assert.Equal(t, 1, m.Current())
	assert.Equal(t, 2, m.Len())
}

func TestSelectionModel_ReselectFocusesExisting(t *testing.T) {
	m := NewSelectionModel()
	m.Select(item("DATA", 3))
	m.Select(item("DATA", 7))
	m.Select(item("DATA", 9))

	pos, added := m.Select(item("DATA", 3))
	assert.False(t, added)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 3, m.Len(), "re-select must not change the length")
	assert.Equal(t, 0, m.Current())
}

func TestSelectionModel_SamePairDifferentSeries(t *testing.T) {
	m := NewSelectionModel()
	m.Select(item("A", 1))
	_, added := m.Select(item("B", 1))
	assert.True(t, added, "same index in another series is a different pair")
	assert.Equal(t, 2, m.Len())
}

func TestSelectionModel_UniquePairsUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	series := []SeriesID{"A", "B"}
	m := NewSelectionModel()

	for i := 0; i < 2000; i++ {
		s := series[rng.Intn(len(series))]
		idx := rng.Intn(15)
		switch rng.Intn(4) {
		case 0, 1:
			m.Select(item(s, idx))
		case 2:
			m.Deselect(s, idx)
		case 3:
			m.Cycle(Direction(rng.Intn(3) - 1))
		}

		seen := map[SelectionItem]bool{}
		for _, it := range m.Items() {
			key := item(it.Series, it.Index)
			require.False(t, seen[key], "duplicate pair %v after step %d", key, i)
			seen[key] = true
		}
		if m.Len() == 0 {
			require.Equal(t, -1, m.Current())
		} else {
			require.GreaterOrEqual(t, m.Current(), 0)
			require.Less(t, m.Current(), m.Len())
		}
	}
}

func TestSelectionModel_Deselect(t *testing.T) {
	m := NewSelectionModel()
	m.Select(item("DATA", 1))
	m.Select(item("DATA", 2))
	m.Select(item("DATA", 3))
	m.Focus(0)

	assert.True(t, m.Deselect("DATA", 2))
	assert.Equal(t, []SelectionItem{item("DATA", 1), item("DATA", 3)}, m.Items())
	assert.Equal(t, 1, m.Current(), "last item becomes current after removal")

	assert.False(t, m.Deselect("DATA", 42), "absent pair is a no-op")
	assert.Equal(t, 2, m.Len())
}

func TestSelectionModel_Clear(t *testing.T) {
	m := NewSelectionModel()
	m.Select(item("DATA", 1))
	m.Clear()

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, -1, m.Current())
	_, ok := m.CurrentItem()
	assert.False(t, ok)
	_, ok = m.Last()
	assert.False(t, ok)
}

func TestSelectionModel_CycleWraps(t *testing.T) {
	for n := 1; n <= 5; n++ {
		m := NewSelectionModel()
		for i := 0; i < n; i++ {
			m.Select(item("DATA", i))
		}
		start := m.Current()

		// N steps return to the start, one more lands one further
		for i := 0; i < n; i++ {
			m.Cycle(Forward)
		}
		assert.Equal(t, start, m.Current(), "n=%d forward", n)

		for i := 0; i < n; i++ {
			m.Cycle(Backward)
		}
		assert.Equal(t, start, m.Current(), "n=%d backward", n)

		m.Cycle(Forward)
		assert.Equal(t, (start+1)%n, m.Current(), "n=%d one step", n)
	}
}

func TestSelectionModel_CycleEmptyIsNoop(t *testing.T) {
	m := NewSelectionModel()
	m.Cycle(Forward)
	m.Cycle(Backward)
	assert.Equal(t, -1, m.Current())
}

func TestSelectionModel_Items_IsCopy(t *testing.T) {
	m := NewSelectionModel()
	m.Select(item("DATA", 1))
	items := m.Items()
	items[0].Index = 99
	assert.True(t, m.Contains("DATA", 1))
}

func TestSelectionModel_RemoveSeries(t *testing.T) {
	m := NewSelectionModel()
	m.Select(item("A", 1))
	m.Select(item("B", 1))
	m.Select(item("A", 2))

	assert.True(t, m.removeSeries("A"))
	assert.Equal(t, []SelectionItem{item("B", 1)}, m.Items())
	assert.Equal(t, 0, m.Current())
	assert.False(t, m.removeSeries("A"))
}
