package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recera/tmapview/pkg/viewer"
)

const sampleYAML = `
title: sample
point_scale: 3
series:
  - name: DATA
    x: [0, 10, 5]
    y: [0, 0, 10]
    labels: ["a__one", "b__two", "c__three"]
    variants:
      - title: plain
        colors: ["#ff0000", "#00ff00", "#0000ff"]
        title_index: 1
      - title: sized
        colors: ["#000000", "#000000", "#ffffff"]
        sizes: [1, 2, 3]
  - name: background
    interactive: false
    x: [1]
    y: [1]
    z: [1]
    variants:
      - colors: ["#808080"]
`

func TestParseYAML(t *testing.T) {
	d, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "sample", d.Title)
	assert.Equal(t, 3.0, d.PointScale)
	require.Len(t, d.Series, 2)

	s := d.Series[0]
	assert.Equal(t, viewer.SeriesID("DATA"), s.Name)
	assert.True(t, s.Interactive)
	assert.Equal(t, []float64{0, 0, 0}, s.Z)
	assert.Equal(t, colorful.Color{R: 1}, s.Variants[0].Colors[0])
	assert.Equal(t, 1, s.Variants[0].TitleIndex)
	assert.Equal(t, []float64{1, 2, 3}, s.Variants[1].Sizes)

	bg, ok := d.Find("background")
	require.True(t, ok)
	assert.False(t, bg.Interactive)
	assert.Len(t, d.Hash, 64)
}

func TestParseInvalid(t *testing.T) {
	cases := map[string]string{
		"no series":       `title: x`,
		"length mismatch": "series:\n  - name: a\n    x: [1, 2]\n    y: [1]\n    variants: [{colors: ['#000000', '#000000']}]",
		"bad color":       "series:\n  - name: a\n    x: [1]\n    y: [1]\n    variants: [{colors: ['red']}]",
		"no variants":     "series:\n  - name: a\n    x: [1]\n    y: [1]",
		"duplicate":       "series:\n  - {name: a, x: [1], y: [1], variants: [{colors: ['#000000']}]}\n  - {name: a, x: [1], y: [1], variants: [{colors: ['#000000']}]}",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), FormatYAML)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadRoundTripsThroughJSON(t *testing.T) {
	d, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	data, err := Encode(d, FormatJSON)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, d.Series, back.Series)
	assert.NotEqual(t, d.Hash, back.Hash)
}

func TestLoadUnknownFormat(t *testing.T) {
	_, err := Load("points.csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSingle(t *testing.T) {
	s, err := Single([]float64{0, 1}, []float64{2, 3}, nil, []viewer.RGB{{255, 0, 0}, {0, 0, 255}}, []string{"a__x", "b__y"})
	require.NoError(t, err)
	assert.Equal(t, SingleSeriesName, s.Name)
	assert.True(t, s.Interactive)
	assert.Equal(t, []float64{0, 0}, s.Z)
	assert.Equal(t, 1, s.Variants[0].TitleIndex)
	assert.Equal(t, colorful.Color{B: 1}, s.Variants[0].Colors[1])

	_, err = Single([]float64{0}, []float64{0, 1}, nil, []viewer.RGB{{}}, nil)
	assert.ErrorIs(t, err, ErrInvalid)
}
