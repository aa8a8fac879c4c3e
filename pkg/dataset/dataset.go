// Package dataset reads point-cloud datasets from YAML or JSON files and
// turns them into viewer series.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/recera/tmapview/pkg/viewer"
)

// SingleSeriesName is the series created by Single
const SingleSeriesName viewer.SeriesID = "DATA"

var (
	// ErrUnknownFormat is returned for files that are neither YAML nor JSON
	ErrUnknownFormat = errors.New("dataset: unknown format")

	// ErrInvalid is returned for structurally invalid datasets
	ErrInvalid = errors.New("dataset: invalid dataset")
)

// Format of a dataset file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// File is the on-disk layout
type File struct {
	Title      string       `yaml:"title" json:"title"`
	PointScale float64      `yaml:"point_scale,omitempty" json:"point_scale,omitempty"`
	Series     []SeriesSpec `yaml:"series" json:"series"`
}

// SeriesSpec describes one series. Z defaults to zeros, Interactive to true.
type SeriesSpec struct {
	Name        string        `yaml:"name" json:"name"`
	Interactive *bool         `yaml:"interactive,omitempty" json:"interactive,omitempty"`
	X           []float64     `yaml:"x" json:"x"`
	Y           []float64     `yaml:"y" json:"y"`
	Z           []float64     `yaml:"z,omitempty" json:"z,omitempty"`
	Labels      []string      `yaml:"labels,omitempty" json:"labels,omitempty"`
	Variants    []VariantSpec `yaml:"variants" json:"variants"`
}

// VariantSpec is one color scheme; colors are "#rrggbb" strings
type VariantSpec struct {
	Title      string    `yaml:"title,omitempty" json:"title,omitempty"`
	Colors     []string  `yaml:"colors" json:"colors"`
	Sizes      []float64 `yaml:"sizes,omitempty" json:"sizes,omitempty"`
	LabelIndex int       `yaml:"label_index,omitempty" json:"label_index,omitempty"`
	TitleIndex int       `yaml:"title_index,omitempty" json:"title_index,omitempty"`
}

// Dataset is a parsed and validated dataset
type Dataset struct {
	Title      string
	PointScale float64
	Series     []*viewer.Series

	// Hash is the hex sha256 of the source bytes
	Hash string
}

// Find returns a series by name
func (d *Dataset) Find(name viewer.SeriesID) (*viewer.Series, bool) {
	for _, s := range d.Series {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Load reads and parses a dataset file
func Load(path string) (*Dataset, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	return Parse(data, format)
}

// Hash returns the content hash used to identify a dataset
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Parse decodes and builds a dataset
func Parse(data []byte, format Format) (*Dataset, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("dataset: decode yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("dataset: decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	d, err := f.Build()
	if err != nil {
		return nil, err
	}
	d.Hash = Hash(data)
	return d, nil
}

// Build converts the file layout to viewer series and validates it
func (f *File) Build() (*Dataset, error) {
	if len(f.Series) == 0 {
		return nil, fmt.Errorf("%w: no series", ErrInvalid)
	}
	d := &Dataset{Title: f.Title, PointScale: f.PointScale}
	seen := make(map[string]bool, len(f.Series))
	for i := range f.Series {
		spec := &f.Series[i]
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: duplicate series %q", ErrInvalid, spec.Name)
		}
		seen[spec.Name] = true

		s, err := spec.build()
		if err != nil {
			return nil, err
		}
		d.Series = append(d.Series, s)
	}
	return d, nil
}

func (spec *SeriesSpec) build() (*viewer.Series, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: series without name", ErrInvalid)
	}
	n := len(spec.X)
	if len(spec.Y) != n {
		return nil, fmt.Errorf("%w: %s: %d x and %d y values", ErrInvalid, spec.Name, n, len(spec.Y))
	}
	z := spec.Z
	if z == nil {
		z = make([]float64, n)
	}
	if len(z) != n {
		return nil, fmt.Errorf("%w: %s: %d x and %d z values", ErrInvalid, spec.Name, n, len(z))
	}
	if spec.Labels != nil && len(spec.Labels) != n {
		return nil, fmt.Errorf("%w: %s: %d labels for %d points", ErrInvalid, spec.Name, len(spec.Labels), n)
	}
	if len(spec.Variants) == 0 {
		return nil, fmt.Errorf("%w: %s: no variants", ErrInvalid, spec.Name)
	}

	s := &viewer.Series{
		Name:        viewer.SeriesID(spec.Name),
		X:           spec.X,
		Y:           spec.Y,
		Z:           z,
		Labels:      spec.Labels,
		Interactive: spec.Interactive == nil || *spec.Interactive,
	}
	for vi, vs := range spec.Variants {
		if len(vs.Colors) != n {
			return nil, fmt.Errorf("%w: %s: variant %d has %d colors for %d points", ErrInvalid, spec.Name, vi, len(vs.Colors), n)
		}
		if vs.Sizes != nil && len(vs.Sizes) != n {
			return nil, fmt.Errorf("%w: %s: variant %d has %d sizes for %d points", ErrInvalid, spec.Name, vi, len(vs.Sizes), n)
		}
		colors := make([]colorful.Color, n)
		for i, h := range vs.Colors {
			c, err := colorful.Hex(h)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: variant %d color %d: %v", ErrInvalid, spec.Name, vi, i, err)
			}
			colors[i] = c
		}
		s.Variants = append(s.Variants, viewer.VariantData{
			Title:      vs.Title,
			Colors:     colors,
			Sizes:      vs.Sizes,
			LabelIndex: vs.LabelIndex,
			TitleIndex: vs.TitleIndex,
		})
	}
	return s, nil
}

// Single builds the one interactive series named DATA from coordinates,
// 8-bit colors and optional labels. z may be nil. Labels are shown with
// their first "__" field as label and the second as title.
func Single(x, y, z []float64, colors []viewer.RGB, labels []string) (*viewer.Series, error) {
	n := len(x)
	if z == nil {
		z = make([]float64, n)
	}
	if len(y) != n || len(z) != n || len(colors) != n {
		return nil, fmt.Errorf("%w: %s: %d x, %d y, %d z, %d colors", ErrInvalid, SingleSeriesName, n, len(y), len(z), len(colors))
	}
	if labels != nil && len(labels) != n {
		return nil, fmt.Errorf("%w: %s: %d labels for %d points", ErrInvalid, SingleSeriesName, len(labels), n)
	}
	cs := make([]colorful.Color, n)
	for i, c := range colors {
		cs[i] = c.Normalize()
	}
	return &viewer.Series{
		Name:        SingleSeriesName,
		X:           x,
		Y:           y,
		Z:           z,
		Labels:      labels,
		Interactive: true,
		Variants:    []viewer.VariantData{{Colors: cs, LabelIndex: 0, TitleIndex: 1}},
	}, nil
}

// Encode writes a dataset in the given format, with colors as hex strings
func Encode(d *Dataset, format Format) ([]byte, error) {
	f := File{Title: d.Title, PointScale: d.PointScale}
	for _, s := range d.Series {
		interactive := s.Interactive
		spec := SeriesSpec{
			Name:        string(s.Name),
			Interactive: &interactive,
			X:           s.X,
			Y:           s.Y,
			Z:           s.Z,
			Labels:      s.Labels,
		}
		for _, v := range s.Variants {
			vs := VariantSpec{Title: v.Title, Sizes: v.Sizes, LabelIndex: v.LabelIndex, TitleIndex: v.TitleIndex}
			for _, c := range v.Colors {
				vs.Colors = append(vs.Colors, c.Hex())
			}
			spec.Variants = append(spec.Variants, vs)
		}
		f.Series = append(f.Series, spec)
	}
	switch format {
	case FormatYAML:
		return yaml.Marshal(&f)
	case FormatJSON:
		return json.MarshalIndent(&f, "", "  ")
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
