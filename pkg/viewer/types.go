package viewer

import (
	"fmt"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
)

// SeriesID names a point series, e.g. "DATA".
type SeriesID string

// Vec3 is a scene-space position
type Vec3 [3]float64

// ScreenPoint is a position in canvas pixels
type ScreenPoint struct {
	X float64
	Y float64
}

// RGB is an 8-bit per channel color as accepted by the public API.
type RGB [3]uint8

// Normalize converts to the 0..1 representation handed to point stores.
func (c RGB) Normalize() colorful.Color {
	return colorful.Color{
		R: float64(c[0]) / 255,
		G: float64(c[1]) / 255,
		B: float64(c[2]) / 255,
	}
}

// Variant indexes a series' color/size variants. It is only ever constructed
// through ParseVariant or Series.Variant, both of which range-check it.
type Variant int

// ParseVariant converts external input (a legend selector value, a query
// parameter) to a Variant valid for a series with n variants.
func ParseVariant(s string, n int) (Variant, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrVariantOutOfRange, s)
	}
	return checkVariant(v, n)
}

func checkVariant(v, n int) (Variant, error) {
	if v < 0 || v >= n {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrVariantOutOfRange, v, n)
	}
	return Variant(v), nil
}

// VariantData is one color scheme of a series. Sizes is optional.
type VariantData struct {
	Title  string
	Colors []colorful.Color
	Sizes  []float64

	// LabelIndex and TitleIndex select which "__"-separated label field is
	// shown as the label and the title while this variant is active.
	LabelIndex int
	TitleIndex int
}

// Series is the immutable description of a point series.
type Series struct {
	Name        SeriesID
	X, Y, Z     []float64
	Variants    []VariantData
	Labels      []string
	Interactive bool
}

// Len returns the number of vertices
func (s *Series) Len() int {
	return len(s.X)
}

// Position returns the scene position of vertex i
func (s *Series) Position(i int) Vec3 {
	return Vec3{s.X[i], s.Y[i], s.Z[i]}
}

// Variant range-checks v against the series' variants.
func (s *Series) Variant(v int) (Variant, error) {
	return checkVariant(v, len(s.Variants))
}

func (s *Series) validate() error {
	n := len(s.X)
	if s.Name == "" {
		return fmt.Errorf("%w: empty series name", ErrInvalidSeries)
	}
	if len(s.Y) != n || len(s.Z) != n {
		return fmt.Errorf("%w: %s: coordinate arrays differ in length (%d, %d, %d)",
			ErrInvalidSeries, s.Name, len(s.X), len(s.Y), len(s.Z))
	}
	if len(s.Variants) == 0 {
		return fmt.Errorf("%w: %s: at least one color variant is required", ErrInvalidSeries, s.Name)
	}
	for i, v := range s.Variants {
		if len(v.Colors) != n {
			return fmt.Errorf("%w: %s: variant %d has %d colors for %d vertices",
				ErrInvalidSeries, s.Name, i, len(v.Colors), n)
		}
		if v.Sizes != nil && len(v.Sizes) != n {
			return fmt.Errorf("%w: %s: variant %d has %d sizes for %d vertices",
				ErrInvalidSeries, s.Name, i, len(v.Sizes), n)
		}
	}
	if s.Labels != nil && len(s.Labels) != n {
		return fmt.Errorf("%w: %s: %d labels for %d vertices", ErrInvalidSeries, s.Name, len(s.Labels), n)
	}
	return nil
}

func (s *Series) hasSizes() bool {
	for _, v := range s.Variants {
		if v.Sizes != nil {
			return true
		}
	}
	return false
}

// VertexInfo is what watchers and vertex callbacks receive.
type VertexInfo struct {
	X     float64
	Y     float64
	Index int
	Color colorful.Color
}

// SelectionItem is one selected vertex.
type SelectionItem struct {
	Series SeriesID
	Index  int
	Screen ScreenPoint
	Color  colorful.Color
}

// LabelKind identifies an annotation anchored to the scene bounds
type LabelKind int

const (
	LabelTitle LabelKind = iota
	LabelYAxis
	LabelXAxis
)

func (k LabelKind) String() string {
	switch k {
	case LabelTitle:
		return "title"
	case LabelYAxis:
		return "y-axis"
	case LabelXAxis:
		return "x-axis"
	}
	return "unknown"
}

// Indicator is a square marker drawn over a vertex.
type Indicator struct {
	Series  SeriesID
	Index   int
	Center  ScreenPoint
	Size    float64
	Current bool
}

// HoverPoint describes the vertex under the pointer.
type HoverPoint struct {
	Series     SeriesID
	Index      int
	Screen     ScreenPoint
	FullLabel  []string
	Label      string
	Title      string
	Color      colorful.Color
	LabelIndex int
	TitleIndex int
}

// Options configures the viewer
type Options struct {
	// DevicePixelRatio converts point sizes reported by the point stores
	// (device pixels) to canvas pixels. Default 1.
	DevicePixelRatio float64

	// ZoomPadding is used by ZoomTo when a negative padding is passed. Default 0.1.
	ZoomPadding float64

	// Strict turns collaborator errors raised while handling hover,
	// selection and camera events into panics. Otherwise they are logged.
	Strict bool

	Logger *zerolog.Logger
}

// DefaultZoomPadding is the padding fraction used by ZoomTo by default
const DefaultZoomPadding = 0.1

func (o *Options) withDefaults() Options {
	d := Options{
		DevicePixelRatio: 1,
		ZoomPadding:      DefaultZoomPadding,
	}
	nop := zerolog.Nop()
	d.Logger = &nop
	if o == nil {
		return d
	}
	if o.DevicePixelRatio > 0 {
		d.DevicePixelRatio = o.DevicePixelRatio
	}
	if o.ZoomPadding > 0 {
		d.ZoomPadding = o.ZoomPadding
	}
	d.Strict = o.Strict
	if o.Logger != nil {
		d.Logger = o.Logger
	}
	return d
}
