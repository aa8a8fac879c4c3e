package live

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/recera/tmapview/pkg/viewer"
)

// MessageType is the first byte of a binary frame
type MessageType uint8

const (
	// Frame types
	FrameWatch   MessageType = 0x00
	FrameControl MessageType = 0x02
)

// Inbound message types
const (
	MsgViewport     = "viewport"
	MsgCamera       = "camera"
	MsgPointer      = "pointer"
	MsgSelect       = "select"
	MsgDeselect     = "deselect"
	MsgClear        = "clear"
	MsgCycle        = "cycle"
	MsgWatch        = "watch"
	MsgUnwatch      = "unwatch"
	MsgColor        = "color"
	MsgResetColors  = "resetColors"
	MsgZoomTo       = "zoomTo"
	MsgZoomToFit    = "zoomToFit"
	MsgCenter       = "center"
	MsgVariant      = "variant"
	MsgSearch       = "search"
	MsgExport       = "export"
	MsgExportDone   = "exportDone"
	MsgBookmarkSave = "bookmarkSave"
	MsgBookmarkLoad = "bookmarkLoad"
)

// Outbound message types
const (
	MsgLabels     = "labels"
	MsgIndicators = "indicators"
	MsgHover      = "hover"
	MsgHoverEnd   = "hoverEnd"
	MsgClick      = "click"
	MsgResults    = "search"
	MsgBookmark   = "bookmark"
	MsgError      = "error"
	MsgReload     = "reload"
)

// Pointer actions
const (
	PointerMove  = "move"
	PointerLeave = "leave"
	PointerClick = "click"
)

// Inbound is a JSON message from the browser. Which fields are used depends
// on Type.
type Inbound struct {
	Type string `json:"type"`

	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Action string  `json:"action,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`

	Zoom   *float64     `json:"zoom,omitempty"`
	LookAt *viewer.Vec3 `json:"lookAt,omitempty"`
	PanX   float64      `json:"panX,omitempty"`
	PanY   float64      `json:"panY,omitempty"`

	Series    string       `json:"series,omitempty"`
	Index     int          `json:"index,omitempty"`
	Indices   []int        `json:"indices,omitempty"`
	Name      string       `json:"name,omitempty"`
	Direction int          `json:"direction,omitempty"`
	Color     [3]uint8     `json:"color,omitempty"`
	Backup    bool         `json:"backup,omitempty"`
	Padding   *float64     `json:"padding,omitempty"`
	Variant   VariantParam `json:"variant,omitempty"`
	Term      string       `json:"term,omitempty"`
	SelectAll bool         `json:"selectAll,omitempty"`
	Scale     float64      `json:"scale,omitempty"`
	Export    uint64       `json:"export,omitempty"`
	Cancel    bool         `json:"cancel,omitempty"`
}

// Label is a projected annotation anchor
type Label struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// IndicatorMsg is a selection or hover marker
type IndicatorMsg struct {
	Series  string  `json:"series"`
	Index   int     `json:"index"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Size    float64 `json:"size"`
	Current bool    `json:"current,omitempty"`
}

// VertexMsg describes one vertex in click and hover messages
type VertexMsg struct {
	Series string   `json:"series,omitempty"`
	Index  int      `json:"index"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Color  string   `json:"color"`
	Label  string   `json:"label,omitempty"`
	Title  string   `json:"title,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// ResultMsg lists search hits of one series
type ResultMsg struct {
	Series  string `json:"series"`
	Indices []int  `json:"indices"`
}

// ExportMsg announces a pending export
type ExportMsg struct {
	ID    uint64  `json:"id"`
	Scale float64 `json:"scale"`
	Done  bool    `json:"done,omitempty"`
}

// Outbound is a JSON message to the browser
type Outbound struct {
	Type string `json:"type"`

	Labels     []Label        `json:"labels,omitempty"`
	Indicators []IndicatorMsg `json:"indicators,omitempty"`
	Hover      *IndicatorMsg  `json:"marker,omitempty"`
	Vertex     *VertexMsg     `json:"vertex,omitempty"`
	Series     string         `json:"series,omitempty"`
	Variant    *int           `json:"variant,omitempty"`
	Results    []ResultMsg    `json:"results,omitempty"`
	Selected   int            `json:"selected,omitempty"`
	Export     *ExportMsg     `json:"export,omitempty"`
	Name       string         `json:"name,omitempty"`
	Dataset    string         `json:"dataset,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// VariantParam is an inbound variant selector. It accepts a JSON number, as
// sent in outbound variant messages, or a string such as a legend selector
// value. Range checking happens in viewer.ParseVariant.
type VariantParam string

func (p *VariantParam) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = VariantParam(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("live: variant must be a number or string: %w", err)
	}
	*p = VariantParam(n.String())
	return nil
}
