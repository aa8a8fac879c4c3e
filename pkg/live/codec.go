package live

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/recera/tmapview/pkg/viewer"
)

// Encoder handles encoding of live protocol frames
type Encoder struct {
	w io.Writer
}

// NewEncoder creates a new encoder
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteUvarint writes an unsigned varint
func (e *Encoder) WriteUvarint(v uint64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	_, err := e.w.Write(buf[:n])
	return err
}

// WriteString writes a length-prefixed string
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteUvarint(uint64(len(s))); err != nil {
		return err
	}
	_, err := e.w.Write([]byte(s))
	return err
}

// WriteFloat32 writes a little-endian float32
func (e *Encoder) WriteFloat32(f float32) error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(f))
	_, err := e.w.Write(tmp[:])
	return err
}

// WriteBytes writes raw bytes
func (e *Encoder) WriteBytes(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

// Decoder handles decoding of live protocol frames
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder creates a new decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 1024),
	}
}

// ReadUvarint reads an unsigned varint
func (d *Decoder) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(d)
}

// ReadByte implements io.ByteReader
func (d *Decoder) ReadByte() (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(d.r, b[:])
	return b[0], err
}

// ReadString reads a length-prefixed string
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > maxStringLen {
		return "", fmt.Errorf("live: string of %d bytes exceeds limit", length)
	}
	if length > uint64(len(d.buf)) {
		d.buf = make([]byte, length)
	}
	n, err := io.ReadFull(d.r, d.buf[:length])
	if err != nil {
		return "", err
	}
	return string(d.buf[:n]), nil
}

// ReadFloat32 reads a little-endian float32
func (d *Decoder) ReadFloat32() (float32, error) {
	b, err := d.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// ReadBytes reads n bytes
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n > len(d.buf) {
		d.buf = make([]byte, n)
	}
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		return nil, err
	}
	result := make([]byte, n)
	copy(result, d.buf[:n])
	return result, nil
}

const maxStringLen = 1 << 16

// WatchFrame is one watcher delivery
type WatchFrame struct {
	Series   string
	Name     string
	Vertices []WatchVertex
}

// WatchVertex is a watched vertex in canvas pixels with an 8-bit color
type WatchVertex struct {
	Index int
	X, Y  float32
	Color [3]uint8
}

// watchVertices converts a watcher delivery for the wire
func watchVertices(vs []viewer.VertexInfo) []WatchVertex {
	out := make([]WatchVertex, len(vs))
	for i, v := range vs {
		r, g, b := v.Color.Clamped().RGB255()
		out[i] = WatchVertex{Index: v.Index, X: float32(v.X), Y: float32(v.Y), Color: [3]uint8{r, g, b}}
	}
	return out
}

// EncodeWatchFrame encodes a watcher update: frame type, series, name,
// uvarint count, then per vertex uvarint index, float32 x, float32 y and
// three color bytes.
func EncodeWatchFrame(f WatchFrame) []byte {
	var buf bytes.Buffer
	encoder := NewEncoder(&buf)

	encoder.WriteBytes([]byte{byte(FrameWatch)})
	encoder.WriteString(f.Series)
	encoder.WriteString(f.Name)
	encoder.WriteUvarint(uint64(len(f.Vertices)))
	for _, v := range f.Vertices {
		encoder.WriteUvarint(uint64(v.Index))
		encoder.WriteFloat32(v.X)
		encoder.WriteFloat32(v.Y)
		encoder.WriteBytes(v.Color[:])
	}
	return buf.Bytes()
}

// DecodeWatchFrame decodes a frame produced by EncodeWatchFrame
func DecodeWatchFrame(data []byte) (*WatchFrame, error) {
	if len(data) == 0 || data[0] != byte(FrameWatch) {
		return nil, errors.New("live: not a watch frame")
	}
	d := NewDecoder(bytes.NewReader(data[1:]))

	var (
		f   WatchFrame
		err error
	)
	if f.Series, err = d.ReadString(); err != nil {
		return nil, fmt.Errorf("live: watch frame series: %w", err)
	}
	if f.Name, err = d.ReadString(); err != nil {
		return nil, fmt.Errorf("live: watch frame name: %w", err)
	}
	n, err := d.ReadUvarint()
	if err != nil {
		return nil, fmt.Errorf("live: watch frame count: %w", err)
	}
	if n > uint64(len(data)) {
		return nil, fmt.Errorf("live: watch frame claims %d vertices in %d bytes", n, len(data))
	}
	f.Vertices = make([]WatchVertex, 0, n)
	for i := uint64(0); i < n; i++ {
		var v WatchVertex
		idx, err := d.ReadUvarint()
		if err != nil {
			return nil, fmt.Errorf("live: watch frame vertex %d: %w", i, err)
		}
		v.Index = int(idx)
		if v.X, err = d.ReadFloat32(); err != nil {
			return nil, err
		}
		if v.Y, err = d.ReadFloat32(); err != nil {
			return nil, err
		}
		c, err := d.ReadBytes(3)
		if err != nil {
			return nil, err
		}
		copy(v.Color[:], c)
		f.Vertices = append(f.Vertices, v)
	}
	return &f, nil
}

// EncodeControl encodes a control frame: frame type, message name and
// optional string arguments.
func EncodeControl(msg string, args ...string) []byte {
	var buf bytes.Buffer
	encoder := NewEncoder(&buf)
	encoder.WriteBytes([]byte{byte(FrameControl)})
	encoder.WriteString(msg)
	for _, a := range args {
		encoder.WriteString(a)
	}
	return buf.Bytes()
}
