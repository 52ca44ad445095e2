package codec

import (
	"encoding/binary"
	"math"

	"github.com/shapeflow/shapesim/internal/mathx"
)

// Writer builds a save stream. All multi-byte writes are little-endian.
// The stream opens with the negated format version so that legacy streams,
// which opened with a non-negative shape count, decode as version <= 0.
type Writer struct {
	buf     []byte
	version int32
}

// NewWriter starts a stream for the given format version. Game state always
// writes SaveVersion; older versions exist for tooling and fixtures.
func NewWriter(version int32) *Writer {
	w := &Writer{buf: make([]byte, 0, 256), version: version}
	w.WriteInt(-version)
	return w
}

func (w *Writer) Version() int32 { return w.version }

// WriteInt writes 4 bytes little-endian.
func (w *Writer) WriteInt(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteFloat writes an IEEE-754 float32.
func (w *Writer) WriteFloat(v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteVec3(v mathx.Vec3) {
	w.WriteFloat(v.X)
	w.WriteFloat(v.Y)
	w.WriteFloat(v.Z)
}

func (w *Writer) WriteQuat(q mathx.Quat) {
	w.WriteFloat(q.X)
	w.WriteFloat(q.Y)
	w.WriteFloat(q.Z)
	w.WriteFloat(q.W)
}

func (w *Writer) WriteColor(c mathx.Color) {
	w.WriteFloat(c.R)
	w.WriteFloat(c.G)
	w.WriteFloat(c.B)
	w.WriteFloat(c.A)
}

// WriteBytes writes a length-prefixed byte block.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteInt(int32(len(b)))
	w.buf = append(w.buf, b...)
}

// Bytes returns the encoded stream.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteTransform writes position, rotation and scale.
func (w *Writer) WriteTransform(t mathx.Transform) {
	w.WriteVec3(t.Position)
	w.WriteQuat(t.Rotation)
	w.WriteVec3(t.Scale)
}
