package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/shapeflow/shapesim/internal/mathx"
)

// maxBlockLen bounds length-prefixed blocks so a corrupt length cannot
// trigger a huge allocation.
const maxBlockLen = 1 << 20

// ErrBadLength reports a negative or oversized length prefix.
var ErrBadLength = errors.New("codec: bad length prefix")

// Reader decodes a save stream. Errors are sticky: once a read fails every
// later read returns a zero value and Err reports the first failure.
type Reader struct {
	data    []byte
	off     int
	version int32
	err     error
}

// NewReader consumes the stream header and rejects versions newer than
// SaveVersion before anything else is decoded.
func NewReader(data []byte) (*Reader, error) {
	r := &Reader{data: data}
	header := r.ReadInt()
	if r.err != nil {
		return nil, fmt.Errorf("read save header: %w", r.err)
	}
	if header == math.MinInt32 {
		return nil, fmt.Errorf("%w: header %d", ErrBadLength, header)
	}
	r.version = -header
	if r.version > SaveVersion {
		return nil, &UnsupportedVersionError{Version: r.version, Max: SaveVersion}
	}
	return r, nil
}

// Version is the format version of the stream. Values <= 0 are legacy
// streams whose shape count is -Version.
func (r *Reader) Version() int32 { return r.version }

func (r *Reader) Err() error { return r.err }

// Fail records err unless an earlier error is already recorded.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = io.ErrUnexpectedEOF
		r.off = len(r.data)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadInt reads 4 bytes as little-endian int32.
func (r *Reader) ReadInt() int32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadFloat() float32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (r *Reader) ReadVec3() mathx.Vec3 {
	return mathx.Vec3{X: r.ReadFloat(), Y: r.ReadFloat(), Z: r.ReadFloat()}
}

func (r *Reader) ReadQuat() mathx.Quat {
	return mathx.Quat{X: r.ReadFloat(), Y: r.ReadFloat(), Z: r.ReadFloat(), W: r.ReadFloat()}
}

func (r *Reader) ReadColor() mathx.Color {
	return mathx.Color{R: r.ReadFloat(), G: r.ReadFloat(), B: r.ReadFloat(), A: r.ReadFloat()}
}

// ReadCount reads a non-negative count, failing the reader on a negative or
// absurd value.
func (r *Reader) ReadCount() int {
	n := r.ReadInt()
	if n < 0 || n > maxBlockLen {
		r.Fail(fmt.Errorf("%w: %d", ErrBadLength, n))
		return 0
	}
	return int(n)
}

// ReadBytes reads a length-prefixed block. The result is a copy.
func (r *Reader) ReadBytes() []byte {
	n := r.ReadCount()
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) ReadTransform() mathx.Transform {
	return mathx.Transform{Position: r.ReadVec3(), Rotation: r.ReadQuat(), Scale: r.ReadVec3()}
}
