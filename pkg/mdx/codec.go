package mdx

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/anaminus/parse"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
)

// decodeState is shared by a decoder and all of its sub-decoders.
type decodeState struct {
	strict bool
	warn   error
}

// decoder reads little-endian primitives from an in-memory payload. Errors
// are sticky: once a read fails every following read is a no-op, and err
// reports the first failure as a *FormatError.
type decoder struct {
	r     *parse.BinaryReader
	base  int64 // absolute offset of the first payload byte
	size  int64
	tag   Tag // enclosing chunk
	state *decodeState
}

func newDecoder(data []byte, base int64, tag Tag, state *decodeState) *decoder {
	return &decoder{
		r:     parse.NewBinaryReader(bytes.NewReader(data)),
		base:  base,
		size:  int64(len(data)),
		tag:   tag,
		state: state,
	}
}

// offset returns the number of payload bytes consumed so far.
func (d *decoder) offset() int64 {
	return d.r.N()
}

func (d *decoder) remaining() int64 {
	return d.size - d.r.N()
}

func (d *decoder) failed() bool {
	return d.r.Err() != nil
}

func (d *decoder) fail(err error) {
	d.r.Add(0, err)
}

func (d *decoder) warnf(format string, args ...any) {
	d.state.warn = multierr.Append(d.state.warn, fmt.Errorf(format, args...))
}

// err returns the first read failure wrapped in a *FormatError.
func (d *decoder) err() error {
	err := d.r.Err()
	if err == nil {
		return nil
	}
	var fe *FormatError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = ErrTruncated
	}
	return &FormatError{Offset: d.base + d.r.N(), Tag: d.tag, Cause: err}
}

// need fails the decoder with ErrTruncated unless n more bytes remain.
func (d *decoder) need(n int64) bool {
	if d.failed() {
		return false
	}
	if n < 0 || n > d.remaining() {
		d.fail(ErrTruncated)
		return false
	}
	return true
}

func (d *decoder) u32() uint32 {
	var v uint32
	d.r.Number(&v)
	return v
}

func (d *decoder) f32() float32 {
	var v float32
	d.r.Number(&v)
	return v
}

func (d *decoder) tagValue() Tag {
	return Tag(d.u32())
}

// str reads a fixed-length field of n bytes and returns its content up to
// the first zero byte.
func (d *decoder) str(n int) string {
	if !d.need(int64(n)) {
		return ""
	}
	buf := make([]byte, n)
	if d.r.Bytes(buf) {
		return ""
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}

func (d *decoder) floats(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = d.f32()
	}
	return v
}

func (d *decoder) vec3() mgl32.Vec3 {
	return mgl32.Vec3{d.f32(), d.f32(), d.f32()}
}

func (d *decoder) bytes(n int64) []byte {
	if !d.need(n) {
		return nil
	}
	buf := make([]byte, n)
	d.r.Bytes(buf)
	return buf
}

// sub consumes n bytes and returns a decoder scoped to them.
func (d *decoder) sub(n int64, tag Tag) *decoder {
	start := d.base + d.offset()
	payload := d.bytes(n)
	return newDecoder(payload, start, tag, d.state)
}

// encoder writes little-endian primitives into a buffer allocated at the
// final encoded size.
type encoder struct {
	buf *bytes.Buffer
	w   *parse.BinaryWriter
}

func newEncoder(size int) *encoder {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	return &encoder{buf: buf, w: parse.NewBinaryWriter(buf)}
}

func (e *encoder) fail(err error) {
	e.w.Add(0, err)
}

func (e *encoder) err() error {
	return e.w.Err()
}

func (e *encoder) u32(v uint32) {
	e.w.Number(v)
}

func (e *encoder) f32(v float32) {
	e.w.Number(v)
}

func (e *encoder) tag(t Tag) {
	e.u32(uint32(t))
}

// str writes s into a zero-padded field of exactly n bytes.
func (e *encoder) str(s string, n int) {
	if len(s) > n {
		e.fail(fmt.Errorf("%w: %q is %d bytes, field holds %d", ErrStringTooLong, s, len(s), n))
		return
	}
	field := make([]byte, n)
	copy(field, s)
	e.w.Bytes(field)
}

func (e *encoder) floats(v []float32) {
	for _, f := range v {
		e.f32(f)
	}
}

func (e *encoder) vec3(v mgl32.Vec3) {
	e.floats(v[:])
}

func (e *encoder) bytes(b []byte) {
	e.w.Bytes(b)
}
