package mdx

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Fixed record sizes, in bytes.
const (
	versionSize        = 4
	extentSize         = 4 + 12 + 12
	infoSize           = ModelNameLength + 4 + extentSize + 4
	sequenceSize       = NameLength + 4*6 + extentSize
	globalSequenceSize = 4
	textureSize        = 4 + TextureFileNameLength + 4 + 4
	pivotPointSize     = 12
)

// Extent is a bounding sphere radius plus an axis-aligned box.
type Extent struct {
	BoundsRadius float32
	Min          mgl32.Vec3
	Max          mgl32.Vec3
}

func decodeExtent(d *decoder) Extent {
	return Extent{BoundsRadius: d.f32(), Min: d.vec3(), Max: d.vec3()}
}

func encodeExtent(e *encoder, x *Extent) {
	e.f32(x.BoundsRadius)
	e.vec3(x.Min)
	e.vec3(x.Max)
}

// fixedCount returns the number of recordSize records in the rest of the
// payload. A payload that is not an exact multiple fails in strict mode; in
// lenient mode it is skipped with a warning and yields zero records.
func fixedCount(d *decoder, recordSize int64) int {
	size := d.remaining()
	if size%recordSize == 0 {
		return int(size / recordSize)
	}
	if d.state.strict {
		d.fail(fmt.Errorf("%w: %d bytes, record is %d", ErrMalformedChunkSize, size, recordSize))
		return 0
	}
	d.warnf("%s: %w: %d bytes, record is %d; decoded as empty", d.tag, ErrMalformedChunkSize, size, recordSize)
	d.bytes(size)
	return 0
}

// VersionChunk is the VERS chunk.
type VersionChunk struct {
	Version uint32
}

func (*VersionChunk) Tag() Tag { return TagVERS }
func (*VersionChunk) Size() uint32 { return versionSize }
func (c *VersionChunk) decode(d *decoder) { c.Version = d.u32() }
func (c *VersionChunk) encode(e *encoder) { e.u32(c.Version) }

// InfoChunk is the MODL chunk: the model header.
type InfoChunk struct {
	Name      string
	Unknown   uint32
	Extent    Extent
	BlendTime uint32
}

func (*InfoChunk) Tag() Tag { return TagMODL }
func (*InfoChunk) Size() uint32 { return infoSize }

func (c *InfoChunk) decode(d *decoder) {
	c.Name = d.str(ModelNameLength)
	c.Unknown = d.u32()
	c.Extent = decodeExtent(d)
	c.BlendTime = d.u32()
}

func (c *InfoChunk) encode(e *encoder) {
	e.str(c.Name, ModelNameLength)
	e.u32(c.Unknown)
	encodeExtent(e, &c.Extent)
	e.u32(c.BlendTime)
}

// Sequence is an animation clip. [IntervalStart, IntervalEnd] is the clip's
// frame window.
type Sequence struct {
	Name          string
	IntervalStart uint32
	IntervalEnd   uint32
	MoveSpeed     float32
	NonLooping    uint32
	Rarity        float32
	SyncPoint     uint32
	Extent        Extent
}

// Contains reports whether frame lies inside the sequence's interval.
func (s *Sequence) Contains(frame uint32) bool {
	return frame >= s.IntervalStart && frame <= s.IntervalEnd
}

// SequenceChunk is the SEQS chunk.
type SequenceChunk struct {
	Items []Sequence
}

func (*SequenceChunk) Tag() Tag { return TagSEQS }

func (c *SequenceChunk) Size() uint32 {
	return uint32(len(c.Items)) * sequenceSize
}

func (c *SequenceChunk) decode(d *decoder) {
	n := fixedCount(d, sequenceSize)
	if n == 0 {
		return
	}
	c.Items = make([]Sequence, n)
	for i := range c.Items {
		s := &c.Items[i]
		s.Name = d.str(NameLength)
		s.IntervalStart = d.u32()
		s.IntervalEnd = d.u32()
		s.MoveSpeed = d.f32()
		s.NonLooping = d.u32()
		s.Rarity = d.f32()
		s.SyncPoint = d.u32()
		s.Extent = decodeExtent(d)
	}
}

func (c *SequenceChunk) encode(e *encoder) {
	for i := range c.Items {
		s := &c.Items[i]
		e.str(s.Name, NameLength)
		e.u32(s.IntervalStart)
		e.u32(s.IntervalEnd)
		e.f32(s.MoveSpeed)
		e.u32(s.NonLooping)
		e.f32(s.Rarity)
		e.u32(s.SyncPoint)
		encodeExtent(e, &s.Extent)
	}
}

// GlobalSequence is an independent looping timeline.
type GlobalSequence struct {
	Duration uint32
}

// GlobalSequenceChunk is the GLBS chunk.
type GlobalSequenceChunk struct {
	Items []GlobalSequence
}

func (*GlobalSequenceChunk) Tag() Tag { return TagGLBS }

func (c *GlobalSequenceChunk) Size() uint32 {
	return uint32(len(c.Items)) * globalSequenceSize
}

func (c *GlobalSequenceChunk) decode(d *decoder) {
	n := fixedCount(d, globalSequenceSize)
	if n == 0 {
		return
	}
	c.Items = make([]GlobalSequence, n)
	for i := range c.Items {
		c.Items[i].Duration = d.u32()
	}
}

func (c *GlobalSequenceChunk) encode(e *encoder) {
	for i := range c.Items {
		e.u32(c.Items[i].Duration)
	}
}

// Texture references an image file or a replaceable texture slot.
type Texture struct {
	ReplaceableID uint32
	FileName      string
	Unknown       uint32
	Flags         uint32
}

// TextureChunk is the TEXS chunk.
type TextureChunk struct {
	Items []Texture
}

func (*TextureChunk) Tag() Tag { return TagTEXS }

func (c *TextureChunk) Size() uint32 {
	return uint32(len(c.Items)) * textureSize
}

func (c *TextureChunk) decode(d *decoder) {
	n := fixedCount(d, textureSize)
	if n == 0 {
		return
	}
	c.Items = make([]Texture, n)
	for i := range c.Items {
		t := &c.Items[i]
		t.ReplaceableID = d.u32()
		t.FileName = d.str(TextureFileNameLength)
		t.Unknown = d.u32()
		t.Flags = d.u32()
	}
}

func (c *TextureChunk) encode(e *encoder) {
	for i := range c.Items {
		t := &c.Items[i]
		e.u32(t.ReplaceableID)
		e.str(t.FileName, TextureFileNameLength)
		e.u32(t.Unknown)
		e.u32(t.Flags)
	}
}

// PivotPoint is the pivot position of the node with the same object id.
type PivotPoint struct {
	Position mgl32.Vec3
}

// PivotPointChunk is the PIVT chunk.
type PivotPointChunk struct {
	Items []PivotPoint
}

func (*PivotPointChunk) Tag() Tag { return TagPIVT }

func (c *PivotPointChunk) Size() uint32 {
	return uint32(len(c.Items)) * pivotPointSize
}

func (c *PivotPointChunk) decode(d *decoder) {
	n := fixedCount(d, pivotPointSize)
	if n == 0 {
		return
	}
	c.Items = make([]PivotPoint, n)
	for i := range c.Items {
		c.Items[i].Position = d.vec3()
	}
}

func (c *PivotPointChunk) encode(e *encoder) {
	for i := range c.Items {
		e.vec3(c.Items[i].Position)
	}
}

// OpaqueChunk carries a chunk whose layout this package does not model. Its
// payload is re-emitted verbatim.
type OpaqueChunk struct {
	ID   Tag
	Data []byte
}

func (c *OpaqueChunk) Tag() Tag { return c.ID }
func (c *OpaqueChunk) Size() uint32 { return uint32(len(c.Data)) }

func (c *OpaqueChunk) decode(d *decoder) {
	c.Data = d.bytes(d.remaining())
}

func (c *OpaqueChunk) encode(e *encoder) {
	e.bytes(c.Data)
}
