package mdx

import (
	"fmt"
	"os"
)

// Chunk is one top-level chunk of a Model. The set of implementations is
// closed: the typed chunks of this package plus OpaqueChunk.
type Chunk interface {
	// Tag returns the chunk's four-byte tag.
	Tag() Tag
	// Size returns the payload length computed from the current content,
	// excluding the tag and the size field.
	Size() uint32

	decode(d *decoder)
	encode(e *encoder)
}

// resizer is implemented by chunks whose records carry inclusive sizes.
type resizer interface {
	recomputeSizes()
}

// Model is a decoded MDX file. Every chunk is optional; a nil field is not
// written.
type Model struct {
	Version           *VersionChunk
	Info              *InfoChunk
	Sequences         *SequenceChunk
	GlobalSequences   *GlobalSequenceChunk
	Textures          *TextureChunk
	TextureAnimations *TextureAnimationChunk
	Geosets           *OpaqueChunk
	GeosetAnimations  *GeosetAnimationChunk
	Bones             *BoneChunk
	Lights            *OpaqueChunk
	Helpers           *HelperChunk
	Attachments       *OpaqueChunk
	PivotPoints       *PivotPointChunk
	ParticleEmitters  *OpaqueChunk
	ParticleEmitters2 *OpaqueChunk
	Ribbons           *OpaqueChunk
	Events            *OpaqueChunk
	Cameras           *OpaqueChunk
	CollisionShapes   *OpaqueChunk
	Materials         *OpaqueChunk

	// SourceOrder lists chunk tags in the order they were decoded.
	SourceOrder []Tag
}

// newChunk returns an empty chunk for a top-level tag, or nil if the tag is
// not part of the format.
func newChunk(tag Tag) Chunk {
	switch tag {
	case TagVERS:
		return &VersionChunk{}
	case TagMODL:
		return &InfoChunk{}
	case TagSEQS:
		return &SequenceChunk{}
	case TagGLBS:
		return &GlobalSequenceChunk{}
	case TagTEXS:
		return &TextureChunk{}
	case TagTXAN:
		return &TextureAnimationChunk{}
	case TagGEOA:
		return &GeosetAnimationChunk{}
	case TagBONE:
		return &BoneChunk{}
	case TagHELP:
		return &HelperChunk{}
	case TagPIVT:
		return &PivotPointChunk{}
	case TagGEOS, TagLITE, TagATCH, TagPREM, TagPRE2, TagRIBB, TagEVTS, TagCAMS, TagCLID, TagMTLS:
		return &OpaqueChunk{ID: tag}
	default:
		return nil
	}
}

// opaqueSlot returns the field holding the opaque chunk for tag.
func (m *Model) opaqueSlot(tag Tag) **OpaqueChunk {
	switch tag {
	case TagGEOS:
		return &m.Geosets
	case TagLITE:
		return &m.Lights
	case TagATCH:
		return &m.Attachments
	case TagPREM:
		return &m.ParticleEmitters
	case TagPRE2:
		return &m.ParticleEmitters2
	case TagRIBB:
		return &m.Ribbons
	case TagEVTS:
		return &m.Events
	case TagCAMS:
		return &m.Cameras
	case TagCLID:
		return &m.CollisionShapes
	case TagMTLS:
		return &m.Materials
	default:
		return nil
	}
}

// Chunk returns the present chunk for tag, or nil.
func (m *Model) Chunk(tag Tag) Chunk {
	switch tag {
	case TagVERS:
		if m.Version != nil {
			return m.Version
		}
	case TagMODL:
		if m.Info != nil {
			return m.Info
		}
	case TagSEQS:
		if m.Sequences != nil {
			return m.Sequences
		}
	case TagGLBS:
		if m.GlobalSequences != nil {
			return m.GlobalSequences
		}
	case TagTEXS:
		if m.Textures != nil {
			return m.Textures
		}
	case TagTXAN:
		if m.TextureAnimations != nil {
			return m.TextureAnimations
		}
	case TagGEOA:
		if m.GeosetAnimations != nil {
			return m.GeosetAnimations
		}
	case TagBONE:
		if m.Bones != nil {
			return m.Bones
		}
	case TagHELP:
		if m.Helpers != nil {
			return m.Helpers
		}
	case TagPIVT:
		if m.PivotPoints != nil {
			return m.PivotPoints
		}
	default:
		if slot := m.opaqueSlot(tag); slot != nil && *slot != nil {
			return *slot
		}
	}
	return nil
}

// set stores c in the field for its tag.
func (m *Model) set(c Chunk) {
	switch c := c.(type) {
	case *VersionChunk:
		m.Version = c
	case *InfoChunk:
		m.Info = c
	case *SequenceChunk:
		m.Sequences = c
	case *GlobalSequenceChunk:
		m.GlobalSequences = c
	case *TextureChunk:
		m.Textures = c
	case *TextureAnimationChunk:
		m.TextureAnimations = c
	case *GeosetAnimationChunk:
		m.GeosetAnimations = c
	case *BoneChunk:
		m.Bones = c
	case *HelperChunk:
		m.Helpers = c
	case *PivotPointChunk:
		m.PivotPoints = c
	case *OpaqueChunk:
		if slot := m.opaqueSlot(c.ID); slot != nil {
			*slot = c
		}
	}
}

// Chunks returns the present chunks in canonical order.
func (m *Model) Chunks() []Chunk {
	return m.OrderedChunks(false)
}

// OrderedChunks returns the present chunks. With preserve set, chunks listed
// in SourceOrder come first in that order, followed by any other present
// chunk in canonical order.
func (m *Model) OrderedChunks(preserve bool) []Chunk {
	var chunks []Chunk
	seen := make(map[Tag]bool, len(CanonicalOrder))
	add := func(tag Tag) {
		if seen[tag] {
			return
		}
		seen[tag] = true
		if c := m.Chunk(tag); c != nil {
			chunks = append(chunks, c)
		}
	}
	if preserve {
		for _, tag := range m.SourceOrder {
			add(tag)
		}
	}
	for _, tag := range CanonicalOrder {
		add(tag)
	}
	return chunks
}

// RecomputeSizes refreshes every inclusive size field from current content.
// Chunk sizes need no refresh: Chunk.Size always derives them.
func (m *Model) RecomputeSizes() {
	for _, tag := range CanonicalOrder {
		if slot := m.opaqueSlot(tag); slot != nil && *slot != nil {
			(*slot).ID = tag
		}
	}
	for _, c := range m.Chunks() {
		if r, ok := c.(resizer); ok {
			r.recomputeSizes()
		}
	}
}

// Size returns the total encoded file length.
func (m *Model) Size() int {
	size := 4
	for _, c := range m.Chunks() {
		size += 8 + int(c.Size())
	}
	return size
}

// Nodes returns every bone and helper node, bones first.
func (m *Model) Nodes() []*Node {
	var nodes []*Node
	if m.Bones != nil {
		for i := range m.Bones.Items {
			nodes = append(nodes, &m.Bones.Items[i].Node)
		}
	}
	if m.Helpers != nil {
		for i := range m.Helpers.Items {
			nodes = append(nodes, &m.Helpers.Items[i].Node)
		}
	}
	return nodes
}

// ModelStats summarizes the animated content of a model.
type ModelStats struct {
	Chunks    int
	Sequences int
	Nodes     int
	Channels  int
	Keyframes int
	Tangents  int // channels interpolated with tangents
}

// Stats counts chunks, sequences and the keyframes of every node channel.
func (m *Model) Stats() ModelStats {
	s := ModelStats{Chunks: len(m.Chunks())}
	if m.Sequences != nil {
		s.Sequences = len(m.Sequences.Items)
	}
	for _, n := range m.Nodes() {
		s.Nodes++
		for _, c := range n.Channels() {
			s.Channels++
			s.Keyframes += c.Len()
			if c.Interpolation.HasTangents() {
				s.Tangents++
			}
		}
	}
	return s
}

// Decoder decodes MDX data.
type Decoder struct {
	// Strict rejects fixed-record chunks whose size is not a multiple of
	// the record size. When false such chunks decode as empty and a warning
	// is reported.
	Strict bool
}

// Decode parses a whole MDX file. warn collects non-fatal problems found in
// lenient mode. On error no Model is returned.
func (dec Decoder) Decode(data []byte) (m *Model, warn, err error) {
	state := &decodeState{strict: dec.Strict}
	d := newDecoder(data, 0, 0, state)

	if len(data) < 4 {
		return nil, nil, &FormatError{Cause: ErrTruncated}
	}
	if d.tagValue() != TagMDLX {
		return nil, nil, &FormatError{Cause: ErrInvalidMagic}
	}

	m = &Model{}
	for d.remaining() > 0 {
		offset := d.offset()
		tag := d.tagValue()
		size := d.u32()
		if d.failed() {
			return nil, state.warn, d.err()
		}

		c := newChunk(tag)
		if c == nil {
			return nil, state.warn, &FormatError{Offset: offset, Cause: fmt.Errorf("%w: chunk %s", ErrUnknownTag, tag)}
		}
		if m.Chunk(tag) != nil {
			return nil, state.warn, &FormatError{Offset: offset, Tag: tag, Cause: ErrDuplicateTag}
		}
		if int64(size) > d.remaining() {
			return nil, state.warn, &FormatError{
				Offset: offset,
				Tag:    tag,
				Cause:  fmt.Errorf("%w: payload declares %d bytes, %d remain", ErrTruncated, size, d.remaining()),
			}
		}

		sd := d.sub(int64(size), tag)
		c.decode(sd)
		if err := sd.err(); err != nil {
			return nil, state.warn, err
		}
		if n := sd.remaining(); n != 0 {
			return nil, state.warn, &FormatError{
				Offset: sd.base + sd.offset(),
				Tag:    tag,
				Cause:  fmt.Errorf("%w: %d unread", ErrTrailingBytes, n),
			}
		}

		m.set(c)
		m.SourceOrder = append(m.SourceOrder, tag)
	}
	return m, state.warn, nil
}

// Parse decodes MDX data in strict mode.
func Parse(data []byte) (*Model, error) {
	m, _, err := Decoder{Strict: true}.Decode(data)
	return m, err
}

// ParseFile parses an MDX file from disk.
func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MDX file: %w", err)
	}
	return Parse(data)
}

// Encoder encodes a Model.
type Encoder struct {
	// PreserveOrder writes chunks in Model.SourceOrder instead of canonical
	// order, so an unmodified file round-trips byte for byte.
	PreserveOrder bool
}

// Encode recomputes all size fields of m and returns the encoded file. The
// output buffer is allocated at its final size before anything is written.
func (enc Encoder) Encode(m *Model) ([]byte, error) {
	m.RecomputeSizes()
	chunks := m.OrderedChunks(enc.PreserveOrder)
	size := m.Size()

	e := newEncoder(size)
	e.tag(TagMDLX)
	for _, c := range chunks {
		start := e.buf.Len()
		e.tag(c.Tag())
		e.u32(c.Size())
		c.encode(e)
		if err := e.err(); err != nil {
			return nil, &EncodeError{Tag: c.Tag(), Cause: err}
		}
		if n := e.buf.Len() - start; n != 8+int(c.Size()) {
			return nil, &EncodeError{
				Tag:   c.Tag(),
				Cause: fmt.Errorf("%w: wrote %d bytes, computed %d", ErrSizeMismatch, n, 8+int(c.Size())),
			}
		}
	}
	if e.buf.Len() != size {
		return nil, &EncodeError{Cause: fmt.Errorf("%w: wrote %d bytes, computed %d", ErrSizeMismatch, e.buf.Len(), size)}
	}
	return e.buf.Bytes(), nil
}

// Encode encodes m in canonical chunk order.
func Encode(m *Model) ([]byte, error) {
	return Encoder{}.Encode(m)
}

// WriteFile encodes m and writes it to path.
func WriteFile(path string, m *Model) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
