package mdx

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	textureAnimationHeaderSize = 4
	geosetAnimationHeaderSize  = 4 + 4 + 4 + 12 + 4
)

// TextureAnimation animates texture coordinates.
type TextureAnimation struct {
	InclusiveSize uint32

	Translation *Channel // KTAT, 3 lanes
	Rotation    *Channel // KTAR, 4 lanes
	Scaling     *Channel // KTAS, 3 lanes
}

// Size returns the encoded size of the record from its current content.
func (t *TextureAnimation) Size() uint32 {
	return textureAnimationHeaderSize +
		channelSize(t.Translation) +
		channelSize(t.Rotation) +
		channelSize(t.Scaling)
}

// RecomputeSize refreshes InclusiveSize from the record's content.
func (t *TextureAnimation) RecomputeSize() {
	t.InclusiveSize = t.Size()
}

func decodeTextureAnimation(d *decoder) TextureAnimation {
	start := d.offset()
	var t TextureAnimation
	t.InclusiveSize = d.u32()
	if d.failed() {
		return t
	}
	if t.InclusiveSize < textureAnimationHeaderSize {
		d.fail(fmt.Errorf("%w: texture animation declares %d bytes", ErrSizeOverrun, t.InclusiveSize))
		return t
	}
	decodeSubBlocks(d, start, t.InclusiveSize, func(tag Tag) bool {
		switch tag {
		case TagKTAT:
			setChannel(d, &t.Translation, tag, 3)
		case TagKTAR:
			setChannel(d, &t.Rotation, tag, 4)
		case TagKTAS:
			setChannel(d, &t.Scaling, tag, 3)
		default:
			return false
		}
		return true
	})
	return t
}

// TextureAnimationChunk is the TXAN chunk.
type TextureAnimationChunk struct {
	Items []TextureAnimation
}

func (*TextureAnimationChunk) Tag() Tag { return TagTXAN }

func (c *TextureAnimationChunk) Size() uint32 {
	var size uint32
	for i := range c.Items {
		size += c.Items[i].Size()
	}
	return size
}

func (c *TextureAnimationChunk) decode(d *decoder) {
	for !d.failed() && d.remaining() > 0 {
		t := decodeTextureAnimation(d)
		if d.failed() {
			return
		}
		c.Items = append(c.Items, t)
	}
}

func (c *TextureAnimationChunk) encode(e *encoder) {
	for i := range c.Items {
		t := &c.Items[i]
		e.u32(t.InclusiveSize)
		encodeTaggedChannel(e, TagKTAT, t.Translation, 3)
		encodeTaggedChannel(e, TagKTAR, t.Rotation, 4)
		encodeTaggedChannel(e, TagKTAS, t.Scaling, 3)
	}
}

func (c *TextureAnimationChunk) recomputeSizes() {
	for i := range c.Items {
		c.Items[i].RecomputeSize()
	}
}

// GeosetAnimation animates the visibility and color of one geoset.
type GeosetAnimation struct {
	InclusiveSize uint32
	Alpha         float32
	Flags         uint32
	Color         mgl32.Vec3
	GeosetID      uint32

	AlphaChannel *Channel // KGAO, 1 lane
	ColorChannel *Channel // KGAC, 3 lanes
}

// Size returns the encoded size of the record from its current content.
func (g *GeosetAnimation) Size() uint32 {
	return geosetAnimationHeaderSize +
		channelSize(g.AlphaChannel) +
		channelSize(g.ColorChannel)
}

// RecomputeSize refreshes InclusiveSize from the record's content.
func (g *GeosetAnimation) RecomputeSize() {
	g.InclusiveSize = g.Size()
}

func decodeGeosetAnimation(d *decoder) GeosetAnimation {
	start := d.offset()
	var g GeosetAnimation
	g.InclusiveSize = d.u32()
	g.Alpha = d.f32()
	g.Flags = d.u32()
	g.Color = d.vec3()
	g.GeosetID = d.u32()
	if d.failed() {
		return g
	}
	if g.InclusiveSize < geosetAnimationHeaderSize {
		d.fail(fmt.Errorf("%w: geoset animation declares %d bytes, header needs %d",
			ErrSizeOverrun, g.InclusiveSize, geosetAnimationHeaderSize))
		return g
	}
	decodeSubBlocks(d, start, g.InclusiveSize, func(tag Tag) bool {
		switch tag {
		case TagKGAO:
			setChannel(d, &g.AlphaChannel, tag, 1)
		case TagKGAC:
			setChannel(d, &g.ColorChannel, tag, 3)
		default:
			return false
		}
		return true
	})
	return g
}

// GeosetAnimationChunk is the GEOA chunk.
type GeosetAnimationChunk struct {
	Items []GeosetAnimation
}

func (*GeosetAnimationChunk) Tag() Tag { return TagGEOA }

func (c *GeosetAnimationChunk) Size() uint32 {
	var size uint32
	for i := range c.Items {
		size += c.Items[i].Size()
	}
	return size
}

func (c *GeosetAnimationChunk) decode(d *decoder) {
	for !d.failed() && d.remaining() > 0 {
		g := decodeGeosetAnimation(d)
		if d.failed() {
			return
		}
		c.Items = append(c.Items, g)
	}
}

func (c *GeosetAnimationChunk) encode(e *encoder) {
	for i := range c.Items {
		g := &c.Items[i]
		e.u32(g.InclusiveSize)
		e.f32(g.Alpha)
		e.u32(g.Flags)
		e.vec3(g.Color)
		e.u32(g.GeosetID)
		encodeTaggedChannel(e, TagKGAO, g.AlphaChannel, 1)
		encodeTaggedChannel(e, TagKGAC, g.ColorChannel, 3)
	}
}

func (c *GeosetAnimationChunk) recomputeSizes() {
	for i := range c.Items {
		c.Items[i].RecomputeSize()
	}
}
