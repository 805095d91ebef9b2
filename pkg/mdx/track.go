package mdx

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Track is a single keyframe. Value holds one component per vector lane:
// 3 for translation, scaling and color, 4 for rotation quaternions and 1 for
// alpha. InTan and OutTan are nil unless the owning channel interpolates
// with tangents.
type Track struct {
	Time   uint32
	Value  []float32
	InTan  []float32
	OutTan []float32
}

// HasTangents reports whether the track carries tangent vectors.
func (t *Track) HasTangents() bool {
	return t.InTan != nil || t.OutTan != nil
}

// Vec3 returns the first three value components.
func (t *Track) Vec3() mgl32.Vec3 {
	var v mgl32.Vec3
	copy(v[:], t.Value)
	return v
}

// Quat returns the value of a rotation track as a quaternion (x, y, z, w).
func (t *Track) Quat() mgl32.Quat {
	var v mgl32.Vec4
	copy(v[:], t.Value)
	return mgl32.Quat{W: v[3], V: v.Vec3()}
}

// size returns the encoded byte length of the track.
func (t *Track) size() uint32 {
	return 4 + 4*uint32(len(t.Value)+len(t.InTan)+len(t.OutTan))
}

// Channel is an animated property: an ordered keyframe list plus its
// interpolation mode and global sequence binding. It is used for node
// transforms, texture transforms and geoset alpha/color alike.
type Channel struct {
	Interpolation    Interpolation
	GlobalSequenceID uint32
	Tracks           []Track
}

// Len returns the number of keyframes. The stored count is always derived
// from the track list when encoding.
func (c *Channel) Len() int {
	return len(c.Tracks)
}

// Size returns the encoded byte length of the channel, excluding its tag.
func (c *Channel) Size() uint32 {
	size := uint32(12)
	for i := range c.Tracks {
		size += c.Tracks[i].size()
	}
	return size
}

// Linearize switches a Hermite or Bezier channel to linear interpolation and
// drops every tangent. It reports whether the channel changed.
func (c *Channel) Linearize() bool {
	if !c.Interpolation.HasTangents() {
		return false
	}
	c.Interpolation = InterpolationLinear
	for i := range c.Tracks {
		c.Tracks[i].InTan = nil
		c.Tracks[i].OutTan = nil
	}
	return true
}

// Times returns the keyframe times in order.
func (c *Channel) Times() []uint32 {
	times := make([]uint32, len(c.Tracks))
	for i := range c.Tracks {
		times[i] = c.Tracks[i].Time
	}
	return times
}

// decodeChannel reads a channel whose vectors have the given width.
func decodeChannel(d *decoder, width int) *Channel {
	count := d.u32()
	c := &Channel{
		Interpolation:    Interpolation(d.u32()),
		GlobalSequenceID: d.u32(),
	}

	perTrack := int64(4 + 4*width)
	if c.Interpolation.HasTangents() {
		perTrack += int64(8 * width)
	}
	if !d.need(int64(count) * perTrack) {
		return nil
	}

	c.Tracks = make([]Track, count)
	for i := range c.Tracks {
		t := &c.Tracks[i]
		t.Time = d.u32()
		t.Value = d.floats(width)
		if c.Interpolation.HasTangents() {
			t.InTan = d.floats(width)
			t.OutTan = d.floats(width)
		}
	}
	return c
}

// encodeChannel writes a channel, checking every vector against width.
// Tangents must be present exactly when the interpolation mode uses them.
func encodeChannel(e *encoder, c *Channel, width int) {
	tangents := 0
	if c.Interpolation.HasTangents() {
		tangents = width
	}
	for i := range c.Tracks {
		t := &c.Tracks[i]
		if len(t.Value) != width || len(t.InTan) != tangents || len(t.OutTan) != tangents {
			e.fail(fmt.Errorf("%w: %s track %d at time %d, want %d lanes",
				ErrChannelWidth, c.Interpolation, i, t.Time, width))
			return
		}
	}

	e.u32(uint32(len(c.Tracks)))
	e.u32(uint32(c.Interpolation))
	e.u32(c.GlobalSequenceID)
	for i := range c.Tracks {
		t := &c.Tracks[i]
		e.u32(t.Time)
		e.floats(t.Value)
		e.floats(t.InTan)
		e.floats(t.OutTan)
	}
}

// channelSize returns the encoded size of an optional tagged channel,
// including its 4-byte sub-tag.
func channelSize(c *Channel) uint32 {
	if c == nil {
		return 0
	}
	return 4 + c.Size()
}

// encodeTaggedChannel writes the sub-tag and channel if c is present.
func encodeTaggedChannel(e *encoder, tag Tag, c *Channel, width int) {
	if c == nil {
		return
	}
	e.tag(tag)
	encodeChannel(e, c, width)
}
