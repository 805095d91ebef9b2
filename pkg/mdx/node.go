package mdx

import "fmt"

// nodeHeaderSize is the fixed part of a node: inclusive size, name, object
// id, parent id and flags.
const nodeHeaderSize = 4 + NameLength + 4 + 4 + 4

// Node is the shared header of bones and helpers, with optional animated
// transforms.
type Node struct {
	// InclusiveSize is the encoded size of the node including this field.
	// It is refreshed by RecomputeSize and before every encode.
	InclusiveSize uint32
	Name          string
	ObjectID      uint32
	ParentID      uint32
	Flags         uint32

	Translation *Channel // KGTR, 3 lanes
	Rotation    *Channel // KGRT, 4 lanes
	Scaling     *Channel // KGSC, 3 lanes
}

// Size returns the encoded size of the node from its current content.
func (n *Node) Size() uint32 {
	return nodeHeaderSize +
		channelSize(n.Translation) +
		channelSize(n.Rotation) +
		channelSize(n.Scaling)
}

// RecomputeSize refreshes InclusiveSize from the node's content.
func (n *Node) RecomputeSize() {
	n.InclusiveSize = n.Size()
}

// Channels returns the present transform channels in encode order.
func (n *Node) Channels() []*Channel {
	var channels []*Channel
	for _, c := range []*Channel{n.Translation, n.Rotation, n.Scaling} {
		if c != nil {
			channels = append(channels, c)
		}
	}
	return channels
}

func decodeNode(d *decoder) Node {
	start := d.offset()
	var n Node
	n.InclusiveSize = d.u32()
	n.Name = d.str(NameLength)
	n.ObjectID = d.u32()
	n.ParentID = d.u32()
	n.Flags = d.u32()
	if d.failed() {
		return n
	}
	if n.InclusiveSize < nodeHeaderSize {
		d.fail(fmt.Errorf("%w: node %q declares %d bytes, header needs %d",
			ErrSizeOverrun, n.Name, n.InclusiveSize, nodeHeaderSize))
		return n
	}

	decodeSubBlocks(d, start, n.InclusiveSize, func(tag Tag) bool {
		switch tag {
		case TagKGTR:
			setChannel(d, &n.Translation, tag, 3)
		case TagKGRT:
			setChannel(d, &n.Rotation, tag, 4)
		case TagKGSC:
			setChannel(d, &n.Scaling, tag, 3)
		default:
			return false
		}
		return true
	})
	return n
}

func encodeNode(e *encoder, n *Node) {
	e.u32(n.InclusiveSize)
	e.str(n.Name, NameLength)
	e.u32(n.ObjectID)
	e.u32(n.ParentID)
	e.u32(n.Flags)
	encodeTaggedChannel(e, TagKGTR, n.Translation, 3)
	encodeTaggedChannel(e, TagKGRT, n.Rotation, 4)
	encodeTaggedChannel(e, TagKGSC, n.Scaling, 3)
}

// decodeSubBlocks reads tagged sub-blocks until the record that started at
// payload offset start has consumed size bytes. dispatch decodes the block
// for a tag and returns false for an unknown tag.
func decodeSubBlocks(d *decoder, start int64, size uint32, dispatch func(tag Tag) bool) {
	for !d.failed() {
		consumed := d.offset() - start
		if consumed == int64(size) {
			return
		}
		if consumed > int64(size) {
			d.fail(fmt.Errorf("%w: consumed %d of %d bytes", ErrSizeOverrun, consumed, size))
			return
		}
		tag := d.tagValue()
		if d.failed() {
			return
		}
		if !dispatch(tag) {
			d.fail(fmt.Errorf("%w: sub-block %s", ErrUnknownTag, tag))
			return
		}
	}
}

// setChannel decodes a channel into *dst, rejecting a repeated sub-tag.
func setChannel(d *decoder, dst **Channel, tag Tag, width int) {
	if *dst != nil {
		d.fail(fmt.Errorf("%w: sub-block %s", ErrDuplicateTag, tag))
		return
	}
	*dst = decodeChannel(d, width)
}

// Bone is a skeleton node bound to a geoset and geoset animation.
type Bone struct {
	Node
	GeosetID          uint32
	GeosetAnimationID uint32
}

// Size returns the encoded size of the bone record.
func (b *Bone) Size() uint32 {
	return b.Node.Size() + 8
}

// BoneChunk is the BONE chunk.
type BoneChunk struct {
	Items []Bone
}

func (*BoneChunk) Tag() Tag { return TagBONE }

func (c *BoneChunk) Size() uint32 {
	var size uint32
	for i := range c.Items {
		size += c.Items[i].Size()
	}
	return size
}

func (c *BoneChunk) decode(d *decoder) {
	for !d.failed() && d.remaining() > 0 {
		var b Bone
		b.Node = decodeNode(d)
		b.GeosetID = d.u32()
		b.GeosetAnimationID = d.u32()
		if d.failed() {
			return
		}
		c.Items = append(c.Items, b)
	}
}

func (c *BoneChunk) encode(e *encoder) {
	for i := range c.Items {
		b := &c.Items[i]
		encodeNode(e, &b.Node)
		e.u32(b.GeosetID)
		e.u32(b.GeosetAnimationID)
	}
}

func (c *BoneChunk) recomputeSizes() {
	for i := range c.Items {
		c.Items[i].RecomputeSize()
	}
}

// Helper is a node without geometry binding.
type Helper struct {
	Node
}

// HelperChunk is the HELP chunk.
type HelperChunk struct {
	Items []Helper
}

func (*HelperChunk) Tag() Tag { return TagHELP }

func (c *HelperChunk) Size() uint32 {
	var size uint32
	for i := range c.Items {
		size += c.Items[i].Size()
	}
	return size
}

func (c *HelperChunk) decode(d *decoder) {
	for !d.failed() && d.remaining() > 0 {
		h := Helper{Node: decodeNode(d)}
		if d.failed() {
			return
		}
		c.Items = append(c.Items, h)
	}
}

func (c *HelperChunk) encode(e *encoder) {
	for i := range c.Items {
		encodeNode(e, &c.Items[i].Node)
	}
}

func (c *HelperChunk) recomputeSizes() {
	for i := range c.Items {
		c.Items[i].RecomputeSize()
	}
}
