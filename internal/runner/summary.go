package runner

import (
	"github.com/Faultbox/mdxopt/pkg/encoding"
	"github.com/Faultbox/mdxopt/pkg/mdx"
)

// Summary is a printable description of a decoded model, used by the info
// and dump commands.
type Summary struct {
	File            string            `yaml:"file"`
	Size            int               `yaml:"size"`
	Version         uint32            `yaml:"version,omitempty"`
	Name            string            `yaml:"name,omitempty"`
	Chunks          []ChunkSummary    `yaml:"chunks"`
	Sequences       []SequenceSummary `yaml:"sequences,omitempty"`
	GlobalSequences []uint32          `yaml:"global_sequences,omitempty"`
	Nodes           []NodeSummary     `yaml:"nodes,omitempty"`
	Totals          Totals            `yaml:"totals"`
}

// ChunkSummary is one chunk in file order.
type ChunkSummary struct {
	Tag  string `yaml:"tag"`
	Size uint32 `yaml:"size"`
}

// SequenceSummary describes one animation sequence.
type SequenceSummary struct {
	Name       string `yaml:"name"`
	Start      uint32 `yaml:"start"`
	End        uint32 `yaml:"end"`
	NonLooping bool   `yaml:"non_looping,omitempty"`
}

// NodeSummary describes a bone or helper and its animated channels.
type NodeSummary struct {
	Kind     string           `yaml:"kind"`
	Name     string           `yaml:"name"`
	ObjectID uint32           `yaml:"object_id"`
	ParentID int64            `yaml:"parent_id"` // -1 for a root node
	Channels []ChannelSummary `yaml:"channels,omitempty"`
}

// ChannelSummary describes one animated channel.
type ChannelSummary struct {
	Kind           string `yaml:"kind"`
	Interpolation  string `yaml:"interpolation"`
	GlobalSequence int64  `yaml:"global_sequence"` // -1 when unbound
	Keyframes      int    `yaml:"keyframes"`
}

// Totals mirrors mdx.ModelStats.
type Totals struct {
	Chunks    int `yaml:"chunks"`
	Sequences int `yaml:"sequences"`
	Nodes     int `yaml:"nodes"`
	Channels  int `yaml:"channels"`
	Keyframes int `yaml:"keyframes"`
	Tangents  int `yaml:"tangent_channels"`
}

func optionalID(id uint32) int64 {
	if id == mdx.NoGlobalSequence {
		return -1
	}
	return int64(id)
}

// Summarize describes m. Chunks are listed in the order they were read.
func Summarize(file string, size int, m *mdx.Model) Summary {
	s := Summary{File: file, Size: size}
	if m.Version != nil {
		s.Version = m.Version.Version
	}
	if m.Info != nil {
		s.Name = encoding.DisplayName(m.Info.Name)
	}

	order := m.SourceOrder
	if len(order) == 0 {
		for _, c := range m.Chunks() {
			order = append(order, c.Tag())
		}
	}
	for _, tag := range order {
		if c := m.Chunk(tag); c != nil {
			s.Chunks = append(s.Chunks, ChunkSummary{Tag: tag.String(), Size: c.Size()})
		}
	}

	if m.Sequences != nil {
		for _, seq := range m.Sequences.Items {
			s.Sequences = append(s.Sequences, SequenceSummary{
				Name:       encoding.DisplayName(seq.Name),
				Start:      seq.IntervalStart,
				End:        seq.IntervalEnd,
				NonLooping: seq.NonLooping != 0,
			})
		}
	}
	if m.GlobalSequences != nil {
		for _, g := range m.GlobalSequences.Items {
			s.GlobalSequences = append(s.GlobalSequences, g.Duration)
		}
	}

	if m.Bones != nil {
		for i := range m.Bones.Items {
			s.Nodes = append(s.Nodes, summarizeNode("bone", &m.Bones.Items[i].Node))
		}
	}
	if m.Helpers != nil {
		for i := range m.Helpers.Items {
			s.Nodes = append(s.Nodes, summarizeNode("helper", &m.Helpers.Items[i].Node))
		}
	}

	st := m.Stats()
	s.Totals = Totals{
		Chunks:    st.Chunks,
		Sequences: st.Sequences,
		Nodes:     st.Nodes,
		Channels:  st.Channels,
		Keyframes: st.Keyframes,
		Tangents:  st.Tangents,
	}
	return s
}

func summarizeNode(kind string, n *mdx.Node) NodeSummary {
	ns := NodeSummary{
		Kind:     kind,
		Name:     encoding.DisplayName(n.Name),
		ObjectID: n.ObjectID,
		ParentID: optionalID(n.ParentID),
	}
	for _, ch := range []struct {
		kind string
		c    *mdx.Channel
	}{
		{"translation", n.Translation},
		{"rotation", n.Rotation},
		{"scaling", n.Scaling},
	} {
		if ch.c == nil {
			continue
		}
		ns.Channels = append(ns.Channels, ChannelSummary{
			Kind:           ch.kind,
			Interpolation:  ch.c.Interpolation.String(),
			GlobalSequence: optionalID(ch.c.GlobalSequenceID),
			Keyframes:      ch.c.Len(),
		})
	}
	return ns
}
