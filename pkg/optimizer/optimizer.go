// Package optimizer reduces the keyframes of bone and helper transforms in
// an MDX model.
//
// For every translation, rotation and scaling channel Optimize optionally
// converts Hermite/Bezier interpolation to linear, drops keyframes outside
// every sequence interval and then removes interior keyframes whose value
// matches both neighbours within a threshold. Keyframes on a sequence
// boundary are never removed.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"

	"github.com/Faultbox/mdxopt/pkg/mdx"
)

// ErrNegativeThreshold is returned for a negative or NaN threshold.
var ErrNegativeThreshold = errors.New("threshold must be a non-negative number")

// Options controls an optimization pass.
type Options struct {
	// Threshold is the largest per-component difference at which two
	// keyframe values count as equal.
	Threshold float32
	// Linearize converts Hermite and Bezier channels to linear
	// interpolation and drops their tangents.
	Linearize bool
	// Outside only removes keyframes outside the sequence intervals and
	// skips redundancy removal.
	Outside bool
	// SkipGlobalSequences exempts channels bound to a global sequence from
	// the frame-range filter.
	SkipGlobalSequences bool

	Logger *zap.Logger
}

// Stats reports what an optimization pass did.
type Stats struct {
	Nodes        int
	Channels     int
	Linearized   int
	TracksBefore int
	TracksAfter  int
}

// Removed returns the number of keyframes dropped.
func (s Stats) Removed() int {
	return s.TracksBefore - s.TracksAfter
}

// Ratio returns the fraction of keyframes kept, or 1 when there were none.
func (s Stats) Ratio() float64 {
	if s.TracksBefore == 0 {
		return 1
	}
	return float64(s.TracksAfter) / float64(s.TracksBefore)
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Threshold < 0 || math.IsNaN(float64(o.Threshold)) {
		return fmt.Errorf("%w: %v", ErrNegativeThreshold, o.Threshold)
	}
	return nil
}

// Optimize rewrites the node channels of m in place and refreshes every
// node's inclusive size.
func Optimize(m *mdx.Model, opts Options) (Stats, error) {
	if err := opts.Validate(); err != nil {
		return Stats{}, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var sequences []mdx.Sequence
	if m.Sequences != nil {
		sequences = m.Sequences.Items
	}
	special := SpecialFrames(sequences)
	ranges := FrameRanges(sequences)
	if len(ranges) == 0 {
		log.Debug("model has no sequences, frame-range filter disabled")
	}

	var stats Stats
	for _, n := range m.Nodes() {
		stats.Nodes++
		for _, ch := range []struct {
			name    string
			channel *mdx.Channel
		}{
			{"translation", n.Translation},
			{"rotation", n.Rotation},
			{"scaling", n.Scaling},
		} {
			c := ch.channel
			if c == nil {
				continue
			}
			stats.Channels++
			before := c.Len()
			stats.TracksBefore += before

			if opts.Linearize && c.Linearize() {
				stats.Linearized++
			}
			global := c.GlobalSequenceID != mdx.NoGlobalSequence
			if len(ranges) > 0 && !(opts.SkipGlobalSequences && global) {
				FilterRange(c, ranges)
			}
			if !opts.Outside {
				RemoveRedundant(c, special, opts.Threshold)
			}

			stats.TracksAfter += c.Len()
			if c.Len() != before {
				log.Debug("channel reduced",
					zap.String("node", n.Name),
					zap.String("channel", ch.name),
					zap.Int("before", before),
					zap.Int("after", c.Len()))
			}
		}
		n.RecomputeSize()
	}

	log.Debug("optimization finished",
		zap.Int("nodes", stats.Nodes),
		zap.Int("channels", stats.Channels),
		zap.Int("linearized", stats.Linearized),
		zap.Int("removed", stats.Removed()))
	return stats, nil
}

// Preview runs Optimize on a deep copy of m and returns the optimized copy.
// m is left untouched.
func Preview(m *mdx.Model, opts Options) (*mdx.Model, Stats, error) {
	clone := &mdx.Model{}
	if err := deepcopy.Copy(clone, m); err != nil {
		return nil, Stats{}, fmt.Errorf("copying model: %w", err)
	}
	stats, err := Optimize(clone, opts)
	if err != nil {
		return nil, Stats{}, err
	}
	return clone, stats, nil
}
