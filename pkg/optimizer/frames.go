package optimizer

import "github.com/Faultbox/mdxopt/pkg/mdx"

// FrameSet is a set of keyframe times.
type FrameSet map[uint32]struct{}

// Has reports whether frame is in the set.
func (s FrameSet) Has(frame uint32) bool {
	_, ok := s[frame]
	return ok
}

// FrameRange is an inclusive [Start, End] frame window.
type FrameRange struct {
	Start uint32
	End   uint32
}

// Contains reports whether frame lies in the range.
func (r FrameRange) Contains(frame uint32) bool {
	return frame >= r.Start && frame <= r.End
}

// SpecialFrames returns the start and end frame of every sequence.
func SpecialFrames(sequences []mdx.Sequence) FrameSet {
	set := make(FrameSet, 2*len(sequences))
	for i := range sequences {
		set[sequences[i].IntervalStart] = struct{}{}
		set[sequences[i].IntervalEnd] = struct{}{}
	}
	return set
}

// FrameRanges returns the interval of every sequence, in sequence order.
func FrameRanges(sequences []mdx.Sequence) []FrameRange {
	ranges := make([]FrameRange, len(sequences))
	for i := range sequences {
		ranges[i] = FrameRange{Start: sequences[i].IntervalStart, End: sequences[i].IntervalEnd}
	}
	return ranges
}

func inAnyRange(frame uint32, ranges []FrameRange) bool {
	for _, r := range ranges {
		if r.Contains(frame) {
			return true
		}
	}
	return false
}

// FilterRange keeps only the keyframes of c that fall inside at least one
// range and returns the number dropped.
func FilterRange(c *mdx.Channel, ranges []FrameRange) int {
	kept := make([]mdx.Track, 0, len(c.Tracks))
	for _, t := range c.Tracks {
		if inAnyRange(t.Time, ranges) {
			kept = append(kept, t)
		}
	}
	removed := len(c.Tracks) - len(kept)
	c.Tracks = kept
	return removed
}

// RemoveRedundant drops interior keyframes of c whose value is within
// threshold of both neighbours, and returns the number dropped. The first
// and last keyframe and keyframes at a special frame are always kept.
// Every decision compares against the original neighbours, so the result
// does not depend on what was dropped before. Channels with fewer than
// three keyframes are left alone.
func RemoveRedundant(c *mdx.Channel, special FrameSet, threshold float32) int {
	tracks := c.Tracks
	if len(tracks) < 3 {
		return 0
	}

	kept := make([]mdx.Track, 0, len(tracks))
	kept = append(kept, tracks[0])
	for i := 1; i < len(tracks)-1; i++ {
		prev, cur, next := &tracks[i-1], &tracks[i], &tracks[i+1]
		if special.Has(cur.Time) ||
			Differs(prev.Value, cur.Value, threshold) ||
			Differs(cur.Value, next.Value, threshold) {
			kept = append(kept, *cur)
		}
	}
	kept = append(kept, tracks[len(tracks)-1])

	c.Tracks = kept
	return len(tracks) - len(kept)
}

// Differs reports whether any component of a and b differs by more than
// threshold. Vectors of different widths always differ. Tangents are never
// compared.
func Differs(a, b []float32, threshold float32) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		d := a[i] - b[i]
		if d > threshold || d < -threshold {
			return true
		}
	}
	return false
}
