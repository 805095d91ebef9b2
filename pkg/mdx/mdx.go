// Package mdx provides a reader and writer for the MDX binary model format.
//
// An MDX file is the magic tag "MDLX" followed by tagged chunks. Every chunk
// payload starts with a little-endian uint32 holding the payload length
// (excluding that field). Parse decodes a whole file into a Model; Encode
// recomputes every size field and writes the Model back in canonical chunk
// order.
package mdx

import "fmt"

// Tag identifies a chunk or sub-block. It is stored as four ASCII bytes,
// read as a little-endian uint32.
type Tag uint32

// String returns the tag's four ASCII characters.
func (t Tag) String() string {
	b := []byte{byte(t), byte(t >> 8), byte(t >> 16), byte(t >> 24)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08X", uint32(t))
		}
	}
	return string(b)
}

// File magic.
const TagMDLX Tag = 'M' | 'D'<<8 | 'L'<<16 | 'X'<<24

// Top-level chunk tags.
const (
	TagVERS Tag = 'V' | 'E'<<8 | 'R'<<16 | 'S'<<24 // format version
	TagMODL Tag = 'M' | 'O'<<8 | 'D'<<16 | 'L'<<24 // model header
	TagSEQS Tag = 'S' | 'E'<<8 | 'Q'<<16 | 'S'<<24 // sequences
	TagGLBS Tag = 'G' | 'L'<<8 | 'B'<<16 | 'S'<<24 // global sequences
	TagTEXS Tag = 'T' | 'E'<<8 | 'X'<<16 | 'S'<<24 // textures
	TagTXAN Tag = 'T' | 'X'<<8 | 'A'<<16 | 'N'<<24 // texture animations
	TagGEOS Tag = 'G' | 'E'<<8 | 'O'<<16 | 'S'<<24 // geosets (opaque)
	TagGEOA Tag = 'G' | 'E'<<8 | 'O'<<16 | 'A'<<24 // geoset animations
	TagBONE Tag = 'B' | 'O'<<8 | 'N'<<16 | 'E'<<24 // bones
	TagLITE Tag = 'L' | 'I'<<8 | 'T'<<16 | 'E'<<24 // lights (opaque)
	TagHELP Tag = 'H' | 'E'<<8 | 'L'<<16 | 'P'<<24 // helpers
	TagATCH Tag = 'A' | 'T'<<8 | 'C'<<16 | 'H'<<24 // attachments (opaque)
	TagPIVT Tag = 'P' | 'I'<<8 | 'V'<<16 | 'T'<<24 // pivot points
	TagPREM Tag = 'P' | 'R'<<8 | 'E'<<16 | 'M'<<24 // particle emitters (opaque)
	TagPRE2 Tag = 'P' | 'R'<<8 | 'E'<<16 | '2'<<24 // particle emitters 2 (opaque)
	TagRIBB Tag = 'R' | 'I'<<8 | 'B'<<16 | 'B'<<24 // ribbon emitters (opaque)
	TagEVTS Tag = 'E' | 'V'<<8 | 'T'<<16 | 'S'<<24 // event objects (opaque)
	TagCAMS Tag = 'C' | 'A'<<8 | 'M'<<16 | 'S'<<24 // cameras (opaque)
	TagCLID Tag = 'C' | 'L'<<8 | 'I'<<16 | 'D'<<24 // collision shapes (opaque)
	TagMTLS Tag = 'M' | 'T'<<8 | 'L'<<16 | 'S'<<24 // materials (opaque)
)

// Sub-block tags found inside node-bearing records.
const (
	TagKGTR Tag = 'K' | 'G'<<8 | 'T'<<16 | 'R'<<24 // node translation
	TagKGRT Tag = 'K' | 'G'<<8 | 'R'<<16 | 'T'<<24 // node rotation
	TagKGSC Tag = 'K' | 'G'<<8 | 'S'<<16 | 'C'<<24 // node scaling
	TagKTAT Tag = 'K' | 'T'<<8 | 'A'<<16 | 'T'<<24 // texture translation
	TagKTAR Tag = 'K' | 'T'<<8 | 'A'<<16 | 'R'<<24 // texture rotation
	TagKTAS Tag = 'K' | 'T'<<8 | 'A'<<16 | 'S'<<24 // texture scaling
	TagKGAO Tag = 'K' | 'G'<<8 | 'A'<<16 | 'O'<<24 // geoset alpha
	TagKGAC Tag = 'K' | 'G'<<8 | 'A'<<16 | 'C'<<24 // geoset color
)

// CanonicalOrder is the order in which Encode writes chunks.
var CanonicalOrder = []Tag{
	TagVERS, TagMODL, TagSEQS, TagGLBS, TagTEXS, TagTXAN, TagGEOS, TagGEOA,
	TagBONE, TagLITE, TagHELP, TagATCH, TagPIVT, TagPREM, TagPRE2, TagRIBB,
	TagEVTS, TagCAMS, TagCLID, TagMTLS,
}

// Fixed string field lengths, in bytes.
const (
	ModelNameLength       = 336
	NameLength            = 80
	TextureFileNameLength = 256
)

// NoGlobalSequence is the GlobalSequenceID of a channel that follows the
// regular sequence timeline.
const NoGlobalSequence = 0xFFFFFFFF

// Interpolation is the interpolation mode of a Channel.
type Interpolation uint32

const (
	InterpolationNone    Interpolation = 0 // Step
	InterpolationLinear  Interpolation = 1
	InterpolationHermite Interpolation = 2
	InterpolationBezier  Interpolation = 3
)

// String returns a human-readable interpolation name.
func (i Interpolation) String() string {
	switch i {
	case InterpolationNone:
		return "None"
	case InterpolationLinear:
		return "Linear"
	case InterpolationHermite:
		return "Hermite"
	case InterpolationBezier:
		return "Bezier"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(i))
	}
}

// HasTangents reports whether tracks under this mode carry in/out tangents.
func (i Interpolation) HasTangents() bool {
	return i > InterpolationLinear
}
