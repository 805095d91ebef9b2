package mdx

import (
	"errors"
	"strconv"
	"strings"
)

// MDX format errors.
var (
	ErrInvalidMagic       = errors.New("invalid MDX magic: expected 'MDLX'")
	ErrTruncated          = errors.New("truncated MDX data")
	ErrUnknownTag         = errors.New("unknown tag")
	ErrDuplicateTag       = errors.New("duplicate tag")
	ErrMalformedChunkSize = errors.New("chunk size is not a multiple of the record size")
	ErrSizeOverrun        = errors.New("record overruns its declared size")
	ErrTrailingBytes      = errors.New("chunk has trailing bytes")
	ErrStringTooLong      = errors.New("string exceeds fixed field length")
	ErrChannelWidth       = errors.New("track vector has wrong width")
	ErrSizeMismatch       = errors.New("encoded size does not match computed size")
)

// FormatError wraps an error that occurred while decoding MDX data.
type FormatError struct {
	// Offset is the absolute byte offset where the error was detected.
	Offset int64
	// Tag is the enclosing chunk, or zero at file level.
	Tag Tag

	Cause error
}

func (err *FormatError) Error() string {
	var s strings.Builder
	s.WriteString("mdx: format error")
	if err.Tag != 0 {
		s.WriteString(" in ")
		s.WriteString(err.Tag.String())
	}
	s.WriteString(" at offset ")
	s.Write(strconv.AppendInt(nil, err.Offset, 10))
	if err.Cause != nil {
		s.WriteString(": ")
		s.WriteString(err.Cause.Error())
	}
	return s.String()
}

func (err *FormatError) Unwrap() error {
	return err.Cause
}

// EncodeError wraps an error that occurred while encoding a chunk.
type EncodeError struct {
	Tag   Tag
	Cause error
}

func (err *EncodeError) Error() string {
	if err.Tag == 0 {
		return "mdx: encode: " + err.Cause.Error()
	}
	return "mdx: encode " + err.Tag.String() + ": " + err.Cause.Error()
}

func (err *EncodeError) Unwrap() error {
	return err.Cause
}
