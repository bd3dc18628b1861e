package chunk

import (
	"errors"
	"fmt"

	"github.com/ssargent/chim/pkg/codec"
	"github.com/ssargent/chim/pkg/markup"
)

// Sentinel errors for container decoding
var (
	// ErrUnrecognizedFormat indicates input that is neither binary nor XML
	ErrUnrecognizedFormat = errors.New("chunk: unrecognized format")
	// ErrTooLarge indicates a container that does not fit 32-bit offsets or the configured limit
	ErrTooLarge = errors.New("chunk: container too large")
	// ErrUnknownTag indicates an element name that is not a valid tag
	ErrUnknownTag = errors.New("chunk: unknown tag")
	// ErrMissingSize indicates an element without a size attribute
	ErrMissingSize = errors.New("chunk: missing size attribute")
	// ErrInvalidSize indicates a size attribute that is not a 32-bit unsigned integer
	ErrInvalidSize = errors.New("chunk: invalid size attribute")
	// ErrInvalidFlags indicates a flags attribute that is not 8 hex-encoded bytes
	ErrInvalidFlags = errors.New("chunk: invalid flags attribute")
	// ErrPayloadSize indicates payload text whose length disagrees with the size attribute
	ErrPayloadSize = errors.New("chunk: payload length does not match size")
	// ErrSizeMismatch indicates a record whose subrecords do not add up to its size
	ErrSizeMismatch = errors.New("chunk: subrecords do not match record size")
	// ErrNestedElement indicates an element nested inside a subrecord
	ErrNestedElement = errors.New("chunk: subrecord cannot contain elements")
)

// Kind names the chunk level an error refers to
type Kind string

const (
	KindRecord    Kind = "record"
	KindSubrecord Kind = "subrecord"
)

// ChunkError annotates a failure with the position of the chunk being parsed.
// Offsets of records are relative to the buffer; offsets of subrecords are
// relative to their record.
type ChunkError struct {
	Kind   Kind   // Record or subrecord
	Index  int    // Ordinal among its siblings
	Offset int    // Byte offset of the chunk header
	Tag    string // Element name, when decoding text
	Err    error  // Underlying error
}

func (e *ChunkError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s %d <%s> at offset %d: %v", e.Kind, e.Index, e.Tag, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s %d at offset %d: %v", e.Kind, e.Index, e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// FormatError reports input whose leading bytes match no supported format
type FormatError struct {
	Lead []byte // Up to the first four bytes of the input
}

func (e *FormatError) Error() string {
	if len(e.Lead) == 0 {
		return "unrecognized format: empty input"
	}
	return fmt.Sprintf("unrecognized format: unexpected initial bytes %q", codec.FormatBytes(e.Lead))
}

func (e *FormatError) Unwrap() error {
	return ErrUnrecognizedFormat
}

// IsDecodeError reports whether err describes bad input rather than a
// failure of the surrounding system
func IsDecodeError(err error) bool {
	var chunkErr *ChunkError
	switch {
	case errors.As(err, &chunkErr):
		return true
	case errors.Is(err, ErrUnrecognizedFormat), errors.Is(err, ErrTooLarge):
		return true
	case errors.Is(err, markup.ErrSyntax), errors.Is(err, markup.ErrNoRoot):
		return true
	}
	return false
}
