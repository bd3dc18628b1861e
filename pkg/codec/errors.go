package codec

import (
	"errors"
	"fmt"
)

// Sentinel errors for chunk framing and text codecs
var (
	// ErrTooShort indicates a window smaller than the fixed chunk header
	ErrTooShort = errors.New("codec: window shorter than chunk header")
	// ErrSizeOverflow indicates a declared size larger than the remaining bytes
	ErrSizeOverflow = errors.New("codec: declared size exceeds remaining bytes")
	// ErrInvalidTag indicates tag text that is neither 4 characters nor 8 hex digits
	ErrInvalidTag = errors.New("codec: invalid tag")
	// ErrInvalidHex indicates malformed hex text
	ErrInvalidHex = errors.New("codec: invalid hex text")
)

// SizeOverflowError reports a chunk whose declared size does not fit in its window
type SizeOverflowError struct {
	Declared  uint32 // Size read from the header
	Available uint32 // Bytes remaining after the header
}

func (e *SizeOverflowError) Error() string {
	return fmt.Sprintf("size (%d) larger than remaining bytes (%d)", e.Declared, e.Available)
}

func (e *SizeOverflowError) Unwrap() error {
	return ErrSizeOverflow
}
