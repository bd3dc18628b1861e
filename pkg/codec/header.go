package codec

import (
	"encoding/binary"
	"fmt"
)

const (
	// SubrecordHeaderSize is the fixed header length of a subrecord: Tag(4) + Size(4)
	SubrecordHeaderSize = 8
	// RecordHeaderSize is the fixed header length of a record: Tag(4) + Size(4) + Flags(8)
	RecordHeaderSize = 16
	// TagSize is the length of a chunk tag in bytes
	TagSize = 4
	// FlagsSize is the length of the record flag block in bytes
	FlagsSize = 8
)

// ValidateHeader checks the chunk header at the start of window and returns the
// declared payload size. The window must hold at least headerSize bytes and the
// declared size must not exceed len(window) - headerSize.
//
// The window length is expected to fit in a uint32; callers bound the whole
// buffer before slicing windows out of it.
func ValidateHeader(window []byte, headerSize int) (uint32, error) {
	if len(window) < headerSize {
		return 0, fmt.Errorf("%w: %d bytes, need %d", ErrTooShort, len(window), headerSize)
	}

	available := uint32(len(window) - headerSize)
	size := binary.LittleEndian.Uint32(window[4:8])
	if size > available {
		return 0, &SizeOverflowError{Declared: size, Available: available}
	}

	return size, nil
}

// PutHeader appends a tag and a little-endian size to dst
func PutHeader(dst []byte, tag Tag, size uint32) []byte {
	dst = append(dst, tag[:]...)
	return binary.LittleEndian.AppendUint32(dst, size)
}
