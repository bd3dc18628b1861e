package chunk

import (
	"bytes"

	"github.com/ssargent/chim/pkg/codec"
)

// Format is the representation of a container buffer
type Format int

const (
	FormatUnknown Format = iota
	FormatBinary
	FormatText
)

// Magic is the tag of the header record that opens every binary container
var Magic = codec.Tag{'T', 'E', 'S', '3'}

func (f Format) String() string {
	switch f {
	case FormatBinary:
		return "binary"
	case FormatText:
		return "text"
	default:
		return "unknown"
	}
}

// Detect decides between the binary and the XML form of data
func Detect(data []byte) Format {
	if isTextStart(data) {
		return FormatText
	}
	if bytes.HasPrefix(data, Magic[:]) {
		return FormatBinary
	}
	return FormatUnknown
}

func isTextStart(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b == '<'
	}
	return false
}

func leadBytes(data []byte) []byte {
	n := min(len(data), codec.TagSize)
	return bytes.Clone(data[:n])
}
