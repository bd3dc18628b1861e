package codec

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// HexLayout controls the cosmetic whitespace of rendered hex text.
// It carries no data: DecodeHex ignores all whitespace.
type HexLayout struct {
	RowWidth   int // Bytes per line; 0 puts everything on one line
	GroupWidth int // Bytes per space-separated group; 0 disables grouping
}

// DefaultHexLayout is 32 bytes per row in groups of 4
var DefaultHexLayout = HexLayout{RowWidth: 32, GroupWidth: 4}

// FlatHexLayout renders a single unbroken run of hex digits
var FlatHexLayout = HexLayout{}

// AppendHex appends the uppercase hex rendering of data to dst
func AppendHex(dst []byte, data []byte, layout HexLayout) []byte {
	for i, b := range data {
		if i > 0 {
			w := i
			if layout.RowWidth > 0 {
				w = i % layout.RowWidth
			}
			if w == 0 {
				dst = append(dst, '\n')
			} else if layout.GroupWidth > 0 && w%layout.GroupWidth == 0 {
				dst = append(dst, ' ')
			}
		}
		dst = append(dst, upperHex[b>>4], upperHex[b&0x0F])
	}
	return dst
}

// EncodeHex renders data as uppercase hex text using layout
func EncodeHex(data []byte, layout HexLayout) string {
	return string(AppendHex(make([]byte, 0, encodedHexLen(len(data))), data, layout))
}

// DecodeHex strips all whitespace from text and decodes the remaining hex pairs
func DecodeHex(text string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	data, err := hex.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return data, nil
}

// encodedHexLen is an upper bound on the rendered length of n bytes
func encodedHexLen(n int) int {
	if n == 0 {
		return 0
	}
	return 3*n - 1
}
