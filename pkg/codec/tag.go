package codec

import "fmt"

const upperHex = "0123456789ABCDEF"

// Tag is the 4-byte identifier at the start of every chunk header
type Tag [TagSize]byte

// TagOf copies the first four bytes of window into a Tag.
// The caller guarantees len(window) >= TagSize.
func TagOf(window []byte) Tag {
	var t Tag
	copy(t[:], window[:TagSize])
	return t
}

// String renders the tag as 4 plain characters when every byte is in
// [A-Za-z0-9_.-], and as 8 uppercase hex digits otherwise.
func (t Tag) String() string {
	return FormatBytes(t[:])
}

// FormatBytes applies the tag text rule to a byte run of any length: the
// raw characters when all are tag characters, uppercase hex otherwise.
func FormatBytes(b []byte) string {
	for _, c := range b {
		if !isTagByte(c) {
			buf := make([]byte, 0, 2*len(b))
			for _, c := range b {
				buf = append(buf, upperHex[c>>4], upperHex[c&0x0F])
			}
			return string(buf)
		}
	}
	return string(b)
}

// ParseTag is the inverse of Tag.String. Four bytes of text are taken
// verbatim and must be ASCII; eight bytes are decoded as case-insensitive
// hex pairs.
func ParseTag(text string) (Tag, error) {
	var t Tag
	switch len(text) {
	case TagSize:
		for i := 0; i < TagSize; i++ {
			if text[i] >= 0x80 {
				return Tag{}, fmt.Errorf("%w: %q is not ASCII", ErrInvalidTag, text)
			}
		}
		copy(t[:], text)
		return t, nil
	case 2 * TagSize:
		for i := 0; i < TagSize; i++ {
			hi, ok1 := fromHexChar(text[2*i])
			lo, ok2 := fromHexChar(text[2*i+1])
			if !ok1 || !ok2 {
				return Tag{}, fmt.Errorf("%w: %q is not hex", ErrInvalidTag, text)
			}
			t[i] = hi<<4 | lo
		}
		return t, nil
	default:
		return Tag{}, fmt.Errorf("%w: %q has %d bytes, want 4 or 8", ErrInvalidTag, text, len(text))
	}
}

// MustParseTag is like ParseTag but panics on invalid input
func MustParseTag(text string) Tag {
	t, err := ParseTag(text)
	if err != nil {
		panic(err)
	}
	return t
}

func isTagByte(b byte) bool {
	switch {
	case 'A' <= b && b <= 'Z', 'a' <= b && b <= 'z', '0' <= b && b <= '9':
		return true
	case b == '_', b == '-', b == '.':
		return true
	}
	return false
}

func fromHexChar(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
