package chunk

import (
	"bufio"
	"strconv"

	"github.com/ssargent/chim/pkg/codec"
	"github.com/ssargent/chim/pkg/markup"
)

// Subrecord is a leaf chunk inside a record
type Subrecord struct {
	Start uint32 // Offset of the header within the owning record window
	Size  uint32 // Declared payload length, excluding the header
}

// newSubrecord indexes the subrecord at the start of window. The window ends
// at the owning record's end, so a subrecord can never overrun its record.
func newSubrecord(window []byte, start uint32) (Subrecord, error) {
	size, err := codec.ValidateHeader(window, codec.SubrecordHeaderSize)
	if err != nil {
		return Subrecord{}, err
	}
	return Subrecord{Start: start, Size: size}, nil
}

// Len returns the framed length: header plus payload
func (s Subrecord) Len() uint32 {
	return codec.SubrecordHeaderSize + s.Size
}

// End returns the offset just past the subrecord within its record window
func (s Subrecord) End() uint32 {
	return s.Start + s.Len()
}

// Tag returns the subrecord tag; rec is the owning record window
func (s Subrecord) Tag(rec []byte) codec.Tag {
	return codec.TagOf(rec[s.Start:])
}

// Payload returns the payload bytes without copying; rec is the owning record window
func (s Subrecord) Payload(rec []byte) []byte {
	return rec[s.Start+codec.SubrecordHeaderSize : s.End()]
}

func (s Subrecord) writeText(w *bufio.Writer, rec []byte, layout codec.HexLayout) {
	name := markup.QualifiedName(s.Tag(rec).String())
	payload := s.Payload(rec)
	multiline := layout.RowWidth > 0 && len(payload) > layout.RowWidth

	w.WriteString("  <")
	w.WriteString(name)
	w.WriteString(` size="`)
	w.WriteString(strconv.FormatUint(uint64(s.Size), 10))
	w.WriteString(`">`)
	if multiline {
		w.WriteByte('\n')
	}
	w.Write(codec.AppendHex(w.AvailableBuffer(), payload, layout))
	if multiline {
		w.WriteString("\n  ")
	}
	w.WriteString("</")
	w.WriteString(name)
	w.WriteString(">\n")
}
