package chunk

import (
	"bufio"
	"strconv"

	"github.com/ssargent/chim/pkg/codec"
	"github.com/ssargent/chim/pkg/markup"
)

// Record is a top-level chunk holding a sequence of subrecords
type Record struct {
	Start      uint32      // Offset of the header within the file buffer
	Size       uint32      // Declared body length, excluding the 16-byte header
	Subrecords []Subrecord // Subrecords in buffer order
}

// newRecord indexes the record at the start of window. Subrecords are read
// until the running offset lands exactly on the end of the declared body.
func newRecord(window []byte, start uint32) (Record, error) {
	size, err := codec.ValidateHeader(window, codec.RecordHeaderSize)
	if err != nil {
		return Record{}, err
	}

	end := codec.RecordHeaderSize + size
	body := window[:end]

	var subrecords []Subrecord
	for offset := uint32(codec.RecordHeaderSize); offset < end; {
		sub, err := newSubrecord(body[offset:], offset)
		if err != nil {
			return Record{}, &ChunkError{
				Kind:   KindSubrecord,
				Index:  len(subrecords),
				Offset: int(offset),
				Err:    err,
			}
		}
		offset = sub.End()
		subrecords = append(subrecords, sub)
	}

	return Record{
		Start:      start,
		Size:       size,
		Subrecords: subrecords,
	}, nil
}

// Len returns the framed length: header plus body
func (r Record) Len() uint32 {
	return codec.RecordHeaderSize + r.Size
}

// End returns the offset just past the record within the file buffer
func (r Record) End() uint32 {
	return r.Start + r.Len()
}

// Window returns the record's bytes, header included, from the file buffer
func (r Record) Window(buf []byte) []byte {
	return buf[r.Start:r.End()]
}

// Tag returns the record tag
func (r Record) Tag(buf []byte) codec.Tag {
	return codec.TagOf(buf[r.Start:])
}

// Flags returns the 8 opaque flag bytes of the record header
func (r Record) Flags(buf []byte) [codec.FlagsSize]byte {
	var flags [codec.FlagsSize]byte
	copy(flags[:], buf[r.Start+8:r.Start+codec.RecordHeaderSize])
	return flags
}

// HasFlags reports whether any flag byte is non-zero
func (r Record) HasFlags(buf []byte) bool {
	return r.Flags(buf) != [codec.FlagsSize]byte{}
}

func (r Record) writeText(w *bufio.Writer, buf []byte, layout codec.HexLayout) {
	window := r.Window(buf)
	name := markup.QualifiedName(r.Tag(buf).String())

	w.WriteByte('<')
	w.WriteString(name)
	w.WriteString(` size="`)
	w.WriteString(strconv.FormatUint(uint64(r.Size), 10))
	w.WriteByte('"')
	if r.HasFlags(buf) {
		flags := r.Flags(buf)
		w.WriteString(` flags="`)
		w.Write(codec.AppendHex(w.AvailableBuffer(), flags[:], codec.FlatHexLayout))
		w.WriteByte('"')
	}
	w.WriteString(">\n")

	for _, sub := range r.Subrecords {
		sub.writeText(w, window, layout)
	}

	w.WriteString("</")
	w.WriteString(name)
	w.WriteString(">\n")
}
