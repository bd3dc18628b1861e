package chunk

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/ssargent/chim/pkg/codec"
	"github.com/ssargent/chim/pkg/markup"
)

// DecodeText rebuilds a binary container from its XML form. Each child of
// the root element becomes a record and each of its children a subrecord.
func DecodeText(data []byte, opts ...Option) (*File, error) {
	o := newOptions(opts)

	root, err := markup.Parse(data)
	if err != nil {
		return nil, err
	}

	b := &rebuilder{logger: o.logger, limit: o.limit}
	f := &File{format: FormatText}
	for i, el := range root.Children() {
		start := len(b.buf)
		rec, err := b.record(el, uint32(start))
		if err != nil {
			return nil, &ChunkError{
				Kind:   KindRecord,
				Index:  i,
				Offset: start,
				Tag:    el.Name(),
				Err:    err,
			}
		}
		b.logger.Debug("rebuilt record", "index", i, "tag", el.Name(), "offset", start, "size", rec.Size, "subrecords", len(rec.Subrecords))
		f.records = append(f.records, rec)
	}
	f.data = b.buf

	return f, nil
}

// rebuilder appends chunks to a fresh output buffer
type rebuilder struct {
	buf    []byte
	logger *log.Logger
	limit  uint64
}

func (b *rebuilder) reserve(n uint64) error {
	if uint64(len(b.buf))+n > b.limit {
		return fmt.Errorf("%w: %d bytes exceed limit %d", ErrTooLarge, uint64(len(b.buf))+n, b.limit)
	}
	return nil
}

func (b *rebuilder) record(el *markup.Element, start uint32) (Record, error) {
	tag, size, err := elementHeader(el)
	if err != nil {
		return Record{}, err
	}

	var flags [codec.FlagsSize]byte
	if text, ok := el.Attr("flags"); ok {
		decoded, err := codec.DecodeHex(text)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %w", ErrInvalidFlags, err)
		}
		if len(decoded) != codec.FlagsSize {
			return Record{}, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidFlags, len(decoded), codec.FlagsSize)
		}
		copy(flags[:], decoded)
	}

	if err := b.reserve(uint64(codec.RecordHeaderSize) + uint64(size)); err != nil {
		return Record{}, err
	}
	b.buf = codec.PutHeader(b.buf, tag, size)
	b.buf = append(b.buf, flags[:]...)

	var subrecords []Subrecord
	for j, child := range el.Children() {
		offset := uint32(len(b.buf)) - start
		sub, err := b.subrecord(child, offset)
		if err != nil {
			return Record{}, &ChunkError{
				Kind:   KindSubrecord,
				Index:  j,
				Offset: int(offset),
				Tag:    child.Name(),
				Err:    err,
			}
		}
		subrecords = append(subrecords, sub)
	}

	body := uint64(len(b.buf)) - uint64(start) - codec.RecordHeaderSize
	if body != uint64(size) {
		return Record{}, fmt.Errorf("%w: size %d, subrecords total %d", ErrSizeMismatch, size, body)
	}

	return Record{
		Start:      start,
		Size:       size,
		Subrecords: subrecords,
	}, nil
}

func (b *rebuilder) subrecord(el *markup.Element, offset uint32) (Subrecord, error) {
	tag, size, err := elementHeader(el)
	if err != nil {
		return Subrecord{}, err
	}
	if len(el.Children()) > 0 {
		return Subrecord{}, ErrNestedElement
	}

	payload, err := codec.DecodeHex(el.Text())
	if err != nil {
		return Subrecord{}, err
	}
	if len(payload) != 0 && uint64(len(payload)) != uint64(size) {
		return Subrecord{}, fmt.Errorf("%w: size %d, payload %d bytes", ErrPayloadSize, size, len(payload))
	}

	if err := b.reserve(uint64(codec.SubrecordHeaderSize) + uint64(size)); err != nil {
		return Subrecord{}, err
	}
	b.buf = codec.PutHeader(b.buf, tag, size)
	if len(payload) == 0 {
		b.buf = append(b.buf, make([]byte, size)...)
	} else {
		b.buf = append(b.buf, payload...)
	}

	return Subrecord{Start: offset, Size: size}, nil
}

// elementHeader reads the tag and the mandatory size attribute of el
func elementHeader(el *markup.Element) (codec.Tag, uint32, error) {
	tag, err := codec.ParseTag(el.Name())
	if err != nil {
		return codec.Tag{}, 0, fmt.Errorf("%w: %w", ErrUnknownTag, err)
	}

	text, ok := el.Attr("size")
	if !ok {
		return codec.Tag{}, 0, ErrMissingSize
	}
	size, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return codec.Tag{}, 0, fmt.Errorf("%w: %q", ErrInvalidSize, text)
	}

	return tag, uint32(size), nil
}
