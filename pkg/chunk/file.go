package chunk

import (
	"bytes"
	"fmt"
	"math"

	"github.com/charmbracelet/log"

	"github.com/ssargent/chim/pkg/codec"
	"github.com/ssargent/chim/pkg/logging"
)

// RootElement names the XML element wrapping all records
const RootElement = "CHIM"

// File owns a container buffer and the index of its records
type File struct {
	data    []byte
	records []Record
	format  Format
}

// Option configures decoding
type Option func(*options)

type options struct {
	logger *log.Logger
	limit  uint64
}

// WithLogger sets the logger used for per-record debug output
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSizeLimit caps the size of the binary container, whether read or rebuilt.
// Values outside (0, 4 GiB) leave the 32-bit offset limit in place.
func WithSizeLimit(limit int64) Option {
	return func(o *options) {
		if limit > 0 && limit < math.MaxUint32 {
			o.limit = uint64(limit)
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: logging.Discard(),
		limit:  math.MaxUint32,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decode detects the form of data and decodes it. Binary input is indexed in
// place and retained by the File; the caller must not modify it afterwards.
func Decode(data []byte, opts ...Option) (*File, error) {
	switch Detect(data) {
	case FormatBinary:
		return DecodeBinary(data, opts...)
	case FormatText:
		return DecodeText(data, opts...)
	default:
		return nil, &FormatError{Lead: leadBytes(data)}
	}
}

// DecodeBinary indexes a binary container. Records are read from offset 0
// until the running offset equals the buffer length exactly.
func DecodeBinary(data []byte, opts ...Option) (*File, error) {
	o := newOptions(opts)

	if uint64(len(data)) > o.limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), o.limit)
	}
	if len(data) >= codec.TagSize && !bytes.HasPrefix(data, Magic[:]) {
		return nil, &FormatError{Lead: leadBytes(data)}
	}

	f := &File{data: data, format: FormatBinary}
	for offset := 0; offset < len(data) || len(f.records) == 0; {
		rec, err := newRecord(data[offset:], uint32(offset))
		if err != nil {
			return nil, &ChunkError{
				Kind:   KindRecord,
				Index:  len(f.records),
				Offset: offset,
				Err:    err,
			}
		}
		o.logger.Debug("indexed record", "index", len(f.records), "tag", rec.Tag(data), "offset", offset, "size", rec.Size)
		offset = int(rec.End())
		f.records = append(f.records, rec)
	}

	return f, nil
}

// Bytes returns the binary form of the container. The slice is owned by the
// File and must not be modified.
func (f *File) Bytes() []byte {
	return f.data
}

// Len returns the length of the binary form in bytes
func (f *File) Len() int {
	return len(f.data)
}

// Records returns the record index in buffer order
func (f *File) Records() []Record {
	return f.records
}

// RecordWindow returns the bytes of rec, header included
func (f *File) RecordWindow(rec Record) []byte {
	return rec.Window(f.data)
}

// Format reports which representation the File was decoded from
func (f *File) Format() Format {
	return f.format
}
