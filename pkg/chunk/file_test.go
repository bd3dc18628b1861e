package chunk

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/chim/pkg/codec"
)

// record frames a record with the given subrecord bodies
func record(tag string, flags [8]byte, subs ...[]byte) []byte {
	var body []byte
	for _, s := range subs {
		body = append(body, s...)
	}
	buf := codec.PutHeader(nil, codec.MustParseTag(tag), uint32(len(body)))
	buf = append(buf, flags[:]...)
	return append(buf, body...)
}

// subrecord frames a subrecord around payload
func subrecord(tag string, payload []byte) []byte {
	buf := codec.PutHeader(nil, codec.MustParseTag(tag), uint32(len(payload)))
	return append(buf, payload...)
}

func TestDecodeBinary_EmptyHeaderRecord(t *testing.T) {
	data := record("TES3", [8]byte{})
	require.Len(t, data, 16)

	f, err := DecodeBinary(data)
	require.NoError(t, err)

	records := f.Records()
	require.Len(t, records, 1)
	assert.Equal(t, uint32(0), records[0].Start)
	assert.Equal(t, uint32(0), records[0].Size)
	assert.Empty(t, records[0].Subrecords)
	assert.Equal(t, "TES3", records[0].Tag(f.Bytes()).String())
	assert.Equal(t, FormatBinary, f.Format())
}

func TestDecodeBinary_TwoRecords(t *testing.T) {
	data := append(record("TES3", [8]byte{}), record("NPC_", [8]byte{})...)

	f, err := DecodeBinary(data)
	require.NoError(t, err)

	records := f.Records()
	require.Len(t, records, 2)
	assert.Equal(t, uint32(0), records[0].Start)
	assert.Equal(t, uint32(16), records[1].Start)
	assert.Equal(t, "NPC_", records[1].Tag(f.Bytes()).String())
}

func TestDecodeBinary_Subrecords(t *testing.T) {
	data := append(
		record("TES3", [8]byte{}, subrecord("HEDR", []byte{1, 2, 3, 4}), subrecord("MAST", []byte("Morrowind.esm\x00"))),
		record("CELL", [8]byte{0, 0, 0, 0, 0, 0x20, 0, 0}, subrecord("NAME", nil))...,
	)

	f, err := DecodeBinary(data)
	require.NoError(t, err)
	require.Len(t, f.Records(), 2)

	var total uint32
	for _, rec := range f.Records() {
		total += rec.Len()

		var body uint32
		for _, sub := range rec.Subrecords {
			body += sub.Len()
		}
		assert.Equal(t, rec.Size, body)
	}
	assert.Equal(t, uint32(len(data)), total)

	tes3 := f.Records()[0]
	window := f.RecordWindow(tes3)
	require.Len(t, tes3.Subrecords, 2)
	assert.Equal(t, uint32(16), tes3.Subrecords[0].Start)
	assert.Equal(t, uint32(28), tes3.Subrecords[1].Start)
	assert.Equal(t, "HEDR", tes3.Subrecords[0].Tag(window).String())
	assert.Equal(t, []byte{1, 2, 3, 4}, tes3.Subrecords[0].Payload(window))
	assert.Equal(t, "MAST", tes3.Subrecords[1].Tag(window).String())
	assert.False(t, tes3.HasFlags(f.Bytes()))

	cell := f.Records()[1]
	assert.True(t, cell.HasFlags(f.Bytes()))
	assert.Equal(t, [8]byte{0, 0, 0, 0, 0, 0x20, 0, 0}, cell.Flags(f.Bytes()))
	require.Len(t, cell.Subrecords, 1)
	assert.Empty(t, cell.Subrecords[0].Payload(f.RecordWindow(cell)))
}

func TestDecodeBinary_RecordSizeOverflow(t *testing.T) {
	data := record("TES3", [8]byte{}, subrecord("HEDR", []byte{1, 2, 3}))
	// declare 5 bytes more than the buffer holds
	codec.PutHeader(data[:0], Magic, uint32(len(data)-16+5))

	_, err := DecodeBinary(data)
	require.Error(t, err)

	var overflow *codec.SizeOverflowError
	require.True(t, errors.As(err, &overflow))
	assert.Equal(t, uint32(len(data)-16+5), overflow.Declared)
	assert.Equal(t, uint32(len(data)-16), overflow.Available)
	assert.ErrorIs(t, err, codec.ErrSizeOverflow)

	var chunkErr *ChunkError
	require.True(t, errors.As(err, &chunkErr))
	assert.Equal(t, KindRecord, chunkErr.Kind)
	assert.Equal(t, 0, chunkErr.Index)
	assert.Equal(t, 0, chunkErr.Offset)
}

func TestDecodeBinary_SubrecordOverflowStaysInRecord(t *testing.T) {
	// the subrecord fits the buffer but not its record
	data := append(record("TES3", [8]byte{}, subrecord("HEDR", []byte{1, 2, 3, 4})), record("CELL", [8]byte{})...)
	codec.PutHeader(data[16:16], codec.MustParseTag("HEDR"), 8)

	_, err := DecodeBinary(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, codec.ErrSizeOverflow)
	assert.Equal(t, "record 0 at offset 0: subrecord 0 at offset 16: size (8) larger than remaining bytes (4)", err.Error())
}

func TestDecodeBinary_TooShort(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"tag only", []byte("TES3")},
		{"fifteen bytes", record("TES3", [8]byte{})[:15]},
		{"trailing bytes", append(record("TES3", [8]byte{}), 'X', 'Y')},
		{"short subrecord", record("TES3", [8]byte{}, []byte{'H', 'E', 'D', 'R', 0})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBinary(tc.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, codec.ErrTooShort)
		})
	}
}

func TestDecodeBinary_ExactFit(t *testing.T) {
	data := record("TES3", [8]byte{}, subrecord("DATA", bytes.Repeat([]byte{0xAB}, 32)))

	f, err := DecodeBinary(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(data)), f.Records()[0].End())

	// one byte more than available
	codec.PutHeader(data[16:16], codec.MustParseTag("DATA"), 33)
	_, err = DecodeBinary(data)
	assert.ErrorIs(t, err, codec.ErrSizeOverflow)
}

func TestDecodeBinary_RequiresMagic(t *testing.T) {
	_, err := DecodeBinary(record("CELL", [8]byte{}))
	require.Error(t, err)

	var formatErr *FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, []byte("CELL"), formatErr.Lead)
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestDecodeBinary_SizeLimit(t *testing.T) {
	data := record("TES3", [8]byte{}, subrecord("DATA", make([]byte, 64)))

	_, err := DecodeBinary(data, WithSizeLimit(32))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = DecodeBinary(data, WithSizeLimit(int64(len(data))))
	assert.NoError(t, err)

	// out of range limits are ignored
	_, err = DecodeBinary(data, WithSizeLimit(-1))
	assert.NoError(t, err)
}

func TestDecode_Dispatch(t *testing.T) {
	binary := record("TES3", [8]byte{}, subrecord("HEDR", []byte{1}))

	f, err := Decode(binary)
	require.NoError(t, err)
	assert.Equal(t, FormatBinary, f.Format())

	text, err := f.MarshalText()
	require.NoError(t, err)

	g, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, FormatText, g.Format())
	assert.Equal(t, binary, g.Bytes())

	_, err = Decode([]byte("GRUP"))
	var formatErr *FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, `unrecognized format: unexpected initial bytes "GRUP"`, err.Error())

	_, err = Decode([]byte{0x01, 0x02, 'a', 'b', 0xFF})
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, `unrecognized format: unexpected initial bytes "01026162"`, err.Error())

	_, err = Decode([]byte{0x00, 'x'})
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, `unrecognized format: unexpected initial bytes "0078"`, err.Error())

	_, err = Decode(nil)
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "unrecognized format: empty input", err.Error())
}

func TestDetect(t *testing.T) {
	testCases := []struct {
		name string
		data string
		want Format
	}{
		{"binary", "TES3\x00\x00\x00\x00", FormatBinary},
		{"xml declaration", `<?xml version="1.0"?><CHIM/>`, FormatText},
		{"leading whitespace", "\n\t <CHIM/>", FormatText},
		{"empty", "", FormatUnknown},
		{"whitespace only", "  \n", FormatUnknown},
		{"other", "TES4", FormatUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Detect([]byte(tc.data)))
		})
	}

	assert.Equal(t, "binary", FormatBinary.String())
	assert.Equal(t, "text", FormatText.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}
