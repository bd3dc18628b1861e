package storage

import (
	"errors"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/chim/pkg/chunk"
	"github.com/ssargent/chim/pkg/codec"
)

func newTestArchive(t *testing.T, opts Options) *Archive {
	t.Helper()
	opts.FS = vfs.NewMem()
	archive, err := NewArchive("archive", opts)
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

func container(payload []byte) []byte {
	sub := codec.PutHeader(nil, codec.MustParseTag("HEDR"), uint32(len(payload)))
	sub = append(sub, payload...)
	buf := codec.PutHeader(nil, chunk.Magic, uint32(len(sub)))
	buf = append(buf, make([]byte, codec.FlagsSize)...)
	return append(buf, sub...)
}

func TestArchive_CreateRead(t *testing.T) {
	archive := newTestArchive(t, Options{})
	data := container([]byte{1, 2, 3, 4})

	meta, err := archive.Create(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), meta.Size)
	assert.Equal(t, 1, meta.Records)
	assert.Equal(t, Digest(data), meta.Blake3)
	assert.False(t, meta.CreatedAt.IsZero())

	id, err := ParseID(meta.ID)
	require.NoError(t, err)

	got, err := archive.Read(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	stored, err := archive.Metadata(id)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, stored.ID)
	assert.Equal(t, meta.Blake3, stored.Blake3)
	assert.True(t, meta.CreatedAt.Equal(stored.CreatedAt))
}

func TestArchive_CreateRejectsInvalid(t *testing.T) {
	archive := newTestArchive(t, Options{})

	_, err := archive.Create([]byte("TES3\x05\x00\x00\x00"))
	assert.ErrorIs(t, err, codec.ErrTooShort)

	_, err = archive.Create([]byte("<CHIM/>"))
	assert.ErrorIs(t, err, chunk.ErrUnrecognizedFormat)

	list, err := archive.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestArchive_MaxDocumentSize(t *testing.T) {
	archive := newTestArchive(t, Options{MaxDocumentSize: 32})

	_, err := archive.Create(container(make([]byte, 16)))
	assert.ErrorIs(t, err, chunk.ErrTooLarge)

	_, err = archive.Create(container(make([]byte, 8)))
	assert.NoError(t, err)
}

func TestArchive_List(t *testing.T) {
	archive := newTestArchive(t, Options{})

	var ids []string
	for i := 0; i < 3; i++ {
		meta, err := archive.Create(container([]byte{byte(i)}))
		require.NoError(t, err)
		ids = append(ids, meta.ID)
	}

	list, err := archive.List()
	require.NoError(t, err)
	require.Len(t, list, 3)

	var listed []string
	for _, meta := range list {
		listed = append(listed, meta.ID)
	}
	assert.ElementsMatch(t, ids, listed)
}

func TestArchive_Delete(t *testing.T) {
	archive := newTestArchive(t, Options{})

	meta, err := archive.Create(container(nil))
	require.NoError(t, err)
	id, err := ParseID(meta.ID)
	require.NoError(t, err)

	require.NoError(t, archive.Delete(id))

	_, err = archive.Read(id)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = archive.Metadata(id)
	assert.ErrorIs(t, err, ErrNotFound)

	err = archive.Delete(id)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestArchive_NotFound(t *testing.T) {
	archive := newTestArchive(t, Options{})

	_, err := archive.Read(ksuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseID(t *testing.T) {
	id := ksuid.New()
	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("not-a-ksuid")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestDigest(t *testing.T) {
	// BLAKE3 of the empty input
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", Digest(nil))
	assert.Len(t, Digest([]byte("TES3")), 64)
	assert.NotEqual(t, Digest([]byte("a")), Digest([]byte("b")))
}
