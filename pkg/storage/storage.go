// Package storage archives binary containers in a pebble key-value store.
// Every document is kept under doc/<id> with its metadata under meta/<id>,
// where <id> is a KSUID so listings come back in creation order.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/chim/pkg/chunk"
	"github.com/ssargent/chim/pkg/logging"
)

const (
	docPrefix  = "doc/"
	metaPrefix = "meta/"
)

var (
	// ErrNotFound indicates an unknown document ID
	ErrNotFound = errors.New("storage: document not found")
	// ErrInvalidID indicates a document ID that is not a KSUID
	ErrInvalidID = errors.New("storage: invalid document id")
)

// Metadata describes an archived document
type Metadata struct {
	ID        string    `json:"id"`
	Size      int       `json:"size"`
	Records   int       `json:"records"`
	Blake3    string    `json:"blake3"`
	CreatedAt time.Time `json:"created_at"`
}

// Options configures an Archive
type Options struct {
	// FS overrides the filesystem, e.g. vfs.NewMem() in tests
	FS vfs.FS
	// Logger receives pebble's internal logging at debug level
	Logger *log.Logger
	// MaxDocumentSize rejects larger documents when positive
	MaxDocumentSize int64
}

// Archive stores validated binary containers
type Archive struct {
	db      *pebble.DB
	logger  *log.Logger
	maxSize int64
}

// NewArchive opens or creates an archive at path
func NewArchive(path string, opts Options) (*Archive, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	db, err := pebble.Open(path, &pebble.Options{
		FS:     opts.FS,
		Logger: pebbleLogger{logger.WithPrefix("pebble")},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive at %s: %w", path, err)
	}

	return &Archive{db: db, logger: logger, maxSize: opts.MaxDocumentSize}, nil
}

// ParseID parses the textual form of a document ID
func ParseID(text string) (ksuid.KSUID, error) {
	id, err := ksuid.Parse(text)
	if err != nil {
		return ksuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, text)
	}
	return id, nil
}

// Create validates data as a binary container and stores it under a new ID
func (a *Archive) Create(data []byte) (*Metadata, error) {
	opts := []chunk.Option{chunk.WithLogger(a.logger)}
	if a.maxSize > 0 {
		opts = append(opts, chunk.WithSizeLimit(a.maxSize))
	}
	file, err := chunk.DecodeBinary(data, opts...)
	if err != nil {
		return nil, err
	}

	id := ksuid.New()
	meta := &Metadata{
		ID:        id.String(),
		Size:      file.Len(),
		Records:   len(file.Records()),
		Blake3:    Digest(data),
		CreatedAt: id.Time().UTC(),
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	batch := a.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(docKey(id), data, nil); err != nil {
		return nil, err
	}
	if err := batch.Set(metaKey(id), encoded, nil); err != nil {
		return nil, err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return nil, fmt.Errorf("failed to store document %s: %w", id, err)
	}

	a.logger.Debug("archived document", "id", meta.ID, "size", meta.Size, "records", meta.Records)
	return meta, nil
}

// Read returns a copy of the stored container
func (a *Archive) Read(id ksuid.KSUID) ([]byte, error) {
	return a.get(docKey(id), id)
}

// Metadata returns the metadata of a stored container
func (a *Archive) Metadata(id ksuid.KSUID) (*Metadata, error) {
	raw, err := a.get(metaKey(id), id)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", id, err)
	}
	return &meta, nil
}

// List returns the metadata of every stored container, oldest first
func (a *Archive) List() ([]Metadata, error) {
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(metaPrefix),
		UpperBound: prefixEnd(metaPrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	list := []Metadata{}
	for iter.First(); iter.Valid(); iter.Next() {
		var meta Metadata
		if err := json.Unmarshal(iter.Value(), &meta); err != nil {
			return nil, fmt.Errorf("failed to decode metadata %s: %w", iter.Key(), err)
		}
		list = append(list, meta)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	return list, nil
}

// Delete removes a stored container and its metadata
func (a *Archive) Delete(id ksuid.KSUID) error {
	if _, err := a.get(metaKey(id), id); err != nil {
		return err
	}

	batch := a.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(docKey(id), nil); err != nil {
		return err
	}
	if err := batch.Delete(metaKey(id), nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	a.logger.Debug("deleted document", "id", id.String())
	return nil
}

// Close closes the underlying store
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) get(key []byte, id ksuid.KSUID) ([]byte, error) {
	value, closer, err := a.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	// value is only valid until closer is closed
	return append([]byte(nil), value...), nil
}

func docKey(id ksuid.KSUID) []byte {
	return append([]byte(docPrefix), id.String()...)
}

func metaKey(id ksuid.KSUID) []byte {
	return append([]byte(metaPrefix), id.String()...)
}

// prefixEnd returns the smallest key greater than every key with prefix
func prefixEnd(prefix string) []byte {
	end := []byte(prefix)
	end[len(end)-1]++
	return end
}

// pebbleLogger demotes pebble's informational chatter to debug
type pebbleLogger struct {
	l *log.Logger
}

func (p pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Debugf(format, args...)
}

func (p pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.l.Fatalf(format, args...)
}
