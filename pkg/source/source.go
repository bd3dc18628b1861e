// Package source loads container input fully into memory
package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// MaxSize is the largest input addressable with 32-bit offsets
const MaxSize = math.MaxUint32

var (
	// ErrShortRead indicates fewer bytes were read than the input declared
	ErrShortRead = errors.New("source: short read")
	// ErrTooLarge indicates input beyond MaxSize
	ErrTooLarge = errors.New("source: input too large")
)

// ReadFile reads the whole file at path. The stat size is only a cross-check:
// pipes and other special files report 0 and are read to EOF unchecked.
func ReadFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	data, err := Read(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Read reads r to EOF. A positive declared length must match the number of
// bytes read; 0 or -1 mean the length is not known up front.
func Read(r io.Reader, declared int64) ([]byte, error) {
	if declared > MaxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, declared)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, int64(MaxSize))
	}
	if declared > 0 && int64(len(data)) != declared {
		return nil, fmt.Errorf("%w: read %d of %d bytes", ErrShortRead, len(data), declared)
	}

	return data, nil
}
