// Package api provides factory implementations for dependency injection
package api

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ssargent/chim/pkg/storage"
)

// ArchiveDir is the archive directory inside the data directory
const ArchiveDir = "archive"

// DefaultArchiveFactory is the default implementation of ArchiveFactory
type DefaultArchiveFactory struct{}

// NewArchiveFactory creates a new archive factory
func NewArchiveFactory() ArchiveFactory {
	return &DefaultArchiveFactory{}
}

// OpenArchive opens the pebble archive under dataDir
func (f *DefaultArchiveFactory) OpenArchive(dataDir string, maxDocumentSize int64, logger *log.Logger) (ArchiveCloser, error) {
	archive, err := storage.NewArchive(filepath.Join(dataDir, ArchiveDir), storage.Options{
		Logger:          logger,
		MaxDocumentSize: maxDocumentSize,
	})
	if err != nil {
		return nil, err
	}
	return archive, nil
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, archive IArchive, config ServerConfig, logger *log.Logger) error {
	return StartServer(ctx, archive, config, logger)
}
