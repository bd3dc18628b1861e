// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/charmbracelet/log"
)

// ArchiveCloser is an archive that owns resources
type ArchiveCloser interface {
	IArchive

	// Close releases the underlying store
	Close() error
}

// ArchiveFactory opens document archives
type ArchiveFactory interface {
	// OpenArchive opens the archive kept under dataDir
	OpenArchive(dataDir string, maxDocumentSize int64, logger *log.Logger) (ArchiveCloser, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is cancelled
	StartServer(ctx context.Context, archive IArchive, config ServerConfig, logger *log.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
