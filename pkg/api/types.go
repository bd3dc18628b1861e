package api

import (
	"github.com/segmentio/ksuid"

	"github.com/ssargent/chim/pkg/chunk"
	"github.com/ssargent/chim/pkg/codec"
	"github.com/ssargent/chim/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// InspectResponse describes a decoded container
type InspectResponse struct {
	Summary chunk.Summary      `json:"summary"`
	Blake3  string             `json:"blake3"`
	Records []chunk.RecordInfo `json:"records"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port            int
	Bind            string
	APIKey          string
	Layout          codec.HexLayout // Hex layout of XML responses
	MaxDocumentSize int64           // Request body limit; 0 means the 4 GiB container limit
}

// IArchive defines the document archive operations used by the API
type IArchive interface {
	Create(data []byte) (*storage.Metadata, error)
	Read(id ksuid.KSUID) ([]byte, error)
	Metadata(id ksuid.KSUID) (*storage.Metadata, error)
	List() ([]storage.Metadata, error)
	Delete(id ksuid.KSUID) error
}
