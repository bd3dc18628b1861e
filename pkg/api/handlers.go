package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/ssargent/chim/pkg/chunk"
	"github.com/ssargent/chim/pkg/codec"
	"github.com/ssargent/chim/pkg/logging"
	"github.com/ssargent/chim/pkg/source"
	"github.com/ssargent/chim/pkg/storage"
)

const (
	contentTypeXML    = "application/xml"
	contentTypeBinary = "application/octet-stream"

	directionToXML    = "to_xml"
	directionToBinary = "to_binary"
)

// Server holds the API server state
type Server struct {
	archive IArchive
	config  ServerConfig
	metrics *Metrics
	logger  *log.Logger
}

// NewServer creates a new API server
func NewServer(archive IArchive, config ServerConfig, metrics *Metrics, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		archive: archive,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleConvert godoc
//
//	@Summary		Convert a container
//	@Description	Convert a binary container to XML or an XML document back to binary
//	@Tags			containers
//	@Accept			octet-stream,xml
//	@Produce		octet-stream,xml
//	@Param			body		body		[]byte	true	"Container in either format"
//	@Param			row_width	query		int		false	"Bytes per hex line"
//	@Param			group_width	query		int		false	"Bytes per hex group"
//	@Success		200
//	@Failure		400	{object}	map[string]string
//	@Failure		413	{object}	map[string]string
//	@Router			/convert [post]
//	@Security		ApiKeyAuth
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	layout, err := s.layoutFromQuery(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := s.readBody(w, r)
	if err != nil {
		sendError(w, err.Error(), bodyStatus(err))
		return
	}

	direction := directionToXML
	if chunk.Detect(body) == chunk.FormatText {
		direction = directionToBinary
	}

	file, err := s.decode(body)
	if err != nil {
		s.metrics.RecordConversion(direction, false)
		sendError(w, err.Error(), decodeStatus(err))
		return
	}
	s.metrics.RecordConversion(direction, true)

	if direction == directionToBinary {
		w.Header().Set("Content-Type", contentTypeBinary)
		w.Header().Set("Content-Length", strconv.Itoa(file.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(file.Bytes())
		return
	}

	w.Header().Set("Content-Type", contentTypeXML)
	w.WriteHeader(http.StatusOK)
	if err := file.WriteText(w, layout); err != nil {
		s.logger.Error("failed to write XML response", "err", err)
	}
}

// handleInspect godoc
//
//	@Summary		Inspect a container
//	@Description	Decode a container in either format and list its records
//	@Tags			containers
//	@Accept			octet-stream,xml
//	@Produce		json
//	@Param			body	body		[]byte	true	"Container in either format"
//	@Success		200		{object}	InspectResponse
//	@Failure		400		{object}	map[string]string
//	@Router			/inspect [post]
//	@Security		ApiKeyAuth
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		sendError(w, err.Error(), bodyStatus(err))
		return
	}

	file, err := s.decode(body)
	if err != nil {
		sendError(w, err.Error(), decodeStatus(err))
		return
	}

	sendSuccess(w, InspectResponse{
		Summary: file.Summary(),
		Blake3:  storage.Digest(file.Bytes()),
		Records: file.Describe(),
	})
}

// handleCreateDocument godoc
//
//	@Summary		Archive a container
//	@Description	Validate a container and store its binary form under a new ID
//	@Tags			documents
//	@Accept			octet-stream,xml
//	@Produce		json
//	@Param			body	body		[]byte	true	"Container in either format"
//	@Success		200		{object}	storage.Metadata
//	@Failure		400		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/documents [post]
//	@Security		ApiKeyAuth
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.metrics.RecordArchiveOperation("create", false)
		sendError(w, err.Error(), bodyStatus(err))
		return
	}

	// XML uploads are archived in their binary form
	if chunk.Detect(body) == chunk.FormatText {
		file, err := s.decode(body)
		if err != nil {
			s.metrics.RecordArchiveOperation("create", false)
			sendError(w, err.Error(), decodeStatus(err))
			return
		}
		body = file.Bytes()
	}

	meta, err := s.archive.Create(body)
	if err != nil {
		s.metrics.RecordArchiveOperation("create", false)
		sendError(w, err.Error(), decodeStatus(err))
		return
	}
	s.metrics.RecordArchiveOperation("create", true)
	s.refreshDocumentCount()

	sendSuccess(w, meta)
}

// handleListDocuments godoc
//
//	@Summary		List archived containers
//	@Tags			documents
//	@Produce		json
//	@Success		200	{array}		storage.Metadata
//	@Failure		500	{object}	map[string]string
//	@Router			/documents [get]
//	@Security		ApiKeyAuth
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	list, err := s.archive.List()
	if err != nil {
		s.metrics.RecordArchiveOperation("list", false)
		sendError(w, fmt.Sprintf("Failed to list documents: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordArchiveOperation("list", true)
	sendSuccess(w, list)
}

// handleGetDocument godoc
//
//	@Summary		Fetch an archived container
//	@Tags			documents
//	@Produce		octet-stream,xml
//	@Param			id		path		string	true	"Document ID"
//	@Param			format	query		string	false	"binary (default) or xml"
//	@Success		200
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/documents/{id} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	format := r.URL.Query().Get("format")
	if format != "" && format != "binary" && format != "xml" {
		sendError(w, fmt.Sprintf("Unknown format %q", format), http.StatusBadRequest)
		return
	}

	data, err := s.archive.Read(id)
	if err != nil {
		s.metrics.RecordArchiveOperation("read", false)
		sendError(w, err.Error(), archiveStatus(err))
		return
	}
	s.metrics.RecordArchiveOperation("read", true)

	if format != "xml" {
		w.Header().Set("Content-Type", contentTypeBinary)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	file, err := chunk.DecodeBinary(data, chunk.WithLogger(s.logger))
	if err != nil {
		sendError(w, fmt.Sprintf("Archived document is corrupt: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeXML)
	w.WriteHeader(http.StatusOK)
	if err := file.WriteText(w, s.config.Layout); err != nil {
		s.logger.Error("failed to write XML response", "id", id.String(), "err", err)
	}
}

// handleGetDocumentMetadata godoc
//
//	@Summary		Describe an archived container
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	storage.Metadata
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/documents/{id}/metadata [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetDocumentMetadata(w http.ResponseWriter, r *http.Request) {
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	meta, err := s.archive.Metadata(id)
	if err != nil {
		s.metrics.RecordArchiveOperation("metadata", false)
		sendError(w, err.Error(), archiveStatus(err))
		return
	}
	s.metrics.RecordArchiveOperation("metadata", true)

	sendSuccess(w, meta)
}

// handleDeleteDocument godoc
//
//	@Summary		Delete an archived container
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document ID"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/documents/{id} [delete]
//	@Security		ApiKeyAuth
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := storage.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.archive.Delete(id); err != nil {
		s.metrics.RecordArchiveOperation("delete", false)
		sendError(w, err.Error(), archiveStatus(err))
		return
	}
	s.metrics.RecordArchiveOperation("delete", true)
	s.refreshDocumentCount()

	sendSuccess(w, map[string]string{"message": "Document deleted successfully"})
}

// readBody reads the whole request body within the configured limit
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	limit := int64(source.MaxSize)
	if s.config.MaxDocumentSize > 0 {
		limit = s.config.MaxDocumentSize
	}
	if r.ContentLength > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", chunk.ErrTooLarge, r.ContentLength, limit)
	}
	return source.Read(http.MaxBytesReader(w, r.Body, limit), r.ContentLength)
}

func (s *Server) decode(body []byte) (*chunk.File, error) {
	opts := []chunk.Option{chunk.WithLogger(s.logger)}
	if s.config.MaxDocumentSize > 0 {
		opts = append(opts, chunk.WithSizeLimit(s.config.MaxDocumentSize))
	}

	file, err := chunk.Decode(body, opts...)
	if err != nil {
		s.logger.Debug("decode failed", "bytes", len(body), "err", err)
		return nil, err
	}
	s.metrics.RecordDecode(file.Format().String(), len(body), len(file.Records()))
	return file, nil
}

// layoutFromQuery overrides the configured hex layout with row_width and group_width
func (s *Server) layoutFromQuery(r *http.Request) (codec.HexLayout, error) {
	layout := s.config.Layout
	query := r.URL.Query()
	for name, dst := range map[string]*int{"row_width": &layout.RowWidth, "group_width": &layout.GroupWidth} {
		text := query.Get(name)
		if text == "" {
			continue
		}
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			return codec.HexLayout{}, fmt.Errorf("Invalid %s %q", name, text)
		}
		*dst = n
	}
	return layout, nil
}

func (s *Server) refreshDocumentCount() {
	list, err := s.archive.List()
	if err != nil {
		s.logger.Warn("failed to count archived documents", "err", err)
		return
	}
	s.metrics.SetArchiveDocuments(len(list))
}

func bodyStatus(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) || errors.Is(err, chunk.ErrTooLarge) || errors.Is(err, source.ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func decodeStatus(err error) int {
	switch {
	case errors.Is(err, chunk.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case chunk.IsDecodeError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func archiveStatus(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
