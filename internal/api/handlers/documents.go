package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ragstack/ragserver/internal/engine"
	"github.com/ragstack/ragserver/internal/loader"
	"github.com/ragstack/ragserver/internal/queue"
)

// Enqueuer is the slice of the queue client the upload handlers need.
type Enqueuer interface {
	EnqueueIngestFile(payload queue.IngestFilePayload) error
	EnqueueIngestURL(payload queue.IngestURLPayload) error
}

type DocumentHandler struct {
	engine    *engine.Engine
	loader    *loader.Loader
	enqueuer  Enqueuer
	uploadDir string
	maxSize   int64
}

func NewDocumentHandler(e *engine.Engine, l *loader.Loader, q Enqueuer, uploadDir string, maxSize int64) *DocumentHandler {
	return &DocumentHandler{
		engine:    e,
		loader:    l,
		enqueuer:  q,
		uploadDir: uploadDir,
		maxSize:   maxSize,
	}
}

type fileStatus struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Upload accepts a multipart batch under the "files" field, saves each
// supported file to the upload dir and enqueues its ingestion. A bad
// file never aborts the batch.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, "create upload dir: "+err.Error())
		return
	}

	statuses := make([]fileStatus, 0, len(files))
	for _, header := range files {
		statuses = append(statuses, h.acceptFile(header))
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "in_progress",
		"files":  statuses,
	})
}

func (h *DocumentHandler) acceptFile(header *multipart.FileHeader) fileStatus {
	name := header.Filename

	if !h.loader.Supported(name) {
		return fileStatus{Filename: name, Status: "unsupported",
			Error: fmt.Sprintf("unsupported file format %s", filepath.Ext(name))}
	}

	src, err := header.Open()
	if err != nil {
		return fileStatus{Filename: name, Status: "failed", Error: err.Error()}
	}
	defer src.Close()

	// Unique prefix so repeated uploads of the same filename coexist.
	dstPath := filepath.Join(h.uploadDir, uuid.NewString()[:8]+"_"+filepath.Base(name))
	dst, err := os.Create(dstPath)
	if err != nil {
		return fileStatus{Filename: name, Status: "failed", Error: err.Error()}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return fileStatus{Filename: name, Status: "failed", Error: err.Error()}
	}

	if err := h.enqueuer.EnqueueIngestFile(queue.IngestFilePayload{
		Path:     dstPath,
		Filename: name,
	}); err != nil {
		return fileStatus{Filename: name, Status: "failed", Error: "enqueue: " + err.Error()}
	}

	return fileStatus{Filename: name, Status: "queued"}
}

type urlRequest struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// AddURL enqueues ingestion of a web page.
func (h *DocumentHandler) AddURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := url.ParseRequestURI(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusBadRequest, "url must be absolute http(s)")
		return
	}

	if err := h.enqueuer.EnqueueIngestURL(queue.IngestURLPayload{
		URL:   req.URL,
		Title: req.Title,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "enqueue: "+err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "in_progress",
		"url":    req.URL,
	})
}

func (h *DocumentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *DocumentHandler) Sources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.engine.Sources(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sources": sources,
		"count":   len(sources),
	})
}

func (h *DocumentHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ClearCollection(r.Context()); err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// DeleteSource removes every chunk of one source. Deleting an unknown
// source still returns 200.
func (h *DocumentHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		writeError(w, http.StatusBadRequest, "source query parameter required")
		return
	}

	if err := h.engine.DeleteBySource(r.Context(), source); err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "source": source})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.engine.DocumentByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type updateRequest struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.engine.UpdateDocument(r.Context(), id, req.Text, req.Metadata); err != nil {
		engineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated", "id": id})
}
