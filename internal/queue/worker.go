package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ragstack/ragserver/internal/ingest"
)

// IngestWorker handles the ingestion task types against a shared
// ingest service. Returned errors trigger asynq's retry policy.
type IngestWorker struct {
	ingest *ingest.Service
}

func NewIngestWorker(svc *ingest.Service) *IngestWorker {
	return &IngestWorker{ingest: svc}
}

// Mux returns the task router for the asynq server.
func (w *IngestWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeIngestFile, w.handleIngestFile)
	mux.HandleFunc(TypeIngestURL, w.handleIngestURL)
	return mux
}

func (w *IngestWorker) handleIngestFile(ctx context.Context, t *asynq.Task) error {
	var payload IngestFilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	slog.Info("ingesting file", "path", payload.Path, "filename", payload.Filename)

	res, err := w.ingest.IngestFile(ctx, payload.Path)
	if err != nil {
		slog.Error("file ingestion failed", "path", payload.Path, "error", err)
		return fmt.Errorf("ingest file %s: %w", payload.Path, err)
	}

	slog.Info("file ingestion complete", "path", payload.Path, "chunks", res.Chunks)
	return nil
}

func (w *IngestWorker) handleIngestURL(ctx context.Context, t *asynq.Task) error {
	var payload IngestURLPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	slog.Info("ingesting url", "url", payload.URL)

	res, err := w.ingest.IngestURL(ctx, payload.URL, payload.Title)
	if err != nil {
		slog.Error("url ingestion failed", "url", payload.URL, "error", err)
		return fmt.Errorf("ingest url %s: %w", payload.URL, err)
	}

	slog.Info("url ingestion complete", "url", payload.URL, "chunks", res.Chunks)
	return nil
}
