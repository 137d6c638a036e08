// Package queue carries document ingestion off the request path as
// asynq background tasks.
package queue

const (
	TypeIngestFile = "ingest:file"
	TypeIngestURL  = "ingest:url"
)

type IngestFilePayload struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

type IngestURLPayload struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}
